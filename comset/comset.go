// Package comset implements a fixed-capacity bitmap set of 1-based port
// numbers and the comparison used to detect which port changed between two
// observations.
package comset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	// Capacity is the highest identifier a Set can hold.
	Capacity = 256
	// WordCount is the number of 32-bit words backing a Set.
	WordCount = (Capacity + 31) / 32

	wordBits = 32
)

// ErrInvalidLength is returned by UnmarshalBinary for input that is not
// exactly WordCount*4 bytes.
var ErrInvalidLength = errors.New("comset: invalid encoded length")

// Set is a bitmap over the identifiers 1..Capacity. Word i bit j stands for
// identifier 32*i + j + 1. The zero value is an empty set.
type Set struct {
	words [WordCount]uint32
}

// New returns an empty set.
func New() Set {
	return Set{}
}

// Reset clears every identifier.
func (s *Set) Reset() {
	s.words = [WordCount]uint32{}
}

func wordIndex(id int) (int, uint32) {
	id--
	return id / wordBits, 1 << uint(id%wordBits)
}

func valid(id int) bool {
	return id >= 1 && id <= Capacity
}

// Add inserts id and reports whether it was already present. Identifiers
// outside [1, Capacity] are ignored and false is returned.
func (s *Set) Add(id int) bool {
	if !valid(id) {
		return false
	}
	idx, mask := wordIndex(id)
	present := s.words[idx]&mask != 0
	s.words[idx] |= mask
	return present
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id int) bool {
	if !valid(id) {
		return false
	}
	idx, mask := wordIndex(id)
	return s.words[idx]&mask != 0
}

// Words returns a copy of the backing words, lowest identifiers first.
func (s *Set) Words() [WordCount]uint32 {
	return s.words
}

// Members lists the identifiers in ascending order.
func (s *Set) Members() []int {
	var members []int
	for i, w := range s.words {
		for bit := 0; w != 0; bit++ {
			if w&1 != 0 {
				members = append(members, i*wordBits+bit+1)
			}
			w >>= 1
		}
	}
	return members
}

// Dump renders the words as hex, most significant first. A positive bits
// limits the output to the words needed to show that many low identifiers.
func (s *Set) Dump(bits int) string {
	top := WordCount - 1
	if bits > 0 && bits/wordBits < top {
		top = bits / wordBits
		if bits%wordBits != 0 {
			top++
		}
	}

	var sb strings.Builder
	for i := top; i >= 0; i-- {
		fmt.Fprintf(&sb, "%08x ", s.words[i])
	}
	return sb.String()
}

func (s *Set) String() string {
	return fmt.Sprint(s.Members())
}

// MarshalBinary encodes the words big-endian, lowest identifiers first.
func (s *Set) MarshalBinary() ([]byte, error) {
	out := make([]byte, WordCount*4)
	for i, w := range s.words {
		binary.BigEndian.PutUint32(out[i*4:], w)
	}
	return out, nil
}

// UnmarshalBinary decodes the output of MarshalBinary.
func (s *Set) UnmarshalBinary(data []byte) error {
	if len(data) != WordCount*4 {
		return ErrInvalidLength
	}
	for i := range s.words {
		s.words[i] = binary.BigEndian.Uint32(data[i*4:])
	}
	return nil
}
