package comset

// Change describes the lowest-numbered identifier whose membership differs
// between two sets. Zero means nothing changed, +n means n arrived and -n
// means n departed.
type Change int32

// Port is the identifier that changed, without the direction.
func (c Change) Port() int {
	if c < 0 {
		return int(-c)
	}
	return int(c)
}

func (c Change) Arrived() bool {
	return c > 0
}

func (c Change) Departed() bool {
	return c < 0
}

// CompareWords finds the least significant bit that differs between prev and
// next. It returns the 1-based rank of that bit, positive when the bit is set
// in next and negative when it is only set in prev.
func CompareWords(prev, next uint32) Change {
	if prev == next {
		return 0
	}
	rank := Change(1)
	for mask := uint32(1); mask != 0; mask <<= 1 {
		if prev&mask != next&mask {
			if next&mask != 0 {
				return rank
			}
			return -rank
		}
		rank++
	}
	return 0
}

// CompareAndAdopt reports the lowest-numbered identifier that differs
// between current and incoming, then overwrites every word of current with
// incoming. Other simultaneous changes are adopted but not reported, so a
// second call with the same sets returns 0.
func CompareAndAdopt(current, incoming *Set) Change {
	var result Change
	for i := range current.words {
		if result == 0 {
			if r := CompareWords(current.words[i], incoming.words[i]); r > 0 {
				result = r + Change(wordBits*i)
			} else if r < 0 {
				result = r - Change(wordBits*i)
			}
		}
		current.words[i] = incoming.words[i]
	}
	return result
}
