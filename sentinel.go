package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/astei/comsentinel/comset"
	"github.com/pkg/errors"
	"github.com/willf/bitset"
)

// Event is the outcome of one observation cycle.
type Event struct {
	// Change is the lowest-numbered port that arrived or departed.
	Change comset.Change
	// Conflict is the lowest port seen more than once, or 0.
	Conflict int
	// Conflicts lists every port seen more than once, ascending.
	Conflicts []int
	// Ports holds every observed port, sorted, duplicates included.
	Ports []int
}

// Reportable is true when the event should reach the user.
func (e Event) Reportable() bool {
	return e.Change != 0 || e.Conflict != 0
}

// Message is the one-line notification text. A conflict takes precedence
// over an arrival or departure.
func (e Event) Message() string {
	switch {
	case e.Conflict != 0:
		return fmt.Sprintf("Conflicting COM%d", e.Conflict)
	case e.Change.Departed():
		return fmt.Sprintf("Unplugged COM%d", e.Change.Port())
	case e.Change.Arrived():
		return fmt.Sprintf("Plugged COM%d", e.Change.Port())
	}
	return ""
}

// PortListString renders the summary shown when the user asks for the
// current ports.
func PortListString(e Event) string {
	if len(e.Ports) == 0 {
		return "No available COM ports"
	}
	var sb strings.Builder
	sb.WriteString("Available COM ports:\n")
	for _, port := range e.Ports {
		fmt.Fprintf(&sb, "COM%d ", port)
	}
	if e.Conflict != 0 {
		sb.WriteString("\nConflicting ports")
	}
	return sb.String()
}

// Sentinel keeps the last adopted set of ports and turns each new
// observation into an Event. It is safe for concurrent use; each cycle runs
// under one lock.
type Sentinel struct {
	mu      sync.Mutex
	current comset.Set
	logger  *Logger
}

// Option configures a Sentinel.
type Option func(*Sentinel)

// WithLogger sets the logger used for cycle diagnostics.
func WithLogger(logger *Logger) Option {
	return func(s *Sentinel) {
		s.logger = logger
	}
}

// WithInitialSet starts the sentinel from a previously saved set.
func WithInitialSet(set comset.Set) Option {
	return func(s *Sentinel) {
		s.current = set
	}
}

func NewSentinel(opts ...Option) *Sentinel {
	s := &Sentinel{logger: NoopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns a copy of the adopted set.
func (s *Sentinel) Current() comset.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Prime adopts ports without reporting anything.
func (s *Sentinel) Prime(ports []int) Event {
	e := s.Observe(ports)
	e.Change = 0
	return e
}

// Observe builds a fresh set from ports, compares it with the adopted set
// and adopts it.
func (s *Sentinel) Observe(ports []int) Event {
	incoming := comset.New()
	var collisions *bitset.BitSet
	e := Event{Ports: sortedPorts(ports)}

	for _, port := range ports {
		if !incoming.Add(port) {
			continue
		}
		if collisions == nil {
			collisions = bitset.New(comset.Capacity + 1)
		}
		collisions.Set(uint(port))
	}
	if collisions != nil {
		for i, ok := collisions.NextSet(0); ok; i, ok = collisions.NextSet(i + 1) {
			e.Conflicts = append(e.Conflicts, int(i))
		}
		e.Conflict = e.Conflicts[0]
	}

	s.mu.Lock()
	e.Change = comset.CompareAndAdopt(&s.current, &incoming)
	s.mu.Unlock()

	if e.Reportable() {
		s.logger.Debug("ports changed", "change", int(e.Change), "conflict", e.Conflict, "ports", e.Ports)
	}
	return e
}

// Poll reads the source once and observes the result. On error the adopted
// set is left untouched.
func (s *Sentinel) Poll(ctx context.Context, source PortSource) (Event, error) {
	ports, err := source.Ports(ctx)
	if err != nil {
		return Event{}, err
	}
	return s.Observe(ports), nil
}

// Run polls source every interval and hands reportable events to notify
// until ctx is cancelled.
func (s *Sentinel) Run(ctx context.Context, source PortSource, interval time.Duration, notify func(Event) error) error {
	if interval <= 0 {
		return errors.Errorf("Sentinel.Run: interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		e, err := s.Poll(ctx, source)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("unable to read ports", "error", err)
			continue
		}
		if !e.Reportable() {
			continue
		}
		if err = notify(e); err != nil {
			return err
		}
	}
}
