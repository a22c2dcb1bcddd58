package sigslot

import (
	"fmt"

	"github.com/golang/glog"
)

// OverflowPolicy decides what SlotSet.Insert does once the set is full.
type OverflowPolicy uint8

const (
	// OverflowDrop silently discards the slot; Insert returns false.
	OverflowDrop OverflowPolicy = iota
	// OverflowPanic panics, for builds where a sizing mistake must be loud.
	OverflowPanic
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowDrop:
		return "drop"
	case OverflowPanic:
		return "panic"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", uint8(p))
	}
}

// ParseOverflowPolicy maps "drop" and "panic" to their policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "drop":
		return OverflowDrop, nil
	case "panic":
		return OverflowPanic, nil
	default:
		return OverflowDrop, fmt.Errorf("unknown overflow policy %q", s)
	}
}

type options struct {
	overflow OverflowPolicy
}

// Option configures a SlotSet or FixedSignal.
type Option func(*options)

// WithOverflow sets the policy applied when a full set is asked to insert.
func WithOverflow(p OverflowPolicy) Option {
	return func(o *options) {
		o.overflow = p
	}
}

// SlotSet is a bounded, duplicate free set of slots kept in insertion order.
// Its backing array is allocated once by NewSlotSet and never grows.
type SlotSet[A any] struct {
	slots    []SlotBase[A]
	n        int
	overflow OverflowPolicy
}

func NewSlotSet[A any](capacity int, opts ...Option) *SlotSet[A] {
	if capacity < 0 {
		panic("sigslot: negative slot set capacity")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &SlotSet[A]{
		slots:    make([]SlotBase[A], capacity),
		overflow: o.overflow,
	}
}

// Insert adds s unless an equal slot is present. It reports whether s is in
// the set afterwards; false means the set was full and s was dropped.
func (ss *SlotSet[A]) Insert(s SlotBase[A]) bool {
	if s == nil {
		return false
	}
	if ss.index(s) >= 0 {
		return true
	}
	if ss.n == len(ss.slots) {
		if ss.overflow == OverflowPanic {
			panic(fmt.Sprintf("sigslot: slot set full (capacity %d)", len(ss.slots)))
		}
		glog.Warningf("sigslot: slot set full (capacity %d), slot dropped", len(ss.slots))
		return false
	}
	ss.slots[ss.n] = s
	ss.n++
	return true
}

// Erase removes the slot equal to s and shifts the later slots down, keeping
// their relative order. It reports whether anything was removed.
func (ss *SlotSet[A]) Erase(s SlotBase[A]) bool {
	i := ss.index(s)
	if i < 0 {
		return false
	}
	copy(ss.slots[i:ss.n-1], ss.slots[i+1:ss.n])
	ss.n--
	ss.slots[ss.n] = nil
	return true
}

// Clear empties the set in O(1). The cells keep their old slots until they
// are overwritten by later inserts.
func (ss *SlotSet[A]) Clear() {
	ss.n = 0
}

func (ss *SlotSet[A]) Contains(s SlotBase[A]) bool { return ss.index(s) >= 0 }
func (ss *SlotSet[A]) Empty() bool                 { return ss.n == 0 }
func (ss *SlotSet[A]) Len() int                    { return ss.n }
func (ss *SlotSet[A]) Cap() int                    { return len(ss.slots) }

// Slots returns the live range [begin, end). The slice aliases the set and is
// only valid until the next mutation.
func (ss *SlotSet[A]) Slots() []SlotBase[A] {
	return ss.slots[:ss.n:ss.n]
}

func (ss *SlotSet[A]) index(s SlotBase[A]) int {
	if s == nil {
		return -1
	}
	id := s.id()
	for i, c := range ss.slots[:ss.n] {
		if c != nil && c.id() == id {
			return i
		}
	}
	return -1
}

// tombstone nils the cell at i without shifting, for removal during emission.
func (ss *SlotSet[A]) tombstone(i int) {
	ss.slots[i] = nil
}

// compact squeezes out tombstones left by emission-time removals.
func (ss *SlotSet[A]) compact() {
	j := 0
	for _, c := range ss.slots[:ss.n] {
		if c != nil {
			ss.slots[j] = c
			j++
		}
	}
	clear(ss.slots[j:ss.n])
	ss.n = j
}
