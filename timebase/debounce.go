package timebase

import (
	"github.com/delaneyj/slotparty/intrusive"
	"github.com/delaneyj/slotparty/sigslot"
)

// Debouncer samples a noisy input once per tick and reports a new level only
// after it has held for a number of consecutive ticks.
type Debouncer struct {
	intrusive.Node[TickReceiver]

	input  func() bool
	stable int
	level  bool
	count  int

	// Changed fires with the new level.
	Changed sigslot.Signal[bool]
}

// NewDebouncer reports a change once input has differed from the current
// level for stable ticks in a row. It panics if input is nil or stable < 1.
func NewDebouncer(input func() bool, stable int, initial bool) *Debouncer {
	if input == nil {
		panic("timebase: nil debouncer input")
	}
	if stable < 1 {
		panic("timebase: debouncer needs at least one stable tick")
	}
	return &Debouncer{input: input, stable: stable, level: initial}
}

// Level is the last debounced level.
func (d *Debouncer) Level() bool { return d.level }

func (d *Debouncer) Tick(uint64) {
	if d.input() == d.level {
		d.count = 0
		return
	}
	d.count++
	if d.count < d.stable {
		return
	}
	d.count = 0
	d.level = !d.level
	d.Changed.Emit(d.level)
}
