// Package timebase turns the periods of one hardware timer into a shared
// tick count and hands every tick to a list of receivers. Receivers carry
// their own list links, so adding one never allocates.
//
// Everything here runs from the timer's interrupt context. Foreground code
// that adds or removes receivers while the timer is running does so inside a
// critical.Section.
package timebase

import (
	"github.com/golang/glog"

	"github.com/delaneyj/slotparty/intrusive"
	"github.com/delaneyj/slotparty/periph"
	"github.com/delaneyj/slotparty/sigslot"
)

// TickReceiver is told about every tick of the TimeBase it was added to.
// Implementations embed intrusive.Node[TickReceiver].
type TickReceiver interface {
	Link() *intrusive.Node[TickReceiver]
	Tick(now uint64)
}

type TimeBase struct {
	now       uint64
	receivers intrusive.List[TickReceiver]
	slot      *sigslot.Slot[uint64]
	source    *periph.Timer

	// Ticked fires after every receiver has seen the tick.
	Ticked sigslot.Signal[uint64]
}

func New() *TimeBase {
	tb := &TimeBase{}
	tb.slot = sigslot.NewSlot(tb, (*TimeBase).onTimeout)
	return tb
}

// Attach drives the time base from t. A time base follows one timer at a
// time; attaching again moves it.
func (tb *TimeBase) Attach(t *periph.Timer) {
	tb.Detach()
	t.Timeout.Connect(tb.slot)
	tb.source = t
	glog.V(2).Infof("timebase: attached to %v", t)
}

// Detach stops following the current timer. The tick count is kept.
func (tb *TimeBase) Detach() {
	if tb.source == nil {
		return
	}
	tb.source.Timeout.Disconnect(tb.slot)
	tb.source = nil
}

// Source returns the timer driving the time base, or nil.
func (tb *TimeBase) Source() *periph.Timer { return tb.source }

// Now returns the number of ticks seen so far.
func (tb *TimeBase) Now() uint64 { return tb.now }

// Add appends r to the receivers. It panics if r is already linked into a
// list.
func (tb *TimeBase) Add(r TickReceiver) { tb.receivers.PushBack(r) }

// Remove drops r. Receivers may be removed from within Tick, including
// ones that have not seen the current tick yet; those are skipped.
func (tb *TimeBase) Remove(r TickReceiver) bool { return tb.receivers.Erase(r) }

func (tb *TimeBase) Contains(r TickReceiver) bool { return tb.receivers.Contains(r) }

func (tb *TimeBase) Len() int { return tb.receivers.Len() }

func (tb *TimeBase) onTimeout(uint64) {
	tb.now++
	for r := range tb.receivers.All() {
		r.Tick(tb.now)
	}
	tb.Ticked.Emit(tb.now)
}
