package timebase

import (
	"fmt"

	"github.com/delaneyj/slotparty/intrusive"
	"github.com/delaneyj/slotparty/sigslot"
)

type Mode uint8

const (
	OneShot Mode = iota
	Periodic
)

func (m Mode) String() string {
	switch m {
	case OneShot:
		return "one-shot"
	case Periodic:
		return "periodic"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// SoftTimer counts down a number of time base ticks. A running timer is a
// receiver of its time base; a stopped one is not.
type SoftTimer struct {
	intrusive.Node[TickReceiver]

	tb        *TimeBase
	mode      Mode
	reload    uint64
	remaining uint64
	armedAt   uint64
	fired     uint64

	// Expired fires with the time base's tick count each time the timer runs
	// out.
	Expired sigslot.Signal[uint64]
}

func NewSoftTimer(tb *TimeBase, mode Mode) *SoftTimer {
	return &SoftTimer{tb: tb, mode: mode}
}

// Start arms the timer to expire after ticks ticks, restarting it if it is
// already running. The tick in progress, if any, does not count. Start(0)
// is rejected.
func (t *SoftTimer) Start(ticks uint64) bool {
	if ticks == 0 {
		return false
	}
	t.reload = ticks
	t.remaining = ticks
	t.armedAt = t.tb.Now()
	if !t.tb.Contains(t) {
		t.tb.Add(t)
	}
	return true
}

// Stop disarms the timer without firing Expired.
func (t *SoftTimer) Stop() {
	t.tb.Remove(t)
	t.remaining = 0
}

func (t *SoftTimer) Running() bool     { return t.tb.Contains(t) }
func (t *SoftTimer) Mode() Mode        { return t.mode }
func (t *SoftTimer) Remaining() uint64 { return t.remaining }

// Fired returns how many times the timer has expired.
func (t *SoftTimer) Fired() uint64 { return t.fired }

func (t *SoftTimer) Tick(now uint64) {
	if now <= t.armedAt {
		return
	}
	t.remaining--
	if t.remaining > 0 {
		return
	}
	if t.mode == Periodic {
		t.remaining = t.reload
	} else {
		t.tb.Remove(t)
	}
	t.fired++
	t.Expired.Emit(now)
}
