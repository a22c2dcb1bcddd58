package sim

import (
	"sync"

	"github.com/delaneyj/slotparty/hal"
)

type timerUnit struct {
	irq         hal.IRQ
	initialized bool
	running     bool
	period      uint32
}

// Timer simulates a bank of periodic timers. Elapse plays the hardware side.
type Timer struct {
	ctrl *Controller

	mu        sync.Mutex
	units     map[hal.Handle]*timerUnit
	onElapsed func(hal.Handle)
}

var _ hal.TimerBackend = (*Timer)(nil)

func NewTimer(ctrl *Controller) *Timer {
	return &Timer{ctrl: ctrl, units: map[hal.Handle]*timerUnit{}}
}

// Attach wires the timer instance h to interrupt line irq.
func (t *Timer) Attach(h hal.Handle, irq hal.IRQ) {
	t.mu.Lock()
	t.units[h] = &timerUnit{irq: irq}
	t.mu.Unlock()
	t.ctrl.Bind(irq, func() {
		t.mu.Lock()
		cb := t.onElapsed
		t.mu.Unlock()
		if cb != nil {
			cb(h)
		}
	})
}

func (t *Timer) Init(h hal.Handle) hal.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.units[h]
	if !ok {
		return hal.StatusError
	}
	u.initialized = true
	return hal.StatusOK
}

func (t *Timer) Start(h hal.Handle, period uint32) hal.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.units[h]
	if !ok || !u.initialized || period == 0 {
		return hal.StatusError
	}
	if u.running {
		return hal.StatusBusy
	}
	u.running = true
	u.period = period
	return hal.StatusOK
}

func (t *Timer) Stop(h hal.Handle) hal.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.units[h]
	if !ok {
		return hal.StatusError
	}
	u.running = false
	return hal.StatusOK
}

func (t *Timer) OnPeriodElapsed(cb func(hal.Handle)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onElapsed = cb
}

// Period returns the period the instance was last started with.
func (t *Timer) Period(h hal.Handle) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if u, ok := t.units[h]; ok {
		return u.period
	}
	return 0
}

// Elapse ends one period of a running timer and raises its interrupt. It
// reports false when the timer is not running.
func (t *Timer) Elapse(h hal.Handle) bool {
	t.mu.Lock()
	u, ok := t.units[h]
	running := ok && u.running
	t.mu.Unlock()
	if !running {
		return false
	}
	t.ctrl.Raise(u.irq)
	return true
}
