package periph

import (
	"github.com/delaneyj/slotparty/hal"
	"github.com/delaneyj/slotparty/intrusive"
	"github.com/delaneyj/slotparty/registry"
	"github.com/delaneyj/slotparty/sigslot"
)

// TimerRegistry holds every live Timer.
type TimerRegistry = registry.Registry[hal.Handle, *Timer]

func NewTimerRegistry() *TimerRegistry {
	return registry.New[hal.Handle, *Timer]("timer")
}

// InstallTimerISR routes the backend's period elapsed callback to reg.
func InstallTimerISR(b hal.TimerBackend, reg *TimerRegistry) {
	b.OnPeriodElapsed(func(h hal.Handle) {
		TimerSystemISR(reg, h)
	})
}

// TimerSystemISR runs the period elapsed handler of the timer bound to h.
func TimerSystemISR(reg *TimerRegistry, h hal.Handle) bool {
	return reg.SystemISR(h, (*Timer).periodElapsedISR)
}

// Timer is a periodic timer. While running it is busy: Start is rejected
// until Stop.
type Timer struct {
	intrusive.Node[*Timer]
	driver

	backend hal.TimerBackend
	reg     *TimerRegistry
	period  uint32
	ticks   uint64

	// Timeout fires from interrupt context once per period with the running
	// tick count.
	Timeout sigslot.Signal[uint64]
}

// NewTimer binds a timer to h and registers it in reg.
func NewTimer(reg *TimerRegistry, b hal.TimerBackend, h hal.Handle, opts ...Option) (*Timer, error) {
	t := &Timer{
		driver:  newDriver(hal.ClassTimer, h, opts),
		backend: b,
		reg:     reg,
	}
	if err := reg.Register(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Init prepares the hardware. It reports success; failures also fire Error.
func (t *Timer) Init() bool {
	return t.initialize(t.backend.Init)
}

// Start runs the timer with the given period in backend ticks.
func (t *Timer) Start(period uint32) {
	if !t.ready() {
		return
	}
	if t.state == StateBusy {
		t.fail(hal.CodeIsBusy)
		return
	}
	if period == 0 {
		t.fail(hal.CodeInvalidArgument)
		return
	}
	if st := t.backend.Start(t.handle, period); st != hal.StatusOK {
		t.fault(hal.StatusCode(st))
		return
	}
	t.period = period
	t.state = StateBusy
}

// Stop halts the timer. Stopping an idle timer is a no-op.
func (t *Timer) Stop() {
	if t.state != StateBusy {
		return
	}
	if st := t.backend.Stop(t.handle); st != hal.StatusOK {
		t.fault(hal.StatusCode(st))
		return
	}
	t.state = StateIdle
}

// Close stops the timer and removes it from its registry.
func (t *Timer) Close() {
	t.Stop()
	t.reg.Unregister(t)
}

func (t *Timer) Running() bool  { return t.state == StateBusy }
func (t *Timer) Period() uint32 { return t.period }
func (t *Timer) Ticks() uint64  { return t.ticks }

func (t *Timer) periodElapsedISR() {
	if t.state != StateBusy {
		return
	}
	t.ticks++
	t.Timeout.Emit(t.ticks)
}
