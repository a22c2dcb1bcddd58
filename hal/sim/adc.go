package sim

import (
	"sync"

	"github.com/delaneyj/slotparty/hal"
)

type adcUnit struct {
	irq         hal.IRQ
	initialized bool
	converting  bool
	failed      bool
	channel     uint8
	inputs      map[uint8]uint16
	value       uint16
}

// ADC simulates single-shot converters. SetInput sets what a channel reads,
// Complete finishes the conversion in flight and Fail aborts it with an error
// interrupt.
type ADC struct {
	ctrl *Controller

	mu         sync.Mutex
	units      map[hal.Handle]*adcUnit
	onComplete func(hal.Handle)
	onError    func(hal.Handle)
}

var _ hal.ADCBackend = (*ADC)(nil)

func NewADC(ctrl *Controller) *ADC {
	return &ADC{ctrl: ctrl, units: map[hal.Handle]*adcUnit{}}
}

func (a *ADC) Attach(h hal.Handle, irq hal.IRQ) {
	a.mu.Lock()
	a.units[h] = &adcUnit{irq: irq, inputs: map[uint8]uint16{}}
	a.mu.Unlock()
	a.ctrl.Bind(irq, func() { a.isr(h) })
}

func (a *ADC) isr(h hal.Handle) {
	a.mu.Lock()
	u := a.units[h]
	failed := u.failed
	u.failed = false
	cb := a.onComplete
	if failed {
		cb = a.onError
	}
	a.mu.Unlock()
	if cb != nil {
		cb(h)
	}
}

func (a *ADC) Init(h hal.Handle) hal.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.units[h]
	if !ok {
		return hal.StatusError
	}
	u.initialized = true
	return hal.StatusOK
}

func (a *ADC) Start(h hal.Handle, channel uint8) hal.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.units[h]
	if !ok || !u.initialized {
		return hal.StatusError
	}
	if u.converting {
		return hal.StatusBusy
	}
	u.converting = true
	u.channel = channel
	return hal.StatusOK
}

func (a *ADC) Value(h hal.Handle) uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if u, ok := a.units[h]; ok {
		return u.value
	}
	return 0
}

func (a *ADC) OnConversionComplete(cb func(hal.Handle)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onComplete = cb
}

func (a *ADC) OnError(cb func(hal.Handle)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onError = cb
}

// SetInput sets the raw value channel converts to.
func (a *ADC) SetInput(h hal.Handle, channel uint8, v uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if u, ok := a.units[h]; ok {
		u.inputs[channel] = v
	}
}

// Complete latches the conversion result and raises the interrupt.
func (a *ADC) Complete(h hal.Handle) bool {
	return a.finish(h, false)
}

// Fail ends the conversion in flight with an error interrupt.
func (a *ADC) Fail(h hal.Handle) bool {
	return a.finish(h, true)
}

func (a *ADC) finish(h hal.Handle, failed bool) bool {
	a.mu.Lock()
	u, ok := a.units[h]
	if !ok || !u.converting {
		a.mu.Unlock()
		return false
	}
	u.converting = false
	u.failed = failed
	if !failed {
		u.value = u.inputs[u.channel]
	}
	irq := u.irq
	a.mu.Unlock()
	a.ctrl.Raise(irq)
	return true
}
