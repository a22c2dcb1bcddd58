package periph

import (
	"github.com/delaneyj/slotparty/hal"
	"github.com/delaneyj/slotparty/intrusive"
	"github.com/delaneyj/slotparty/registry"
	"github.com/delaneyj/slotparty/sigslot"
)

type ADCRegistry = registry.Registry[hal.Handle, *ADC]

func NewADCRegistry() *ADCRegistry {
	return registry.New[hal.Handle, *ADC]("adc")
}

// InstallADCISR routes the backend's conversion and error callbacks to reg.
func InstallADCISR(b hal.ADCBackend, reg *ADCRegistry) {
	b.OnConversionComplete(func(h hal.Handle) {
		reg.SystemISR(h, (*ADC).conversionCompleteISR)
	})
	b.OnError(func(h hal.Handle) {
		reg.SystemISR(h, (*ADC).errorISR)
	})
}

// ADCSample is one finished conversion.
type ADCSample struct {
	Channel uint8
	Value   uint16
}

// ADC runs one conversion at a time.
type ADC struct {
	intrusive.Node[*ADC]
	driver

	backend hal.ADCBackend
	reg     *ADCRegistry
	channel uint8

	// DataAvailable fires from interrupt context when a conversion finishes.
	DataAvailable sigslot.Signal[ADCSample]
}

func NewADC(reg *ADCRegistry, b hal.ADCBackend, h hal.Handle, opts ...Option) (*ADC, error) {
	a := &ADC{
		driver:  newDriver(hal.ClassADC, h, opts),
		backend: b,
		reg:     reg,
	}
	if err := reg.Register(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *ADC) Init() bool {
	return a.initialize(a.backend.Init)
}

// Read starts a conversion on channel. The result arrives on DataAvailable.
func (a *ADC) Read(channel uint8) {
	if !a.ready() {
		return
	}
	if a.state == StateBusy {
		a.fail(hal.CodeIsBusy)
		return
	}
	a.state = StateBusy
	a.channel = channel
	if st := a.backend.Start(a.handle, channel); st != hal.StatusOK {
		a.fault(hal.StatusCode(st))
	}
}

func (a *ADC) IsBusy() bool { return a.state == StateBusy }

// Close removes the converter from its registry.
func (a *ADC) Close() {
	a.reg.Unregister(a)
}

func (a *ADC) conversionCompleteISR() {
	if a.state != StateBusy {
		return
	}
	a.state = StateIdle
	a.DataAvailable.Emit(ADCSample{
		Channel: a.channel,
		Value:   a.backend.Value(a.handle),
	})
}

func (a *ADC) errorISR() {
	if a.state != StateBusy {
		return
	}
	a.fault(hal.CodeHALError)
}
