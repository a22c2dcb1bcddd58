// Package hal is the boundary between drivers and whatever actually moves the
// bits. A backend starts operations and reports their completion through
// callbacks keyed by Handle, the way vendor HALs call one global callback for
// every instance of a peripheral.
package hal

import "fmt"

// Handle identifies one peripheral instance, for example "TIM2".
type Handle string

// IRQ is an interrupt line number.
type IRQ uint16

// Status is the result code of a backend call.
type Status uint8

const (
	StatusOK Status = iota
	StatusError
	StatusBusy
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	case StatusBusy:
		return "busy"
	case StatusTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// TimerBackend drives periodic timers.
type TimerBackend interface {
	Init(h Handle) Status
	Start(h Handle, period uint32) Status
	Stop(h Handle) Status
	OnPeriodElapsed(cb func(Handle))
}

// ADCBackend drives single conversions.
type ADCBackend interface {
	Init(h Handle) Status
	Start(h Handle, channel uint8) Status
	Value(h Handle) uint16
	OnConversionComplete(cb func(Handle))
	OnError(cb func(Handle))
}

// UARTBackend drives interrupt based transfers. Buffers belong to the caller
// until the matching completion callback.
type UARTBackend interface {
	Init(h Handle) Status
	Transmit(h Handle, buf []byte) Status
	Receive(h Handle, buf []byte) Status
	// AbortReceive also drops a completed receive whose interrupt has not
	// been delivered yet.
	AbortReceive(h Handle) Status
	OnTxComplete(cb func(Handle))
	OnRxComplete(cb func(h Handle, n int))
	OnError(cb func(Handle))
}

// HashBackend drives a hashing unit.
type HashBackend interface {
	Init(h Handle) Status
	Start(h Handle, buf []byte) Status
	Digest(h Handle) uint64
	OnDigestReady(cb func(Handle))
}
