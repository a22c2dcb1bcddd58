package periph

import (
	"github.com/delaneyj/slotparty/hal"
	"github.com/delaneyj/slotparty/intrusive"
	"github.com/delaneyj/slotparty/registry"
	"github.com/delaneyj/slotparty/sigslot"
)

type UARTRegistry = registry.Registry[hal.Handle, *UART]

func NewUARTRegistry() *UARTRegistry {
	return registry.New[hal.Handle, *UART]("uart")
}

// InstallUARTISR routes the backend's transfer callbacks to reg.
func InstallUARTISR(b hal.UARTBackend, reg *UARTRegistry) {
	b.OnTxComplete(func(h hal.Handle) {
		reg.SystemISR(h, (*UART).txCompleteISR)
	})
	b.OnRxComplete(func(h hal.Handle, n int) {
		reg.SystemISR(h, func(u *UART) { u.rxCompleteISR(n) })
	})
	b.OnError(func(h hal.Handle) {
		reg.SystemISR(h, (*UART).errorISR)
	})
}

// UART moves data in both directions at once; each direction has its own
// busy flag.
type UART struct {
	intrusive.Node[*UART]
	driver

	backend hal.UARTBackend
	reg     *UARTRegistry
	txBusy  bool
	rxBusy  bool
	txLen   int
	rxBuf   []byte

	// WriteComplete fires with the number of bytes sent.
	WriteComplete sigslot.Signal[int]
	// DataAvailable fires with the filled part of the buffer given to Read.
	// The slice is only valid during the emission.
	DataAvailable sigslot.Signal[[]byte]
}

func NewUART(reg *UARTRegistry, b hal.UARTBackend, h hal.Handle, opts ...Option) (*UART, error) {
	u := &UART{
		driver:  newDriver(hal.ClassUART, h, opts),
		backend: b,
		reg:     reg,
	}
	if err := reg.Register(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *UART) Init() bool {
	return u.initialize(u.backend.Init)
}

// Write starts sending buf. buf must stay untouched until WriteComplete.
func (u *UART) Write(buf []byte) {
	if !u.ready() {
		return
	}
	switch {
	case u.txBusy:
		u.fail(hal.CodeIsBusy)
		return
	case buf == nil:
		u.fail(hal.CodeNullBuffer)
		return
	case len(buf) == 0:
		u.fail(hal.CodeZeroSize)
		return
	}
	u.txBusy = true
	u.txLen = len(buf)
	u.syncState()
	if st := u.backend.Transmit(u.handle, buf); st != hal.StatusOK {
		u.txBusy = false
		u.abort(hal.StatusCode(st))
	}
}

// Read posts buf for reception. DataAvailable fires once it is full.
func (u *UART) Read(buf []byte) {
	if !u.ready() {
		return
	}
	switch {
	case u.rxBusy:
		u.fail(hal.CodeIsBusy)
		return
	case buf == nil:
		u.fail(hal.CodeNullBuffer)
		return
	case len(buf) == 0:
		u.fail(hal.CodeZeroSize)
		return
	}
	u.rxBusy = true
	u.rxBuf = buf
	u.syncState()
	if st := u.backend.Receive(u.handle, buf); st != hal.StatusOK {
		u.rxBusy = false
		u.rxBuf = nil
		u.abort(hal.StatusCode(st))
	}
}

// StopReading cancels a posted Read without firing DataAvailable.
func (u *UART) StopReading() {
	if !u.rxBusy {
		return
	}
	u.backend.AbortReceive(u.handle)
	u.rxBusy = false
	u.rxBuf = nil
	u.syncState()
}

func (u *UART) IsBusyWriting() bool { return u.txBusy }
func (u *UART) IsBusyReading() bool { return u.rxBusy }

// Close cancels reception and removes the port from its registry.
func (u *UART) Close() {
	u.StopReading()
	u.reg.Unregister(u)
}

func (u *UART) syncState() {
	if u.state == StateUninitialized {
		return
	}
	if u.txBusy || u.rxBusy {
		u.state = StateBusy
	} else {
		u.state = StateIdle
	}
}

// abort reports a transfer the backend refused to start. The port only moves
// to StateError when the other direction is idle too.
func (u *UART) abort(code hal.ErrorCode) {
	if u.txBusy || u.rxBusy {
		u.syncState()
		u.fail(code)
		return
	}
	u.fault(code)
}

func (u *UART) txCompleteISR() {
	if !u.txBusy {
		return
	}
	u.txBusy = false
	u.syncState()
	u.WriteComplete.Emit(u.txLen)
}

func (u *UART) rxCompleteISR(n int) {
	if !u.rxBusy {
		return
	}
	buf := u.rxBuf[:n]
	u.rxBusy = false
	u.rxBuf = nil
	u.syncState()
	u.DataAvailable.Emit(buf)
}

func (u *UART) errorISR() {
	u.txBusy = false
	u.rxBusy = false
	u.rxBuf = nil
	u.fault(hal.CodeHALError)
}
