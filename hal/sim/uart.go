package sim

import (
	"sync"

	"github.com/delaneyj/slotparty/hal"
)

type uartEvent uint8

const (
	uartTx uartEvent = 1 << iota
	uartRx
	uartErr
)

type uartUnit struct {
	irq         hal.IRQ
	initialized bool
	tx          []byte
	rx          []byte
	rxN         int
	rxDone      int // length of the last completed receive
	events      uartEvent
	wire        []byte
	loopback    bool
}

// UART simulates interrupt driven serial ports. The hardware side is
// CompleteTx, Inject and Fail. With loopback enabled every transmitted byte
// is injected back into the receiver.
type UART struct {
	ctrl *Controller

	mu      sync.Mutex
	units   map[hal.Handle]*uartUnit
	onTx    func(hal.Handle)
	onRx    func(hal.Handle, int)
	onError func(hal.Handle)
}

var _ hal.UARTBackend = (*UART)(nil)

func NewUART(ctrl *Controller) *UART {
	return &UART{ctrl: ctrl, units: map[hal.Handle]*uartUnit{}}
}

func (u *UART) Attach(h hal.Handle, irq hal.IRQ, loopback bool) {
	u.mu.Lock()
	u.units[h] = &uartUnit{irq: irq, loopback: loopback}
	u.mu.Unlock()
	u.ctrl.Bind(irq, func() { u.isr(h) })
}

func (u *UART) isr(h hal.Handle) {
	u.mu.Lock()
	p := u.units[h]
	ev := p.events
	p.events = 0
	n := p.rxDone
	onTx, onRx, onErr := u.onTx, u.onRx, u.onError
	u.mu.Unlock()

	if ev&uartErr != 0 && onErr != nil {
		onErr(h)
	}
	if ev&uartTx != 0 && onTx != nil {
		onTx(h)
	}
	if ev&uartRx != 0 && onRx != nil {
		onRx(h, n)
	}
}

func (u *UART) Init(h hal.Handle) hal.Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	p, ok := u.units[h]
	if !ok {
		return hal.StatusError
	}
	p.initialized = true
	return hal.StatusOK
}

func (u *UART) Transmit(h hal.Handle, buf []byte) hal.Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	p, ok := u.units[h]
	if !ok || !p.initialized {
		return hal.StatusError
	}
	if p.tx != nil {
		return hal.StatusBusy
	}
	p.tx = buf
	return hal.StatusOK
}

func (u *UART) Receive(h hal.Handle, buf []byte) hal.Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	p, ok := u.units[h]
	if !ok || !p.initialized {
		return hal.StatusError
	}
	if p.rx != nil {
		return hal.StatusBusy
	}
	p.rx = buf
	p.rxN = 0
	return hal.StatusOK
}

func (u *UART) AbortReceive(h hal.Handle) hal.Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	p, ok := u.units[h]
	if !ok {
		return hal.StatusError
	}
	p.rx = nil
	p.rxN = 0
	p.events &^= uartRx
	return hal.StatusOK
}

func (u *UART) OnTxComplete(cb func(hal.Handle)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onTx = cb
}

func (u *UART) OnRxComplete(cb func(hal.Handle, int)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onRx = cb
}

func (u *UART) OnError(cb func(hal.Handle)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onError = cb
}

// CompleteTx puts the pending transmit buffer on the wire and raises the
// interrupt. With loopback the bytes are also injected into the receiver.
func (u *UART) CompleteTx(h hal.Handle) bool {
	u.mu.Lock()
	p, ok := u.units[h]
	if !ok || p.tx == nil {
		u.mu.Unlock()
		return false
	}
	p.wire = append(p.wire, p.tx...)
	sent := p.tx
	p.tx = nil
	p.events |= uartTx
	if p.loopback {
		u.injectLocked(p, sent)
	}
	irq := p.irq
	u.mu.Unlock()
	u.ctrl.Raise(irq)
	return true
}

// Inject feeds bytes into the receiver. The receive completes, and the
// interrupt is raised, once the posted buffer is full. Bytes arriving with no
// receive posted are lost. It returns the number of bytes accepted.
func (u *UART) Inject(h hal.Handle, data []byte) int {
	u.mu.Lock()
	p, ok := u.units[h]
	if !ok {
		u.mu.Unlock()
		return 0
	}
	n := u.injectLocked(p, data)
	raise := p.events&uartRx != 0
	irq := p.irq
	u.mu.Unlock()
	if raise {
		u.ctrl.Raise(irq)
	}
	return n
}

func (u *UART) injectLocked(p *uartUnit, data []byte) int {
	if p.rx == nil {
		return 0
	}
	n := copy(p.rx[p.rxN:], data)
	p.rxN += n
	if p.rxN == len(p.rx) {
		p.rx = nil
		p.rxDone = p.rxN
		p.events |= uartRx
	}
	return n
}

// Fail aborts every transfer in flight and raises an error interrupt.
func (u *UART) Fail(h hal.Handle) bool {
	u.mu.Lock()
	p, ok := u.units[h]
	if !ok || (p.tx == nil && p.rx == nil) {
		u.mu.Unlock()
		return false
	}
	p.tx, p.rx, p.rxN = nil, nil, 0
	p.events |= uartErr
	irq := p.irq
	u.mu.Unlock()
	u.ctrl.Raise(irq)
	return true
}

// Wire returns everything transmitted on h so far.
func (u *UART) Wire(h hal.Handle) []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	if p, ok := u.units[h]; ok {
		return append([]byte(nil), p.wire...)
	}
	return nil
}
