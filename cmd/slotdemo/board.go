package main

import (
	"fmt"
	"sort"

	"github.com/golang/glog"

	"github.com/delaneyj/slotparty/cmd/slotdemo/templates"
	"github.com/delaneyj/slotparty/config"
	"github.com/delaneyj/slotparty/critical"
	"github.com/delaneyj/slotparty/hal"
	"github.com/delaneyj/slotparty/hal/sim"
	"github.com/delaneyj/slotparty/periph"
	"github.com/delaneyj/slotparty/sigslot"
	"github.com/delaneyj/slotparty/timebase"
)

const (
	sampleEvery    = 2
	debounceTicks  = 2
	levelThreshold = 2048

	// every sample goes out on the UARTs as "cc:vvvv\n"
	frameSize = 8
)

// board is a simulated MCU built from a config.Board. ADC samples are taken
// on a soft timer, written out on every UART, looped back and hashed.
type board struct {
	cfg  config.Board
	ctrl *sim.Controller
	cs   *critical.Section

	timerHW *sim.Timer
	adcHW   *sim.ADC
	uartHW  *sim.UART
	hashHW  *sim.HashUnit

	timers *periph.TimerRegistry
	adcs   *periph.ADCRegistry
	uarts  *periph.UARTRegistry
	hashes *periph.HashRegistry

	clock   *timebase.TimeBase
	sampler *timebase.SoftTimer
	level   *timebase.Debouncer

	irqs       map[hal.Handle]hal.IRQ
	lastSample uint16
	samples    map[hal.Handle]uint64
	written    map[hal.Handle]uint64
	received   map[hal.Handle]uint64
	digests    map[hal.Handle]uint64
	edges      int
	errors     map[string]uint64
}

func newBoard(cfg config.Board) (*board, error) {
	opts, err := cfg.DriverOptions()
	if err != nil {
		return nil, err
	}

	ctrl := sim.NewController()
	b := &board{
		cfg:      cfg,
		ctrl:     ctrl,
		cs:       critical.New(ctrl),
		timerHW:  sim.NewTimer(ctrl),
		adcHW:    sim.NewADC(ctrl),
		uartHW:   sim.NewUART(ctrl),
		hashHW:   sim.NewHashUnit(ctrl),
		timers:   periph.NewTimerRegistry(),
		adcs:     periph.NewADCRegistry(),
		uarts:    periph.NewUARTRegistry(),
		hashes:   periph.NewHashRegistry(),
		clock:    timebase.New(),
		irqs:     map[hal.Handle]hal.IRQ{},
		samples:  map[hal.Handle]uint64{},
		written:  map[hal.Handle]uint64{},
		received: map[hal.Handle]uint64{},
		digests:  map[hal.Handle]uint64{},
		errors:   map[string]uint64{},
	}
	periph.InstallTimerISR(b.timerHW, b.timers)
	periph.InstallADCISR(b.adcHW, b.adcs)
	periph.InstallUARTISR(b.uartHW, b.uarts)
	periph.InstallHashISR(b.hashHW, b.hashes)

	b.cs.Do(func() {
		err = b.build(opts)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b *board) build(opts []periph.Option) error {
	// one slot watches the Error signal of every driver
	onError := sigslot.NewSlot(b, (*board).onError)

	for _, p := range b.cfg.Timers {
		h := b.attach(p)
		b.timerHW.Attach(h, hal.IRQ(p.IRQ))
		t, err := periph.NewTimer(b.timers, b.timerHW, h, opts...)
		if err != nil {
			return err
		}
		t.Error.Connect(onError)
		if t.Init() {
			t.Start(p.Period)
		}
	}
	for _, p := range b.cfg.ADCs {
		h := b.attach(p)
		b.adcHW.Attach(h, hal.IRQ(p.IRQ))
		a, err := periph.NewADC(b.adcs, b.adcHW, h, opts...)
		if err != nil {
			return err
		}
		a.Error.Connect(onError)
		port := &adcPort{board: b, handle: h}
		a.DataAvailable.Connect(sigslot.NewSlot(port, (*adcPort).onSample))
		a.Init()
	}
	for _, p := range b.cfg.UARTs {
		h := b.attach(p)
		b.uartHW.Attach(h, hal.IRQ(p.IRQ), p.Loopback)
		u, err := periph.NewUART(b.uarts, b.uartHW, h, opts...)
		if err != nil {
			return err
		}
		u.Error.Connect(onError)
		port := &uartPort{board: b, uart: u, buf: make([]byte, frameSize)}
		u.WriteComplete.Connect(sigslot.NewSlot(port, (*uartPort).onWritten))
		u.DataAvailable.Connect(sigslot.NewSlot(port, (*uartPort).onReceived))
		if u.Init() {
			u.Read(port.buf)
		}
	}
	for _, p := range b.cfg.Hashes {
		h := b.attach(p)
		b.hashHW.Attach(h, hal.IRQ(p.IRQ))
		hs, err := periph.NewHash(b.hashes, b.hashHW, h, opts...)
		if err != nil {
			return err
		}
		hs.Error.Connect(onError)
		unit := &hashPort{board: b, handle: h}
		hs.Digest.Connect(sigslot.NewSlot(unit, (*hashPort).onDigest))
		hs.Init()
	}

	if first, ok := b.firstTimer(); ok {
		b.clock.Attach(first)
	}
	b.sampler = timebase.NewSoftTimer(b.clock, timebase.Periodic)
	b.sampler.Expired.Connect(sigslot.NewSlot(b, (*board).onSampleTick))
	b.sampler.Start(sampleEvery)

	b.level = timebase.NewDebouncer(func() bool { return b.lastSample >= levelThreshold }, debounceTicks, false)
	b.level.Changed.Connect(sigslot.NewSlot(b, (*board).onEdge))
	b.clock.Add(b.level)
	return nil
}

func (b *board) attach(p config.Peripheral) hal.Handle {
	h := hal.Handle(p.Handle)
	b.irqs[h] = hal.IRQ(p.IRQ)
	return h
}

func (b *board) firstTimer() (*periph.Timer, bool) {
	for t := range b.timers.All() {
		return t, true
	}
	return nil, false
}

// run raises n timer interrupts, cycling through the timers in registration
// order, and lets the simulated hardware finish whatever the handlers
// started.
func (b *board) run(n int) {
	handles := b.timers.Handles()
	if len(handles) == 0 {
		return
	}
	for i := range n {
		h := handles[i%len(handles)]
		if !b.timerHW.Elapse(h) {
			glog.Warningf("timer %s is not running", h)
		}
		b.settle()
	}
}

// settle completes every transfer in flight, oldest stage first.
func (b *board) settle() {
	for a := range b.adcs.All() {
		b.adcHW.Complete(a.Handle())
	}
	for u := range b.uarts.All() {
		b.uartHW.CompleteTx(u.Handle())
	}
	for hs := range b.hashes.All() {
		b.hashHW.Complete(hs.Handle())
	}
}

// wave is the input the ADCs see at tick now.
func wave(now uint64) uint16 {
	return uint16((now * 397) % 4096)
}

func (b *board) onSampleTick(now uint64) {
	for a := range b.adcs.All() {
		b.adcHW.SetInput(a.Handle(), 0, wave(now))
		a.Read(0)
	}
}

type adcPort struct {
	board  *board
	handle hal.Handle
}

func (p *adcPort) onSample(s periph.ADCSample) {
	p.board.samples[p.handle]++
	p.board.lastSample = s.Value
	frame := fmt.Appendf(make([]byte, 0, frameSize), "%02d:%04d\n", s.Channel, s.Value)
	for u := range p.board.uarts.All() {
		u.Write(frame)
	}
}

func (b *board) onEdge(bool) { b.edges++ }

func (b *board) onError(e *hal.Error) {
	glog.V(1).Infof("driver error: %v", e)
	b.errors[e.Error()]++
}

type uartPort struct {
	board *board
	uart  *periph.UART
	buf   []byte
}

func (p *uartPort) onWritten(n int) {
	p.board.written[p.uart.Handle()] += uint64(n)
}

func (p *uartPort) onReceived(frame []byte) {
	p.board.received[p.uart.Handle()] += uint64(len(frame))
	data := append([]byte(nil), frame...)
	for hs := range p.board.hashes.All() {
		hs.Compute(data)
	}
	p.uart.Read(p.buf)
}

type hashPort struct {
	board  *board
	handle hal.Handle
}

func (p *hashPort) onDigest(uint64) {
	p.board.digests[p.handle]++
}

// summary collects the outcome of a run for the report.
func (b *board) summary(interrupts int) *templates.Summary {
	s := &templates.Summary{
		Board:      b.cfg.Name,
		Interrupts: interrupts,
		Delivered:  templates.Counter(b.ctrl.Delivered()),
		Spurious:   templates.Counter(b.ctrl.Spurious()),
		Now:        templates.Counter(b.clock.Now()),
		Edges:      b.edges,
	}
	for t := range b.timers.All() {
		s.Drivers = append(s.Drivers, line(t, t.State(), "%s ticks", t.Ticks()))
	}
	for a := range b.adcs.All() {
		s.Drivers = append(s.Drivers, line(a, a.State(), "%s samples", b.samples[a.Handle()]))
	}
	for u := range b.uarts.All() {
		h := u.Handle()
		s.Drivers = append(s.Drivers, line(u, u.State(), "%s bytes out, %s bytes in", b.written[h], b.received[h]))
	}
	for hs := range b.hashes.All() {
		s.Drivers = append(s.Drivers, line(hs, hs.State(), "%s digests", b.digests[hs.Handle()]))
	}

	for msg, n := range b.errors {
		s.Errors = append(s.Errors, fmt.Sprintf("%s (x%s)", msg, templates.Counter(n)))
	}
	sort.Strings(s.Errors)
	return s
}

type driverInfo interface {
	Class() hal.ClassID
	Handle() hal.Handle
}

func line(d driverInfo, st periph.State, format string, counts ...uint64) templates.DriverLine {
	args := make([]any, len(counts))
	for i, n := range counts {
		args[i] = templates.Counter(n)
	}
	return templates.DriverLine{
		Class:  d.Class().String(),
		Handle: string(d.Handle()),
		State:  st.String(),
		Detail: fmt.Sprintf(format, args...),
	}
}
