package periph_test

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/slotparty/hal"
	"github.com/delaneyj/slotparty/hal/sim"
	"github.com/delaneyj/slotparty/periph"
	"github.com/delaneyj/slotparty/registry"
	"github.com/delaneyj/slotparty/sigslot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errLog struct {
	errs []*hal.Error
}

func (l *errLog) onError(e *hal.Error) { l.errs = append(l.errs, e) }

func (l *errLog) codes() []hal.ErrorCode {
	out := make([]hal.ErrorCode, len(l.errs))
	for i, e := range l.errs {
		out[i] = e.Code
	}
	return out
}

type tickLog struct {
	ticks []uint64
}

func (l *tickLog) onTimeout(n uint64) { l.ticks = append(l.ticks, n) }

type timerBench struct {
	ctrl    *sim.Controller
	backend *sim.Timer
	reg     *periph.TimerRegistry
}

func newTimerBench() *timerBench {
	ctrl := sim.NewController()
	b := &timerBench{
		ctrl:    ctrl,
		backend: sim.NewTimer(ctrl),
		reg:     periph.NewTimerRegistry(),
	}
	periph.InstallTimerISR(b.backend, b.reg)
	return b
}

func (b *timerBench) timer(t *testing.T, h hal.Handle, irq hal.IRQ) *periph.Timer {
	b.backend.Attach(h, irq)
	tm, err := periph.NewTimer(b.reg, b.backend, h)
	require.NoError(t, err)
	require.True(t, tm.Init())
	return tm
}

// three timers bound to h1..h3; an interrupt for h2 only reaches h2
func TestTimerSystemISRScenario(t *testing.T) {
	b := newTimerBench()
	handles := []hal.Handle{"h1", "h2", "h3"}
	timers := make([]*periph.Timer, len(handles))
	logs := make([]*tickLog, len(handles))
	for i, h := range handles {
		timers[i] = b.timer(t, h, hal.IRQ(10+i))
		logs[i] = &tickLog{}
		timers[i].Timeout.Connect(sigslot.NewSlot(logs[i], (*tickLog).onTimeout))
		timers[i].Start(100)
	}

	assert.True(t, periph.TimerSystemISR(b.reg, "h2"))
	assert.Empty(t, logs[0].ticks)
	assert.Equal(t, []uint64{1}, logs[1].ticks)
	assert.Empty(t, logs[2].ticks)

	// same path through the simulated interrupt line
	assert.True(t, b.backend.Elapse("h2"))
	assert.Equal(t, []uint64{1, 2}, logs[1].ticks)
	assert.Equal(t, uint64(0), timers[0].Ticks())
	assert.Equal(t, uint64(0), timers[2].Ticks())

	assert.False(t, periph.TimerSystemISR(b.reg, "h9"))
}

func TestTimerBusyAndStop(t *testing.T) {
	b := newTimerBench()
	tm := b.timer(t, "TIM2", 1)
	errs := &errLog{}
	tm.Error.Connect(sigslot.NewSlot(errs, (*errLog).onError))

	tm.Start(50)
	assert.True(t, tm.Running())
	assert.Equal(t, periph.StateBusy, tm.State())
	assert.Equal(t, uint32(50), b.backend.Period("TIM2"))

	tm.Start(60)
	assert.Equal(t, []hal.ErrorCode{hal.CodeIsBusy}, errs.codes())
	assert.Equal(t, uint32(50), tm.Period())

	tm.Stop()
	assert.False(t, tm.Running())
	assert.False(t, b.backend.Elapse("TIM2"))

	tm.Start(60)
	assert.True(t, tm.Running())
	assert.Len(t, errs.errs, 1)

	tm.Start(0)
	assert.Equal(t, hal.CodeIsBusy, errs.errs[1].Code)
	tm.Stop()
	tm.Start(0)
	assert.Equal(t, hal.CodeInvalidArgument, errs.errs[2].Code)
	assert.Equal(t, hal.ClassTimer, errs.errs[2].Class)
	assert.Equal(t, hal.Handle("TIM2"), errs.errs[2].Handle)
}

func TestTimerNotInitialized(t *testing.T) {
	b := newTimerBench()
	b.backend.Attach("TIM3", 1)
	tm, err := periph.NewTimer(b.reg, b.backend, "TIM3")
	require.NoError(t, err)
	errs := &errLog{}
	tm.Error.Connect(sigslot.NewSlot(errs, (*errLog).onError))

	assert.Equal(t, periph.StateUninitialized, tm.State())
	tm.Start(10)
	assert.Equal(t, []hal.ErrorCode{hal.CodeNotInitialized}, errs.codes())
	assert.False(t, tm.Running())
}

// a failing backend init leaves the driver uninitialized
func TestTimerInitFailure(t *testing.T) {
	b := newTimerBench()
	tm, err := periph.NewTimer(b.reg, b.backend, "NOPE")
	require.NoError(t, err)
	errs := &errLog{}
	tm.Error.Connect(sigslot.NewSlot(errs, (*errLog).onError))

	assert.False(t, tm.Init())
	assert.Equal(t, []hal.ErrorCode{hal.CodeHALError}, errs.codes())
	assert.Equal(t, periph.StateUninitialized, tm.State())
}

func TestTimerDuplicateHandleAndClose(t *testing.T) {
	b := newTimerBench()
	tm := b.timer(t, "TIM4", 1)

	_, err := periph.NewTimer(b.reg, b.backend, "TIM4")
	assert.ErrorIs(t, err, registry.ErrDuplicateHandle)

	tm.Start(5)
	tm.Close()
	assert.False(t, tm.Running())
	assert.Equal(t, 0, b.reg.Len())
	assert.False(t, periph.TimerSystemISR(b.reg, "TIM4"))

	_, err = periph.NewTimer(b.reg, b.backend, "TIM4")
	assert.NoError(t, err)
}

// one error handler slot can watch several drivers
func TestSharedErrorHandler(t *testing.T) {
	b := newTimerBench()
	t1 := b.timer(t, "TIM1", 1)
	t2 := b.timer(t, "TIM2", 2)

	errs := &errLog{}
	handler := sigslot.NewSlot(errs, (*errLog).onError)
	require.True(t, t1.Error.Connect(handler))
	require.True(t, t2.Error.Connect(handler))

	t1.Start(0)
	t2.Start(0)
	require.Len(t, errs.errs, 2)
	assert.Equal(t, hal.Handle("TIM1"), errs.errs[0].Handle)
	assert.Equal(t, hal.Handle("TIM2"), errs.errs[1].Handle)
}

func TestErrorFanOutOption(t *testing.T) {
	b := newTimerBench()
	b.backend.Attach("TIM5", 1)
	tm, err := periph.NewTimer(b.reg, b.backend, "TIM5",
		periph.WithErrorFanOut(1),
		periph.WithOverflow(sigslot.OverflowPanic),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, tm.Error.Cap())
	tm.Error.Connect(sigslot.NewStaticSlot(func(*hal.Error) {}))
	assert.Panics(t, func() {
		tm.Error.Connect(sigslot.NewStaticSlot(func(*hal.Error) {}))
	})
}

type sampleLog struct {
	samples []periph.ADCSample
}

func (l *sampleLog) onSample(s periph.ADCSample) { l.samples = append(l.samples, s) }

func TestADCReadCycle(t *testing.T) {
	ctrl := sim.NewController()
	backend := sim.NewADC(ctrl)
	reg := periph.NewADCRegistry()
	periph.InstallADCISR(backend, reg)
	backend.Attach("ADC1", 18)

	adc, err := periph.NewADC(reg, backend, "ADC1")
	require.NoError(t, err)
	require.True(t, adc.Init())

	samples := &sampleLog{}
	errs := &errLog{}
	adc.DataAvailable.Connect(sigslot.NewSlot(samples, (*sampleLog).onSample))
	adc.Error.Connect(sigslot.NewSlot(errs, (*errLog).onError))

	backend.SetInput("ADC1", 3, 1234)
	adc.Read(3)
	assert.True(t, adc.IsBusy())
	adc.Read(4)
	assert.Equal(t, []hal.ErrorCode{hal.CodeIsBusy}, errs.codes())

	assert.True(t, backend.Complete("ADC1"))
	assert.False(t, adc.IsBusy())
	assert.Equal(t, []periph.ADCSample{{Channel: 3, Value: 1234}}, samples.samples)

	adc.Read(3)
	assert.True(t, backend.Fail("ADC1"))
	assert.Equal(t, periph.StateError, adc.State())
	assert.Equal(t, hal.CodeHALError, errs.errs[1].Code)
	assert.Len(t, samples.samples, 1)

	// the driver recovers on the next request
	adc.Read(3)
	backend.Complete("ADC1")
	assert.Len(t, samples.samples, 2)
	assert.Equal(t, periph.StateIdle, adc.State())

	adc.Close()
	assert.True(t, reg.Empty())
}

type uartLog struct {
	written []int
	read    []string
}

func (l *uartLog) onWrite(n int)   { l.written = append(l.written, n) }
func (l *uartLog) onData(b []byte) { l.read = append(l.read, string(b)) }

func newUART(t *testing.T, loopback bool) (*periph.UART, *sim.UART, *uartLog, *errLog) {
	return newUARTOn(t, sim.NewController(), loopback)
}

func newUARTOn(t *testing.T, ctrl *sim.Controller, loopback bool) (*periph.UART, *sim.UART, *uartLog, *errLog) {
	backend := sim.NewUART(ctrl)
	reg := periph.NewUARTRegistry()
	periph.InstallUARTISR(backend, reg)
	backend.Attach("USART2", 38, loopback)

	u, err := periph.NewUART(reg, backend, "USART2")
	require.NoError(t, err)
	require.True(t, u.Init())

	log := &uartLog{}
	errs := &errLog{}
	u.WriteComplete.Connect(sigslot.NewSlot(log, (*uartLog).onWrite))
	u.DataAvailable.Connect(sigslot.NewSlot(log, (*uartLog).onData))
	u.Error.Connect(sigslot.NewSlot(errs, (*errLog).onError))
	return u, backend, log, errs
}

func TestUARTWriteValidation(t *testing.T) {
	u, _, _, errs := newUART(t, false)
	u.Write(nil)
	u.Write([]byte{})
	u.Read(nil)
	u.Read(make([]byte, 0))
	assert.Equal(t, []hal.ErrorCode{
		hal.CodeNullBuffer, hal.CodeZeroSize,
		hal.CodeNullBuffer, hal.CodeZeroSize,
	}, errs.codes())
	assert.Equal(t, periph.StateIdle, u.State())
}

// a second write while the first is in flight is rejected, not queued
func TestUARTWriteBusy(t *testing.T) {
	u, backend, log, errs := newUART(t, false)

	u.Write([]byte("hello"))
	assert.True(t, u.IsBusyWriting())
	assert.False(t, u.IsBusyReading())
	u.Write([]byte("again"))
	assert.Equal(t, []hal.ErrorCode{hal.CodeIsBusy}, errs.codes())

	assert.True(t, backend.CompleteTx("USART2"))
	assert.False(t, u.IsBusyWriting())
	assert.Equal(t, []int{5}, log.written)
	assert.Equal(t, "hello", string(backend.Wire("USART2")))

	u.Write([]byte("again"))
	backend.CompleteTx("USART2")
	assert.Equal(t, []int{5, 5}, log.written)
	assert.Equal(t, "helloagain", string(backend.Wire("USART2")))
}

func TestUARTLoopbackRead(t *testing.T) {
	u, backend, log, errs := newUART(t, true)

	buf := make([]byte, 4)
	u.Read(buf)
	assert.True(t, u.IsBusyReading())
	u.Read(make([]byte, 4))
	assert.Equal(t, []hal.ErrorCode{hal.CodeIsBusy}, errs.codes())

	u.Write([]byte("ping"))
	assert.Equal(t, periph.StateBusy, u.State())
	backend.CompleteTx("USART2")

	assert.Equal(t, []int{4}, log.written)
	assert.Equal(t, []string{"ping"}, log.read)
	assert.False(t, u.IsBusyReading())
	assert.Equal(t, periph.StateIdle, u.State())
}

func TestUARTStopReadingAndFail(t *testing.T) {
	u, backend, log, errs := newUART(t, false)

	u.Read(make([]byte, 2))
	u.StopReading()
	assert.False(t, u.IsBusyReading())
	assert.Equal(t, 0, backend.Inject("USART2", []byte("xy")))
	assert.Empty(t, log.read)

	u.Read(make([]byte, 2))
	assert.Equal(t, 1, backend.Inject("USART2", []byte("a")))
	assert.Empty(t, log.read)
	assert.True(t, backend.Fail("USART2"))
	assert.Equal(t, []hal.ErrorCode{hal.CodeHALError}, errs.codes())
	assert.Equal(t, periph.StateError, u.State())
	assert.False(t, u.IsBusyReading())

	u.Read(make([]byte, 2))
	backend.Inject("USART2", []byte("ok"))
	assert.Equal(t, []string{"ok"}, log.read)
	u.Close()
}

// a receive that finished while interrupts were masked is dropped by
// StopReading and does not complete the next Read
func TestUARTStopReadingDropsMaskedCompletion(t *testing.T) {
	ctrl := sim.NewController()
	u, backend, log, errs := newUARTOn(t, ctrl, false)

	u.Read(make([]byte, 2))
	ctrl.DisableIRQ()
	assert.Equal(t, 2, backend.Inject("USART2", []byte("ab")))
	assert.Equal(t, 1, ctrl.Pending())
	u.StopReading()
	u.Read(make([]byte, 3))
	ctrl.EnableIRQ()

	assert.Zero(t, ctrl.Pending())
	assert.Empty(t, log.read)
	assert.True(t, u.IsBusyReading())

	assert.Equal(t, 3, backend.Inject("USART2", []byte("xyz")))
	assert.Equal(t, []string{"xyz"}, log.read)
	assert.Empty(t, errs.errs)
}

// stubUART refuses transfers with the configured status.
type stubUART struct {
	txStatus hal.Status
	rxStatus hal.Status
}

func (s *stubUART) Init(hal.Handle) hal.Status             { return hal.StatusOK }
func (s *stubUART) Transmit(hal.Handle, []byte) hal.Status { return s.txStatus }
func (s *stubUART) Receive(hal.Handle, []byte) hal.Status  { return s.rxStatus }
func (s *stubUART) AbortReceive(hal.Handle) hal.Status     { return hal.StatusOK }
func (s *stubUART) OnTxComplete(func(hal.Handle))          {}
func (s *stubUART) OnRxComplete(func(hal.Handle, int))     {}
func (s *stubUART) OnError(func(hal.Handle))               {}

// a refused transfer in one direction leaves the other one running
func TestUARTRefusedTransferKeepsOtherDirection(t *testing.T) {
	backend := &stubUART{txStatus: hal.StatusError}
	reg := periph.NewUARTRegistry()
	periph.InstallUARTISR(backend, reg)
	u, err := periph.NewUART(reg, backend, "USART1")
	require.NoError(t, err)
	require.True(t, u.Init())
	errs := &errLog{}
	u.Error.Connect(sigslot.NewSlot(errs, (*errLog).onError))

	u.Read(make([]byte, 1))
	u.Write([]byte("x"))
	assert.Equal(t, []hal.ErrorCode{hal.CodeHALError}, errs.codes())
	assert.Equal(t, periph.StateBusy, u.State())
	assert.True(t, u.IsBusyReading())
	assert.False(t, u.IsBusyWriting())

	u.StopReading()
	assert.Equal(t, periph.StateIdle, u.State())
	u.Write([]byte("x"))
	assert.Equal(t, periph.StateError, u.State())
	assert.Len(t, errs.errs, 2)
}

// stubADC hands its error callback to the test.
type stubADC struct {
	onError func(hal.Handle)
}

func (s *stubADC) Init(hal.Handle) hal.Status            { return hal.StatusOK }
func (s *stubADC) Start(hal.Handle, uint8) hal.Status    { return hal.StatusOK }
func (s *stubADC) Value(hal.Handle) uint16               { return 0 }
func (s *stubADC) OnConversionComplete(func(hal.Handle)) {}
func (s *stubADC) OnError(cb func(hal.Handle))           { s.onError = cb }

// an error interrupt with no conversion in flight is ignored
func TestADCErrorWhileIdle(t *testing.T) {
	backend := &stubADC{}
	reg := periph.NewADCRegistry()
	periph.InstallADCISR(backend, reg)
	adc, err := periph.NewADC(reg, backend, "ADC3")
	require.NoError(t, err)
	require.True(t, adc.Init())
	errs := &errLog{}
	adc.Error.Connect(sigslot.NewSlot(errs, (*errLog).onError))

	backend.onError("ADC3")
	assert.Equal(t, periph.StateIdle, adc.State())
	assert.Empty(t, errs.errs)

	adc.Read(1)
	backend.onError("ADC3")
	assert.Equal(t, periph.StateError, adc.State())
	assert.Equal(t, []hal.ErrorCode{hal.CodeHALError}, errs.codes())
}

func TestHashDigest(t *testing.T) {
	ctrl := sim.NewController()
	backend := sim.NewHashUnit(ctrl)
	reg := periph.NewHashRegistry()
	periph.InstallHashISR(backend, reg)
	backend.Attach("HASH", 80)

	hs, err := periph.NewHash(reg, backend, "HASH")
	require.NoError(t, err)
	require.True(t, hs.Init())

	var digests []uint64
	hs.Digest.Connect(sigslot.NewStaticSlot(func(d uint64) { digests = append(digests, d) }))
	errs := &errLog{}
	hs.Error.Connect(sigslot.NewSlot(errs, (*errLog).onError))

	payload := []byte("slot party")
	hs.Compute(payload)
	hs.Compute(payload)
	hs.Compute(nil)
	assert.Equal(t, []hal.ErrorCode{hal.CodeIsBusy, hal.CodeIsBusy}, errs.codes())

	assert.True(t, backend.Complete("HASH"))
	assert.Equal(t, []uint64{xxhash.Sum64(payload)}, digests)
	assert.False(t, hs.IsBusy())

	hs.Compute(nil)
	hs.Compute([]byte{})
	assert.Equal(t, hal.CodeNullBuffer, errs.errs[2].Code)
	assert.Equal(t, hal.CodeZeroSize, errs.errs[3].Code)
	hs.Close()
	assert.True(t, reg.Empty())
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "busy", periph.StateBusy.String())
	assert.Equal(t, "State(9)", periph.State(9).String())
}
