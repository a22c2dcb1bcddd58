// Package periph holds the peripheral drivers. Every driver registers itself
// in a registry of its type when constructed; one Install function per type
// hooks the backend's shared completion callback to that registry, so an
// interrupt reaches exactly the instance that owns the handle.
//
// Requests never block. A request that cannot start fires the driver's Error
// signal with a (class, code) pair; in particular a request made while the
// matching operation is still running is rejected with hal.CodeIsBusy, and the
// caller retries after the completion signal.
package periph

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/delaneyj/slotparty/hal"
	"github.com/delaneyj/slotparty/sigslot"
)

// State is the life cycle of a driver instance.
type State uint8

const (
	StateUninitialized State = iota
	StateIdle
	StateBusy
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// DefaultErrorFanOut is how many slots an Error signal accepts by default.
const DefaultErrorFanOut = 4

type options struct {
	errorFanOut int
	overflow    sigslot.OverflowPolicy
}

// Option configures a driver.
type Option func(*options)

// WithErrorFanOut sets the capacity of the driver's Error signal.
func WithErrorFanOut(n int) Option {
	return func(o *options) {
		o.errorFanOut = n
	}
}

// WithOverflow sets what happens when too many slots connect to Error.
func WithOverflow(p sigslot.OverflowPolicy) Option {
	return func(o *options) {
		o.overflow = p
	}
}

// driver carries what every peripheral driver shares. Error is a FixedSignal
// so one handler slot can watch many drivers.
type driver struct {
	class  hal.ClassID
	handle hal.Handle
	state  State

	// Error fires with the reason a request failed or a transfer aborted.
	Error *sigslot.FixedSignal[*hal.Error]
}

func newDriver(class hal.ClassID, h hal.Handle, opts []Option) driver {
	o := options{errorFanOut: DefaultErrorFanOut}
	for _, opt := range opts {
		opt(&o)
	}
	return driver{
		class:  class,
		handle: h,
		Error:  sigslot.NewFixedSignal[*hal.Error](o.errorFanOut, sigslot.WithOverflow(o.overflow)),
	}
}

// Handle is the hardware instance the driver is bound to.
func (d *driver) Handle() hal.Handle { return d.handle }

// Class is the peripheral type, as reported in errors.
func (d *driver) Class() hal.ClassID { return d.class }

// State reports where the driver is in its life cycle.
func (d *driver) State() State { return d.state }

func (d *driver) String() string { return fmt.Sprintf("%s %s", d.class, d.handle) }

// fail reports a rejected request. The state is left alone.
func (d *driver) fail(code hal.ErrorCode) {
	err := hal.NewError(d.class, code, d.handle)
	glog.V(1).Infof("%v", err)
	d.Error.Emit(err)
}

// fault reports a failed operation and moves the driver to StateError.
func (d *driver) fault(code hal.ErrorCode) {
	d.state = StateError
	d.fail(code)
}

// ready reports whether a request may start, firing Error if not.
func (d *driver) ready() bool {
	if d.state == StateUninitialized {
		d.fail(hal.CodeNotInitialized)
		return false
	}
	return true
}

// initialize runs the backend init and moves to StateIdle on success. On
// failure the driver stays uninitialized.
func (d *driver) initialize(init func(hal.Handle) hal.Status) bool {
	if st := init(d.handle); st != hal.StatusOK {
		d.fail(hal.StatusCode(st))
		return false
	}
	d.state = StateIdle
	return true
}
