// Package registry keeps the live instances of one driver type so a single
// interrupt entry point can find the instance that owns a hardware handle.
//
// A Registry is built once during system init and handed to the drivers and
// to the interrupt glue explicitly. It is mutated while interrupts for its
// driver type are masked and only walked from interrupt context afterwards.
package registry

import (
	"errors"
	"fmt"
	"iter"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/golang/glog"

	"github.com/delaneyj/slotparty/intrusive"
)

var (
	// ErrDuplicateHandle is returned when another instance already owns the handle.
	ErrDuplicateHandle = errors.New("handle already registered")
	// ErrAlreadyLinked is returned when the instance sits in a registry already.
	ErrAlreadyLinked = errors.New("instance already registered")
)

// Device is anything bound to a hardware handle.
type Device[H comparable] interface {
	Handle() H
}

// Entry is a Device that carries its own registry link by embedding
// intrusive.Node.
type Entry[H comparable, D any] interface {
	Device[H]
	intrusive.Linker[D]
}

// Registry is an ordered set of driver instances keyed by hardware handle.
type Registry[H comparable, D Entry[H, D]] struct {
	name    string
	queue   intrusive.Queue[D]
	handles mapset.Set[H]
}

// New creates an empty registry. name only shows up in errors and logs.
func New[H comparable, D Entry[H, D]](name string) *Registry[H, D] {
	return &Registry[H, D]{
		name:    name,
		handles: mapset.NewThreadUnsafeSet[H](),
	}
}

func (r *Registry[H, D]) Name() string { return r.name }

// Register appends d. Registration order is dispatch order.
func (r *Registry[H, D]) Register(d D) error {
	h := d.Handle()
	if d.Link().Linked() {
		return fmt.Errorf("%s %v: %w", r.name, h, ErrAlreadyLinked)
	}
	if r.handles.Contains(h) {
		return fmt.Errorf("%s %v: %w", r.name, h, ErrDuplicateHandle)
	}
	r.queue.Push(d)
	r.handles.Add(h)
	if glog.V(2) {
		glog.Infof("registry %s: registered %v (%d live)", r.name, h, r.queue.Len())
	}
	return nil
}

// Unregister removes d and reports whether it was registered here.
func (r *Registry[H, D]) Unregister(d D) bool {
	if !r.queue.Erase(d) {
		return false
	}
	r.handles.Remove(d.Handle())
	glog.V(2).Infof("registry %s: unregistered %v", r.name, d.Handle())
	return true
}

// Lookup returns the instance bound to h.
func (r *Registry[H, D]) Lookup(h H) (d D, ok bool) {
	if !r.handles.Contains(h) {
		return d, false
	}
	for d := range r.queue.All() {
		if d.Handle() == h {
			return d, true
		}
	}
	return d, false
}

// SystemISR is the shared interrupt entry point: it finds the instance bound
// to h and runs isr on it. Instances bound to other handles are untouched.
// It reports whether an instance was found.
func (r *Registry[H, D]) SystemISR(h H, isr func(D)) bool {
	d, ok := r.Lookup(h)
	if !ok {
		glog.V(2).Infof("registry %s: no instance for %v", r.name, h)
		return false
	}
	isr(d)
	return true
}

// Contains reports whether h is owned by a registered instance.
func (r *Registry[H, D]) Contains(h H) bool { return r.handles.Contains(h) }

func (r *Registry[H, D]) Len() int         { return r.queue.Len() }
func (r *Registry[H, D]) Empty() bool      { return r.queue.Empty() }
func (r *Registry[H, D]) All() iter.Seq[D] { return r.queue.All() }

// Handles lists the registered handles in registration order.
func (r *Registry[H, D]) Handles() []H {
	out := make([]H, 0, r.queue.Len())
	for d := range r.queue.All() {
		out = append(out, d.Handle())
	}
	return out
}
