package sigslot

import "reflect"

// identity is what two slots compare by. recv is always a pointer.
type identity struct {
	recv any
	fn   uintptr
}

// chainLink is embedded in every slot so a chain Signal can link it without
// allocating.
type chainLink[A any] struct {
	next  SlotBase[A]
	owner *Signal[A]
	seq   uint64
	dead  bool
}

// SlotBase is a callable target with a fixed argument type. Only Slot and
// StaticSlot implement it; signals are the only callers.
type SlotBase[A any] interface {
	// Equal reports whether both slots reach the same target.
	Equal(other SlotBase[A]) bool

	invoke(A)
	id() identity
	chain() *chainLink[A]
}

// Slot binds a receiver and one of its methods. The binding never changes.
type Slot[A any] struct {
	link  chainLink[A]
	ident identity
	fn    func(A)
}

// NewSlot binds method to recv. Two slots built from the same receiver and the
// same method expression are equal:
//
//	s := sigslot.NewSlot(led, (*LED).onTick)
func NewSlot[R, A any](recv *R, method func(*R, A)) *Slot[A] {
	if recv == nil || method == nil {
		panic("sigslot: nil receiver or method")
	}
	return &Slot[A]{
		ident: identity{recv: recv, fn: reflect.ValueOf(method).Pointer()},
		fn: func(a A) {
			method(recv, a)
		},
	}
}

func (s *Slot[A]) Equal(other SlotBase[A]) bool {
	return other != nil && s.ident == other.id()
}

func (s *Slot[A]) invoke(a A)           { s.fn(a) }
func (s *Slot[A]) id() identity         { return s.ident }
func (s *Slot[A]) chain() *chainLink[A] { return &s.link }

// StaticSlot wraps a plain function. Unlike Slot its target can be swapped
// with SetFunction. Function values are not comparable in Go, so a StaticSlot
// is only equal to itself.
type StaticSlot[A any] struct {
	link chainLink[A]
	fn   func(A)
}

func NewStaticSlot[A any](fn func(A)) *StaticSlot[A] {
	return &StaticSlot[A]{fn: fn}
}

// SetFunction retargets the slot. A nil function turns calls into no-ops.
func (s *StaticSlot[A]) SetFunction(fn func(A)) {
	s.fn = fn
}

func (s *StaticSlot[A]) Equal(other SlotBase[A]) bool {
	return other != nil && s.id() == other.id()
}

func (s *StaticSlot[A]) invoke(a A) {
	if s.fn != nil {
		s.fn(a)
	}
}

func (s *StaticSlot[A]) id() identity         { return identity{recv: s} }
func (s *StaticSlot[A]) chain() *chainLink[A] { return &s.link }
