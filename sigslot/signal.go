// Package sigslot implements synchronous signal/slot fan-out without
// allocation on connect, disconnect or emit.
//
// Every emission visits the slots that were connected when it started, in
// connection order, on the caller's goroutine. Slots connected during an
// emission are first called by the next one. Slots disconnected during an
// emission, including the one currently running, are not called again by it;
// their removal is applied when the outermost emission returns. Such a slot
// may be connected to another Signal right away.
//
// Nothing here locks. Connect, Disconnect and Clear must be serialized against
// Emit by the caller; see package critical when the emitter is an interrupt
// handler.
package sigslot

// Connector is the subscription side of a signal.
type Connector[A any] interface {
	Connect(SlotBase[A]) bool
	Disconnect(SlotBase[A]) bool
	Clear()
}

// Emitter is the firing side of a signal.
type Emitter[A any] interface {
	Emit(A)
}

// Signal keeps its slots in a chain threaded through the slots themselves, so
// it has no capacity limit. A slot can be linked into only one Signal at a
// time; use FixedSignal to share a slot between sources. The zero value is
// ready to use and must not be copied after first use.
type Signal[A any] struct {
	head, tail SlotBase[A]
	n          int
	depth      int
	seq        uint64
	dirty      bool
}

var (
	_ Connector[int] = (*Signal[int])(nil)
	_ Emitter[int]   = (*Signal[int])(nil)
)

// Connect appends s. Connecting a slot equal to one already connected is a
// no-op. It panics if s is connected to a different Signal.
func (sig *Signal[A]) Connect(s SlotBase[A]) bool {
	if s == nil {
		return false
	}
	l := s.chain()
	if l.owner == sig {
		if l.dead {
			l.dead = false
			sig.n++
		}
		return true
	}
	if l.owner != nil {
		if !l.dead {
			panic("sigslot: slot is connected to another signal")
		}
		l.owner.detach(s)
	}
	if sig.find(s) != nil {
		return true
	}
	sig.seq++
	l.owner = sig
	l.next = nil
	l.seq = sig.seq
	l.dead = false
	if sig.tail == nil {
		sig.head = s
	} else {
		sig.tail.chain().next = s
	}
	sig.tail = s
	sig.n++
	return true
}

// Disconnect removes the slot equal to s and reports whether one was found.
func (sig *Signal[A]) Disconnect(s SlotBase[A]) bool {
	if s == nil {
		return false
	}
	var prev SlotBase[A]
	id := s.id()
	for c := sig.head; c != nil; prev, c = c, c.chain().next {
		l := c.chain()
		if l.dead || c.id() != id {
			continue
		}
		sig.n--
		if sig.depth > 0 {
			l.dead = true
			sig.dirty = true
			return true
		}
		sig.unlink(prev, c)
		return true
	}
	return false
}

// Clear disconnects every slot.
func (sig *Signal[A]) Clear() {
	if sig.depth > 0 {
		for c := sig.head; c != nil; c = c.chain().next {
			c.chain().dead = true
		}
		sig.n = 0
		sig.dirty = true
		return
	}
	for c := sig.head; c != nil; {
		l := c.chain()
		next := l.next
		*l = chainLink[A]{}
		c = next
	}
	sig.head, sig.tail, sig.n = nil, nil, 0
}

// Emit calls every connected slot with a, in connection order.
func (sig *Signal[A]) Emit(a A) {
	if sig.head == nil {
		return
	}
	limit := sig.seq
	sig.depth++
	defer sig.endEmit()
	for c := sig.head; c != nil; {
		l := c.chain()
		seq := l.seq
		if seq > limit {
			return
		}
		if !l.dead {
			c.invoke(a)
		}
		if l.owner == sig && l.seq == seq {
			c = l.next
		} else {
			// c moved to another signal while it ran
			c = sig.after(seq)
		}
	}
}

func (sig *Signal[A]) Len() int    { return sig.n }
func (sig *Signal[A]) Empty() bool { return sig.n == 0 }

// Contains reports whether a slot equal to s is connected.
func (sig *Signal[A]) Contains(s SlotBase[A]) bool {
	return s != nil && sig.find(s) != nil
}

func (sig *Signal[A]) find(s SlotBase[A]) SlotBase[A] {
	id := s.id()
	for c := sig.head; c != nil; c = c.chain().next {
		if !c.chain().dead && c.id() == id {
			return c
		}
	}
	return nil
}

// after returns the first slot connected later than seq.
func (sig *Signal[A]) after(seq uint64) SlotBase[A] {
	for c := sig.head; c != nil; c = c.chain().next {
		if c.chain().seq > seq {
			return c
		}
	}
	return nil
}

// detach unlinks a disconnected slot before the sweep would.
func (sig *Signal[A]) detach(s SlotBase[A]) {
	var prev SlotBase[A]
	for c := sig.head; c != nil; prev, c = c, c.chain().next {
		if c == s {
			sig.unlink(prev, c)
			return
		}
	}
}

func (sig *Signal[A]) endEmit() {
	sig.depth--
	if sig.depth == 0 && sig.dirty {
		sig.sweep()
	}
}

func (sig *Signal[A]) unlink(prev, c SlotBase[A]) {
	l := c.chain()
	if prev == nil {
		sig.head = l.next
	} else {
		prev.chain().next = l.next
	}
	if sig.tail == c {
		sig.tail = prev
	}
	*l = chainLink[A]{}
}

func (sig *Signal[A]) sweep() {
	var prev SlotBase[A]
	for c := sig.head; c != nil; {
		next := c.chain().next
		if c.chain().dead {
			sig.unlink(prev, c)
		} else {
			prev = c
		}
		c = next
	}
	sig.dirty = false
}
