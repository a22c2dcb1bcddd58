package sigslot

// FixedSignal fans out to at most Cap() slots held in a SlotSet. The same slot
// may be connected to any number of FixedSignals.
type FixedSignal[A any] struct {
	set   *SlotSet[A]
	dead  int
	depth int
}

var (
	_ Connector[int] = (*FixedSignal[int])(nil)
	_ Emitter[int]   = (*FixedSignal[int])(nil)
)

func NewFixedSignal[A any](capacity int, opts ...Option) *FixedSignal[A] {
	return &FixedSignal[A]{set: NewSlotSet[A](capacity, opts...)}
}

// Connect inserts s; see SlotSet.Insert for the capacity rules. Cells emptied
// during an emission keep counting against capacity until it returns.
func (sig *FixedSignal[A]) Connect(s SlotBase[A]) bool {
	return sig.set.Insert(s)
}

// Disconnect removes the slot equal to s and reports whether one was found.
func (sig *FixedSignal[A]) Disconnect(s SlotBase[A]) bool {
	if sig.depth == 0 {
		return sig.set.Erase(s)
	}
	i := sig.set.index(s)
	if i < 0 {
		return false
	}
	sig.set.tombstone(i)
	sig.dead++
	return true
}

// Clear disconnects every slot.
func (sig *FixedSignal[A]) Clear() {
	if sig.depth == 0 {
		sig.set.Clear()
		return
	}
	for i, c := range sig.set.Slots() {
		if c != nil {
			sig.set.tombstone(i)
			sig.dead++
		}
	}
}

// Emit calls every connected slot with a, in connection order.
func (sig *FixedSignal[A]) Emit(a A) {
	n := sig.set.n
	if n == 0 {
		return
	}
	sig.depth++
	defer sig.endEmit()
	for i := 0; i < n; i++ {
		if c := sig.set.slots[i]; c != nil {
			c.invoke(a)
		}
	}
}

func (sig *FixedSignal[A]) endEmit() {
	sig.depth--
	if sig.depth == 0 && sig.dead > 0 {
		sig.set.compact()
		sig.dead = 0
	}
}

func (sig *FixedSignal[A]) Contains(s SlotBase[A]) bool { return sig.set.Contains(s) }
func (sig *FixedSignal[A]) Len() int                    { return sig.set.Len() - sig.dead }
func (sig *FixedSignal[A]) Empty() bool                 { return sig.Len() == 0 }
func (sig *FixedSignal[A]) Cap() int                    { return sig.set.Cap() }
