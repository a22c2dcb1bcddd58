package intrusive

import "iter"

// Linker is satisfied by any pointer type whose struct embeds a Node of itself:
//
//	type Timer struct {
//		intrusive.Node[*Timer]
//		...
//	}
type Linker[T any] interface {
	Link() *Node[T]
}

// Node holds the links of an element. It lives inside the element, so pushing
// an element onto a list never allocates. The zero value is an unlinked node.
type Node[T any] struct {
	prev, next *Node[T]
	owner      *ring[T]
	value      T
}

// Link returns the node itself and lets embedding types satisfy Linker.
func (n *Node[T]) Link() *Node[T] { return n }

// Linked reports whether the node currently belongs to a list.
func (n *Node[T]) Linked() bool { return n.owner != nil }

type ring[T any] struct {
	root Node[T]
	len  int

	// next node of every iteration in progress, innermost last
	cursors []*Node[T]
}

// List is a doubly linked list of elements that carry their own links.
// An element belongs to at most one list at a time. The zero value is an empty
// list ready to use. A List must not be copied after first use.
type List[T Linker[T]] struct {
	r ring[T]
}

func (l *List[T]) lazyInit() {
	if l.r.root.next == nil {
		l.r.root.next = &l.r.root
		l.r.root.prev = &l.r.root
	}
}

// Len returns the number of linked elements.
func (l *List[T]) Len() int { return l.r.len }

// Empty reports whether the list has no elements.
func (l *List[T]) Empty() bool { return l.r.len == 0 }

// Front returns the first element.
func (l *List[T]) Front() (v T, ok bool) {
	if l.r.len == 0 {
		return v, false
	}
	return l.r.root.next.value, true
}

// Back returns the last element.
func (l *List[T]) Back() (v T, ok bool) {
	if l.r.len == 0 {
		return v, false
	}
	return l.r.root.prev.value, true
}

// Next returns the element following v.
func (l *List[T]) Next(v T) (next T, ok bool) {
	n := v.Link()
	if n.owner != &l.r || n.next == &l.r.root {
		return next, false
	}
	return n.next.value, true
}

// PushBack links v at the tail. Pushing an element that is already linked
// into any list panics.
func (l *List[T]) PushBack(v T) {
	l.lazyInit()
	l.insert(v, l.r.root.prev)
}

// PushFront links v at the head.
func (l *List[T]) PushFront(v T) {
	l.lazyInit()
	l.insert(v, &l.r.root)
}

// InsertAfter links v right after mark. mark must belong to l.
func (l *List[T]) InsertAfter(v, mark T) {
	at := mark.Link()
	if at.owner != &l.r {
		panic("intrusive: mark is not an element of this list")
	}
	l.insert(v, at)
}

func (l *List[T]) insert(v T, at *Node[T]) {
	n := v.Link()
	if n.owner != nil {
		panic("intrusive: node already linked")
	}
	n.value = v
	n.owner = &l.r
	n.prev = at
	n.next = at.next
	at.next.prev = n
	at.next = n
	l.r.len++
}

// Erase unlinks v in O(1). It returns false when v is not an element of l.
func (l *List[T]) Erase(v T) bool {
	n := v.Link()
	if n.owner != &l.r {
		return false
	}
	for i, c := range l.r.cursors {
		if c == n {
			l.r.cursors[i] = n.next
		}
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	l.unlink(n)
	l.r.len--
	return true
}

func (l *List[T]) unlink(n *Node[T]) {
	var zero T
	n.prev = nil
	n.next = nil
	n.owner = nil
	n.value = zero
}

// Contains reports whether v is linked into l.
func (l *List[T]) Contains(v T) bool {
	return v.Link().owner == &l.r
}

// Clear unlinks every element so each may be pushed again.
func (l *List[T]) Clear() {
	if l.r.len == 0 {
		return
	}
	for n := l.r.root.next; n != &l.r.root; {
		next := n.next
		l.unlink(n)
		n = next
	}
	l.r.root.next = &l.r.root
	l.r.root.prev = &l.r.root
	l.r.len = 0
	for i := range l.r.cursors {
		l.r.cursors[i] = &l.r.root
	}
}

// All yields the elements from front to back. The loop body may erase any
// element, and erased elements that were not reached yet are skipped.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if l.r.len == 0 {
			return
		}
		d := len(l.r.cursors)
		l.r.cursors = append(l.r.cursors, l.r.root.next)
		defer func() {
			l.r.cursors[d] = nil
			l.r.cursors = l.r.cursors[:d]
		}()
		for {
			n := l.r.cursors[d]
			if n == &l.r.root {
				return
			}
			l.r.cursors[d] = n.next
			if !yield(n.value) {
				return
			}
		}
	}
}

// Each calls fn for every element in order until fn returns false.
func (l *List[T]) Each(fn func(T) bool) {
	for v := range l.All() {
		if !fn(v) {
			return
		}
	}
}
