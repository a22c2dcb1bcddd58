package intrusive

import "iter"

// Queue is a FIFO view over List used for registries of live instances.
// The zero value is an empty queue.
type Queue[T Linker[T]] struct {
	l List[T]
}

// Push appends v at the tail.
func (q *Queue[T]) Push(v T) { q.l.PushBack(v) }

// Pop unlinks and returns the head.
func (q *Queue[T]) Pop() (v T, ok bool) {
	if v, ok = q.l.Front(); ok {
		q.l.Erase(v)
	}
	return v, ok
}

// Peek returns the head without unlinking it.
func (q *Queue[T]) Peek() (T, bool) { return q.l.Front() }

// Erase unlinks v wherever it sits in the queue.
func (q *Queue[T]) Erase(v T) bool { return q.l.Erase(v) }

func (q *Queue[T]) Contains(v T) bool { return q.l.Contains(v) }
func (q *Queue[T]) Empty() bool       { return q.l.Empty() }
func (q *Queue[T]) Len() int          { return q.l.Len() }

// All yields queued elements from head to tail.
func (q *Queue[T]) All() iter.Seq[T] { return q.l.All() }
