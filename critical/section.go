// Package critical provides nested interrupt masking for foreground code that
// shares state with interrupt handlers.
package critical

import "errors"

// ErrUnbalanced is the panic value of an Exit without a matching Enter.
var ErrUnbalanced = errors.New("critical: exit without enter")

// IRQMasker masks and unmasks interrupt delivery.
type IRQMasker interface {
	DisableIRQ()
	EnableIRQ()
}

// Section counts nested entries: the first Enter masks interrupts and the
// matching last Exit unmasks them. A Section belongs to one foreground
// goroutine; interrupt handlers already run masked and must not use it.
type Section struct {
	masker IRQMasker
	depth  int
}

func New(m IRQMasker) *Section {
	return &Section{masker: m}
}

func (s *Section) Enter() {
	if s.depth == 0 {
		s.masker.DisableIRQ()
	}
	s.depth++
}

func (s *Section) Exit() {
	if s.depth == 0 {
		panic(ErrUnbalanced)
	}
	s.depth--
	if s.depth == 0 {
		s.masker.EnableIRQ()
	}
}

// Depth is the current nesting level.
func (s *Section) Depth() int { return s.depth }

// Do runs fn with interrupts masked.
func (s *Section) Do(fn func()) {
	s.Enter()
	defer s.Exit()
	fn()
}
