// Package sim is a host-side stand-in for interrupt driven hardware. It only
// models "an operation finished and raised its interrupt"; it knows nothing
// about any vendor register set.
package sim

import (
	"sync"

	"github.com/golang/glog"

	"github.com/delaneyj/slotparty/hal"
)

// Controller delivers interrupts to bound handlers. Raise may be called from
// any goroutine. Handlers run one at a time, on whichever goroutine happens to
// drain the pending queue, and never while interrupts are masked; interrupts
// raised in the meantime are delivered in order once that is over.
//
// Controller implements critical.IRQMasker. DisableIRQ blocks until a running
// handler returns and must not be called from a handler.
type Controller struct {
	exec sync.Mutex // held while a handler runs or while masked

	mu        sync.Mutex
	handlers  map[hal.IRQ]func()
	pending   []hal.IRQ
	delivered uint64
	spurious  uint64
}

func NewController() *Controller {
	return &Controller{handlers: map[hal.IRQ]func(){}}
}

// Bind installs the handler for irq, replacing any previous one.
func (c *Controller) Bind(irq hal.IRQ, handler func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[irq] = handler
}

func (c *Controller) Unbind(irq hal.IRQ) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, irq)
}

// Raise queues irq and delivers everything pending if no handler is running
// and interrupts are not masked.
func (c *Controller) Raise(irq hal.IRQ) {
	c.mu.Lock()
	c.pending = append(c.pending, irq)
	c.mu.Unlock()
	c.drain()
}

func (c *Controller) DisableIRQ() {
	c.exec.Lock()
}

func (c *Controller) EnableIRQ() {
	c.exec.Unlock()
	c.drain()
}

// Pending is the number of raised but undelivered interrupts.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Delivered counts handler invocations.
func (c *Controller) Delivered() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delivered
}

// Spurious counts interrupts raised with no handler bound.
func (c *Controller) Spurious() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spurious
}

func (c *Controller) drain() {
	for c.exec.TryLock() {
		c.mu.Lock()
		if len(c.pending) == 0 {
			// exec is released under mu so a racing Raise either lands
			// before this check or finds exec free
			c.exec.Unlock()
			c.mu.Unlock()
			return
		}
		irq := c.pending[0]
		c.pending = c.pending[1:]
		h, ok := c.handlers[irq]
		if ok {
			c.delivered++
		} else {
			c.spurious++
		}
		c.mu.Unlock()

		if !ok {
			glog.Warningf("sim: spurious interrupt %d", irq)
			c.exec.Unlock()
			continue
		}
		c.run(h)
	}
}

func (c *Controller) run(h func()) {
	defer c.exec.Unlock()
	h()
}
