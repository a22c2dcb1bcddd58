package sim

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/delaneyj/slotparty/hal"
)

type hashUnit struct {
	irq         hal.IRQ
	initialized bool
	input       []byte
	digest      uint64
}

// HashUnit simulates a hashing accelerator producing 64-bit xxHash digests.
type HashUnit struct {
	ctrl *Controller

	mu      sync.Mutex
	units   map[hal.Handle]*hashUnit
	onReady func(hal.Handle)
}

var _ hal.HashBackend = (*HashUnit)(nil)

func NewHashUnit(ctrl *Controller) *HashUnit {
	return &HashUnit{ctrl: ctrl, units: map[hal.Handle]*hashUnit{}}
}

func (hu *HashUnit) Attach(h hal.Handle, irq hal.IRQ) {
	hu.mu.Lock()
	hu.units[h] = &hashUnit{irq: irq}
	hu.mu.Unlock()
	hu.ctrl.Bind(irq, func() {
		hu.mu.Lock()
		cb := hu.onReady
		hu.mu.Unlock()
		if cb != nil {
			cb(h)
		}
	})
}

func (hu *HashUnit) Init(h hal.Handle) hal.Status {
	hu.mu.Lock()
	defer hu.mu.Unlock()
	u, ok := hu.units[h]
	if !ok {
		return hal.StatusError
	}
	u.initialized = true
	return hal.StatusOK
}

func (hu *HashUnit) Start(h hal.Handle, buf []byte) hal.Status {
	hu.mu.Lock()
	defer hu.mu.Unlock()
	u, ok := hu.units[h]
	if !ok || !u.initialized {
		return hal.StatusError
	}
	if u.input != nil {
		return hal.StatusBusy
	}
	u.input = buf
	return hal.StatusOK
}

func (hu *HashUnit) Digest(h hal.Handle) uint64 {
	hu.mu.Lock()
	defer hu.mu.Unlock()
	if u, ok := hu.units[h]; ok {
		return u.digest
	}
	return 0
}

func (hu *HashUnit) OnDigestReady(cb func(hal.Handle)) {
	hu.mu.Lock()
	defer hu.mu.Unlock()
	hu.onReady = cb
}

// Complete hashes the pending input and raises the interrupt.
func (hu *HashUnit) Complete(h hal.Handle) bool {
	hu.mu.Lock()
	u, ok := hu.units[h]
	if !ok || u.input == nil {
		hu.mu.Unlock()
		return false
	}
	u.digest = xxhash.Sum64(u.input)
	u.input = nil
	irq := u.irq
	hu.mu.Unlock()
	hu.ctrl.Raise(irq)
	return true
}
