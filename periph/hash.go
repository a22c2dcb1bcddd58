package periph

import (
	"github.com/delaneyj/slotparty/hal"
	"github.com/delaneyj/slotparty/intrusive"
	"github.com/delaneyj/slotparty/registry"
	"github.com/delaneyj/slotparty/sigslot"
)

type HashRegistry = registry.Registry[hal.Handle, *Hash]

func NewHashRegistry() *HashRegistry {
	return registry.New[hal.Handle, *Hash]("hash")
}

func InstallHashISR(b hal.HashBackend, reg *HashRegistry) {
	b.OnDigestReady(func(h hal.Handle) {
		reg.SystemISR(h, (*Hash).digestReadyISR)
	})
}

// Hash computes digests on a hashing unit.
type Hash struct {
	intrusive.Node[*Hash]
	driver

	backend hal.HashBackend
	reg     *HashRegistry

	// Digest fires with the result of Compute.
	Digest sigslot.Signal[uint64]
}

func NewHash(reg *HashRegistry, b hal.HashBackend, h hal.Handle, opts ...Option) (*Hash, error) {
	hs := &Hash{
		driver:  newDriver(hal.ClassHash, h, opts),
		backend: b,
		reg:     reg,
	}
	if err := reg.Register(hs); err != nil {
		return nil, err
	}
	return hs, nil
}

func (hs *Hash) Init() bool {
	return hs.initialize(hs.backend.Init)
}

// Compute starts hashing buf, which must stay untouched until Digest fires.
func (hs *Hash) Compute(buf []byte) {
	if !hs.ready() {
		return
	}
	switch {
	case hs.state == StateBusy:
		hs.fail(hal.CodeIsBusy)
		return
	case buf == nil:
		hs.fail(hal.CodeNullBuffer)
		return
	case len(buf) == 0:
		hs.fail(hal.CodeZeroSize)
		return
	}
	hs.state = StateBusy
	if st := hs.backend.Start(hs.handle, buf); st != hal.StatusOK {
		hs.fault(hal.StatusCode(st))
	}
}

func (hs *Hash) IsBusy() bool { return hs.state == StateBusy }

func (hs *Hash) Close() {
	hs.reg.Unregister(hs)
}

func (hs *Hash) digestReadyISR() {
	if hs.state != StateBusy {
		return
	}
	hs.state = StateIdle
	hs.Digest.Emit(hs.backend.Digest(hs.handle))
}
