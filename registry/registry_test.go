package registry_test

import (
	"testing"

	"github.com/delaneyj/slotparty/intrusive"
	"github.com/delaneyj/slotparty/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	intrusive.Node[*fakeTimer]
	handle string
	isrs   int
}

func (f *fakeTimer) Handle() string { return f.handle }
func (f *fakeTimer) isr()           { f.isrs++ }

func newTimers(t *testing.T, reg *registry.Registry[string, *fakeTimer], handles ...string) []*fakeTimer {
	out := make([]*fakeTimer, len(handles))
	for i, h := range handles {
		out[i] = &fakeTimer{handle: h}
		require.NoError(t, reg.Register(out[i]))
	}
	return out
}

// firing h2 only reaches the instance bound to h2
func TestSystemISRDispatchesToMatchingInstance(t *testing.T) {
	reg := registry.New[string, *fakeTimer]("timer")
	timers := newTimers(t, reg, "h1", "h2", "h3")

	assert.True(t, reg.SystemISR("h2", (*fakeTimer).isr))
	assert.Equal(t, 0, timers[0].isrs)
	assert.Equal(t, 1, timers[1].isrs)
	assert.Equal(t, 0, timers[2].isrs)

	assert.False(t, reg.SystemISR("h9", (*fakeTimer).isr))
	for _, tm := range timers {
		assert.LessOrEqual(t, tm.isrs, 1)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := registry.New[string, *fakeTimer]("timer")
	timers := newTimers(t, reg, "h1")

	err := reg.Register(&fakeTimer{handle: "h1"})
	assert.ErrorIs(t, err, registry.ErrDuplicateHandle)

	err = reg.Register(timers[0])
	assert.ErrorIs(t, err, registry.ErrAlreadyLinked)

	other := registry.New[string, *fakeTimer]("other")
	err = other.Register(timers[0])
	assert.ErrorIs(t, err, registry.ErrAlreadyLinked)
	assert.Equal(t, 1, reg.Len())
}

// registration order is kept across unregister
func TestUnregisterKeepsOrder(t *testing.T) {
	reg := registry.New[string, *fakeTimer]("timer")
	timers := newTimers(t, reg, "h1", "h2", "h3")

	assert.True(t, reg.Unregister(timers[1]))
	assert.False(t, reg.Unregister(timers[1]))
	assert.Equal(t, []string{"h1", "h3"}, reg.Handles())
	assert.False(t, reg.Contains("h2"))

	_, ok := reg.Lookup("h2")
	assert.False(t, ok)
	d, ok := reg.Lookup("h3")
	require.True(t, ok)
	assert.Same(t, timers[2], d)

	// the handle is free again
	require.NoError(t, reg.Register(&fakeTimer{handle: "h2"}))
	assert.Equal(t, []string{"h1", "h3", "h2"}, reg.Handles())
}

func TestEmptyRegistry(t *testing.T) {
	reg := registry.New[int, *intTimer]("empty")
	assert.True(t, reg.Empty())
	assert.Equal(t, "empty", reg.Name())
	assert.Empty(t, reg.Handles())
	assert.False(t, reg.SystemISR(1, func(*intTimer) { t.Fail() }))
}

type intTimer struct {
	intrusive.Node[*intTimer]
	h int
}

func (i *intTimer) Handle() int { return i.h }
