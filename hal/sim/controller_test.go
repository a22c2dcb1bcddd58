package sim_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/delaneyj/slotparty/critical"
	"github.com/delaneyj/slotparty/hal"
	"github.com/delaneyj/slotparty/hal/sim"
	"github.com/stretchr/testify/assert"
)

func TestControllerDeliversImmediately(t *testing.T) {
	c := sim.NewController()
	var got []hal.IRQ
	c.Bind(3, func() { got = append(got, 3) })
	c.Bind(4, func() { got = append(got, 4) })

	c.Raise(3)
	c.Raise(4)
	assert.Equal(t, []hal.IRQ{3, 4}, got)
	assert.Equal(t, uint64(2), c.Delivered())
	assert.Equal(t, 0, c.Pending())
}

// interrupts raised while masked wait for the outermost exit
func TestControllerMasking(t *testing.T) {
	c := sim.NewController()
	cs := critical.New(c)
	var got []int
	c.Bind(1, func() { got = append(got, 1) })
	c.Bind(2, func() { got = append(got, 2) })

	cs.Enter()
	cs.Enter()
	c.Raise(2)
	c.Raise(1)
	cs.Exit()
	assert.Empty(t, got)
	assert.Equal(t, 2, c.Pending())
	cs.Exit()
	assert.Equal(t, []int{2, 1}, got)
	assert.Equal(t, 0, c.Pending())
}

// an interrupt raised from a handler runs after it, not inside it
func TestControllerNestedRaise(t *testing.T) {
	c := sim.NewController()
	var got []string
	c.Bind(1, func() {
		got = append(got, "1 start")
		c.Raise(2)
		got = append(got, "1 end")
	})
	c.Bind(2, func() { got = append(got, "2") })

	c.Raise(1)
	assert.Equal(t, []string{"1 start", "1 end", "2"}, got)
}

func TestControllerSpurious(t *testing.T) {
	c := sim.NewController()
	c.Raise(9)
	assert.Equal(t, uint64(1), c.Spurious())
	assert.Equal(t, uint64(0), c.Delivered())

	c.Bind(9, func() {})
	c.Unbind(9)
	c.Raise(9)
	assert.Equal(t, uint64(2), c.Spurious())
}

// handlers never overlap each other or a masked section
func TestControllerSerializesAgainstGoroutines(t *testing.T) {
	c := sim.NewController()
	cs := critical.New(c)

	var inside atomic.Int32
	var overlaps atomic.Int32
	shared := 0
	c.Bind(1, func() {
		if inside.Add(1) != 1 {
			overlaps.Add(1)
		}
		shared++
		inside.Add(-1)
	})

	const raisers, perRaiser = 8, 200
	var wg sync.WaitGroup
	for i := 0; i < raisers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perRaiser; j++ {
				c.Raise(1)
			}
		}()
	}

	foreground := 0
	for i := 0; i < 100; i++ {
		cs.Do(func() {
			if inside.Add(1) != 1 {
				overlaps.Add(1)
			}
			foreground++
			inside.Add(-1)
		})
	}
	wg.Wait()

	// flush whatever the last raiser left behind
	cs.Do(func() {})

	assert.Zero(t, overlaps.Load())
	assert.Equal(t, 100, foreground)
	assert.Equal(t, raisers*perRaiser, shared)
	assert.Equal(t, uint64(raisers*perRaiser), c.Delivered())
}
