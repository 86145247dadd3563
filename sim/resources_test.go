package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoiler_AcquireUntilFull(t *testing.T) {
	// GIVEN a two-slot boiler
	b := NewBoiler(2)

	// WHEN three acquisitions are attempted
	s0, err0 := b.TryAcquire()
	s1, err1 := b.TryAcquire()
	_, err2 := b.TryAcquire()

	// THEN the first two get the lowest slots and the third fails fast
	require.NoError(t, err0)
	require.NoError(t, err1)
	assert.Equal(t, 0, s0.Index())
	assert.Equal(t, 1, s1.Index())
	assert.True(t, errors.Is(err2, ErrResourceExhausted))
	assert.Equal(t, ReasonNoBoilerSlot, ReasonOf(err2))
	assert.Equal(t, 2, b.Occupied())
	assert.Equal(t, 0, b.Free())
}

func TestBoiler_ReleaseReusesLowestSlot(t *testing.T) {
	b := NewBoiler(2)
	s0, _ := b.TryAcquire()
	_, _ = b.TryAcquire()

	b.Release(s0)
	again, err := b.TryAcquire()

	require.NoError(t, err)
	assert.Equal(t, 0, again.Index())
}

func TestBoiler_DoubleReleaseIsNoop(t *testing.T) {
	b := NewBoiler(2)
	s, _ := b.TryAcquire()

	b.Release(s)
	b.Release(s)
	b.Release(Slot{index: 9})

	assert.Equal(t, 0, b.Occupied())
}

func TestBoiler_OccupancyStaysInBounds(t *testing.T) {
	// GIVEN an arbitrary sequence of acquires and releases
	b := NewBoiler(2)
	var held []Slot
	for i := 0; i < 200; i++ {
		if i%3 == 2 && len(held) > 0 {
			b.Release(held[0])
			held = held[1:]
		} else if s, err := b.TryAcquire(); err == nil {
			held = append(held, s)
		}
		// THEN occupancy never leaves [0, capacity]
		if b.Occupied() < 0 || b.Occupied() > b.Capacity() {
			t.Fatalf("step %d: occupied=%d capacity=%d", i, b.Occupied(), b.Capacity())
		}
	}
}

func TestNewBoiler_PanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { NewBoiler(0) })
}

func TestCutleryStock(t *testing.T) {
	c := NewCutleryStock(3)

	assert.True(t, c.TryConsume(2))
	assert.False(t, c.TryConsume(2), "consuming more than available must fail")
	assert.Equal(t, 1, c.Count())
	assert.False(t, c.TryConsume(-1))

	c.Refill(50)
	assert.Equal(t, 51, c.Count())
	c.Refill(-5)
	assert.Equal(t, 51, c.Count())

	assert.Equal(t, 0, NewCutleryStock(-4).Count())
}

func TestDishBacklog_WashesExactBatches(t *testing.T) {
	// GIVEN 25 dirty dishes and a batch size of 10
	d := NewDishBacklog(10)
	d.Add(25)

	// WHEN washing three times
	first := d.TryWashBatch()
	second := d.TryWashBatch()
	third := d.TryWashBatch()

	// THEN two batches go and the remainder stays
	assert.True(t, first)
	assert.True(t, second)
	assert.False(t, third)
	assert.Equal(t, 5, d.Count())
}

func TestDishBacklog_IgnoresNonPositiveAdds(t *testing.T) {
	d := NewDishBacklog(10)
	d.Add(0)
	d.Add(-3)
	assert.Equal(t, 0, d.Count())
	assert.False(t, d.TryWashBatch())
}
