// Shared kitchen resources. Each pool is mutated only through its own methods
// and every method keeps its invariant in a single step.

package sim

// Slot is one unit of boiler capacity.
type Slot struct {
	index int
}

// Index returns the slot number, starting at 0.
func (s Slot) Index() int { return s.index }

// Boiler is a fixed-capacity pool of cooking slots.
// Invariant: 0 <= Occupied() <= Capacity().
type Boiler struct {
	inUse []bool
	used  int
}

// NewBoiler creates a boiler with the given number of slots.
func NewBoiler(capacity int) *Boiler {
	if capacity < 1 {
		panic("NewBoiler: capacity must be at least 1")
	}
	return &Boiler{inUse: make([]bool, capacity)}
}

// TryAcquire takes the lowest free slot, or fails fast when all are taken.
// Callers that want to wait must queue on their side.
func (b *Boiler) TryAcquire() (Slot, error) {
	for i, busy := range b.inUse {
		if !busy {
			b.inUse[i] = true
			b.used++
			return Slot{index: i}, nil
		}
	}
	return Slot{}, exhausted(ReasonNoBoilerSlot, "boiler full (%d/%d)", b.used, len(b.inUse))
}

// Release frees a slot. Releasing a free or foreign slot is a no-op.
func (b *Boiler) Release(s Slot) {
	if s.index < 0 || s.index >= len(b.inUse) || !b.inUse[s.index] {
		return
	}
	b.inUse[s.index] = false
	b.used--
}

func (b *Boiler) Occupied() int { return b.used }
func (b *Boiler) Capacity() int { return len(b.inUse) }
func (b *Boiler) Free() int     { return len(b.inUse) - b.used }

// CutleryStock counts clean cutlery sets. Never negative.
type CutleryStock struct {
	count int
}

// NewCutleryStock creates a stock holding initial sets; negative values clamp to 0.
func NewCutleryStock(initial int) *CutleryStock {
	return &CutleryStock{count: max(initial, 0)}
}

// TryConsume takes n sets if that many are available.
func (c *CutleryStock) TryConsume(n int) bool {
	if n < 0 || n > c.count {
		return false
	}
	c.count -= n
	return true
}

// Refill adds amount sets. Non-positive amounts are ignored.
func (c *CutleryStock) Refill(amount int) {
	if amount > 0 {
		c.count += amount
	}
}

func (c *CutleryStock) Count() int { return c.count }

// DishBacklog counts dirty dishes waiting to be washed. Never negative.
type DishBacklog struct {
	count     int
	batchSize int
}

// NewDishBacklog creates an empty backlog washed batchSize dishes at a time.
func NewDishBacklog(batchSize int) *DishBacklog {
	if batchSize < 1 {
		panic("NewDishBacklog: batch size must be at least 1")
	}
	return &DishBacklog{batchSize: batchSize}
}

// Add puts n dirty dishes on the pile. Non-positive n is ignored.
func (d *DishBacklog) Add(n int) {
	if n > 0 {
		d.count += n
	}
}

// TryWashBatch removes exactly one batch if the pile is at least that big.
func (d *DishBacklog) TryWashBatch() bool {
	if d.count < d.batchSize {
		return false
	}
	d.count -= d.batchSize
	return true
}

func (d *DishBacklog) Count() int     { return d.count }
func (d *DishBacklog) BatchSize() int { return d.batchSize }
