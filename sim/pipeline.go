// Implements the dish pipeline. Queued dishes are individual records; once a
// dish leaves the boiler it becomes an anonymous count in the next stage.

package sim

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Stage is a step of the linear dish lifecycle:
// Queued -> Boiling -> PlatingWait -> Plated -> ReadyToServe -> Served.
type Stage string

const (
	StageQueued       Stage = "queued"
	StageBoiling      Stage = "boiling"
	StagePlatingWait  Stage = "plating_wait"
	StagePlated       Stage = "plated"
	StageReadyToServe Stage = "ready_to_serve"
	StageServed       Stage = "served"
	StageVoided       Stage = "voided"
)

// DishKey identifies a queued tally.
type DishKey struct {
	ProductID string
	Doneness  Doneness
}

// Dish is one ordered unit. It is tracked individually only up to the boiler.
type Dish struct {
	ID        uint64
	ProductID string
	Doneness  Doneness
	Stage     Stage
	CreatedAt time.Duration
}

// Key returns the tally key of the dish.
func (d *Dish) Key() DishKey { return DishKey{ProductID: d.ProductID, Doneness: d.Doneness} }

// CookBatch is one boiler occupant. It does not own its dish's lifecycle,
// only the transition out of Boiling.
type CookBatch struct {
	ID        string
	ProductID string
	Doneness  Doneness
	Worker    WorkerID
	Total     time.Duration
	StartedAt time.Duration

	slot  Slot
	timer *Timer
	dish  *Dish
}

// Remaining returns the boil time left at now, never negative.
func (b *CookBatch) Remaining(now time.Duration) time.Duration {
	left := b.Total - (now - b.StartedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Slot returns the boiler slot the batch occupies.
func (b *CookBatch) Slot() Slot { return b.slot }

// Pipeline owns every dish from order to service, plus the boiler.
type Pipeline struct {
	clock  Clock
	policy DonenessPolicy
	boiler *Boiler
	ids    io.Reader // entropy for batch IDs

	queued  []*Dish // FIFO, oldest first
	tallies map[DishKey]int
	batches []*CookBatch // in start order

	platingWait  int
	plated       int
	readyToServe int
	served       int

	nextDishID uint64
	onDone     func(*CookBatch)
}

// NewPipeline wires a pipeline to its clock and boiler. ids feeds batch ID
// generation; pass a seeded source for reproducible IDs.
func NewPipeline(clock Clock, policy DonenessPolicy, boiler *Boiler, ids io.Reader) *Pipeline {
	return &Pipeline{
		clock:   clock,
		policy:  policy,
		boiler:  boiler,
		ids:     ids,
		tallies: make(map[DishKey]int),
	}
}

// OnBatchDone registers the callback invoked after a batch finishes boiling
// and PlatingWait has been incremented.
func (p *Pipeline) OnBatchDone(fn func(*CookBatch)) { p.onDone = fn }

// Enqueue appends an order to the Queued stage. Always succeeds.
func (p *Pipeline) Enqueue(productID string, doneness Doneness) *Dish {
	p.nextDishID++
	d := &Dish{
		ID:        p.nextDishID,
		ProductID: productID,
		Doneness:  doneness,
		Stage:     StageQueued,
		CreatedAt: p.clock.Now(),
	}
	p.queued = append(p.queued, d)
	p.tallies[d.Key()]++
	return d
}

// NextQueued returns the oldest queued dish without removing it.
func (p *Pipeline) NextQueued() (*Dish, bool) {
	if len(p.queued) == 0 {
		return nil, false
	}
	return p.queued[0], true
}

// DispatchToBoil moves the oldest queued dish matching the key into the
// boiler. Nothing changes unless both the tally and a boiler slot are there.
func (p *Pipeline) DispatchToBoil(productID string, doneness Doneness, worker WorkerID) (*CookBatch, error) {
	key := DishKey{ProductID: productID, Doneness: doneness}
	if p.tallies[key] == 0 {
		return nil, precondition(ReasonNoStock, "no queued %s (%s)", productID, doneness)
	}
	boil, err := p.policy.BoilTime(doneness)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, d := range p.queued {
		if d.Key() == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		// tallies and queue disagree; treat as empty rather than corrupt state
		return nil, precondition(ReasonNoStock, "no queued %s (%s)", productID, doneness)
	}
	slot, err := p.boiler.TryAcquire()
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewRandomFromReader(p.ids)
	if err != nil {
		p.boiler.Release(slot)
		return nil, err
	}

	dish := p.queued[idx]
	p.queued = append(p.queued[:idx], p.queued[idx+1:]...)
	p.decrementTally(key)
	dish.Stage = StageBoiling

	b := &CookBatch{
		ID:        id.String(),
		ProductID: productID,
		Doneness:  doneness,
		Worker:    worker,
		Total:     boil,
		StartedAt: p.clock.Now(),
		slot:      slot,
		dish:      dish,
	}
	b.timer = p.clock.Schedule(boil, func() { p.expire(b) })
	p.batches = append(p.batches, b)
	return b, nil
}

func (p *Pipeline) decrementTally(key DishKey) {
	p.tallies[key]--
	if p.tallies[key] <= 0 {
		delete(p.tallies, key)
	}
}

// expire is the only path that increments PlatingWait.
func (p *Pipeline) expire(b *CookBatch) {
	if !p.removeBatch(b) {
		return
	}
	p.boiler.Release(b.slot)
	b.dish.Stage = StagePlatingWait
	b.dish = nil
	p.platingWait++
	logrus.Debugf("[t=%s] batch %s done, plating wait=%d", p.clock.Now(), b.ID, p.platingWait)
	if p.onDone != nil {
		p.onDone(b)
	}
}

// Void cancels a boiling batch: the slot is released, the dish is dropped and
// PlatingWait is left alone.
func (p *Pipeline) Void(batchID string) (*CookBatch, error) {
	b, ok := p.Batch(batchID)
	if !ok {
		return nil, invalidRef(ReasonUnknownBatch, "%q", batchID)
	}
	p.clock.Cancel(b.timer)
	p.removeBatch(b)
	p.boiler.Release(b.slot)
	b.dish.Stage = StageVoided
	b.dish = nil
	return b, nil
}

func (p *Pipeline) removeBatch(b *CookBatch) bool {
	for i, x := range p.batches {
		if x == b {
			p.batches = append(p.batches[:i], p.batches[i+1:]...)
			return true
		}
	}
	return false
}

// Batch looks up an active batch by ID.
func (p *Pipeline) Batch(id string) (*CookBatch, bool) {
	for _, b := range p.batches {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// Batches returns the active batches in start order.
func (p *Pipeline) Batches() []*CookBatch {
	return append([]*CookBatch(nil), p.batches...)
}

// CompletePlating moves one dish from PlatingWait to Plated.
func (p *Pipeline) CompletePlating() error {
	if p.platingWait == 0 {
		return precondition(ReasonEmptyStage, "nothing waiting for plating")
	}
	p.platingWait--
	p.plated++
	return nil
}

// CompleteGarnish moves one dish from Plated to ReadyToServe.
func (p *Pipeline) CompleteGarnish() error {
	if p.plated == 0 {
		return precondition(ReasonEmptyStage, "nothing plated")
	}
	p.plated--
	p.readyToServe++
	return nil
}

// Serve moves one dish from ReadyToServe out of the kitchen.
func (p *Pipeline) Serve() error {
	if p.readyToServe == 0 {
		return precondition(ReasonEmptyStage, "nothing ready to serve")
	}
	p.readyToServe--
	p.served++
	return nil
}

// Tally returns the queued count for one product and doneness.
func (p *Pipeline) Tally(productID string, doneness Doneness) int {
	return p.tallies[DishKey{ProductID: productID, Doneness: doneness}]
}

// QueuedTotal returns the number of dishes not yet boiling.
func (p *Pipeline) QueuedTotal() int       { return len(p.queued) }
func (p *Pipeline) ActiveBatches() int     { return len(p.batches) }
func (p *Pipeline) PlatingWait() int       { return p.platingWait }
func (p *Pipeline) Plated() int            { return p.plated }
func (p *Pipeline) ReadyToServe() int      { return p.readyToServe }
func (p *Pipeline) Served() int            { return p.served }
func (p *Pipeline) Boiler() *Boiler        { return p.boiler }
func (p *Pipeline) Policy() DonenessPolicy { return p.policy }
