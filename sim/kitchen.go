package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Kitchen is the whole simulation context: pipeline, resources, staff and
// customers. Construct one per session and pass it around; there is no
// package-level state. A Kitchen is not safe for concurrent use: in real-time
// mode every call goes through a Loop.
type Kitchen struct {
	cfg   KitchenConfig
	clock Clock
	rng   *PartitionedRNG

	pipeline  *Pipeline
	cutlery   *CutleryStock
	backlog   *DishBacklog
	customers Customers
	workers   map[WorkerID]*Worker

	sinks          []EventSink
	seq            uint64
	lastAdvisories []Advisory
	ticketTimer    *Timer
}

// NewKitchen builds a kitchen from a validated config.
func NewKitchen(cfg KitchenConfig, clock Clock, rng *PartitionedRNG, sinks ...EventSink) (*Kitchen, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kitchen config: %w", err)
	}
	k := &Kitchen{
		cfg:     cfg,
		clock:   clock,
		rng:     rng,
		cutlery: NewCutleryStock(cfg.InitialCutlery),
		backlog: NewDishBacklog(cfg.WashBatch),
		workers: map[WorkerID]*Worker{
			WorkerMain: newWorker(WorkerMain),
			WorkerSub:  newWorker(WorkerSub),
		},
		sinks: sinks,
	}
	k.pipeline = NewPipeline(clock, cfg.Doneness, NewBoiler(BoilerCapacity), rng.ForSubsystem(SubsystemBatches))
	k.pipeline.OnBatchDone(k.onBatchDone)
	k.lastAdvisories = ComputeAdvisories(k.snapshotState(), cfg.Advisory)
	return k, nil
}

// Subscribe adds an event sink.
func (k *Kitchen) Subscribe(s EventSink) { k.sinks = append(k.sinks, s) }

func (k *Kitchen) Config() KitchenConfig { return k.cfg }
func (k *Kitchen) Clock() Clock          { return k.clock }

// PlaceOrder queues one dish. A nil doneness is drawn from the policy's
// population split.
func (k *Kitchen) PlaceOrder(productID string, doneness *Doneness) (*Dish, error) {
	if err := k.checkProduct(productID); err != nil {
		return nil, k.reject("place order", err)
	}
	var d Doneness
	if doneness == nil {
		d = k.cfg.Doneness.Draw(k.rng.ForSubsystem(SubsystemOrders).Float64())
	} else {
		parsed, err := ParseDoneness(string(*doneness))
		if err != nil {
			return nil, k.reject("place order", err)
		}
		d = parsed
	}
	dish := k.pipeline.Enqueue(productID, d)
	logrus.Infof("[t=%s] order %d: %s (%s)", k.clock.Now(), dish.ID, productID, d)
	k.emit(Event{Type: EventOrderPlaced, ProductID: productID, Doneness: d, Count: k.pipeline.QueuedTotal()})
	k.settle()
	return dish, nil
}

// StartCooking puts one queued dish into the boiler on behalf of a worker.
// The worker must be idle or already boiling.
func (k *Kitchen) StartCooking(worker WorkerID, productID string, doneness Doneness) (*CookBatch, error) {
	w, err := k.worker(worker)
	if err != nil {
		return nil, k.reject("start cooking", err)
	}
	if err := k.checkProduct(productID); err != nil {
		return nil, k.reject("start cooking", err)
	}
	if _, err := ParseDoneness(string(doneness)); err != nil {
		return nil, k.reject("start cooking", err)
	}
	if st := w.State(); st != StateIdle && st != StateBoiling {
		return nil, k.reject("start cooking", precondition(ReasonWorkerBusy, "%s is %s", worker, st))
	}
	b, err := k.pipeline.DispatchToBoil(productID, doneness, worker)
	if err != nil {
		return nil, k.reject("start cooking", err)
	}
	w.batches++
	logrus.Infof("[t=%s] %s boiling %s (%s) for %s in slot %d", k.clock.Now(), worker, productID, doneness, b.Total, b.slot.index)
	k.emit(Event{Type: EventCookingStarted, Worker: worker, ProductID: productID, Doneness: doneness,
		BatchID: b.ID, Count: k.pipeline.Boiler().Occupied()})
	k.settle()
	return b, nil
}

// StartNextOrder cooks the oldest queued order, whatever its product.
func (k *Kitchen) StartNextOrder(worker WorkerID) (*CookBatch, error) {
	d, ok := k.pipeline.NextQueued()
	if !ok {
		return nil, k.reject("start next order", precondition(ReasonNoStock, "no queued orders"))
	}
	return k.StartCooking(worker, d.ProductID, d.Doneness)
}

// AdvanceWorker hands a timed instruction to a worker: it starts now if the
// worker is idle, otherwise it joins the back of the worker's queue.
func (k *Kitchen) AdvanceWorker(worker WorkerID, instruction Instruction) error {
	w, err := k.worker(worker)
	if err != nil {
		return k.reject("advance worker", err)
	}
	if _, err := ParseInstruction(string(instruction)); err != nil {
		return k.reject("advance worker", err)
	}
	if w.State() == StateIdle {
		if err := k.claim(instruction); err != nil {
			return k.reject("advance worker", err)
		}
		k.start(w, instruction)
	} else {
		if err := k.projected(instruction); err != nil {
			return k.reject("advance worker", err)
		}
		w.enqueue(instruction)
		logrus.Infof("[t=%s] %s busy (%s), queued %s (queue=%d)", k.clock.Now(), worker, w.State(), instruction, len(w.queue))
		k.emit(Event{Type: EventInstructionQueued, Worker: worker, Instruction: instruction, Count: len(w.queue)})
	}
	k.settle()
	return nil
}

// VoidBatch aborts a boiling batch. The dish is discarded and never reaches
// PlatingWait.
func (k *Kitchen) VoidBatch(batchID string) error {
	b, err := k.pipeline.Void(batchID)
	if err != nil {
		return k.reject("void batch", err)
	}
	logrus.Warnf("[t=%s] batch %s voided", k.clock.Now(), b.ID)
	k.emit(Event{Type: EventBatchVoided, Worker: b.Worker, ProductID: b.ProductID, Doneness: b.Doneness, BatchID: b.ID})
	k.releaseBatch(b)
	k.settle()
	return nil
}

// CustomerArrives adds a customer to the ticket line.
func (k *Kitchen) CustomerArrives() {
	k.customers.Arrive()
	k.emitCustomers("arrived")
	k.settle()
}

// PurchaseTicket moves the head of the line to the waiting area and orders
// the default product with a drawn doneness.
func (k *Kitchen) PurchaseTicket() (*Dish, error) {
	if err := k.customers.BuyTicket(); err != nil {
		return nil, k.reject("purchase ticket", err)
	}
	k.emitCustomers("bought ticket")
	return k.PlaceOrder(k.cfg.DefaultProduct, nil)
}

// FinishEating moves one eating customer to the exit.
func (k *Kitchen) FinishEating() error {
	if err := k.customers.FinishEating(); err != nil {
		return k.reject("finish eating", err)
	}
	k.emitCustomers("finished eating")
	k.settle()
	return nil
}

// CustomerLeaves lets one finished customer out.
func (k *Kitchen) CustomerLeaves() error {
	if err := k.customers.Leave(); err != nil {
		return k.reject("customer leaves", err)
	}
	k.emitCustomers("left")
	k.settle()
	return nil
}

// StartTicketMachine sells one ticket per interval while anyone is in line.
// Calling it again while running is a no-op.
func (k *Kitchen) StartTicketMachine() {
	if k.ticketTimer.Active() {
		return
	}
	k.ticketTimer = k.clock.Every(k.cfg.TicketInterval, func() {
		if k.customers.Counts().InLine > 0 {
			// only rejection is an empty line, checked above
			_, _ = k.PurchaseTicket()
		}
	})
}

// StopTicketMachine stops automatic ticket sales.
func (k *Kitchen) StopTicketMachine() {
	k.clock.Cancel(k.ticketTimer)
}

// TicketMachineRunning reports whether automatic ticket sales are on.
func (k *Kitchen) TicketMachineRunning() bool { return k.ticketTimer.Active() }

// Snapshot returns a read-only copy of the kitchen, advisories included.
func (k *Kitchen) Snapshot() Snapshot {
	s := k.snapshotState()
	s.Advisories = ComputeAdvisories(s, k.cfg.Advisory)
	return s
}

// Advisories recomputes the advisory list from the current state.
func (k *Kitchen) Advisories() []Advisory {
	return ComputeAdvisories(k.snapshotState(), k.cfg.Advisory)
}

// Recommend returns the next job for one worker.
func (k *Kitchen) Recommend(worker WorkerID) (Recommendation, error) {
	if _, err := k.worker(worker); err != nil {
		return Recommendation{}, err
	}
	return RecommendFor(worker, k.snapshotState(), k.cfg.Advisory), nil
}

func (k *Kitchen) snapshotState() Snapshot {
	now := k.clock.Now()
	s := Snapshot{
		At:           now,
		QueuedTotal:  k.pipeline.QueuedTotal(),
		PlatingWait:  k.pipeline.PlatingWait(),
		Plated:       k.pipeline.Plated(),
		ReadyToServe: k.pipeline.ReadyToServe(),
		Served:       k.pipeline.Served(),
		Cutlery:      k.cutlery.Count(),
		DishBacklog:  k.backlog.Count(),
		WashBatch:    k.backlog.BatchSize(),
		Customers:    k.customers.Counts(),
		Queued:       make([]QueuedTally, 0, len(k.pipeline.tallies)),
		Workers:      make([]WorkerView, 0, len(k.workers)),
		Advisories:   []Advisory{},
	}
	for key, n := range k.pipeline.tallies {
		s.Queued = append(s.Queued, QueuedTally{ProductID: key.ProductID, Doneness: key.Doneness, Count: n})
	}
	sort.Slice(s.Queued, func(i, j int) bool {
		if s.Queued[i].ProductID != s.Queued[j].ProductID {
			return s.Queued[i].ProductID < s.Queued[j].ProductID
		}
		return donenessRank(s.Queued[i].Doneness) < donenessRank(s.Queued[j].Doneness)
	})

	boiler := k.pipeline.Boiler()
	s.Boiler = BoilerView{Capacity: boiler.Capacity(), Occupied: boiler.Occupied(), Batches: []BatchView{}}
	for _, b := range k.pipeline.batches {
		s.Boiler.Batches = append(s.Boiler.Batches, BatchView{
			ID:               b.ID,
			ProductID:        b.ProductID,
			Doneness:         b.Doneness,
			Worker:           b.Worker,
			Slot:             b.slot.index,
			RemainingSeconds: ceilSeconds(b.Remaining(now)),
			TotalSeconds:     ceilSeconds(b.Total),
		})
	}
	for _, id := range []WorkerID{WorkerMain, WorkerSub} {
		w := k.workers[id]
		s.Workers = append(s.Workers, WorkerView{
			ID:            id,
			State:         w.State(),
			Queue:         w.Queue(),
			ActiveBatches: w.batches,
		})
	}
	return s
}

func donenessRank(d Doneness) int {
	for i, x := range donenessOrder {
		if x == d {
			return i
		}
	}
	return len(donenessOrder)
}

// === instruction lifecycle ===

// inProgress counts workers currently carrying out instruction i.
func (k *Kitchen) inProgress(i Instruction) int {
	n := 0
	for _, w := range k.workers {
		if w.active != nil && w.active.instruction == i {
			n++
		}
	}
	return n
}

// pending counts instruction i active or queued on any worker.
func (k *Kitchen) pending(i Instruction) int {
	n := k.inProgress(i)
	for _, w := range k.workers {
		n += w.queued(i)
	}
	return n
}

// claim checks that instruction i can start right now: its input stage or
// resource holds a unit not already promised to a worker doing the same job.
func (k *Kitchen) claim(i Instruction) error {
	taken := k.inProgress(i)
	switch i {
	case InstructionPlating:
		if k.pipeline.PlatingWait()-taken <= 0 {
			return precondition(ReasonEmptyStage, "nothing waiting for plating")
		}
	case InstructionGarnishing:
		if k.pipeline.Plated()-taken <= 0 {
			return precondition(ReasonEmptyStage, "nothing plated")
		}
	case InstructionServing:
		if k.pipeline.ReadyToServe()-taken <= 0 {
			return precondition(ReasonEmptyStage, "nothing ready to serve")
		}
		if k.cutlery.Count()-taken <= 0 {
			return exhausted(ReasonNoCutlery, "cutlery stock %d", k.cutlery.Count())
		}
	case InstructionWashing:
		if k.backlog.Count() < k.backlog.BatchSize()*(taken+1) {
			return precondition(ReasonNothingToDo, "%d dirty dishes, batch is %d", k.backlog.Count(), k.backlog.BatchSize())
		}
	}
	return nil
}

// projected checks that instruction i could become startable later: there is
// work for it somewhere upstream or in flight.
func (k *Kitchen) projected(i Instruction) error {
	p := k.pipeline
	switch i {
	case InstructionPlating:
		if p.ActiveBatches()+p.PlatingWait() == 0 {
			return precondition(ReasonEmptyStage, "nothing boiling or waiting for plating")
		}
	case InstructionGarnishing:
		if p.ActiveBatches()+p.PlatingWait()+p.Plated() == 0 {
			return precondition(ReasonEmptyStage, "nothing on its way to garnish")
		}
	case InstructionServing:
		if p.ActiveBatches()+p.PlatingWait()+p.Plated()+p.ReadyToServe() == 0 {
			return precondition(ReasonEmptyStage, "nothing on its way to serve")
		}
		if k.cutlery.Count() == 0 && k.pending(InstructionRefillingCutlery) == 0 {
			return exhausted(ReasonNoCutlery, "no cutlery and no refill pending")
		}
	case InstructionWashing:
		if k.backlog.Count() == 0 {
			return precondition(ReasonNothingToDo, "no dirty dishes")
		}
	}
	return nil
}

func (k *Kitchen) start(w *Worker, i Instruction) {
	d, _ := k.cfg.Instructions.For(i)
	task := &activeTask{instruction: i, startedAt: k.clock.Now()}
	task.timer = k.clock.Schedule(d, func() { k.complete(w, task) })
	w.active = task
	logrus.Infof("[t=%s] %s starts %s (%s)", k.clock.Now(), w.id, i, d)
	k.emit(Event{Type: EventInstructionStarted, Worker: w.id, Instruction: i})
}

// complete applies the side effect of a finished instruction, then lets the
// worker pick up its next queued instruction. Runs as one atomic step.
func (k *Kitchen) complete(w *Worker, task *activeTask) {
	if w.active != task {
		return
	}
	w.active = nil
	i := task.instruction
	logrus.Infof("[t=%s] %s finished %s", k.clock.Now(), w.id, i)

	switch i {
	case InstructionPlating:
		k.advanceStage(w, i, k.pipeline.CompletePlating, StagePlated, k.pipeline.Plated)
	case InstructionGarnishing:
		k.advanceStage(w, i, k.pipeline.CompleteGarnish, StageReadyToServe, k.pipeline.ReadyToServe)
	case InstructionServing:
		k.serve(w)
	case InstructionRefillingCutlery:
		k.cutlery.Refill(k.cfg.CutleryRefill)
		k.emit(Event{Type: EventCutleryRefilled, Worker: w.id, Count: k.cutlery.Count(),
			Message: fmt.Sprintf("+%d cutlery", k.cfg.CutleryRefill)})
	case InstructionWashing:
		if k.backlog.TryWashBatch() {
			k.emit(Event{Type: EventDishesWashed, Worker: w.id, Count: k.backlog.Count(),
				Message: fmt.Sprintf("-%d dishes", k.backlog.BatchSize())})
		} else {
			logrus.Warnf("[t=%s] %s washing found fewer than %d dishes", k.clock.Now(), w.id, k.backlog.BatchSize())
		}
	case InstructionCleaning:
	}
	k.emit(Event{Type: EventInstructionCompleted, Worker: w.id, Instruction: i})
	k.drain(w)
	k.settle()
}

func (k *Kitchen) advanceStage(w *Worker, i Instruction, step func() error, to Stage, count func() int) {
	if err := step(); err != nil {
		logrus.Warnf("[t=%s] %s finished %s with nothing to move: %v", k.clock.Now(), w.id, i, err)
		return
	}
	k.emit(Event{Type: EventStageAdvanced, Worker: w.id, Instruction: i, Stage: to, Count: count()})
}

// serve hands one dish over: it leaves ReadyToServe, takes a cutlery set,
// adds a dirty dish and seats a waiting customer if there is one.
func (k *Kitchen) serve(w *Worker) {
	if k.pipeline.ReadyToServe() == 0 || k.cutlery.Count() == 0 {
		logrus.Warnf("[t=%s] %s could not serve: ready=%d cutlery=%d", k.clock.Now(), w.id,
			k.pipeline.ReadyToServe(), k.cutlery.Count())
		return
	}
	_ = k.pipeline.Serve()
	k.cutlery.TryConsume(1)
	k.backlog.Add(1)
	if k.customers.Seat() {
		k.emitCustomers("served")
	}
	k.emit(Event{Type: EventStageAdvanced, Worker: w.id, Instruction: InstructionServing, Stage: StageServed,
		Count: k.pipeline.Served()})
}

// drain starts the worker's next feasible queued instruction if it is idle.
// Instructions that can no longer start are dropped with an event.
func (k *Kitchen) drain(w *Worker) {
	for w.State() == StateIdle {
		next, ok := w.popQueue()
		if !ok {
			k.emit(Event{Type: EventWorkerIdle, Worker: w.id})
			return
		}
		if err := k.claim(next); err != nil {
			logrus.Warnf("[t=%s] %s skips queued %s: %v", k.clock.Now(), w.id, next, err)
			k.emit(Event{Type: EventInstructionSkipped, Worker: w.id, Instruction: next, Message: err.Error()})
			continue
		}
		k.start(w, next)
	}
}

func (k *Kitchen) onBatchDone(b *CookBatch) {
	logrus.Infof("[t=%s] batch %s (%s %s) done, slot %d free", k.clock.Now(), b.ID, b.ProductID, b.Doneness, b.slot.index)
	k.emit(Event{Type: EventBatchDone, Worker: b.Worker, ProductID: b.ProductID, Doneness: b.Doneness,
		BatchID: b.ID, Stage: StagePlatingWait, Count: k.pipeline.PlatingWait()})
	k.releaseBatch(b)
	k.settle()
}

// releaseBatch ends the owning worker's Boiling state once its last batch is gone.
func (k *Kitchen) releaseBatch(b *CookBatch) {
	w := k.workers[b.Worker]
	if w == nil || w.batches == 0 {
		return
	}
	w.batches--
	if w.batches == 0 {
		k.drain(w)
	}
}

// === helpers ===

func (k *Kitchen) worker(id WorkerID) (*Worker, error) {
	w, ok := k.workers[id]
	if !ok {
		return nil, invalidRef(ReasonUnknownWorker, "%q", id)
	}
	return w, nil
}

func (k *Kitchen) checkProduct(productID string) error {
	if _, ok := k.cfg.Products[productID]; !ok {
		return invalidRef(ReasonUnknownDish, "%q", productID)
	}
	return nil
}

func (k *Kitchen) reject(command string, err error) error {
	logrus.Warnf("[t=%s] %s rejected: %v", k.clock.Now(), command, err)
	k.emit(Event{Type: EventCommandRejected, Message: fmt.Sprintf("%s: %v", command, err)})
	return err
}

func (k *Kitchen) emitCustomers(what string) {
	c := k.customers.Counts()
	k.emit(Event{Type: EventCustomerChanged, Message: fmt.Sprintf("%s (line=%d waiting=%d eating=%d leaving=%d)",
		what, c.InLine, c.Waiting, c.Eating, c.Leaving)})
}

// settle recomputes advisories after a state change and emits them when
// they differ from the last emitted list.
func (k *Kitchen) settle() {
	adv := ComputeAdvisories(k.snapshotState(), k.cfg.Advisory)
	if advisoriesEqual(adv, k.lastAdvisories) {
		return
	}
	k.lastAdvisories = adv
	k.emit(Event{Type: EventAdvisoriesChanged, Advisories: append([]Advisory(nil), adv...), Count: len(adv)})
}

func (k *Kitchen) emit(e Event) {
	k.seq++
	e.Seq = k.seq
	e.At = k.clock.Now()
	logrus.Debugf("[t=%s] event #%d %s", e.At, e.Seq, e.Type)
	for _, s := range k.sinks {
		s.Emit(e)
	}
}
