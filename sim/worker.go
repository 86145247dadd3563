package sim

import (
	"fmt"
	"time"
)

// WorkerID names one of the two staff members.
type WorkerID string

const (
	WorkerMain WorkerID = "main"
	WorkerSub  WorkerID = "sub"
)

// ParseWorkerID accepts "main" or "sub".
func ParseWorkerID(s string) (WorkerID, error) {
	switch WorkerID(s) {
	case WorkerMain, WorkerSub:
		return WorkerID(s), nil
	}
	return "", invalidRef(ReasonUnknownWorker, "%q", s)
}

// WorkerState is what a staff member is doing right now.
type WorkerState string

const (
	StateIdle             WorkerState = "idle"
	StateBoiling          WorkerState = "boiling"
	StatePlating          WorkerState = "plating"
	StateGarnishing       WorkerState = "garnishing"
	StateServing          WorkerState = "serving"
	StateRefillingCutlery WorkerState = "refilling_cutlery"
	StateWashing          WorkerState = "washing"
	StateCleaning         WorkerState = "cleaning"
)

// Instruction is a timed task token that can be dispatched to a worker.
// Its string value is the state the worker is in while carrying it out.
type Instruction string

const (
	InstructionPlating          Instruction = Instruction(StatePlating)
	InstructionGarnishing       Instruction = Instruction(StateGarnishing)
	InstructionServing          Instruction = Instruction(StateServing)
	InstructionRefillingCutlery Instruction = Instruction(StateRefillingCutlery)
	InstructionWashing          Instruction = Instruction(StateWashing)
	InstructionCleaning         Instruction = Instruction(StateCleaning)
)

// TimedInstructions lists every instruction accepted by AdvanceWorker.
func TimedInstructions() []Instruction {
	return []Instruction{
		InstructionPlating,
		InstructionGarnishing,
		InstructionServing,
		InstructionRefillingCutlery,
		InstructionWashing,
		InstructionCleaning,
	}
}

// ParseInstruction accepts the snake_case name of a timed instruction.
// "boiling" is not an instruction: cooking starts through StartCooking.
func ParseInstruction(s string) (Instruction, error) {
	for _, i := range TimedInstructions() {
		if string(i) == s {
			return i, nil
		}
	}
	return "", invalidRef(ReasonBadCommand, "%q", s)
}

// State returns the worker state while the instruction runs.
func (i Instruction) State() WorkerState { return WorkerState(i) }

// activeTask is the single instruction a worker is carrying out.
type activeTask struct {
	instruction Instruction
	startedAt   time.Duration
	timer       *Timer
}

// Worker is one staff member: at most one active instruction, a FIFO of
// pending ones, and the cook batches it started. Lives for the whole session.
type Worker struct {
	id      WorkerID
	active  *activeTask
	queue   []Instruction
	batches int // cook batches owned by this worker still in the boiler
}

func newWorker(id WorkerID) *Worker {
	return &Worker{id: id}
}

func (w *Worker) ID() WorkerID { return w.id }

// State is derived rather than stored: the active instruction wins, otherwise
// the worker is Boiling exactly while it owns a batch, otherwise Idle.
func (w *Worker) State() WorkerState {
	switch {
	case w.active != nil:
		return w.active.instruction.State()
	case w.batches > 0:
		return StateBoiling
	default:
		return StateIdle
	}
}

// Queue returns a copy of the pending instructions, head first.
func (w *Worker) Queue() []Instruction {
	return append([]Instruction(nil), w.queue...)
}

// ActiveBatches returns the number of this worker's batches still boiling.
func (w *Worker) ActiveBatches() int { return w.batches }

func (w *Worker) enqueue(i Instruction) {
	w.queue = append(w.queue, i)
}

func (w *Worker) popQueue() (Instruction, bool) {
	if len(w.queue) == 0 {
		return "", false
	}
	head := w.queue[0]
	w.queue = w.queue[1:]
	return head, true
}

// queued counts pending instructions of kind i.
func (w *Worker) queued(i Instruction) int {
	n := 0
	for _, q := range w.queue {
		if q == i {
			n++
		}
	}
	return n
}

func (w *Worker) String() string {
	return fmt.Sprintf("Worker(%s, state=%s, queue=%v, batches=%d)", w.id, w.State(), w.queue, w.batches)
}
