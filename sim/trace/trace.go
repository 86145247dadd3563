package trace

import "github.com/hrdmtr/genbapower-sub000/sim"

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelRecords keeps batch, task and rejection records only.
	TraceLevelRecords TraceLevel = "records"
	// TraceLevelEvents additionally keeps every raw event.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelRecords: true,
	TraceLevelEvents:  true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// Recorder is an EventSink that turns the kitchen's event stream into records.
type Recorder struct {
	Level      TraceLevel
	Events     []sim.Event
	Batches    []BatchRecord
	Tasks      []TaskRecord
	Rejections []RejectionRecord

	counts      map[sim.EventType]int
	openBatches map[string]int       // batch ID -> index into Batches
	openTasks   map[sim.WorkerID]int // worker -> index into Tasks
	ordered     map[sim.Doneness]int
	served      int
}

// NewRecorder creates a Recorder ready for recording.
func NewRecorder(level TraceLevel) *Recorder {
	return &Recorder{
		Level:       level,
		Events:      make([]sim.Event, 0),
		Batches:     make([]BatchRecord, 0),
		Tasks:       make([]TaskRecord, 0),
		Rejections:  make([]RejectionRecord, 0),
		counts:      make(map[sim.EventType]int),
		openBatches: make(map[string]int),
		openTasks:   make(map[sim.WorkerID]int),
		ordered:     make(map[sim.Doneness]int),
	}
}

// Emit implements sim.EventSink.
func (r *Recorder) Emit(e sim.Event) {
	if r.Level == TraceLevelNone || r.Level == "" {
		return
	}
	r.counts[e.Type]++
	if r.Level == TraceLevelEvents {
		r.Events = append(r.Events, e)
	}

	switch e.Type {
	case sim.EventOrderPlaced:
		r.ordered[e.Doneness]++
	case sim.EventCookingStarted:
		r.openBatches[e.BatchID] = len(r.Batches)
		r.Batches = append(r.Batches, BatchRecord{
			BatchID:   e.BatchID,
			ProductID: e.ProductID,
			Doneness:  e.Doneness,
			Worker:    e.Worker,
			StartedAt: e.At,
		})
	case sim.EventBatchDone, sim.EventBatchVoided:
		if i, ok := r.openBatches[e.BatchID]; ok {
			r.Batches[i].FinishedAt = e.At
			r.Batches[i].Voided = e.Type == sim.EventBatchVoided
			delete(r.openBatches, e.BatchID)
		}
	case sim.EventInstructionStarted:
		r.openTasks[e.Worker] = len(r.Tasks)
		r.Tasks = append(r.Tasks, TaskRecord{Worker: e.Worker, Instruction: e.Instruction, StartedAt: e.At})
	case sim.EventInstructionCompleted:
		if i, ok := r.openTasks[e.Worker]; ok {
			r.Tasks[i].FinishedAt = e.At
			delete(r.openTasks, e.Worker)
		}
	case sim.EventStageAdvanced:
		if e.Stage == sim.StageServed {
			r.served++
		}
	case sim.EventCommandRejected:
		r.Rejections = append(r.Rejections, RejectionRecord{At: e.At, Message: e.Message})
	case sim.EventInstructionSkipped:
		r.Rejections = append(r.Rejections, RejectionRecord{At: e.At, Worker: e.Worker, Message: e.Message})
	}
}
