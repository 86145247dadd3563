package sim

import "time"

// EventType names a structured kitchen event. The kitchen never talks to a
// UI, speaker or database directly; collaborators subscribe to these instead.
type EventType string

const (
	EventOrderPlaced          EventType = "order_placed"
	EventCookingStarted       EventType = "cooking_started"
	EventBatchDone            EventType = "batch_done"
	EventBatchVoided          EventType = "batch_voided"
	EventStageAdvanced        EventType = "stage_advanced"
	EventInstructionQueued    EventType = "instruction_queued"
	EventInstructionStarted   EventType = "instruction_started"
	EventInstructionCompleted EventType = "instruction_completed"
	EventInstructionSkipped   EventType = "instruction_skipped"
	EventWorkerIdle           EventType = "worker_idle"
	EventCutleryRefilled      EventType = "cutlery_refilled"
	EventDishesWashed         EventType = "dishes_washed"
	EventCustomerChanged      EventType = "customer_changed"
	EventCommandRejected      EventType = "command_rejected"
	EventAdvisoriesChanged    EventType = "advisories_changed"
)

// Event is one emitted fact. Only the fields relevant to Type are set.
type Event struct {
	Seq         uint64        `json:"seq"`
	At          time.Duration `json:"at"`
	Type        EventType     `json:"type"`
	Worker      WorkerID      `json:"worker,omitempty"`
	Instruction Instruction   `json:"instruction,omitempty"`
	ProductID   string        `json:"product_id,omitempty"`
	Doneness    Doneness      `json:"doneness,omitempty"`
	BatchID     string        `json:"batch_id,omitempty"`
	Stage       Stage         `json:"stage,omitempty"`
	Count       int           `json:"count,omitempty"`
	Advisories  []Advisory    `json:"advisories,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// EventSink receives events synchronously, on the kitchen's goroutine.
// Implementations must not call back into the kitchen.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }
