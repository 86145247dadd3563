// Package trace records kitchen events for post-run analysis.
// Records are pure data; nothing here feeds back into the kitchen.
package trace

import (
	"time"

	"github.com/hrdmtr/genbapower-sub000/sim"
)

// BatchRecord captures one cook batch from start to done or void.
type BatchRecord struct {
	BatchID    string
	ProductID  string
	Doneness   sim.Doneness
	Worker     sim.WorkerID
	StartedAt  time.Duration
	FinishedAt time.Duration // zero while still boiling
	Voided     bool
}

// TaskRecord captures one timed instruction carried out by a worker.
type TaskRecord struct {
	Worker      sim.WorkerID
	Instruction sim.Instruction
	StartedAt   time.Duration
	FinishedAt  time.Duration // zero while still running
}

// RejectionRecord captures a refused command or a skipped queued instruction.
type RejectionRecord struct {
	At      time.Duration
	Worker  sim.WorkerID // set for skipped instructions only
	Message string
}
