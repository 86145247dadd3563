package sim

import "time"

// QueuedTally is the number of queued dishes for one product and doneness.
type QueuedTally struct {
	ProductID string   `json:"product_id"`
	Doneness  Doneness `json:"doneness"`
	Count     int      `json:"count"`
}

// BatchView is a read-only view of a boiling batch.
type BatchView struct {
	ID               string   `json:"id"`
	ProductID        string   `json:"product_id"`
	Doneness         Doneness `json:"doneness"`
	Worker           WorkerID `json:"worker"`
	Slot             int      `json:"slot"`
	RemainingSeconds int      `json:"remaining_seconds"`
	TotalSeconds     int      `json:"total_seconds"`
}

// BoilerView is a read-only view of boiler occupancy.
type BoilerView struct {
	Capacity int         `json:"capacity"`
	Occupied int         `json:"occupied"`
	Batches  []BatchView `json:"batches"`
}

// Free returns the number of unoccupied slots.
func (b BoilerView) Free() int { return b.Capacity - b.Occupied }

// WorkerView is a read-only view of one staff member.
type WorkerView struct {
	ID            WorkerID      `json:"id"`
	State         WorkerState   `json:"state"`
	Queue         []Instruction `json:"queue"`
	ActiveBatches int           `json:"active_batches"`
}

// CustomerCounts tallies customers by where they are in their visit.
type CustomerCounts struct {
	InLine  int `json:"in_line"`
	Waiting int `json:"waiting"`
	Eating  int `json:"eating"`
	Leaving int `json:"leaving"`
}

// Snapshot is a deep copy of the kitchen at one instant. Mutating it never
// affects the kitchen.
type Snapshot struct {
	At           time.Duration  `json:"at"`
	Queued       []QueuedTally  `json:"queued"`
	QueuedTotal  int            `json:"queued_total"`
	Boiler       BoilerView     `json:"boiler"`
	PlatingWait  int            `json:"plating_wait"`
	Plated       int            `json:"plated"`
	ReadyToServe int            `json:"ready_to_serve"`
	Served       int            `json:"served"`
	Cutlery      int            `json:"cutlery"`
	DishBacklog  int            `json:"dish_backlog"`
	WashBatch    int            `json:"wash_batch"` // dishes one Washing takes
	Workers      []WorkerView   `json:"workers"`
	Customers    CustomerCounts `json:"customers"`
	Advisories   []Advisory     `json:"advisories"`
}

// Worker returns the view of worker id.
func (s Snapshot) Worker(id WorkerID) (WorkerView, bool) {
	for _, w := range s.Workers {
		if w.ID == id {
			return w, true
		}
	}
	return WorkerView{}, false
}

// AnyWorkerIn reports whether some worker is currently in state.
func (s Snapshot) AnyWorkerIn(state WorkerState) bool {
	for _, w := range s.Workers {
		if w.State == state {
			return true
		}
	}
	return false
}

// InProgress counts dishes that have started cooking but are not yet served.
func (s Snapshot) InProgress() int {
	return s.Boiler.Occupied + s.PlatingWait + s.Plated + s.ReadyToServe
}

// Unserved counts every ordered dish not yet served.
func (s Snapshot) Unserved() int {
	return s.QueuedTotal + s.InProgress()
}

// ceilSeconds reports d in whole seconds, rounding up, as a countdown display would.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
