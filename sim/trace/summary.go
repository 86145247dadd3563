package trace

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hrdmtr/genbapower-sub000/sim"
)

// TraceSummary aggregates statistics from a Recorder.
type TraceSummary struct {
	TotalEvents      int
	EventCounts      map[sim.EventType]int
	OrdersByDoneness map[sim.Doneness]int
	BatchesDone      int
	BatchesVoided    int
	MeanBoil         time.Duration
	Served           int
	Rejections       int
	BusyTime         map[sim.WorkerID]time.Duration // finished timed instructions only
}

// Summarize computes aggregate statistics from a Recorder.
// Safe for nil or empty recorders (returns zero-value fields).
func Summarize(r *Recorder) *TraceSummary {
	summary := &TraceSummary{
		EventCounts:      make(map[sim.EventType]int),
		OrdersByDoneness: make(map[sim.Doneness]int),
		BusyTime:         make(map[sim.WorkerID]time.Duration),
	}
	if r == nil {
		return summary
	}

	for typ, n := range r.counts {
		summary.EventCounts[typ] = n
		summary.TotalEvents += n
	}
	for d, n := range r.ordered {
		summary.OrdersByDoneness[d] = n
	}

	var boil time.Duration
	for _, b := range r.Batches {
		switch {
		case b.Voided:
			summary.BatchesVoided++
		case b.FinishedAt > 0:
			summary.BatchesDone++
			boil += b.FinishedAt - b.StartedAt
		}
	}
	if summary.BatchesDone > 0 {
		summary.MeanBoil = boil / time.Duration(summary.BatchesDone)
	}

	for _, task := range r.Tasks {
		if task.FinishedAt > 0 {
			summary.BusyTime[task.Worker] += task.FinishedAt - task.StartedAt
		}
	}
	summary.Served = r.served
	summary.Rejections = len(r.Rejections)

	return summary
}

// Print writes the summary in the same column layout as the final snapshot.
func (s *TraceSummary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Kitchen Trace ===")
	fmt.Fprintf(w, "Events               : %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Orders h/n/s         : %d/%d/%d\n",
		s.OrdersByDoneness[sim.DonenessHard], s.OrdersByDoneness[sim.DonenessNormal], s.OrdersByDoneness[sim.DonenessSoft])
	fmt.Fprintf(w, "Batches done         : %d\n", s.BatchesDone)
	fmt.Fprintf(w, "Batches voided       : %d\n", s.BatchesVoided)
	if s.BatchesDone > 0 {
		fmt.Fprintf(w, "Mean boil            : %s\n", s.MeanBoil)
	}
	fmt.Fprintf(w, "Served               : %d\n", s.Served)
	fmt.Fprintf(w, "Rejections           : %d\n", s.Rejections)

	workers := make([]string, 0, len(s.BusyTime))
	for id := range s.BusyTime {
		workers = append(workers, string(id))
	}
	sort.Strings(workers)
	for _, id := range workers {
		fmt.Fprintf(w, "Busy %-16s: %s\n", id, s.BusyTime[sim.WorkerID(id)])
	}
}
