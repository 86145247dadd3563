package cmd

import (
	"fmt"
	"io"

	"github.com/hrdmtr/genbapower-sub000/sim"
)

// printSnapshot writes the kitchen state in the same column layout as the
// trace summary.
func printSnapshot(w io.Writer, s sim.Snapshot) {
	fmt.Fprintln(w, "=== Kitchen Snapshot ===")
	fmt.Fprintf(w, "At                   : %s\n", s.At)
	fmt.Fprintf(w, "Queued               : %d\n", s.QueuedTotal)
	for _, q := range s.Queued {
		fmt.Fprintf(w, "  %-8s %-10s : %d\n", q.ProductID, q.Doneness, q.Count)
	}
	fmt.Fprintf(w, "Boiler               : %d/%d\n", s.Boiler.Occupied, s.Boiler.Capacity)
	for _, b := range s.Boiler.Batches {
		fmt.Fprintf(w, "  slot %d %s %s (%s) : %ds left\n", b.Slot, b.ProductID, b.Doneness, b.Worker, b.RemainingSeconds)
	}
	fmt.Fprintf(w, "Plating wait         : %d\n", s.PlatingWait)
	fmt.Fprintf(w, "Plated               : %d\n", s.Plated)
	fmt.Fprintf(w, "Ready to serve       : %d\n", s.ReadyToServe)
	fmt.Fprintf(w, "Served               : %d\n", s.Served)
	fmt.Fprintf(w, "Cutlery              : %d\n", s.Cutlery)
	fmt.Fprintf(w, "Dish backlog         : %d\n", s.DishBacklog)
	for _, wv := range s.Workers {
		fmt.Fprintf(w, "Worker %-14s: %s (queue %d)\n", wv.ID, wv.State, len(wv.Queue))
	}
	c := s.Customers
	fmt.Fprintf(w, "Customers l/w/e/x    : %d/%d/%d/%d\n", c.InLine, c.Waiting, c.Eating, c.Leaving)
}

// printAdvice writes the current advisories and one recommendation per worker.
func printAdvice(w io.Writer, k *sim.Kitchen) {
	s := k.Snapshot()
	fmt.Fprintf(w, "=== Advisories at %s ===\n", s.At)
	if len(s.Advisories) == 0 {
		fmt.Fprintln(w, "(none)")
	}
	for _, a := range s.Advisories {
		fmt.Fprintf(w, "%-16s %-9s %d\n", a.Kind, a.Severity, a.Count)
	}
	fmt.Fprintln(w, "=== Recommendations ===")
	for _, wv := range s.Workers {
		r, err := k.Recommend(wv.ID)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%-6s %-16s %s\n", r.Worker, r.Action, r.Message)
	}
}
