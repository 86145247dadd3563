package sim

import "fmt"

// AdvisoryKind names a derived "do this next" signal.
type AdvisoryKind string

const (
	AdvisoryCookingNeeded AdvisoryKind = "cooking_needed"
	AdvisoryPlatingNeeded AdvisoryKind = "plating_needed"
	AdvisoryGarnishNeeded AdvisoryKind = "garnish_needed"
	AdvisoryServingNeeded AdvisoryKind = "serving_needed"
)

// Severity grades an advisory by how many dishes it concerns.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Advisory is a non-authoritative hint for operators.
type Advisory struct {
	Kind     AdvisoryKind `json:"kind"`
	Count    int          `json:"count"`
	Severity Severity     `json:"severity"`
}

// SeverityFor grades a count against the policy thresholds.
func SeverityFor(count int, p AdvisoryPolicy) Severity {
	switch {
	case count >= p.CriticalAt:
		return SeverityCritical
	case count >= p.WarningAt:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// ComputeAdvisories derives every applicable advisory from s. It reads
// nothing but its arguments, so equal inputs always give equal outputs.
// The rules are independent; the result is in rule order.
func ComputeAdvisories(s Snapshot, p AdvisoryPolicy) []Advisory {
	out := make([]Advisory, 0, 4)
	add := func(kind AdvisoryKind, count int) {
		out = append(out, Advisory{Kind: kind, Count: count, Severity: SeverityFor(count, p)})
	}
	if s.QueuedTotal > 0 && !s.AnyWorkerIn(StateBoiling) && s.Boiler.Free() > 0 {
		add(AdvisoryCookingNeeded, s.QueuedTotal)
	}
	if s.PlatingWait > 0 && !s.AnyWorkerIn(StatePlating) {
		add(AdvisoryPlatingNeeded, s.PlatingWait)
	}
	if s.Plated > 0 && !s.AnyWorkerIn(StateGarnishing) {
		add(AdvisoryGarnishNeeded, s.Plated)
	}
	if s.ReadyToServe > 0 && !s.AnyWorkerIn(StateServing) {
		add(AdvisoryServingNeeded, s.ReadyToServe)
	}
	return out
}

func advisoriesEqual(a, b []Advisory) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// RecommendedAction is the single next step suggested to one staff member.
type RecommendedAction string

const (
	ActionStartCooking  RecommendedAction = "start_cooking"
	ActionPlate         RecommendedAction = "plate"
	ActionGarnish       RecommendedAction = "garnish"
	ActionServe         RecommendedAction = "serve"
	ActionWash          RecommendedAction = "wash"
	ActionRefillCutlery RecommendedAction = "refill_cutlery"
	ActionTidy          RecommendedAction = "tidy"
)

// Recommendation is what the "instruct" button tells one worker.
type Recommendation struct {
	Worker  WorkerID          `json:"worker"`
	Action  RecommendedAction `json:"action"`
	Count   int               `json:"count"`
	Message string            `json:"message"`
}

// RecommendFor picks the highest-priority job for worker id. The main worker
// runs the boiler and plates noodles; the sub worker garnishes and keeps
// the counter stocked. Both can serve.
func RecommendFor(id WorkerID, s Snapshot, p AdvisoryPolicy) Recommendation {
	self, _ := s.Worker(id)
	serveReady := s.ReadyToServe > 0 && s.Cutlery > 0 && !s.AnyWorkerIn(StateServing)

	rec := func(a RecommendedAction, n int, format string, args ...any) Recommendation {
		return Recommendation{Worker: id, Action: a, Count: n, Message: fmt.Sprintf(format, args...)}
	}

	switch id {
	case WorkerMain:
		// a free boiler slot takes priority even while already boiling
		if s.QueuedTotal > 0 && s.Boiler.Free() > 0 {
			return rec(ActionStartCooking, s.QueuedTotal, "%d waiting to cook: start cooking now", s.QueuedTotal)
		}
		if s.PlatingWait > 0 && self.State != StatePlating {
			return rec(ActionPlate, s.PlatingWait, "%d waiting for plating: plate noodles now", s.PlatingWait)
		}
		if serveReady {
			return rec(ActionServe, s.ReadyToServe, "%d ready: serve now", s.ReadyToServe)
		}
	case WorkerSub:
		if s.Plated > 0 && self.State != StateGarnishing {
			return rec(ActionGarnish, s.Plated, "%d waiting for toppings: garnish now", s.Plated)
		}
		if serveReady {
			return rec(ActionServe, s.ReadyToServe, "%d ready: serve now", s.ReadyToServe)
		}
		// washing takes a whole batch, so a smaller pile is not yet washable
		if s.DishBacklog > p.WashBacklogOver && s.DishBacklog >= s.WashBatch {
			return rec(ActionWash, s.DishBacklog, "%d dirty dishes: please wash up", s.DishBacklog)
		}
		if s.Cutlery < p.LowCutlery {
			return rec(ActionRefillCutlery, s.Cutlery, "%d cutlery sets left: please refill", s.Cutlery)
		}
	}
	return rec(ActionTidy, 0, "tidy up the kitchen")
}
