package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrdmtr/genbapower-sub000/sim"
)

// Metrics exports kitchen state as prometheus gauges on a private registry.
// Events are counted as they happen; gauges are refreshed from a snapshot
// on every scrape.
type Metrics struct {
	registry *prometheus.Registry

	events      *prometheus.CounterVec
	queued      prometheus.Gauge
	boiler      *prometheus.GaugeVec
	stages      *prometheus.GaugeVec
	cutlery     prometheus.Gauge
	backlog     prometheus.Gauge
	workerState *prometheus.GaugeVec
	queueLength *prometheus.GaugeVec
	advisories  *prometheus.GaugeVec
	customers   *prometheus.GaugeVec
}

// NewMetrics creates and registers the kitchen collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "kitchen_events_total", Help: "Kitchen events emitted, by type"},
			[]string{"type"},
		),
		queued: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "kitchen_queued_dishes", Help: "Dishes ordered but not yet boiling"},
		),
		boiler: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "kitchen_boiler_slots", Help: "Boiler slots by occupancy"},
			[]string{"state"},
		),
		stages: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "kitchen_stage_dishes", Help: "Dishes in each post-boil stage"},
			[]string{"stage"},
		),
		cutlery: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "kitchen_cutlery_sets", Help: "Clean cutlery sets in stock"},
		),
		backlog: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "kitchen_dish_backlog", Help: "Dirty dishes waiting to be washed"},
		),
		workerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "kitchen_worker_state", Help: "1 for the state each worker is in, 0 otherwise"},
			[]string{"worker", "state"},
		),
		queueLength: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "kitchen_worker_queue_length", Help: "Pending instructions per worker"},
			[]string{"worker"},
		),
		advisories: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "kitchen_advisory_dishes", Help: "Dishes behind each active advisory"},
			[]string{"kind"},
		),
		customers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "kitchen_customers", Help: "Customers by where they are in their visit"},
			[]string{"where"},
		),
	}
	m.registry.MustRegister(m.events, m.queued, m.boiler, m.stages, m.cutlery, m.backlog,
		m.workerState, m.queueLength, m.advisories, m.customers)
	return m
}

// Emit implements sim.EventSink.
func (m *Metrics) Emit(e sim.Event) {
	m.events.WithLabelValues(string(e.Type)).Inc()
}

var allWorkerStates = []sim.WorkerState{
	sim.StateIdle, sim.StateBoiling, sim.StatePlating, sim.StateGarnishing,
	sim.StateServing, sim.StateRefillingCutlery, sim.StateWashing, sim.StateCleaning,
}

var allAdvisoryKinds = []sim.AdvisoryKind{
	sim.AdvisoryCookingNeeded, sim.AdvisoryPlatingNeeded, sim.AdvisoryGarnishNeeded, sim.AdvisoryServingNeeded,
}

// Observe refreshes every gauge from s.
func (m *Metrics) Observe(s sim.Snapshot) {
	m.queued.Set(float64(s.QueuedTotal))
	m.boiler.WithLabelValues("occupied").Set(float64(s.Boiler.Occupied))
	m.boiler.WithLabelValues("free").Set(float64(s.Boiler.Free()))
	m.stages.WithLabelValues(string(sim.StagePlatingWait)).Set(float64(s.PlatingWait))
	m.stages.WithLabelValues(string(sim.StagePlated)).Set(float64(s.Plated))
	m.stages.WithLabelValues(string(sim.StageReadyToServe)).Set(float64(s.ReadyToServe))
	m.stages.WithLabelValues(string(sim.StageServed)).Set(float64(s.Served))
	m.cutlery.Set(float64(s.Cutlery))
	m.backlog.Set(float64(s.DishBacklog))

	for _, w := range s.Workers {
		for _, st := range allWorkerStates {
			v := 0.0
			if w.State == st {
				v = 1
			}
			m.workerState.WithLabelValues(string(w.ID), string(st)).Set(v)
		}
		m.queueLength.WithLabelValues(string(w.ID)).Set(float64(len(w.Queue)))
	}

	active := make(map[sim.AdvisoryKind]int, len(s.Advisories))
	for _, a := range s.Advisories {
		active[a.Kind] = a.Count
	}
	for _, kind := range allAdvisoryKinds {
		m.advisories.WithLabelValues(string(kind)).Set(float64(active[kind]))
	}

	m.customers.WithLabelValues("in_line").Set(float64(s.Customers.InLine))
	m.customers.WithLabelValues("waiting").Set(float64(s.Customers.Waiting))
	m.customers.WithLabelValues("eating").Set(float64(s.Customers.Eating))
	m.customers.WithLabelValues("leaving").Set(float64(s.Customers.Leaving))
}

// Handler serves the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// handleMetrics refreshes gauges on the kitchen loop, then serves them.
func (s *Server) handleMetrics(c *gin.Context) {
	if err := s.exec(c, func() { s.metrics.Observe(s.kitchen.Snapshot()) }); err != nil {
		writeError(c, err)
		return
	}
	gin.WrapH(s.metrics.Handler())(c)
}
