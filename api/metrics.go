package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry, so several
// routers can live in one process (tests).
type Metrics struct {
	registry *prometheus.Registry

	LeavesCreated      *prometheus.CounterVec
	LeavesRejected     *prometheus.CounterVec
	PlannedOccurrences prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		LeavesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_recurrence_leaves_created_total",
			Help: "Leave records created, by kind (seed, follow_on).",
		}, []string{"kind"}),
		LeavesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_recurrence_leaves_rejected_total",
			Help: "Leave submissions rejected, by error code.",
		}, []string{"code"}),
		PlannedOccurrences: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leave_recurrence_planned_occurrences",
			Help:    "Follow-on leaves planned per submitted seed.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
	}
	reg.MustRegister(
		m.LeavesCreated,
		m.LeavesRejected,
		m.PlannedOccurrences,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) created(followOns int) {
	m.LeavesCreated.WithLabelValues("seed").Inc()
	m.LeavesCreated.WithLabelValues("follow_on").Add(float64(followOns))
	m.PlannedOccurrences.Observe(float64(followOns))
}

func (m *Metrics) rejected(code string) {
	m.LeavesRejected.WithLabelValues(code).Inc()
}
