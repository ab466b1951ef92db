package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements Recorder on a private registry.
type Prometheus struct {
	reg *prometheus.Registry

	assignments   *prometheus.CounterVec
	partsCreated  *prometheus.CounterVec
	statusChanges *prometheus.CounterVec
	recomputes    prometheus.Counter
	progress      prometheus.Histogram
	notifications *prometheus.CounterVec
	publishes     *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	insights      *prometheus.HistogramVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus registers collectors under namespace (default "workboard"),
// including the Go runtime and process collectors.
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "workboard"
	}
	p := &Prometheus{
		reg: prometheus.NewRegistry(),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parts",
			Name:      "assignments_total",
			Help:      "Assignment attempts by outcome.",
		}, []string{"outcome"}),
		partsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parts",
			Name:      "created_total",
			Help:      "Part creation attempts by outcome.",
		}, []string{"outcome"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parts",
			Name:      "status_changes_total",
			Help:      "Applied status transitions by target status.",
		}, []string{"status"}),
		recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projects",
			Name:      "progress_recomputes_total",
			Help:      "Project progress recomputations.",
		}),
		progress: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "projects",
			Name:      "progress_percent",
			Help:      "Distribution of recomputed project progress.",
			Buckets:   []float64{0, 10, 25, 50, 75, 90, 100},
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "created_total",
			Help:      "Notifications written by type.",
		}, []string{"type"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Event publish attempts by result.",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the write rate limiter.",
		}, []string{"route"}),
		insights: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "insights",
			Name:      "duration_seconds",
			Help:      "Time to compute an insight by scope.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		}, []string{"scope"}),
	}
	p.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.assignments,
		p.partsCreated,
		p.statusChanges,
		p.recomputes,
		p.progress,
		p.notifications,
		p.publishes,
		p.rateLimited,
		p.insights,
	)
	return p
}

// Registry exposes the underlying registry, mainly for tests.
func (p *Prometheus) Registry() *prometheus.Registry { return p.reg }

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}

func (p *Prometheus) RecordAssignment(outcome string) {
	p.assignments.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) RecordPartCreated(outcome string) {
	p.partsCreated.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) RecordStatusChange(status string) {
	p.statusChanges.WithLabelValues(status).Inc()
}

func (p *Prometheus) RecordProgressRecompute(progress float64) {
	p.recomputes.Inc()
	p.progress.Observe(progress)
}

func (p *Prometheus) RecordNotification(kind string) {
	p.notifications.WithLabelValues(kind).Inc()
}

func (p *Prometheus) RecordEventPublish(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	p.publishes.WithLabelValues(result).Inc()
}

func (p *Prometheus) RecordRateLimited(route string) {
	p.rateLimited.WithLabelValues(route).Inc()
}

func (p *Prometheus) ObserveInsight(scope string, seconds float64) {
	p.insights.WithLabelValues(scope).Observe(seconds)
}
