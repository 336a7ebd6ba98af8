package backend

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts backend calls and cache outcomes
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	cacheLookup *prometheus.CounterVec
}

// NewMetrics registers the backend collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "misight",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Calls made to the MiSight REST backend.",
		}, []string{"method", "resource", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "misight",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of calls to the MiSight REST backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "resource"}),
		cacheLookup: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "misight",
			Subsystem: "collections",
			Name:      "loads_total",
			Help:      "Collection reads by outcome (hit, miss).",
		}, []string{"resource", "outcome"}),
	}
}

func (m *Metrics) observe(method, resource string, status int, took time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, resource, code).Inc()
	m.duration.WithLabelValues(method, resource).Observe(took.Seconds())
}

func (m *Metrics) cacheOutcome(resource string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookup.WithLabelValues(resource, outcome).Inc()
}
