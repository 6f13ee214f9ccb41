// Package metrics adapts the teacher's package-level Prometheus
// collectors (internal/infrastructure/metrics) into an injectable
// Recorder: a small struct built once by cmd/dnsd and passed into
// responder.Responder, rather than promauto globals referenced from
// arbitrary call sites. No package-level mutable state per Design Note 3.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the counters/histograms the live request path
// updates. It is an interface so internal/core/responder never imports
// prometheus directly, matching the core's small-interface style
// (responder.Verifier, responder.Signer).
type Recorder interface {
	QueryHandled(rcode, qtype string, elapsed time.Duration)
	CacheLookup(hit bool)
}

// Registry is the concrete Recorder, grounded on the teacher's
// metrics.go collectors (QueriesTotal, QueryDuration, CacheOperations)
// but built by New against a caller-supplied prometheus.Registerer
// instead of registering into the global default registry at package
// init.
type Registry struct {
	queriesTotal    *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	cacheOperations *prometheus.CounterVec
}

// New registers the dnsd collectors against reg and returns a Registry
// ready to hand to responder.Responder.SetMetrics. Passing
// prometheus.NewRegistry() (rather than prometheus.DefaultRegisterer)
// keeps repeated calls in tests from panicking on duplicate
// registration, the same isolation concern the teacher's own
// test-local registries address in its integration tests.
func New(reg prometheus.Registerer) *Registry {
	f := promauto.With(reg)
	return &Registry{
		queriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dnsd_queries_total",
			Help: "Queries answered, labeled by response code and query type.",
		}, []string{"rcode", "qtype"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dnsd_query_duration_seconds",
			Help:    "Time spent in Responder.Respond.",
			Buckets: prometheus.DefBuckets,
		}, []string{"rcode"}),
		cacheOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dnsd_cache_operations_total",
			Help: "Cache lookups, labeled by hit/miss.",
		}, []string{"result"}),
	}
}

// QueryHandled records one completed Respond call.
func (m *Registry) QueryHandled(rcode, qtype string, elapsed time.Duration) {
	m.queriesTotal.WithLabelValues(rcode, qtype).Inc()
	m.queryDuration.WithLabelValues(rcode).Observe(elapsed.Seconds())
}

// CacheLookup records one cache.Lookup call's hit/miss outcome.
func (m *Registry) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheOperations.WithLabelValues(result).Inc()
}

// noop satisfies Recorder when no Registry is configured, so
// responder.Responder never needs a nil check on its hot path.
type noop struct{}

func (noop) QueryHandled(string, string, time.Duration) {}
func (noop) CacheLookup(bool)                           {}

// Noop returns a Recorder that discards every observation.
func Noop() Recorder { return noop{} }
