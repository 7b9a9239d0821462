// Package metrics holds the Prometheus instruments for the suggestion cache.
// Each Metrics value owns a private registry so a session can report its own
// counters without a scrape endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records cache and compute activity.
type Metrics struct {
	registry *prometheus.Registry

	CacheHits     prometheus.Counter
	CacheMisses   *prometheus.CounterVec
	PersistErrors prometheus.Counter
	// ComputeSeconds is the latency of provider calls made on a miss.
	ComputeSeconds prometheus.Histogram
}

// New creates and registers the instruments.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aidebug_cache_hits_total",
			Help: "Total number of suggestions served from the cache.",
		}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aidebug_cache_misses_total",
			Help: "Total number of cache misses, by reason.",
		}, []string{"reason"}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aidebug_cache_persist_errors_total",
			Help: "Total number of failed cache saves.",
		}),
		ComputeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aidebug_compute_seconds",
			Help:    "Latency of suggestion computation in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
	}
	m.registry.MustRegister(m.CacheHits, m.CacheMisses, m.PersistErrors, m.ComputeSeconds)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Hit() {
	m.CacheHits.Inc()
}

// Miss counts a miss. stale means an entry existed but its digest differed.
func (m *Metrics) Miss(stale bool) {
	reason := "absent"
	if stale {
		reason = "stale"
	}
	m.CacheMisses.WithLabelValues(reason).Inc()
}

func (m *Metrics) PersistError() {
	m.PersistErrors.Inc()
}

func (m *Metrics) ObserveCompute(d time.Duration) {
	m.ComputeSeconds.Observe(d.Seconds())
}

// Snapshot is a point-in-time summary of the counters.
type Snapshot struct {
	Hits           float64 `json:"hits"`
	Misses         float64 `json:"misses"`
	StaleMisses    float64 `json:"staleMisses"`
	PersistErrors  float64 `json:"persistErrors"`
	Computes       uint64  `json:"computes"`
	ComputeSeconds float64 `json:"computeSeconds"`
}

// Snapshot gathers the registry into a Snapshot.
func (m *Metrics) Snapshot() (Snapshot, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Snapshot{}, err
	}
	var s Snapshot
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch mf.GetName() {
			case "aidebug_cache_hits_total":
				s.Hits += metric.GetCounter().GetValue()
			case "aidebug_cache_misses_total":
				v := metric.GetCounter().GetValue()
				s.Misses += v
				for _, lp := range metric.GetLabel() {
					if lp.GetName() == "reason" && lp.GetValue() == "stale" {
						s.StaleMisses += v
					}
				}
			case "aidebug_cache_persist_errors_total":
				s.PersistErrors += metric.GetCounter().GetValue()
			case "aidebug_compute_seconds":
				s.Computes += metric.GetHistogram().GetSampleCount()
				s.ComputeSeconds += metric.GetHistogram().GetSampleSum()
			}
		}
	}
	return s, nil
}
