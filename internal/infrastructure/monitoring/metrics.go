package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the resolve and fetch collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// Resolve metrics
	ResolvesTotal   *prometheus.CounterVec
	ResolveDuration *prometheus.HistogramVec

	// Fetch metrics
	FetchDuration *prometheus.HistogramVec
	FetchBytes    prometheus.Histogram

	// Policy metrics
	Rejections prometheus.Counter

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for human-readable reporting
type Snapshot struct {
	Resolves      int64
	Failures      int64
	Fetches       int64
	FetchDuration float64 // sum of fetch durations in seconds
}

// NewMetrics registers collectors on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ResolvesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetfetch_resolves_total",
				Help: "Total number of resolve calls",
			},
			[]string{"classification", "outcome"},
		),
		ResolveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assetfetch_resolve_duration_seconds",
				Help:    "Resolve duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"classification"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assetfetch_fetch_duration_seconds",
				Help:    "Outbound fetch duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status"},
		),
		FetchBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assetfetch_fetch_response_size_bytes",
				Help:    "Decoded fetch response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
		),
		Rejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "assetfetch_domain_rejections_total",
				Help: "Total number of references refused by the domain allow-list",
			},
		),
	}
}

// RecordResolve records the outcome of one resolve call
func (m *Metrics) RecordResolve(classification, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ResolvesTotal.WithLabelValues(classification, outcome).Inc()
	m.ResolveDuration.WithLabelValues(classification).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Resolves++
	if outcome != OutcomeSuccess {
		m.snapshot.Failures++
	}
	m.mu.Unlock()
}

// RecordFetch records one outbound fetch
func (m *Metrics) RecordFetch(status string, duration time.Duration, size int) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(status).Observe(duration.Seconds())
	if size >= 0 {
		m.FetchBytes.Observe(float64(size))
	}

	m.mu.Lock()
	m.snapshot.Fetches++
	m.snapshot.FetchDuration += duration.Seconds()
	m.mu.Unlock()
}

// IncRejections counts an allow-list rejection
func (m *Metrics) IncRejections() {
	if m == nil {
		return
	}
	m.Rejections.Inc()
}

// Snapshot returns a copy of the running totals
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// OutcomeSuccess is the outcome label of a successful resolve
const OutcomeSuccess = "success"

// Timer measures a resolve
type Timer struct {
	start          time.Time
	metrics        *Metrics
	classification string
}

// NewTimer starts timing a resolve
func NewTimer(metrics *Metrics) *Timer {
	return &Timer{start: time.Now(), metrics: metrics, classification: "unclassified"}
}

// Classify sets the classification label
func (t *Timer) Classify(classification string) {
	t.classification = classification
}

// Stop records the resolve with outcome
func (t *Timer) Stop(outcome string) time.Duration {
	duration := time.Since(t.start)
	t.metrics.RecordResolve(t.classification, outcome, duration)
	return duration
}
