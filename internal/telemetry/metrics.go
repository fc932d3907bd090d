// Package telemetry records ingestion and lookup metrics. Counters are
// exported through a private Prometheus registry; a small in-memory
// summary backs the stats surfaces.
package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "otherwords"

// Ingest outcomes.
const (
	OutcomeIndexed = "indexed"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Lookup kinds.
const (
	KindPhrase    = "phrase"
	KindSignature = "signature"
)

// LatencyBucket groups lookup latencies for the summary.
type LatencyBucket string

const (
	LatencyP10ms  LatencyBucket = "<10ms"
	LatencyP50ms  LatencyBucket = "10-50ms"
	LatencyP100ms LatencyBucket = "50-100ms"
	LatencyP500ms LatencyBucket = "100-500ms"
	LatencySlow   LatencyBucket = ">500ms"
)

// BucketFor returns the bucket containing d.
func BucketFor(d time.Duration) LatencyBucket {
	switch {
	case d < 10*time.Millisecond:
		return LatencyP10ms
	case d < 50*time.Millisecond:
		return LatencyP50ms
	case d < 100*time.Millisecond:
		return LatencyP100ms
	case d < 500*time.Millisecond:
		return LatencyP500ms
	default:
		return LatencySlow
	}
}

// Snapshot summarises lookups since the Metrics was created.
type Snapshot struct {
	TotalLookups      int64                   `json:"total_lookups"`
	ZeroResultLookups int64                   `json:"zero_result_lookups"`
	CacheHits         int64                   `json:"cache_hits"`
	RecentMisses      []string                `json:"recent_misses"`
	Latency           map[LatencyBucket]int64 `json:"latency"`
	SourcesIndexed    int64                   `json:"sources_indexed"`
	SignaturesIndexed int64                   `json:"signatures_indexed"`
	Since             time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of lookups that found nothing.
func (s Snapshot) ZeroResultPercentage() float64 {
	if s.TotalLookups == 0 {
		return 0
	}
	return float64(s.ZeroResultLookups) / float64(s.TotalLookups) * 100
}

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	sources        *prometheus.CounterVec
	signatures     prometheus.Counter
	ingestDuration prometheus.Histogram
	lookups        *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	cacheHits      prometheus.Counter

	mu        sync.Mutex
	summary   Snapshot
	misses    *CircularBuffer[string]
	startTime time.Time
}

// New creates a Metrics with its own registry, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "sources_total",
			Help:      "Sources processed by outcome",
		}, []string{"outcome"}),
		signatures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "signatures_total",
			Help:      "Signatures committed to the index",
		}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Time to ingest one source",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "requests_total",
			Help:      "Lookups by kind and whether anything matched",
		}, []string{"kind", "result"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "duration_seconds",
			Help:      "Lookup latency",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"kind"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "cache_hits_total",
			Help:      "Lookups answered from the result cache",
		}),
		misses:    NewCircularBuffer[string](50),
		startTime: time.Now(),
	}
	m.summary.Latency = make(map[LatencyBucket]int64)

	m.registry.MustRegister(
		m.sources, m.signatures, m.ingestDuration,
		m.lookups, m.lookupDuration, m.cacheHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveIngest records one processed source.
func (m *Metrics) ObserveIngest(outcome string, signatures int, d time.Duration) {
	if m == nil {
		return
	}
	m.sources.WithLabelValues(outcome).Inc()
	if outcome != OutcomeIndexed {
		return
	}
	m.signatures.Add(float64(signatures))
	m.ingestDuration.Observe(d.Seconds())

	m.mu.Lock()
	m.summary.SourcesIndexed++
	m.summary.SignaturesIndexed += int64(signatures)
	m.mu.Unlock()
}

// ObserveLookup records one lookup. query is kept in the recent-miss list
// when hits is zero.
func (m *Metrics) ObserveLookup(kind, query string, hits int, cached bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "hit"
	if hits == 0 {
		result = "miss"
		m.misses.Add(query)
	}
	m.lookups.WithLabelValues(kind, result).Inc()
	m.lookupDuration.WithLabelValues(kind).Observe(d.Seconds())
	if cached {
		m.cacheHits.Inc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary.TotalLookups++
	if hits == 0 {
		m.summary.ZeroResultLookups++
	}
	if cached {
		m.summary.CacheHits++
	}
	m.summary.Latency[BucketFor(d)]++
}

// Snapshot returns a copy of the in-memory summary.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{Latency: map[LatencyBucket]int64{}}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.summary
	s.Latency = make(map[LatencyBucket]int64, len(m.summary.Latency))
	for k, v := range m.summary.Latency {
		s.Latency[k] = v
	}
	s.RecentMisses = m.misses.Items()
	s.Since = m.startTime
	return s
}
