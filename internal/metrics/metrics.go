package metrics

import (
	"sync"

	"go.uber.org/atomic"
)

// MetricKey is a strongly typed metric identifier.
type MetricKey string

// Metric keys (centralized)
const (
	// Response cache
	CacheEntries      MetricKey = "cache_entries"
	CacheHitsTotal    MetricKey = "cache_hits_total"
	CacheMissesTotal  MetricKey = "cache_misses_total"
	CacheSetsTotal    MetricKey = "cache_sets_total"
	CacheExpiredTotal MetricKey = "cache_expired_total"
	ContextEntries    MetricKey = "context_entries"

	// Admission
	AdmissionAllowedTotal  MetricKey = "admission_allowed_total"
	AdmissionRejectedTotal MetricKey = "admission_rejected_total"
	AdmissionKeys          MetricKey = "admission_keys"

	// Generation
	GenerationRequestsTotal    MetricKey = "generation_requests_total"
	GenerationAttemptsTotal    MetricKey = "generation_attempts_total"
	GenerationRetriesTotal     MetricKey = "generation_retries_total"
	GenerationSuccessTotal     MetricKey = "generation_success_total"
	GenerationFailuresTotal    MetricKey = "generation_failures_total"
	GenerationExhaustedTotal   MetricKey = "generation_exhausted_total"
	GenerationExtractFailTotal MetricKey = "generation_extraction_failures_total"
	GenerationSharedTotal      MetricKey = "generation_shared_total"

	// Background sweeps
	SweepRunsTotal    MetricKey = "sweep_runs_total"
	SweepRemovedTotal MetricKey = "sweep_removed_total"

	// Media passthrough
	MediaServedTotal   MetricKey = "media_served_total"
	MediaNotFoundTotal MetricKey = "media_not_found_total"
)

// Registry stores all metrics.
type Registry struct {
	mu       sync.RWMutex
	counters map[MetricKey]*atomic.Int64
}

// NewRegistry creates a metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[MetricKey]*atomic.Int64),
	}
}

// Inc increments a metric by 1.
func (r *Registry) Inc(key MetricKey) {
	r.Add(key, 1)
}

// Add increments a metric by delta.
func (r *Registry) Add(key MetricKey, delta int64) {
	r.counter(key).Add(delta)
}

// Set overwrites a gauge-style metric.
func (r *Registry) Set(key MetricKey, value int64) {
	r.counter(key).Store(value)
}

// Get returns the current value of a metric, 0 if it was never touched.
func (r *Registry) Get(key MetricKey) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.counters[key]; ok {
		return c.Load()
	}
	return 0
}

func (r *Registry) counter(key MetricKey) *atomic.Int64 {
	r.mu.RLock()
	c, ok := r.counters[key]
	r.mu.RUnlock()

	if ok {
		return c
	}

	// Slow path: metric not yet initialized
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if c, ok = r.counters[key]; ok {
		return c
	}

	c = atomic.NewInt64(0)
	r.counters[key] = c
	return c
}
