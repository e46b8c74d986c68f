// Package metrics defines the collector the engine services report to and
// its Prometheus implementation.
package metrics

import (
	"time"

	errs "loyalty/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector receives engine measurements.
type Collector interface {
	// Operation metrics
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)

	// Cache metrics
	RecordCacheHit(key string)
	RecordCacheMiss(key string)

	// Points metrics
	RecordPointsMovement(kind string, delta int64)
	RecordTierChange(from, to string)

	// Error metrics
	RecordError(operation, errType string)
}

// Noop is a no-op implementation of Collector.
type Noop struct{}

func (Noop) RecordOperationDuration(string, time.Duration) {}
func (Noop) RecordOperationResult(string, string)          {}
func (Noop) RecordCacheHit(string)                         {}
func (Noop) RecordCacheMiss(string)                        {}
func (Noop) RecordPointsMovement(string, int64)            {}
func (Noop) RecordTierChange(string, string)               {}
func (Noop) RecordError(string, string)                    {}

// Prometheus exports engine measurements as Prometheus series.
type Prometheus struct {
	durations   *prometheus.HistogramVec
	results     *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	points      *prometheus.CounterVec
	movements   *prometheus.CounterVec
	tierChanges *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

// NewPrometheus builds the collector and registers its series with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loyalty",
			Name:      "operation_duration_seconds",
			Help:      "Latency of engine operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Name:      "operation_results_total",
			Help:      "Engine operations by outcome.",
		}, []string{"operation", "result"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Wallet snapshot cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Wallet snapshot cache misses.",
		}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "ledger",
			Name:      "points_total",
			Help:      "Absolute points moved, by ledger entry kind.",
		}, []string{"kind"}),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "ledger",
			Name:      "entries_total",
			Help:      "Ledger entries written, by kind.",
		}, []string{"kind"}),
		tierChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Name:      "tier_changes_total",
			Help:      "Tier transitions.",
		}, []string{"from", "to"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Name:      "errors_total",
			Help:      "Failed engine operations by error code.",
		}, []string{"operation", "type"}),
	}
	reg.MustRegister(
		p.durations,
		p.results,
		p.cacheHits,
		p.cacheMisses,
		p.points,
		p.movements,
		p.tierChanges,
		p.errors,
	)
	return p
}

func (p *Prometheus) RecordOperationDuration(operation string, duration time.Duration) {
	p.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *Prometheus) RecordOperationResult(operation, result string) {
	p.results.WithLabelValues(operation, result).Inc()
}

// Cache keys carry ids, so they are not used as labels.
func (p *Prometheus) RecordCacheHit(string)  { p.cacheHits.Inc() }
func (p *Prometheus) RecordCacheMiss(string) { p.cacheMisses.Inc() }

func (p *Prometheus) RecordPointsMovement(kind string, delta int64) {
	if delta < 0 {
		delta = -delta
	}
	p.points.WithLabelValues(kind).Add(float64(delta))
	p.movements.WithLabelValues(kind).Inc()
}

func (p *Prometheus) RecordTierChange(from, to string) {
	p.tierChanges.WithLabelValues(from, to).Inc()
}

func (p *Prometheus) RecordError(operation, errType string) {
	p.errors.WithLabelValues(operation, errType).Inc()
}

// Observe records the duration and outcome of an operation that started at
// start and finished with err.
func Observe(c Collector, operation string, start time.Time, err error) {
	c.RecordOperationDuration(operation, time.Since(start))
	if err == nil {
		c.RecordOperationResult(operation, "success")
		return
	}
	c.RecordOperationResult(operation, "failure")
	errType := "store"
	if de, ok := errs.AsDomain(err); ok {
		errType = de.Code
	}
	c.RecordError(operation, errType)
}
