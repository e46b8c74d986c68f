package metrics

import (
	"testing"
	"time"

	errs "loyalty/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.RecordPointsMovement("REDEEM", -500)
	p.RecordPointsMovement("EARN", 200)
	p.RecordPointsMovement("EARN", 300)
	p.RecordError("apply_delta", "INSUFFICIENT_BALANCE")
	p.RecordCacheHit("wallet:id:1")
	p.RecordCacheMiss("wallet:id:2")
	p.RecordTierChange("Bronze", "Silver")
	p.RecordOperationDuration("apply_delta", 3*time.Millisecond)
	p.RecordOperationResult("apply_delta", "success")

	assert.Equal(t, float64(500), testutil.ToFloat64(p.points.WithLabelValues("EARN")))
	assert.Equal(t, float64(500), testutil.ToFloat64(p.points.WithLabelValues("REDEEM")))
	assert.Equal(t, float64(2), testutil.ToFloat64(p.movements.WithLabelValues("EARN")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.errors.WithLabelValues("apply_delta", "INSUFFICIENT_BALANCE")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.tierChanges.WithLabelValues("Bronze", "Silver")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNoopSatisfiesCollector(t *testing.T) {
	var c Collector = Noop{}
	c.RecordPointsMovement("EARN", 1)
	c.RecordError("op", "x")
}

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	Observe(p, "burn", time.Now(), nil)
	Observe(p, "burn", time.Now(), errs.ErrExpired)
	Observe(p, "burn", time.Now(), assert.AnError)

	assert.Equal(t, float64(1), testutil.ToFloat64(p.results.WithLabelValues("burn", "success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(p.results.WithLabelValues("burn", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.errors.WithLabelValues("burn", "EXPIRED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.errors.WithLabelValues("burn", "store")))
}
