package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.Hit()
	m.Hit()
	m.Miss(false)
	m.Miss(true)
	m.PersistError()
	m.ObserveCompute(1500 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("absent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistErrors))
}

func TestMetrics_Snapshot(t *testing.T) {
	m := New()
	m.Hit()
	m.Miss(true)
	m.Miss(false)
	m.ObserveCompute(2 * time.Second)

	s, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Hits)
	assert.Equal(t, 2.0, s.Misses)
	assert.Equal(t, 1.0, s.StaleMisses)
	assert.Equal(t, uint64(1), s.Computes)
	assert.InDelta(t, 2.0, s.ComputeSeconds, 0.001)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.Hit()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheHits))
}
