package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpstream("optimize", "ok", time.Second)
		m.IncrementAuditWrite("run", nil)
		m.IncrementAuditDropped()
		m.IncrementPenaltyGeneration(errors.New("boom"))
	})
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementAuditWrite("run", nil)
	m.IncrementAuditWrite("run", errors.New("db down"))
	m.IncrementAuditWrite("decision", nil)
	m.IncrementAuditDropped()
	m.IncrementPenaltyGeneration(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditWrites.WithLabelValues("run", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditWrites.WithLabelValues("run", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditWrites.WithLabelValues("decision", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PenaltyGenerations.WithLabelValues("ok")))

	m.ObserveUpstream("optimize", "ok", 20*time.Millisecond)
	count, err := testutil.GatherAndCount(reg, "pedalgate_optimizer_upstream_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
