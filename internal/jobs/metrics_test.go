package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("analytics:cache_bump").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("analytics:cache_bump").End(boom), boom)

	job := map[string]string{"job": "analytics:cache_bump"}
	assert.Equal(t, 1.0, counterValue(t, reg, "fretehub_jobs_total", map[string]string{"job": "analytics:cache_bump", "status": "success"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "fretehub_jobs_total", map[string]string{"job": "analytics:cache_bump", "status": "failure"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "fretehub_jobs_failures_total", job))
}

func TestAddWarmed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.AddWarmed("dashboard")
	m.AddWarmed("dashboard")
	m.AddWarmed("")
	assert.Equal(t, 2.0, counterValue(t, reg, "fretehub_dashboard_warmups_total", map[string]string{"kind": "dashboard"}))
}

func TestNilMetricsTrackerIsNoop(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("x").End(boom), boom)
	m.AddWarmed("dashboard")
}
