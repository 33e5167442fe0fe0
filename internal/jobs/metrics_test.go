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
		for _, m := range mf.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					match = false
				}
			}
			if match {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("auth:event").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("auth:event").End(boom), boom)

	assert.Equal(t, 1.0, counterValue(t, reg, "rpac_jobs_total", map[string]string{"job": "auth:event", "status": "success"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "rpac_jobs_total", map[string]string{"job": "auth:event", "status": "failure"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "rpac_jobs_failures_total", map[string]string{"job": "auth:event"}))
}

func TestNilMetricsTrackerPassesErrorThrough(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("auth:event").End(boom), boom)
}
