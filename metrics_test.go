package reactive

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "reactive")

	m.dispatched()
	m.matched("success")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "reactive_events_dispatched_total")
	assert.Contains(t, names, "reactive_match_outcomes_total")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.matchOutcomes.WithLabelValues("success")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.dispatched()
		m.handlerFailed()
		m.subscribed()
		m.tornDown()
		m.matched("success")
	})
}
