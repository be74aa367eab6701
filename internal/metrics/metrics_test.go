package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveEnd(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveEnd(true, 50000)
	m.ObserveEnd(true, 50000)
	m.ObserveEnd(false, 50000)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsEnded.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsEnded.WithLabelValues("false")))
	assert.Equal(t, 100000.0, testutil.ToFloat64(m.CreditedAmount))
}

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveStart()
	m.ObserveConflict()
	m.ObserveConflict()
	m.SetDiscrepancies(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionConflicts))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LedgerDiscrepancies))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStart()
		m.ObserveConflict()
		m.ObserveEnd(true, 1)
		m.SetDiscrepancies(1)
	})
}
