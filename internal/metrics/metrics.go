// Package metrics exposes Prometheus collectors for session settlement.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tutorpay"

// Metrics holds the collectors updated by the session and ledger services.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsStarted     prometheus.Counter
	SessionConflicts    prometheus.Counter
	SessionsEnded       *prometheus.CounterVec
	CreditedAmount      prometheus.Counter
	LedgerDiscrepancies prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions started.",
		}),
		SessionConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_start_conflicts_total",
			Help:      "StartSession calls rejected because the tutor already had an active session.",
		}),
		SessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions ended, partitioned by whether the tutor was paid.",
		}, []string{"paid"}),
		CreditedAmount: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_credited_units_total",
			Help:      "Sum of all wallet credits.",
		}),
		LedgerDiscrepancies: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_discrepancies",
			Help:      "Wallets whose balance differs from the sum of their ledger entries at the last reconciliation.",
		}),
	}
}

func (m *Metrics) ObserveStart() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

func (m *Metrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.SessionConflicts.Inc()
}

// ObserveEnd records a completed session and, when paid, the credited amount.
func (m *Metrics) ObserveEnd(paid bool, amount int64) {
	if m == nil {
		return
	}
	m.SessionsEnded.WithLabelValues(strconv.FormatBool(paid)).Inc()
	if paid {
		m.CreditedAmount.Add(float64(amount))
	}
}

func (m *Metrics) SetDiscrepancies(n int) {
	if m == nil {
		return
	}
	m.LedgerDiscrepancies.Set(float64(n))
}
