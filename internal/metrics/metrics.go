package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallbacksTotal counts processed gateway callbacks by outcome.
	CallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payzen_callbacks_total",
		Help: "Number of processed PayZen callbacks by outcome",
	}, []string{"outcome"})

	// CallbackDuration observes callback processing time.
	CallbackDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payzen_callback_duration_seconds",
		Help:    "PayZen callback processing duration",
		Buckets: prometheus.DefBuckets,
	})

	// PollerCheckedTotal counts transactions checked by the reconciliation poller.
	PollerCheckedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payzen_poller_checked_total",
		Help: "Number of transactions checked against the PayZen REST API",
	})

	// PollerErrorsTotal counts per-candidate poller failures.
	PollerErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payzen_poller_errors_total",
		Help: "Number of reconciliation poller failures",
	})
)

// Callback outcomes.
const (
	OutcomeApplied    = "applied"
	OutcomeReplay     = "replay"
	OutcomeAuthFailed = "auth_failed"
	OutcomeLookup     = "lookup_failed"
	OutcomeMismatch   = "validation_mismatch"
	OutcomeError      = "error"
)
