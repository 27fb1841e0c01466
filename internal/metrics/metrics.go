// Package metrics holds the Prometheus collectors shared across the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoanTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfd_loan_transitions_total",
		Help: "Committed loan status transitions",
	}, []string{"from", "to"})

	TransitionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfd_loan_transition_conflicts_total",
		Help: "Transitions rejected by the optimistic lock",
	}, []string{"operation"})

	PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfd_loan_payments_total",
		Help: "Payments recorded by method",
	}, []string{"method"})

	DuplicatePayments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sfd_loan_duplicate_payments_total",
		Help: "Payments rejected because the idempotency key was already used",
	})

	SubsidyOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfd_subsidy_operations_total",
		Help: "Subsidy ledger operations by kind and outcome",
	}, []string{"operation", "outcome"})

	NotifierDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfd_notifier_deliveries_total",
		Help: "Event deliveries per sink and outcome",
	}, []string{"sink", "outcome"})

	NotifierDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfd_notifier_dropped_total",
		Help: "Events dropped before delivery",
	}, []string{"reason"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfd_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sfd_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
	}, []string{"method", "route"})

	IdempotencyOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfd_http_idempotency_total",
		Help: "Request-idempotency decisions (stored, replayed, conflict, unavailable)",
	}, []string{"outcome"})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfd_sweep_runs_total",
		Help: "Background sweep runs by outcome",
	}, []string{"outcome"})
)
