// Package metrics provides Prometheus metrics for sync, reconciliation, and analysis.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncItemsTotal tracks provider items seen by service and outcome
	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "touchbase",
			Subsystem: "sync",
			Name:      "items_total",
			Help:      "Provider items processed by service and outcome",
		},
		[]string{"service", "outcome"},
	)

	// SyncPagesTotal tracks page fetches by service and status
	SyncPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "touchbase",
			Subsystem: "sync",
			Name:      "pages_total",
			Help:      "Provider page fetches by service and status",
		},
		[]string{"service", "status"},
	)

	// TokenRotationsTotal counts access tokens refreshed mid-sync
	TokenRotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "touchbase",
			Subsystem: "sync",
			Name:      "token_rotations_total",
			Help:      "OAuth access tokens rotated and persisted during sync",
		},
	)

	// ReconcileTotal tracks raw records turned into interactions
	ReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "touchbase",
			Subsystem: "reconcile",
			Name:      "records_total",
			Help:      "Raw provider records reconciled by source and action",
		},
		[]string{"source", "action"},
	)

	// AnalysesTotal tracks analyzer outcomes
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "touchbase",
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Interaction analyses by outcome",
		},
		[]string{"outcome"},
	)
)

// Outcome label values.
const (
	OutcomeStored  = "stored"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
	OutcomeOK      = "ok"
	OutcomeError   = "error"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionNoop    = "noop"
	ActionFailed  = "failed"
)
