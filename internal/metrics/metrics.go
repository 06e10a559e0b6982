package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransfersRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordertransfer_requested_total",
		Help: "Total number of orders placed awaiting transfer.",
	})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordertransfer_transitions_total",
		Help: "Total number of applied transfer transitions.",
	},
		[]string{"to"},
	)

	RejectedActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordertransfer_rejected_actions_total",
		Help: "Total number of accept/decline attempts that were refused.",
	},
		[]string{"reason"},
	)

	SweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordertransfer_expiry_sweeps_total",
		Help: "Total number of expiry sweeps run.",
	})

	SweepFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordertransfer_expiry_failures_total",
		Help: "Total number of orders the expiry sweep failed to process.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordertransfer_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordertransfer_notifications_total",
		Help: "Total number of transfer notifications published.",
	},
		[]string{"event"},
	)
)
