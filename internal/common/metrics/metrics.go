// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activities_signups_total",
			Help: "Total number of successful signups per activity",
		},
		[]string{"activity"},
	)

	UnregistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activities_unregistrations_total",
			Help: "Total number of successful unregistrations per activity",
		},
		[]string{"activity"},
	)

	OperationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activities_operations_failed_total",
			Help: "Total number of rejected or failed registry operations",
		},
		[]string{"operation", "error_code"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "activities_operation_duration_seconds",
			Help:    "Duration of registry operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"operation"},
	)

	EventSinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activities_event_sink_failures_total",
			Help: "Total number of participant events a sink failed to handle",
		},
		[]string{"sink"},
	)
)
