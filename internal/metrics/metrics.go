// Package metrics holds the service's Prometheus collectors. They register with the
// default registry and are served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nurture"

var (
	CustomersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "customers_created_total",
		Help:      "Customers added.",
	})

	CustomersDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "customers_deleted_total",
		Help:      "Customers deleted, including their dependent documents.",
	})

	DaysCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "days_completed_total",
		Help:      "Day completion marks recorded.",
	})

	IncompleteDayRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "incomplete_day_rejections_total",
		Help:      "Day completions refused because questions were unanswered.",
	})

	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "created_total",
		Help:      "Device sessions registered or refreshed at login.",
	})

	SessionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "rejected_total",
		Help:      "Logins refused because the device cap was reached.",
	})

	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "swept_total",
		Help:      "Stale device sessions removed by the sweeper.",
	})

	PanicsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "panics_recovered_total",
		Help:      "Handler panics turned into 500 responses.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template and status code.",
	}, []string{"route", "code"})
)
