package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the cart module.
type Metrics struct {
	// Additions split by whether they merged into an existing line item
	Additions *prometheus.CounterVec

	// Removals, explicit or via a non-positive quantity update
	Removals prometheus.Counter

	// Save attempts that failed and were swallowed
	SaveFailures *prometheus.CounterVec

	// Time from store construction to hydration
	HydrationLatency prometheus.Histogram
}

// New creates a new Metrics instance with all cart module metrics registered.
func New() *Metrics {
	return &Metrics{
		Additions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "savora_cart_additions_total",
			Help: "Line item additions by outcome",
		}, []string{"outcome"}), // outcome: "merged", "created"

		Removals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savora_cart_removals_total",
			Help: "Line items removed from carts",
		}),

		SaveFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "savora_cart_save_failures_total",
			Help: "Persistence writes that failed and were swallowed",
		}, []string{"record"}), // record: "items", "notifications"

		HydrationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "savora_cart_hydration_duration_seconds",
			Help:    "Time from store construction to hydration completion",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}
