// Package metrics holds the Prometheus collectors for the backend.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// BillMutations counts bill lifecycle events, partitioned by operation.
var BillMutations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billfold_bill_mutations_total",
		Help: "How many bill mutations were performed, partitioned by operation.",
	},
	[]string{"operation"},
)

// ConsistencyWarnings counts stats propagation steps that failed after the
// primary mutation had already committed. These are logged, never surfaced.
var ConsistencyWarnings = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billfold_consistency_warnings_total",
		Help: "How many stats propagation steps failed after a committed mutation, partitioned by step.",
	},
	[]string{"step"},
)

// RequestCount counts processed HTTP requests.
var RequestCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "requests_total",
		Help: "How many HTTP requests processed, partitioned by status code and HTTP method.",
	},
	[]string{"code", "method", "url"},
)

// RequestDuration observes HTTP request latencies.
var RequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "request_duration_seconds",
		Help: "The HTTP request latencies in seconds.",
	},
	[]string{"code", "method", "url"},
)

var collectors = []prometheus.Collector{
	BillMutations,
	ConsistencyWarnings,
	RequestCount,
	RequestDuration,
}

// Register registers all collectors with the default registry.
func Register() error {
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return fmt.Errorf("could not register %T with Prometheus: %w", c, err)
		}
	}

	return nil
}

// Unregister unregisters all collectors. This is needed so that tests can
// set up the router more than once.
func Unregister() {
	for _, c := range collectors {
		prometheus.Unregister(c)
	}
}
