// Package metrics exposes Prometheus counters for engine operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var engineOps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "backoffice",
		Subsystem: "engine",
		Name:      "operations_total",
		Help:      "Ledger engine operations by name and outcome.",
	},
	[]string{"op", "outcome"},
)

// ObserveOp records one engine operation. Recoverable domain errors and
// infrastructure failures both count as "error"; the distinction lives in
// the logs, not the counter.
func ObserveOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	engineOps.WithLabelValues(op, outcome).Inc()
}
