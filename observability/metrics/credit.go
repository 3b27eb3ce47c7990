package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CreditMetrics aggregates the Prometheus collectors for the credit-line
// engine. Counters are labelled by operation so dashboards can separate
// lifecycle traffic from fund movement.
type CreditMetrics struct {
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

var (
	creditOnce     sync.Once
	creditRegistry *CreditMetrics
)

// Credit returns the process-wide credit metrics registry, registering the
// collectors on first use.
func Credit() *CreditMetrics {
	creditOnce.Do(func() {
		creditRegistry = &CreditMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "credit_operations_total",
				Help: "Count of successful credit engine operations by type.",
			}, []string{"operation"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "credit_operation_failures_total",
				Help: "Count of failed credit engine operations by type and failure class.",
			}, []string{"operation", "reason"}),
		}
		prometheus.MustRegister(
			creditRegistry.operations,
			creditRegistry.failures,
		)
	})
	return creditRegistry
}

// ObserveOperation records a successful engine operation.
func (m *CreditMetrics) ObserveOperation(op string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.operations.WithLabelValues(op).Inc()
}

// ObserveFailure records a failed engine operation with its failure class.
func (m *CreditMetrics) ObserveFailure(op, reason string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	m.failures.WithLabelValues(op, reason).Inc()
}
