package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "minhook"

var (
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "operations_total",
		Help:      "The total number of patch engine operations by outcome.",
	}, []string{"op", "status"})
	Hooks = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "hooks",
		Help:      "The number of hook records in a given state.",
	}, []string{"state"})
	ApplyBatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "apply_batch_size",
		Help:      "The number of queued intents committed by one apply.",
		Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
	})
)

// Register adds every collector to r. Collectors already registered with r
// are left alone.
func Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{Operations, Hooks, ApplyBatchSize} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// GetOperations returns the counter for op with the given outcome.
func GetOperations(op, status string) prometheus.Counter {
	return Operations.WithLabelValues(op, status)
}

// GetHooks returns the gauge for hooks in state.
func GetHooks(state string) prometheus.Gauge {
	return Hooks.WithLabelValues(state)
}
