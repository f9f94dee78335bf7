package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutation and persistence activity.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	clamps          prometheus.Counter
	persistFailures prometheus.Counter
	persistDuration prometheus.Histogram
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutation operations by kind.",
	}, []string{"op"})
	clamps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_quantity_clamps_total",
		Help: "Quantity requests silently clamped to line bounds.",
	})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Failed cart snapshot writes to the backing store.",
	})
	persistDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_persist_duration_seconds",
		Help:    "Duration of cart snapshot writes in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(mutations, clamps, persistFailures, persistDuration)
	return &CartMetrics{
		mutations:       mutations,
		clamps:          clamps,
		persistFailures: persistFailures,
		persistDuration: persistDuration,
	}
}

// IncMutation increments the mutation counter for the named operation.
func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncClamp increments the clamp counter.
func (c *CartMetrics) IncClamp() {
	if c == nil || c.clamps == nil {
		return
	}
	c.clamps.Inc()
}

// IncPersistFailure increments the persistence failure counter.
func (c *CartMetrics) IncPersistFailure() {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.Inc()
}

// ObservePersistDuration records the duration of a snapshot write.
func (c *CartMetrics) ObservePersistDuration(duration time.Duration) {
	if c == nil || c.persistDuration == nil {
		return
	}
	c.persistDuration.Observe(duration.Seconds())
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
