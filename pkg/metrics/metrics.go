package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics counts cart mutations and checkout outcomes.
type CartMetrics struct {
	mutations   *prometheus.CounterVec
	checkouts   *prometheus.CounterVec
	degradation prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutation operations by op and result.",
	}, []string{"op", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Checkout payment submissions by result.",
	}, []string{"result"})
	degradation := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_storage_degradations_total",
		Help: "Times the cart store fell back to in-memory storage.",
	})
	reg.MustRegister(mutations, checkouts, degradation)
	return &CartMetrics{
		mutations:   mutations,
		checkouts:   checkouts,
		degradation: degradation,
	}
}

// ObserveMutation records one cart mutation outcome.
func (c *CartMetrics) ObserveMutation(op string, err error) {
	if c == nil || c.mutations == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	c.mutations.WithLabelValues(normalizeLabel(op), result).Inc()
}

// ObserveCheckout records one checkout submission outcome.
func (c *CartMetrics) ObserveCheckout(err error) {
	if c == nil || c.checkouts == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	c.checkouts.WithLabelValues(result).Inc()
}

// IncStorageDegradation counts a fallback to in-memory cart storage.
func (c *CartMetrics) IncStorageDegradation() {
	if c == nil || c.degradation == nil {
		return
	}
	c.degradation.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
