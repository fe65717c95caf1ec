package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the outcomes of the order-finalization flow.
type CheckoutMetrics struct {
	ordersCreated    *prometheus.CounterVec
	verifications    *prometheus.CounterVec
	returnsRejected  *prometheus.CounterVec
	finalizeDuration *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders accepted by the store, by payment method.",
	}, []string{"payment_method"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Gateway payment verification outcomes.",
	}, []string{"status"})
	returnsRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_returns_rejected_total",
		Help: "Gateway returns rejected before verification, by redirect status.",
	}, []string{"status"})
	finalizeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_finalize_duration_seconds",
		Help:    "Duration of order finalization in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	reg.MustRegister(ordersCreated, verifications, returnsRejected, finalizeDuration)
	return &CheckoutMetrics{
		ordersCreated:    ordersCreated,
		verifications:    verifications,
		returnsRejected:  returnsRejected,
		finalizeDuration: finalizeDuration,
	}
}

// IncOrderCreated increments the order counter for the given payment method.
func (c *CheckoutMetrics) IncOrderCreated(method string) {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncVerification increments the verification counter for the given status.
func (c *CheckoutMetrics) IncVerification(status string) {
	if c == nil || c.verifications == nil {
		return
	}
	c.verifications.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncReturnRejected counts a gateway return turned away without a verify call.
func (c *CheckoutMetrics) IncReturnRejected(status string) {
	if c == nil || c.returnsRejected == nil {
		return
	}
	c.returnsRejected.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveFinalizeDuration records how long a finalization attempt took.
func (c *CheckoutMetrics) ObserveFinalizeDuration(method string, duration time.Duration) {
	if c == nil || c.finalizeDuration == nil {
		return
	}
	c.finalizeDuration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
