package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks checkout and payment outcomes.
type CheckoutMetrics struct {
	submissions *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	settleTime  prometheus.Histogram
}

// NewCheckoutMetrics registers checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_submissions",
		Help: "Payment submissions by outcome (accepted, rejected, error).",
	}, []string{"outcome"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_order_resolutions",
		Help: "Order resolutions by terminal status.",
	}, []string{"status"})
	settleTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_settle_seconds",
		Help:    "Time between order submission and terminal resolution.",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
	})
	reg.MustRegister(submissions, resolutions, settleTime)
	return &CheckoutMetrics{
		submissions: submissions,
		resolutions: resolutions,
		settleTime:  settleTime,
	}
}

// IncSubmission increments the payment submission counter for the outcome.
func (c *CheckoutMetrics) IncSubmission(outcome string) {
	if c == nil || c.submissions == nil {
		return
	}
	c.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncResolution increments the resolution counter for the terminal status.
func (c *CheckoutMetrics) IncResolution(status string) {
	if c == nil || c.resolutions == nil {
		return
	}
	c.resolutions.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveSettleTime records the submission-to-resolution latency.
func (c *CheckoutMetrics) ObserveSettleTime(d time.Duration) {
	if c == nil || c.settleTime == nil {
		return
	}
	c.settleTime.Observe(d.Seconds())
}
