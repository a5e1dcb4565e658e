// Package metrics holds the Prometheus counters for the payment flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_orders_created_total",
		Help: "Gateway orders created, by currency",
	}, []string{"currency"})

	verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_verifications_total",
		Help: "Payment verification attempts, by outcome",
	}, []string{"outcome"})

	refunds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_refunds_total",
		Help: "Refund requests, by outcome",
	}, []string{"outcome"})

	webhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_webhooks_total",
		Help: "Gateway webhooks received, by event",
	}, []string{"event"})
)

// Verification outcomes
const (
	OutcomeGranted          = "granted"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeRejected         = "rejected"
	OutcomeFailed           = "failed"
)

// OrderCreated counts a created gateway order
func OrderCreated(currency string) {
	ordersCreated.WithLabelValues(currency).Inc()
}

// Verification counts a verify-payment outcome
func Verification(outcome string) {
	verifications.WithLabelValues(outcome).Inc()
}

// Refund counts a refund request outcome
func Refund(outcome string) {
	refunds.WithLabelValues(outcome).Inc()
}

// Webhook counts a received webhook event
func Webhook(event string) {
	webhooks.WithLabelValues(event).Inc()
}
