package metrics

import "github.com/prometheus/client_golang/prometheus"

// Counters for settlement outcomes and event ingestion.
var (
	WebhookEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stripe_webhook_events_total",
			Help: "Total number of verified Stripe webhook events received",
		},
	)

	WebhookEventsInvalidTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stripe_webhook_events_invalid_total",
			Help: "Total number of webhook deliveries rejected at signature verification",
		},
	)

	AuthorizationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_authorizations_total",
			Help: "Total number of new payment authorizations recorded",
		},
	)

	CapturesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_captures_total",
			Help: "Total number of successful captures",
		},
	)

	CancelsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_cancels_total",
			Help: "Total number of successful hold cancellations",
		},
	)

	GatewayFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_gateway_failures_total",
			Help: "Total number of failed capture/cancel calls against the gateway",
		},
	)

	SweepCancelsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_sweep_cancels_total",
			Help: "Total number of stuck authorizations canceled by the sweeper",
		},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(WebhookEventsTotal)
	prometheus.MustRegister(WebhookEventsInvalidTotal)
	prometheus.MustRegister(AuthorizationsTotal)
	prometheus.MustRegister(CapturesTotal)
	prometheus.MustRegister(CancelsTotal)
	prometheus.MustRegister(GatewayFailuresTotal)
	prometheus.MustRegister(SweepCancelsTotal)
}
