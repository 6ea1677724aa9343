package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "headshot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "headshot_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Generation Metrics
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "headshot_generations_total",
			Help: "Total number of generation requests by outcome",
		},
		[]string{"provider", "outcome"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "headshot_generation_duration_seconds",
			Help:    "End-to-end generation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9), // 0.5s to ~2 minutes
		},
		[]string{"provider"},
	)

	// Billing Metrics
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "headshot_webhook_events_total",
			Help: "Total number of webhook deliveries by outcome",
		},
		[]string{"source", "outcome"},
	)

	CreditsGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "headshot_credits_granted_total",
			Help: "Total number of credits granted by purchased plan",
		},
		[]string{"plan"},
	)
)

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, route, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// RecordGeneration records a finished generation attempt. Only successful
// attempts contribute to the duration histogram.
func RecordGeneration(provider, outcome string, duration float64) {
	GenerationsTotal.WithLabelValues(provider, outcome).Inc()
	if outcome == "success" {
		GenerationDuration.WithLabelValues(provider).Observe(duration)
	}
}

// RecordWebhook records a processed webhook delivery
func RecordWebhook(source, outcome string) {
	WebhookEventsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordCreditsGranted records credits added by a purchase
func RecordCreditsGranted(plan string, credits int) {
	CreditsGrantedTotal.WithLabelValues(plan).Add(float64(credits))
}
