package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	apiRequestsTotal         *prometheus.CounterVec
	apiLatencySeconds        *prometheus.HistogramVec
	apiErrorsTotal           *prometheus.CounterVec
	identityResolutionsTotal *prometheus.CounterVec
	feedRefreshesTotal       *prometheus.CounterVec
	feedStaleDropsTotal      prometheus.Counter
	feedConnectionsTotal     prometheus.Counter
	chatFallbacksTotal       prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorlink_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutorlink_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorlink_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		identityResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorlink_identity_resolutions_total",
			Help: "Role resolution outcomes per resolved role.",
		}, []string{"role", "outcome"})

		feedRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorlink_feed_refreshes_total",
			Help: "Session feed refreshes by trigger and outcome.",
		}, []string{"trigger", "outcome"})

		feedStaleDropsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutorlink_feed_stale_drops_total",
			Help: "Refresh responses dropped because a newer result was already applied.",
		})

		feedConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutorlink_feed_connections_total",
			Help: "Total number of websocket feed connections accepted.",
		})

		chatFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutorlink_chat_fallbacks_total",
			Help: "Utterance submissions answered with the local fallback message.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			identityResolutionsTotal,
			feedRefreshesTotal,
			feedStaleDropsTotal,
			feedConnectionsTotal,
			chatFallbacksTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// IdentityResolutions exposes the role resolution counter.
func IdentityResolutions() *prometheus.CounterVec {
	RegisterMetrics()
	return identityResolutionsTotal
}

// FeedRefreshes exposes the feed refresh counter.
func FeedRefreshes() *prometheus.CounterVec {
	RegisterMetrics()
	return feedRefreshesTotal
}

// FeedStaleDrops exposes the stale response drop counter.
func FeedStaleDrops() prometheus.Counter {
	RegisterMetrics()
	return feedStaleDropsTotal
}

// FeedConnections exposes the websocket connection counter.
func FeedConnections() prometheus.Counter {
	RegisterMetrics()
	return feedConnectionsTotal
}

// ChatFallbacks exposes the fallback reply counter.
func ChatFallbacks() prometheus.Counter {
	RegisterMetrics()
	return chatFallbacksTotal
}
