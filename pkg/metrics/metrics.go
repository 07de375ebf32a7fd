package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_refresh_duration_seconds",
			Help:    "Duration of full project refresh from the issue tracker",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)

	RefreshCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_refresh_count",
			Help: "Total number of project refreshes from the issue tracker",
		},
		[]string{"status"}, // status: success, failed, malformed
	)

	SowParseCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sow_parse_count",
			Help: "Total number of SoW documents parsed",
		},
		[]string{"status"}, // status: success, rejected, empty, failed
	)

	NotificationPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_published_count",
			Help: "Notification events published to the exchange",
		},
		[]string{"kind"},
	)

	NotificationDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_delivered_count",
			Help: "Notification messages delivered to the chat tool",
		},
		[]string{"kind", "status"}, // status: success, failed, malformed
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordRefresh(status string, duration time.Duration) {
	RefreshCount.WithLabelValues(status).Inc()
	if status == "success" {
		RefreshDuration.Observe(duration.Seconds())
	}
}

func IncrementSowParse(status string) {
	SowParseCount.WithLabelValues(status).Inc()
}

func IncrementNotificationPublished(kind string) {
	NotificationPublished.WithLabelValues(kind).Inc()
}

func IncrementNotificationDelivered(kind, status string) {
	NotificationDelivered.WithLabelValues(kind, status).Inc()
}
