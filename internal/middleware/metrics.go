package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CommentsCreated counts created comments, labeled by kind (comment|reply).
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_comments_created_total",
		Help: "Total number of comments created",
	}, []string{"kind"})

	// CommentCascadeDeletes observes the size of soft-delete cascades.
	CommentCascadeDeletes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inkwell_comment_cascade_size",
		Help:    "Number of comments soft-deleted per cascade",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})

	// CacheInvalidations counts cache invalidations by key kind.
	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_invalidations_total",
		Help: "Total number of cache invalidations by key kind",
	}, []string{"kind"})

	// NotificationFailures counts swallowed notification delivery failures.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_notification_failures_total",
		Help: "Total number of best-effort notification deliveries that failed",
	})

	// ActiveWebSockets tracks currently open websocket connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkwell_active_websockets",
		Help: "Number of currently open websocket connections",
	})

	// WebSocketDrops counts messages dropped on the websocket send path.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_websocket_drops_total",
		Help: "Total number of websocket messages dropped by reason",
	}, []string{"reason"})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request-level Prometheus middleware handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
