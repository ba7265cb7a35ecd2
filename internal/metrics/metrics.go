package metrics

import (
	"strconv"
	"time"

	"socialchat/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Live push outcomes.
const (
	PushDelivered = "delivered"
	PushOffline   = "offline"
	PushFailed    = "failed"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_connections",
		Help: "Current number of live websocket connections",
	})
	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_online_users",
		Help: "Current number of user identities with a registered connection",
	})
	PresenceBroadcasts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_presence_broadcasts_total",
		Help: "Total number of online-user broadcasts",
	})
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Total number of persisted chat messages",
	}, []string{"type"})
	LivePushTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_live_push_total",
		Help: "Live push attempts by outcome",
	}, []string{"outcome"})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		WsConnections, OnlineUsers, PresenceBroadcasts,
		MessagesTotal, LivePushTotal,
		HttpRequestsTotal, HttpRequestDuration,
	)
}

// MessageTypeLabel maps a message type onto the closed set of label values.
// The type column is client supplied, so anything unknown counts as "other".
func MessageTypeLabel(typ string) string {
	switch typ {
	case models.MessageTypeUser, models.MessageTypeSystem:
		return typ
	default:
		return "other"
	}
}

// GinMiddleware records request counts and latencies for Prometheus.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
