package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nathanyu/lob-engine/internal/domain"
	"github.com/nathanyu/lob-engine/internal/orderbook"
)

var (
	// HTTPRequestDuration tracks request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path", "status"},
	)

	// EngineOpDuration tracks book operation latency by operation.
	EngineOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lob_engine_op_duration_seconds",
			Help:    "Order book operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-7, 4, 12),
		},
		[]string{"op"},
	)

	// OrdersTotal counts orders by action.
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lob_orders_total",
			Help: "Total number of orders by action",
		},
		[]string{"action"},
	)

	// TradesTotal counts executed trades.
	TradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lob_trades_total",
			Help: "Total number of executed trades",
		},
	)

	// BookDepth tracks the number of price levels per side.
	BookDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lob_book_depth_levels",
			Help: "Current number of price levels per side",
		},
		[]string{"side"},
	)
)

// ObserveOp records the book's last operation latency under op.
func ObserveOp(op string, book *orderbook.Book) {
	EngineOpDuration.WithLabelValues(op).Observe(book.LastLatency().Seconds())
}

// ObserveDepth updates the per-side depth gauges from a snapshot.
func ObserveDepth(snap domain.DepthSnapshot) {
	BookDepth.WithLabelValues("bid").Set(float64(len(snap.Bids)))
	BookDepth.WithLabelValues("ask").Set(float64(len(snap.Asks)))
}

// PrometheusMiddleware records request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
		).Observe(duration)
	}
}
