package handler

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nathanyu/lob-engine/internal/domain"
	"github.com/nathanyu/lob-engine/internal/marketdata"
	"github.com/nathanyu/lob-engine/internal/middleware"
	"github.com/nathanyu/lob-engine/internal/orderbook"
	"github.com/nathanyu/lob-engine/internal/stream"
)

const defaultDepth = 5

// Handler adapts the in-process book to HTTP. The book itself is not
// safe for concurrent use, so every access goes through one mutex here.
type Handler struct {
	mu        sync.Mutex
	book      *orderbook.Book
	publisher *marketdata.Publisher
	hub       *stream.Hub
}

// NewHandler creates a new Handler. hub may be nil to disable streaming.
func NewHandler(book *orderbook.Book, publisher *marketdata.Publisher, hub *stream.Hub) *Handler {
	return &Handler{
		book:      book,
		publisher: publisher,
		hub:       hub,
	}
}

// RegisterRoutes sets up the Gin routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	v1 := r.Group("/v1")
	{
		v1.POST("/order", h.PlaceOrder)
		v1.DELETE("/order/:id", h.CancelOrder)
		v1.GET("/marketdata/depth", h.GetDepth)
		v1.GET("/marketdata/trades", h.GetTrades)
		v1.GET("/marketdata/candles", h.GetCandles)
		v1.GET("/stats", h.GetStats)
	}

	if h.hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			stream.ServeWS(h.hub, c.Writer, c.Request)
		})
	}
}

// Health returns a health check response.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "lob-engine",
	})
}

// PlaceOrderRequest is the request body for placing an order.
type PlaceOrderRequest struct {
	ID       uint64  `json:"id" binding:"required"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity" binding:"required"`
	Side     string  `json:"side" binding:"required"`
}

// PlaceOrder handles POST /v1/order: rests the order, then crosses the
// book, returning any trades in execution order.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	side, ok := domain.ParseSide(req.Side)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be 'bid' or 'ask'"})
		return
	}

	h.mu.Lock()
	err := h.book.Submit(req.ID, req.Price, req.Quantity, side)
	if err != nil {
		h.mu.Unlock()
		status := http.StatusBadRequest
		if errors.Is(err, orderbook.ErrDuplicateID) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	middleware.ObserveOp("submit", h.book)

	trades := h.book.Match()
	middleware.ObserveOp("match", h.book)
	snap := h.book.Depth(defaultDepth)
	h.mu.Unlock()

	middleware.OrdersTotal.WithLabelValues("new").Inc()
	middleware.TradesTotal.Add(float64(len(trades)))
	middleware.ObserveDepth(snap)

	prints := h.publisher.Record(trades, time.Now())
	if h.hub != nil {
		for _, pr := range prints {
			h.hub.PublishTrade(pr)
		}
		h.hub.PublishDepth(snap)
	}

	if trades == nil {
		trades = []domain.Trade{}
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":     req.ID,
		"trades": trades,
	})
}

// CancelOrder handles DELETE /v1/order/:id.
func (h *Handler) CancelOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an unsigned integer"})
		return
	}

	h.mu.Lock()
	canceled := h.book.Cancel(id)
	h.mu.Unlock()

	if !canceled {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	middleware.OrdersTotal.WithLabelValues("cancel").Inc()
	c.JSON(http.StatusOK, gin.H{"id": id, "canceled": true})
}

// GetDepth handles GET /v1/marketdata/depth.
func (h *Handler) GetDepth(c *gin.Context) {
	depth, err := strconv.Atoi(c.DefaultQuery("depth", strconv.Itoa(defaultDepth)))
	if err != nil || depth < 0 {
		depth = defaultDepth
	}

	h.mu.Lock()
	snap := h.book.Depth(depth)
	h.mu.Unlock()

	c.JSON(http.StatusOK, snap)
}

// GetTrades handles GET /v1/marketdata/trades.
func (h *Handler) GetTrades(c *gin.Context) {
	var orderID uint64
	if s := c.Query("order_id"); s != "" {
		parsed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id must be an unsigned integer"})
			return
		}
		orderID = parsed
	}

	var since time.Time
	if s := c.Query("since"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since format, use RFC3339"})
			return
		}
		since = parsed
	}

	trades := h.publisher.GetTrades(orderID, since)
	if trades == nil {
		trades = []marketdata.Print{}
	}
	c.JSON(http.StatusOK, trades)
}

// GetCandles handles GET /v1/marketdata/candles.
func (h *Handler) GetCandles(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "100"))
	if err != nil || count <= 0 {
		count = 100
	}

	candles := h.publisher.GetCandles(count)
	if candles == nil {
		candles = []*domain.Candlestick{}
	}
	c.JSON(http.StatusOK, candles)
}

// GetStats handles GET /v1/stats: engine diagnostics.
func (h *Handler) GetStats(c *gin.Context) {
	h.mu.Lock()
	latency := h.book.LastLatency()
	liveOrders := h.book.Len()
	h.mu.Unlock()

	stats := gin.H{
		"last_latency_ns": latency.Nanoseconds(),
		"live_orders":     liveOrders,
		"trades":          h.publisher.TradeCount(),
	}
	if h.hub != nil {
		clients, drops := h.hub.Stats()
		stats["ws_clients"] = clients
		stats["ws_drops"] = drops
	}
	c.JSON(http.StatusOK, stats)
}
