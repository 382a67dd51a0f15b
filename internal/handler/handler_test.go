package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanyu/lob-engine/internal/domain"
	"github.com/nathanyu/lob-engine/internal/marketdata"
	"github.com/nathanyu/lob-engine/internal/orderbook"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(orderbook.New(), marketdata.NewPublisher(), nil)
	h.RegisterRoutes(r)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newRouter()
	w := do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPlaceOrderRestsAndMatches(t *testing.T) {
	r := newRouter()

	w := do(t, r, http.MethodPost, "/v1/order", `{"id":1,"price":100,"quantity":10,"side":"bid"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		ID     uint64         `json:"id"`
		Trades []domain.Trade `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Trades)

	// A crossing ask prints at the ask's price.
	w = do(t, r, http.MethodPost, "/v1/order", `{"id":2,"price":99,"quantity":4,"side":"ask"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, domain.Trade{AggressorID: 1, RestingID: 2, Price: 99, Quantity: 4}, resp.Trades[0])

	// Remaining bid depth is visible.
	w = do(t, r, http.MethodGet, "/v1/marketdata/depth?depth=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap domain.DepthSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, domain.BookLevel{Price: 100, Quantity: 6}, snap.Bids[0])
	assert.Empty(t, snap.Asks)
}

func TestPlaceOrderValidation(t *testing.T) {
	r := newRouter()

	w := do(t, r, http.MethodPost, "/v1/order", `{"id":1,"price":100,"quantity":10,"side":"buy"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/v1/order", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/v1/order", `{"id":1,"price":100,"quantity":-4,"side":"bid"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceOrderDuplicateID(t *testing.T) {
	r := newRouter()

	w := do(t, r, http.MethodPost, "/v1/order", `{"id":1,"price":100,"quantity":10,"side":"bid"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(t, r, http.MethodPost, "/v1/order", `{"id":1,"price":101,"quantity":5,"side":"bid"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelOrder(t *testing.T) {
	r := newRouter()

	w := do(t, r, http.MethodPost, "/v1/order", `{"id":7,"price":100,"quantity":10,"side":"ask"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodDelete, "/v1/order/7", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodDelete, "/v1/order/7", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/v1/order/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTrades(t *testing.T) {
	r := newRouter()

	do(t, r, http.MethodPost, "/v1/order", `{"id":1,"price":100,"quantity":10,"side":"bid"}`)
	do(t, r, http.MethodPost, "/v1/order", `{"id":2,"price":100,"quantity":10,"side":"ask"}`)

	w := do(t, r, http.MethodGet, "/v1/marketdata/trades", "")
	require.Equal(t, http.StatusOK, w.Code)
	var prints []marketdata.Print
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prints))
	require.Len(t, prints, 1)
	assert.Equal(t, uint64(1), prints[0].Seq)

	w = do(t, r, http.MethodGet, "/v1/marketdata/trades?order_id=99", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prints))
	assert.Empty(t, prints)

	w = do(t, r, http.MethodGet, "/v1/marketdata/trades?since=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStats(t *testing.T) {
	r := newRouter()

	do(t, r, http.MethodPost, "/v1/order", `{"id":1,"price":100,"quantity":10,"side":"bid"}`)

	w := do(t, r, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Contains(t, stats, "last_latency_ns")
	assert.EqualValues(t, 1, stats["live_orders"])
}
