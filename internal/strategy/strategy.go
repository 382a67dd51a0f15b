package strategy

import "github.com/nathanyu/lob-engine/internal/domain"

// Quote is one limit order a strategy wants resting in the book.
type Quote struct {
	Side     domain.Side
	Price    float64
	Quantity int64
}

// Strategy is a quoting strategy driven by depth updates. It is called
// synchronously by the backtest runner after every market event.
// elapsed is the normalized time in [0, 1] through the trading horizon.
type Strategy interface {
	OnDepth(snap domain.DepthSnapshot, inventory int64, elapsed float64) []Quote
}
