package domain

import "time"

// Side represents the order side (bid or ask).
type Side int8

const (
	Bid Side = iota
	Ask
)

// String returns the wire name of the side.
func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// ParseSide converts a wire name ("bid"/"ask") to a Side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "bid":
		return Bid, true
	case "ask":
		return Ask, true
	}
	return 0, false
}

// Order is a resting limit order. The book owns the only mutable copy;
// Remaining is decremented by matching and nothing else.
type Order struct {
	ID        uint64    `json:"id"`
	Price     float64   `json:"price"`
	Remaining int64     `json:"remaining"`
	Side      Side      `json:"side"`
	Arrived   time.Time `json:"arrived"`
}

// Trade is one execution produced by matching. Immutable once emitted.
type Trade struct {
	AggressorID uint64  `json:"aggressor_id"`
	RestingID   uint64  `json:"resting_id"`
	Price       float64 `json:"price"`
	Quantity    int64   `json:"quantity"`
}

// BookLevel is an aggregated price level in a depth snapshot.
type BookLevel struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// DepthSnapshot holds the top levels of both sides, best price first.
type DepthSnapshot struct {
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}

// BestBid returns the best bid level, or false if the bid side is empty.
func (d DepthSnapshot) BestBid() (BookLevel, bool) {
	if len(d.Bids) == 0 {
		return BookLevel{}, false
	}
	return d.Bids[0], true
}

// BestAsk returns the best ask level, or false if the ask side is empty.
func (d DepthSnapshot) BestAsk() (BookLevel, bool) {
	if len(d.Asks) == 0 {
		return BookLevel{}, false
	}
	return d.Asks[0], true
}

// Mid returns the mid price, or false if either side is empty.
func (d DepthSnapshot) Mid() (float64, bool) {
	bid, okBid := d.BestBid()
	ask, okAsk := d.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid.Price + ask.Price) / 2, true
}

// MarketEvent is one row of a LOBSTER-style message file.
// Direction: 1 = bid, -1 = ask.
type MarketEvent struct {
	TimeSec   float64
	EventType int
	OrderID   uint64
	Size      int64
	Price     float64
	Direction int
}

// Candlestick is OHLCV data for one trade-time interval.
type Candlestick struct {
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	Start    time.Time `json:"start"`
	Interval string    `json:"interval"`
}

// Report summarizes one backtest run.
type Report struct {
	RunID         string        `json:"run_id"`
	Events        int           `json:"events"`
	Orders        int           `json:"orders"`
	Trades        int           `json:"trades"`
	StrategyFills int           `json:"strategy_fills"`
	OrdersPerSec  float64       `json:"orders_per_sec"`
	Cash          float64       `json:"cash"`
	Inventory     int64         `json:"inventory"`
	PnL           float64       `json:"pnl"`
	Elapsed       time.Duration `json:"elapsed"`
}
