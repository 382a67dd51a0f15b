// Package backtest replays historical market events through the order
// book and lets a quoting strategy trade against the reconstructed
// flow, tracking the resulting cash and inventory.
package backtest

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nathanyu/lob-engine/internal/domain"
	"github.com/nathanyu/lob-engine/internal/marketdata"
	"github.com/nathanyu/lob-engine/internal/orderbook"
	"github.com/nathanyu/lob-engine/internal/replay"
	"github.com/nathanyu/lob-engine/internal/strategy"
)

const (
	// DefaultDepth is the snapshot depth handed to the strategy.
	DefaultDepth = 5
	// DefaultWarmup is how many events pass before quoting starts.
	DefaultWarmup = 50
)

// Runner drives one backtest: a book, a strategy, and an optional
// market data publisher receiving every trade. Single-goroutine; the
// book is never shared.
type Runner struct {
	book      *orderbook.Book
	strat     strategy.Strategy
	publisher *marketdata.Publisher

	depth  int
	warmup int

	nextID uint64
	// Live strategy quotes by order id. Entries leave the map when the
	// quote is cancelled at the next re-quote or confirmed fully filled.
	quotes map[uint64]domain.Side

	cash      float64
	inventory int64
	fills     int
}

// Option configures a Runner.
type Option func(*Runner)

// WithPublisher routes every trade to a market data publisher.
func WithPublisher(p *marketdata.Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithDepth sets the snapshot depth handed to the strategy.
func WithDepth(depth int) Option {
	return func(r *Runner) { r.depth = depth }
}

// WithWarmup sets how many events pass before quoting starts.
func WithWarmup(warmup int) Option {
	return func(r *Runner) { r.warmup = warmup }
}

// NewRunner creates a runner around a fresh book.
func NewRunner(strat strategy.Strategy, opts ...Option) *Runner {
	r := &Runner{
		book:   orderbook.New(),
		strat:  strat,
		depth:  DefaultDepth,
		warmup: DefaultWarmup,
		quotes: make(map[uint64]domain.Side),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Book exposes the runner's book for post-run inspection.
func (r *Runner) Book() *orderbook.Book {
	return r.book
}

// Run replays the events and returns the run report. Invalid events
// are skipped, not fatal: historical files carry occasional zero-size
// rows that the book rejects.
func (r *Runner) Run(events []domain.MarketEvent) domain.Report {
	start := time.Now()
	trades := 0

	for idx, event := range events {
		now := eventTime(event)

		// Feed the historical event in as a fresh limit order, then
		// cross the book.
		if err := r.submit(event.Price, event.Size, replay.Side(event.Direction)); err != nil {
			log.Printf("[backtest] skipping event %d: %v", idx, err)
			continue
		}
		trades += r.settle(r.book.Match(), now)

		if idx < r.warmup {
			continue
		}

		snap := r.book.Depth(r.depth)
		elapsed := float64(idx) / float64(len(events))
		r.requote(r.strat.OnDepth(snap, r.inventory, elapsed))
		trades += r.settle(r.book.Match(), now)
	}

	elapsed := time.Since(start)
	report := domain.Report{
		RunID:         uuid.New().String(),
		Events:        len(events),
		Orders:        int(r.nextID),
		Trades:        trades,
		StrategyFills: r.fills,
		Cash:          r.cash,
		Inventory:     r.inventory,
		PnL:           r.cash,
		Elapsed:       elapsed,
	}
	if elapsed > 0 {
		report.OrdersPerSec = float64(report.Orders) / elapsed.Seconds()
	}
	// Mark remaining inventory to the final mid when both sides survive.
	if mid, ok := r.book.Depth(1).Mid(); ok {
		report.PnL = r.cash + float64(r.inventory)*mid
	}
	return report
}

// submit places an order under the runner's own id sequence.
func (r *Runner) submit(price float64, qty int64, side domain.Side) error {
	r.nextID++
	if err := r.book.Submit(r.nextID, price, qty, side); err != nil {
		r.nextID--
		return err
	}
	return nil
}

// requote withdraws the previous round's unfilled quotes and places
// the new ones. Cancel returning false just means the quote already
// filled; either way the id is no longer ours to track.
func (r *Runner) requote(quotes []strategy.Quote) {
	for id := range r.quotes {
		r.book.Cancel(id)
		delete(r.quotes, id)
	}
	for _, q := range quotes {
		if err := r.submit(q.Price, q.Quantity, q.Side); err != nil {
			log.Printf("[backtest] rejected quote %s %v x %d: %v", q.Side, q.Price, q.Quantity, err)
			continue
		}
		r.quotes[r.nextID] = q.Side
	}
}

// settle applies fills on strategy quotes to cash and inventory,
// mirroring wallet settlement: a filled bid buys, a filled ask sells.
func (r *Runner) settle(trades []domain.Trade, now time.Time) int {
	for _, trade := range trades {
		r.settleSide(trade.AggressorID, trade)
		r.settleSide(trade.RestingID, trade)
	}
	if r.publisher != nil {
		r.publisher.Record(trades, now)
	}
	return len(trades)
}

func (r *Runner) settleSide(id uint64, trade domain.Trade) {
	side, ours := r.quotes[id]
	if !ours {
		return
	}
	r.fills++
	notional := float64(trade.Quantity) * trade.Price
	if side == domain.Bid {
		r.inventory += trade.Quantity
		r.cash -= notional
	} else {
		r.inventory -= trade.Quantity
		r.cash += notional
	}
}

// eventTime maps a seconds-after-midnight message timestamp onto the
// epoch day, giving candles a stable clock during replay.
func eventTime(event domain.MarketEvent) time.Time {
	return time.Unix(0, int64(event.TimeSec*float64(time.Second))).UTC()
}
