package orderbook

import (
	"container/list"
	"errors"
	"math"
	"time"

	"github.com/google/btree"

	"github.com/nathanyu/lob-engine/internal/domain"
)

var (
	// ErrDuplicateID is returned by Submit when the id already denotes a live order.
	ErrDuplicateID = errors.New("orderbook: duplicate order id")
	// ErrInvalidQuantity is returned by Submit for a non-positive quantity.
	ErrInvalidQuantity = errors.New("orderbook: quantity must be positive")
	// ErrInvalidPrice is returned by Submit for a NaN or infinite price.
	ErrInvalidPrice = errors.New("orderbook: price must be finite")
)

const btreeDegree = 32

// priceLevel is a FIFO queue of orders sharing one side and one exact price.
// An empty level is never retained in its side tree.
type priceLevel struct {
	price    float64
	side     domain.Side
	orders   *list.List // of *domain.Order
	totalQty int64
}

// Less orders bids descending and asks ascending, so Min() of either
// tree is that side's best price.
func (l *priceLevel) Less(than btree.Item) bool {
	other := than.(*priceLevel)
	if l.side == domain.Bid {
		return l.price > other.price
	}
	return l.price < other.price
}

// orderEntry locates a live order: its level and its list element,
// for O(1) unlink on cancel or fill. It never owns the order.
type orderEntry struct {
	order *domain.Order
	level *priceLevel
	elem  *list.Element
}

// Book is a single-instrument limit order book with strict price-time
// priority. It is not safe for concurrent use; callers that share a
// Book must serialize access externally.
type Book struct {
	bids        *btree.BTree
	asks        *btree.BTree
	orders      map[uint64]*orderEntry
	lastLatency time.Duration
}

// New creates an empty book.
func New() *Book {
	return &Book{
		bids:   btree.New(btreeDegree),
		asks:   btree.New(btreeDegree),
		orders: make(map[uint64]*orderEntry),
	}
}

func (b *Book) tree(side domain.Side) *btree.BTree {
	if side == domain.Bid {
		return b.bids
	}
	return b.asks
}

// Submit rests a new limit order at the tail of its price level,
// creating the level if absent. No matching happens here; call Match
// separately. The call duration is recorded for LastLatency.
func (b *Book) Submit(id uint64, price float64, qty int64, side domain.Side) error {
	start := time.Now()
	defer func() { b.lastLatency = time.Since(start) }()

	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return ErrInvalidPrice
	}
	if _, exists := b.orders[id]; exists {
		return ErrDuplicateID
	}

	order := &domain.Order{
		ID:        id,
		Price:     price,
		Remaining: qty,
		Side:      side,
		Arrived:   start,
	}

	tree := b.tree(side)
	key := &priceLevel{price: price, side: side}
	level, _ := tree.Get(key).(*priceLevel)
	if level == nil {
		level = &priceLevel{price: price, side: side, orders: list.New()}
		tree.ReplaceOrInsert(level)
	}

	elem := level.orders.PushBack(order)
	level.totalQty += qty
	b.orders[id] = &orderEntry{order: order, level: level, elem: elem}
	return nil
}

// Cancel removes a live order from the book. It returns false if the
// id is unknown or no longer live. Other resting orders keep their
// relative time priority.
func (b *Book) Cancel(id uint64) bool {
	entry, exists := b.orders[id]
	if !exists {
		return false
	}

	level := entry.level
	level.orders.Remove(entry.elem)
	level.totalQty -= entry.order.Remaining
	if level.orders.Len() == 0 {
		b.tree(entry.order.Side).Delete(level)
	}

	delete(b.orders, id)
	return true
}

// Match crosses the book until best bid < best ask, trading the FIFO
// heads of the two best levels at the resting ask's price (the resting
// price always wins). It returns the trades in execution order; the
// bid side is reported as the aggressor. The call duration is recorded
// for LastLatency.
func (b *Book) Match() []domain.Trade {
	start := time.Now()
	defer func() { b.lastLatency = time.Since(start) }()

	var trades []domain.Trade
	for b.bids.Len() > 0 && b.asks.Len() > 0 {
		bestBid := b.bids.Min().(*priceLevel)
		bestAsk := b.asks.Min().(*priceLevel)
		if bestBid.price < bestAsk.price {
			break
		}

		bidOrder := bestBid.orders.Front().Value.(*domain.Order)
		askOrder := bestAsk.orders.Front().Value.(*domain.Order)

		qty := min(bidOrder.Remaining, askOrder.Remaining)
		trades = append(trades, domain.Trade{
			AggressorID: bidOrder.ID,
			RestingID:   askOrder.ID,
			Price:       bestAsk.price,
			Quantity:    qty,
		})

		bidOrder.Remaining -= qty
		askOrder.Remaining -= qty
		bestBid.totalQty -= qty
		bestAsk.totalQty -= qty

		if bidOrder.Remaining == 0 {
			bestBid.orders.Remove(bestBid.orders.Front())
			delete(b.orders, bidOrder.ID)
		}
		if askOrder.Remaining == 0 {
			bestAsk.orders.Remove(bestAsk.orders.Front())
			delete(b.orders, askOrder.ID)
		}

		if bestBid.orders.Len() == 0 {
			b.bids.Delete(bestBid)
		}
		if bestAsk.orders.Len() == 0 {
			b.asks.Delete(bestAsk)
		}
	}
	return trades
}

// Depth returns up to depth aggregated levels per side, best price
// first. It never fabricates empty levels. Read-only; LastLatency is
// not touched.
func (b *Book) Depth(depth int) domain.DepthSnapshot {
	if depth < 0 {
		depth = 0
	}
	return domain.DepthSnapshot{
		Bids: collectLevels(b.bids, depth),
		Asks: collectLevels(b.asks, depth),
	}
}

func collectLevels(tree *btree.BTree, depth int) []domain.BookLevel {
	levels := make([]domain.BookLevel, 0, depth)
	tree.Ascend(func(item btree.Item) bool {
		if len(levels) >= depth {
			return false
		}
		level := item.(*priceLevel)
		levels = append(levels, domain.BookLevel{
			Price:    level.price,
			Quantity: level.totalQty,
		})
		return true
	})
	return levels
}

// LastLatency returns the wall-clock duration of the most recent
// Submit or Match call. Diagnostic only.
func (b *Book) LastLatency() time.Duration {
	return b.lastLatency
}

// Len returns the number of live orders.
func (b *Book) Len() int {
	return len(b.orders)
}

// BestBid returns the best bid price, or false if the bid side is empty.
func (b *Book) BestBid() (float64, bool) {
	if b.bids.Len() == 0 {
		return 0, false
	}
	return b.bids.Min().(*priceLevel).price, true
}

// BestAsk returns the best ask price, or false if the ask side is empty.
func (b *Book) BestAsk() (float64, bool) {
	if b.asks.Len() == 0 {
		return 0, false
	}
	return b.asks.Min().(*priceLevel).price, true
}
