package marketdata

import (
	"sync"
	"time"

	"github.com/nathanyu/lob-engine/internal/domain"
)

const (
	ringBufferCapacity = 100
	defaultInterval    = "1m"
)

// Print is a trade as it appears on the tape: the immutable match
// result plus the sequence number and timestamp stamped here.
type Print struct {
	domain.Trade
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
}

// RingBuffer is a fixed-size circular buffer of candlesticks.
type RingBuffer struct {
	data  [ringBufferCapacity]*domain.Candlestick
	head  int // next write position
	count int
}

// Push adds a candlestick to the ring buffer.
func (rb *RingBuffer) Push(c *domain.Candlestick) {
	rb.data[rb.head] = c
	rb.head = (rb.head + 1) % ringBufferCapacity
	if rb.count < ringBufferCapacity {
		rb.count++
	}
}

// GetRecent returns the N most recent candlesticks in chronological order.
func (rb *RingBuffer) GetRecent(n int) []*domain.Candlestick {
	if n <= 0 || rb.count == 0 {
		return nil
	}
	if n > rb.count {
		n = rb.count
	}

	result := make([]*domain.Candlestick, n)
	start := (rb.head - n + ringBufferCapacity) % ringBufferCapacity
	for i := 0; i < n; i++ {
		idx := (start + i) % ringBufferCapacity
		result[i] = rb.data[idx]
	}
	return result
}

// Publisher keeps the execution tape and per-interval candlesticks for
// the instrument. Candles rotate on trade time, so the same code serves
// live trading and historical replay.
type Publisher struct {
	mu sync.RWMutex

	tape    []Print
	nextSeq uint64

	interval time.Duration
	candles  *RingBuffer
	current  *domain.Candlestick
}

// NewPublisher creates a publisher with 1-minute candles.
func NewPublisher() *Publisher {
	return &Publisher{
		interval: time.Minute,
		candles:  &RingBuffer{},
	}
}

// Record appends trades to the tape, stamping sequence numbers in
// execution order, and folds them into the current candle.
func (p *Publisher) Record(trades []domain.Trade, now time.Time) []Print {
	if len(trades) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prints := make([]Print, 0, len(trades))
	for _, trade := range trades {
		p.nextSeq++
		pr := Print{Trade: trade, Seq: p.nextSeq, Time: now}
		p.tape = append(p.tape, pr)
		prints = append(prints, pr)
		p.updateCandle(trade, now)
	}
	return prints
}

// updateCandle folds one trade into the candle for its interval,
// rotating the previous candle out when the interval rolls over.
func (p *Publisher) updateCandle(trade domain.Trade, now time.Time) {
	bucket := now.Truncate(p.interval)

	if p.current != nil && !p.current.Start.Equal(bucket) {
		p.candles.Push(p.current)
		p.current = nil
	}

	if p.current == nil {
		p.current = &domain.Candlestick{
			Open:     trade.Price,
			High:     trade.Price,
			Low:      trade.Price,
			Close:    trade.Price,
			Volume:   trade.Quantity,
			Start:    bucket,
			Interval: defaultInterval,
		}
		return
	}

	c := p.current
	if trade.Price > c.High {
		c.High = trade.Price
	}
	if trade.Price < c.Low {
		c.Low = trade.Price
	}
	c.Close = trade.Price
	c.Volume += trade.Quantity
}

// GetCandles returns up to count recent candlesticks, including the
// building one.
func (p *Publisher) GetCandles(count int) []*domain.Candlestick {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := p.candles.GetRecent(count)
	if p.current != nil {
		result = append(result, p.current)
	}
	return result
}

// GetTrades returns tape entries matching the filter. orderID filters
// on either side of the trade; zero means no filter.
func (p *Publisher) GetTrades(orderID uint64, since time.Time) []Print {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var result []Print
	for _, pr := range p.tape {
		if orderID != 0 && pr.AggressorID != orderID && pr.RestingID != orderID {
			continue
		}
		if !since.IsZero() && pr.Time.Before(since) {
			continue
		}
		result = append(result, pr)
	}
	return result
}

// TradeCount returns the number of tape entries.
func (p *Publisher) TradeCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tape)
}
