// Package replay reads LOBSTER-style message files: headerless CSV
// rows of (time_sec, event_type, order_id, size, price, direction)
// where direction 1 marks the bid side and -1 the ask side.
package replay

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nathanyu/lob-engine/internal/domain"
)

const messageColumns = 6

// Reader yields market events from one message file.
type Reader struct {
	csv *csv.Reader
	row int
}

// NewReader wraps r. Rows with the wrong column count are rejected.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = messageColumns
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// Next returns the next event, or io.EOF when the file is exhausted.
// Parse failures report the offending row number.
func (r *Reader) Next() (domain.MarketEvent, error) {
	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return domain.MarketEvent{}, io.EOF
		}
		return domain.MarketEvent{}, fmt.Errorf("replay: row %d: %w", r.row+1, err)
	}
	r.row++

	timeSec, err := strconv.ParseFloat(record[0], 64)
	if err != nil {
		return domain.MarketEvent{}, fmt.Errorf("replay: row %d: bad time: %w", r.row, err)
	}
	eventType, err := strconv.Atoi(record[1])
	if err != nil {
		return domain.MarketEvent{}, fmt.Errorf("replay: row %d: bad event type: %w", r.row, err)
	}
	orderID, err := strconv.ParseUint(record[2], 10, 64)
	if err != nil {
		return domain.MarketEvent{}, fmt.Errorf("replay: row %d: bad order id: %w", r.row, err)
	}
	size, err := strconv.ParseInt(record[3], 10, 64)
	if err != nil {
		return domain.MarketEvent{}, fmt.Errorf("replay: row %d: bad size: %w", r.row, err)
	}
	price, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return domain.MarketEvent{}, fmt.Errorf("replay: row %d: bad price: %w", r.row, err)
	}
	direction, err := strconv.Atoi(record[5])
	if err != nil {
		return domain.MarketEvent{}, fmt.Errorf("replay: row %d: bad direction: %w", r.row, err)
	}
	if direction != 1 && direction != -1 {
		return domain.MarketEvent{}, fmt.Errorf("replay: row %d: direction must be 1 or -1, got %d", r.row, direction)
	}

	return domain.MarketEvent{
		TimeSec:   timeSec,
		EventType: eventType,
		OrderID:   orderID,
		Size:      size,
		Price:     price,
		Direction: direction,
	}, nil
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]domain.MarketEvent, error) {
	var events []domain.MarketEvent
	for {
		event, err := r.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

// Side maps a message direction to the order side.
func Side(direction int) domain.Side {
	if direction == 1 {
		return domain.Bid
	}
	return domain.Ask
}

// Open opens a message file for reading. The caller owns the close.
func Open(path string) (*Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	return NewReader(f), f, nil
}
