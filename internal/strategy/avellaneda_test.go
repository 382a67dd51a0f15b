package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanyu/lob-engine/internal/domain"
)

func snapshot(bid, ask float64) domain.DepthSnapshot {
	return domain.DepthSnapshot{
		Bids: []domain.BookLevel{{Price: bid, Quantity: 10}},
		Asks: []domain.BookLevel{{Price: ask, Quantity: 10}},
	}
}

func TestReservationPrice(t *testing.T) {
	a := NewAvellanedaStoikov(0.1, 0.02, 1.5, 1.0, 1)

	// Flat inventory quotes at mid.
	assert.Equal(t, 100.0, a.ReservationPrice(100, 0, 0))

	// Long inventory shades the center down, short shades it up.
	assert.Less(t, a.ReservationPrice(100, 5, 0), 100.0)
	assert.Greater(t, a.ReservationPrice(100, -5, 0), 100.0)
}

func TestOptimalSpread(t *testing.T) {
	a := NewAvellanedaStoikov(0.1, 0.02, 1.5, 1.0, 1)

	want := 0.5 * (0.1*0.02*0.02*1.0 + (2/0.1)*math.Log(1+0.1/1.5))
	assert.InDelta(t, want, a.OptimalSpread(0), 1e-12)

	// Spread tightens as the horizon runs out.
	assert.Less(t, a.OptimalSpread(0.9), a.OptimalSpread(0))
}

func TestOnDepthQuotesAroundMid(t *testing.T) {
	a := NewAvellanedaStoikov(0.1, 0.02, 1.5, 1.0, 3)

	quotes := a.OnDepth(snapshot(99, 101), 0, 0)
	require.Len(t, quotes, 2)

	var bid, ask Quote
	for _, q := range quotes {
		if q.Side == domain.Bid {
			bid = q
		} else {
			ask = q
		}
	}

	assert.Less(t, bid.Price, 100.0)
	assert.Greater(t, ask.Price, 100.0)
	assert.InDelta(t, 100.0, (bid.Price+ask.Price)/2, 1e-9)
	assert.Equal(t, int64(3), bid.Quantity)
	assert.Equal(t, int64(3), ask.Quantity)
}

func TestOnDepthSkipsOneSidedBook(t *testing.T) {
	a := NewAvellanedaStoikov(0.1, 0.02, 1.5, 1.0, 1)

	assert.Nil(t, a.OnDepth(domain.DepthSnapshot{}, 0, 0))
	assert.Nil(t, a.OnDepth(domain.DepthSnapshot{
		Bids: []domain.BookLevel{{Price: 99, Quantity: 1}},
	}, 0, 0))
}

func TestSizeDefaultsToOne(t *testing.T) {
	a := NewAvellanedaStoikov(0.1, 0.02, 1.5, 1.0, 0)
	quotes := a.OnDepth(snapshot(99, 101), 0, 0)
	require.Len(t, quotes, 2)
	assert.Equal(t, int64(1), quotes[0].Quantity)
}
