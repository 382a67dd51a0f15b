package strategy

import (
	"math"

	"github.com/nathanyu/lob-engine/internal/domain"
)

// AvellanedaStoikov quotes a symmetric bid/ask pair around an
// inventory-adjusted reservation price.
//
// Reservation price: r = mid - q*gamma*sigma^2*(T - t)
// Half-spread:       (gamma*sigma^2*(T - t) + (2/gamma)*ln(1 + gamma/kappa)) / 2
type AvellanedaStoikov struct {
	Gamma   float64 // risk aversion
	Sigma   float64 // mid-price volatility
	Kappa   float64 // order-flow decay
	Horizon float64 // trading horizon T
	Size    int64   // quantity per quote
}

// NewAvellanedaStoikov returns a quoter with the given parameters.
// Size defaults to 1 when non-positive.
func NewAvellanedaStoikov(gamma, sigma, kappa, horizon float64, size int64) *AvellanedaStoikov {
	if size <= 0 {
		size = 1
	}
	return &AvellanedaStoikov{Gamma: gamma, Sigma: sigma, Kappa: kappa, Horizon: horizon, Size: size}
}

// ReservationPrice returns the inventory-adjusted quote center.
func (a *AvellanedaStoikov) ReservationPrice(mid float64, inventory int64, elapsed float64) float64 {
	return mid - float64(inventory)*a.Gamma*a.Sigma*a.Sigma*(a.Horizon-elapsed)
}

// OptimalSpread returns the half-spread around the reservation price.
func (a *AvellanedaStoikov) OptimalSpread(elapsed float64) float64 {
	term1 := a.Gamma * a.Sigma * a.Sigma * (a.Horizon - elapsed)
	term2 := (2 / a.Gamma) * math.Log(1+a.Gamma/a.Kappa)
	return 0.5 * (term1 + term2)
}

// OnDepth quotes one bid and one ask around the reservation price.
// No quotes are produced while either side of the book is empty.
func (a *AvellanedaStoikov) OnDepth(snap domain.DepthSnapshot, inventory int64, elapsed float64) []Quote {
	mid, ok := snap.Mid()
	if !ok {
		return nil
	}

	r := a.ReservationPrice(mid, inventory, elapsed)
	spread := a.OptimalSpread(elapsed)
	return []Quote{
		{Side: domain.Bid, Price: r - spread, Quantity: a.Size},
		{Side: domain.Ask, Price: r + spread, Quantity: a.Size},
	}
}
