package layers

import "github.com/okian/matchquant/internal/domain/model"

// SweetSpot is an odds band where a market has historically returned best.
type SweetSpot struct {
	Min   float64
	Max   float64
	Bonus float64
}

// Contains reports whether odds fall inside the band, bounds included.
func (s SweetSpot) Contains(odds float64) bool { return odds >= s.Min && odds <= s.Max }

// SweetSpots returns the per-market sweet-spot table.
func SweetSpots() map[model.Market]SweetSpot {
	return map[model.Market]SweetSpot{
		model.MarketHome:    {Min: 1.50, Max: 2.10, Bonus: 5},
		model.MarketDraw:    {Min: 3.00, Max: 3.60, Bonus: 3},
		model.MarketAway:    {Min: 2.00, Max: 3.20, Bonus: 4},
		model.MarketBTTSYes: {Min: 1.65, Max: 1.85, Bonus: 8},
		model.MarketBTTSNo:  {Min: 1.70, Max: 2.00, Bonus: 5},
		model.MarketOver15:  {Min: 1.25, Max: 1.45, Bonus: 4},
		model.MarketOver25:  {Min: 1.70, Max: 2.05, Bonus: 6},
		model.MarketOver35:  {Min: 2.40, Max: 3.20, Bonus: 3},
		model.MarketUnder25: {Min: 1.75, Max: 2.10, Bonus: 5},
	}
}

// SweetSpotBonus returns the bonus for pricing market m at odds, 0 outside
// the band.
func SweetSpotBonus(m model.Market, odds float64) float64 {
	if s, ok := SweetSpots()[m]; ok && s.Contains(odds) {
		return s.Bonus
	}
	return 0
}

func maxSweetSpot() float64 {
	var hi float64
	for _, s := range SweetSpots() {
		if s.Bonus > hi {
			hi = s.Bonus
		}
	}
	return hi
}
