package model

import "strings"

// Market is a betting market of a fixture.
type Market string

// Markets the engine scores. Anything else in an odds map is ignored.
const (
	MarketHome    Market = "home"
	MarketDraw    Market = "draw"
	MarketAway    Market = "away"
	MarketBTTSYes Market = "btts_yes"
	MarketBTTSNo  Market = "btts_no"
	MarketOver15  Market = "over_15"
	MarketOver25  Market = "over_25"
	MarketOver35  Market = "over_35"
	MarketUnder25 Market = "under_25"
)

// Markets lists every recognised market in scoring order.
var Markets = []Market{ //nolint:gochecknoglobals // closed enumeration
	MarketHome, MarketDraw, MarketAway,
	MarketBTTSYes, MarketBTTSNo,
	MarketOver15, MarketOver25, MarketOver35, MarketUnder25,
}

// ParseMarket maps a market name onto a Market. The second return value is
// false for unrecognised names.
func ParseMarket(s string) (Market, bool) {
	m := Market(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Markets {
		if m == known {
			return m, true
		}
	}
	return "", false
}

func (m Market) String() string { return string(m) }

// Result reports whether the market is one of the 1X2 markets.
func (m Market) Result() bool {
	return m == MarketHome || m == MarketDraw || m == MarketAway
}

// GoalsUp reports whether the market wins when the match is open: BTTS yes and
// the over lines.
func (m Market) GoalsUp() bool {
	return m == MarketBTTSYes || m == MarketOver15 || m == MarketOver25 || m == MarketOver35
}

// GoalsDown reports whether the market wins when the match is closed.
func (m Market) GoalsDown() bool {
	return m == MarketBTTSNo || m == MarketUnder25
}

// Settle reports whether the market won for the given final score.
func (m Market) Settle(home, away int) bool {
	total := home + away
	switch m {
	case MarketHome:
		return home > away
	case MarketDraw:
		return home == away
	case MarketAway:
		return away > home
	case MarketBTTSYes:
		return home > 0 && away > 0
	case MarketBTTSNo:
		return home == 0 || away == 0
	case MarketOver15:
		return total >= 2
	case MarketOver25:
		return total >= 3
	case MarketOver35:
		return total >= 4
	case MarketUnder25:
		return total <= 2
	default:
		return false
	}
}
