package montecarlo

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/matchquant/internal/domain/model"
)

// Score is a simulated final scoreline.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func (s Score) String() string { return fmt.Sprintf("%d-%d", s.Home, s.Away) }

// Interval is a two-sided confidence interval.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Width returns Upper - Lower.
func (i Interval) Width() float64 { return i.Upper - i.Lower }

// Contains reports whether p lies inside the interval.
func (i Interval) Contains(p float64) bool { return p >= i.Lower && p <= i.Upper }

// Wilson returns the Wilson score interval for k successes out of n trials.
func Wilson(k, n int, z float64) Interval {
	if n <= 0 {
		return Interval{Lower: 0, Upper: 1}
	}
	p := float64(k) / float64(n)
	nf := float64(n)
	z2 := z * z
	denom := 1 + z2/nf
	centre := (p + z2/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf)) / denom
	return Interval{
		Lower: math.Max(0, centre-half),
		Upper: math.Min(1, centre+half),
	}
}

// Result aggregates one simulation run.
type Result struct {
	Simulations int     `json:"simulations"`
	XGHome      float64 `json:"xg_home"`
	XGAway      float64 `json:"xg_away"`

	HomeWin float64 `json:"home_win"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"away_win"`
	BTTS    float64 `json:"btts"`
	Over15  float64 `json:"over_15"`
	Over25  float64 `json:"over_25"`
	Over35  float64 `json:"over_35"`

	MeanHome   float64       `json:"mean_home"`
	MeanAway   float64       `json:"mean_away"`
	Scores     map[Score]int `json:"-"`
	MostLikely Score         `json:"most_likely"`

	BTTSInterval   Interval `json:"btts_ci"`
	Over25Interval Interval `json:"over_25_ci"`
	// Confidence is 1 - BTTS interval width / 0.15, floored at 0.
	Confidence float64 `json:"confidence"`
}

func newResult(t *tally, p Params) *Result {
	n := float64(t.n)
	r := &Result{
		Simulations:    t.n,
		XGHome:         p.XGHome,
		XGAway:         p.XGAway,
		HomeWin:        float64(t.home) / n,
		Draw:           float64(t.draw) / n,
		AwayWin:        float64(t.away) / n,
		BTTS:           float64(t.btts) / n,
		Over15:         float64(t.over15) / n,
		Over25:         float64(t.over25) / n,
		Over35:         float64(t.over35) / n,
		MeanHome:       float64(t.goalsHome) / n,
		MeanAway:       float64(t.goalsAway) / n,
		Scores:         t.scores,
		BTTSInterval:   Wilson(t.btts, t.n, wilsonZ),
		Over25Interval: Wilson(t.over25, t.n, wilsonZ),
	}
	r.Confidence = math.Max(0, 1-r.BTTSInterval.Width()/confidenceWidth)
	r.MostLikely = mostLikely(t.scores)
	return r
}

// mostLikely picks the most frequent score; ties go to fewer total goals,
// then the higher home score.
func mostLikely(scores map[Score]int) Score {
	keys := make([]Score, 0, len(scores))
	for s := range scores {
		keys = append(keys, s)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		if a.Home+a.Away != b.Home+b.Away {
			return a.Home+a.Away < b.Home+b.Away
		}
		return a.Home > b.Home
	})
	if len(keys) == 0 {
		return Score{}
	}
	return keys[0]
}

// Prob returns the simulated probability of market m landing.
func (r *Result) Prob(m model.Market) (float64, bool) {
	switch m {
	case model.MarketHome:
		return r.HomeWin, true
	case model.MarketDraw:
		return r.Draw, true
	case model.MarketAway:
		return r.AwayWin, true
	case model.MarketBTTSYes:
		return r.BTTS, true
	case model.MarketBTTSNo:
		return 1 - r.BTTS, true
	case model.MarketOver15:
		return r.Over15, true
	case model.MarketOver25:
		return r.Over25, true
	case model.MarketOver35:
		return r.Over35, true
	case model.MarketUnder25:
		return 1 - r.Over25, true
	default:
		return 0, false
	}
}

// ScoreProb returns the share of runs ending in s.
func (r *Result) ScoreProb(s Score) float64 {
	if r.Simulations == 0 {
		return 0
	}
	return float64(r.Scores[s]) / float64(r.Simulations)
}
