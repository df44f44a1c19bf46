// Package dynamics reads the odds history of one market and classifies how
// the price has moved: steam, drift, reversal or nothing at all.
package dynamics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/pkg/logger"
)

const (
	// DefaultWindow is the steam look-back window.
	DefaultWindow = 4 * time.Hour

	steamBasePct = 3.0
	driftPct     = 5.0

	consensusVarianceScale = 0.5
)

// Movement classifies a price path.
type Movement string

// Movement classes.
const (
	MovementNone    Movement = ""
	MovementSteam   Movement = "STEAM"
	MovementDrift   Movement = "DRIFT"
	MovementReverse Movement = "REVERSE"
	MovementStable  Movement = "STABLE"
)

// Direction says which way the price went from opening to latest.
type Direction string

// Directions.
const (
	DirectionFlat       Direction = "FLAT"
	DirectionShortening Direction = "SHORTENING"
	DirectionDrifting   Direction = "DRIFTING"
)

// Column projects a snapshot onto the price of one market. Zero means the
// market was not quoted.
type Column func(model.OddsSnapshot) float64

// Store is the odds history reader.
type Store interface {
	OddsTimeline(ctx context.Context, matchID string, market model.Market) ([]model.OddsSnapshot, error)
}

// Dynamics is the movement summary of one market.
type Dynamics struct {
	Market  model.Market `json:"market"`
	HasData bool         `json:"has_data"`
	Samples int          `json:"samples"`

	Opening float64 `json:"opening"`
	Latest  float64 `json:"latest"`
	Current float64 `json:"current"`
	// MovementPct is (latest - opening) / opening * 100.
	MovementPct float64 `json:"movement_pct"`
	// WindowMovePct is the same measure over the steam window only.
	WindowMovePct float64 `json:"window_move_pct"`

	Overround      float64 `json:"overround"`
	Liquidity      float64 `json:"liquidity"`
	SteamThreshold float64 `json:"steam_threshold"`

	Steam       bool      `json:"steam"`
	Movement    Movement  `json:"movement"`
	Direction   Direction `json:"direction"`
	SharpSignal int       `json:"sharp_signal"`

	CLVPotential float64 `json:"clv_potential"`
	Consensus    float64 `json:"consensus"`
	Books        int     `json:"books"`
}

// Magnitude is the absolute movement in percent.
func (d Dynamics) Magnitude() float64 { return math.Abs(d.MovementPct) }

// Reason describes the movement for a pick's reason list. It is empty for
// stable or unknown markets.
func (d Dynamics) Reason() string {
	switch d.Movement {
	case MovementSteam:
		return fmt.Sprintf("steam: %s %s %.1f%% (%.2f -> %.2f)", d.Market, d.Direction, d.Magnitude(), d.Opening, d.Latest)
	case MovementDrift:
		return fmt.Sprintf("drift: %s %s %.1f%%", d.Market, d.Direction, d.Magnitude())
	case MovementReverse:
		return fmt.Sprintf("reverse: %s moved and came back", d.Market)
	default:
		return ""
	}
}

// DefaultColumns maps the match-result markets, the only ones every odds
// feed carries history for.
func DefaultColumns() map[model.Market]Column {
	return map[model.Market]Column{
		model.MarketHome: func(o model.OddsSnapshot) float64 { return o.Home },
		model.MarketDraw: func(o model.OddsSnapshot) float64 { return o.Draw },
		model.MarketAway: func(o model.OddsSnapshot) float64 { return o.Away },
	}
}

// AllColumns maps every market quoted by model.OddsSnapshot.
func AllColumns() map[model.Market]Column {
	cols := DefaultColumns()
	cols[model.MarketBTTSYes] = func(o model.OddsSnapshot) float64 { return o.BTTSYes }
	cols[model.MarketBTTSNo] = func(o model.OddsSnapshot) float64 { return o.BTTSNo }
	cols[model.MarketOver15] = func(o model.OddsSnapshot) float64 { return o.Over15 }
	cols[model.MarketOver25] = func(o model.OddsSnapshot) float64 { return o.Over25 }
	cols[model.MarketOver35] = func(o model.OddsSnapshot) float64 { return o.Over35 }
	cols[model.MarketUnder25] = func(o model.OddsSnapshot) float64 { return o.Under25 }
	return cols
}

// Analyser computes market dynamics. It is safe for concurrent use once
// built.
type Analyser struct {
	store   Store
	window  time.Duration
	columns map[model.Market]Column
	logger  logger.Logger
}

// New creates an analyser over store. store may be nil when only Compute is
// used.
func New(store Store, opts ...Option) *Analyser {
	a := &Analyser{
		store:   store,
		window:  DefaultWindow,
		columns: DefaultColumns(),
		logger:  logger.Get().Named("dynamics"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Supports reports whether market m has a history column.
func (a *Analyser) Supports(m model.Market) bool {
	_, ok := a.columns[m]
	return ok
}

// Analyse loads the odds timeline of the market and computes its dynamics.
// A failed read is logged and yields an empty result; only the context's
// error is returned.
func (a *Analyser) Analyse(ctx context.Context, matchID string, m model.Market, current float64) (Dynamics, error) {
	if !a.Supports(m) {
		return Dynamics{Market: m, Current: current}, ErrUnsupportedMarket
	}
	var timeline []model.OddsSnapshot
	if a.store != nil {
		tl, err := a.store.OddsTimeline(ctx, matchID, m)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Dynamics{}, ctxErr
			}
			a.logger.Warn(ctx, "odds timeline read failed, treating as absent",
				logger.String("match_id", matchID),
				logger.String("market", string(m)),
				logger.Error(err),
			)
			tl = nil
		}
		timeline = tl
	}
	return a.Compute(m, timeline, current), nil
}

type sample struct {
	at    time.Time
	book  string
	price float64
}

// Compute classifies the market from an already loaded timeline. Markets
// without a column, or with no quoted sample, come back with HasData false.
func (a *Analyser) Compute(m model.Market, timeline []model.OddsSnapshot, current float64) Dynamics {
	d := Dynamics{Market: m, Current: current, Direction: DirectionFlat, Liquidity: 1}
	col, ok := a.columns[m]
	if !ok {
		return d
	}

	samples := make([]sample, 0, len(timeline))
	for _, o := range timeline {
		if p := col(o); p > 1 {
			samples = append(samples, sample{at: o.CapturedAt, book: o.Bookmaker, price: p})
		}
	}
	if len(samples) == 0 {
		return d
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].at.Before(samples[j].at) })

	d.HasData = true
	d.Samples = len(samples)
	first, last := samples[0], samples[len(samples)-1]
	d.Opening, d.Latest = first.price, last.price
	d.MovementPct = pct(d.Opening, d.Latest)
	switch {
	case d.Latest < d.Opening:
		d.Direction = DirectionShortening
	case d.Latest > d.Opening:
		d.Direction = DirectionDrifting
	}

	ref := first
	cutoff := last.at.Add(-a.window)
	for _, s := range samples {
		if s.at.After(cutoff) {
			break
		}
		ref = s
	}
	d.WindowMovePct = pct(ref.price, d.Latest)

	if or, ok := overround(timeline); ok {
		d.Overround = or
		d.Liquidity = LiquidityFactor(or)
	}
	d.SteamThreshold = steamBasePct / d.Liquidity
	d.Steam = math.Abs(d.WindowMovePct) > d.SteamThreshold

	switch {
	case d.Steam:
		d.Movement = MovementSteam
		if d.WindowMovePct < 0 {
			d.SharpSignal = 1
		} else {
			d.SharpSignal = -1
		}
	case math.Abs(d.MovementPct) >= driftPct:
		d.Movement = MovementDrift
	case reversed(samples):
		d.Movement = MovementReverse
	default:
		d.Movement = MovementStable
	}

	if current > 1 {
		closing := d.Latest * (1 + d.WindowMovePct/100)
		if closing > 1 {
			d.CLVPotential = current/closing - 1
		}
	}
	d.Consensus, d.Books = consensus(samples)
	return d
}

// LiquidityFactor maps a bookmaker over-round onto the divisor of the steam
// threshold. Tight books move on less.
func LiquidityFactor(overround float64) float64 {
	switch {
	case overround <= 0.03:
		return 1.5
	case overround <= 0.05:
		return 1.0
	case overround <= 0.07:
		return 0.7
	default:
		return 0.3
	}
}

// overround is sum(1/odds) - 1 over the latest complete 1X2 tuple.
func overround(timeline []model.OddsSnapshot) (float64, bool) {
	var (
		best  model.OddsSnapshot
		found bool
	)
	for _, o := range timeline {
		if !o.Complete1X2() {
			continue
		}
		if !found || !o.CapturedAt.Before(best.CapturedAt) {
			best, found = o, true
		}
	}
	if !found {
		return 0, false
	}
	return 1/best.Home + 1/best.Draw + 1/best.Away - 1, true
}

// reversed reports whether the path turned around and came back to within
// the drift threshold of the opening price.
func reversed(samples []sample) bool {
	if len(samples) < 3 {
		return false
	}
	open := samples[0].price
	turn := open
	for _, s := range samples[1 : len(samples)-1] {
		if math.Abs(s.price-open) > math.Abs(turn-open) {
			turn = s.price
		}
	}
	last := samples[len(samples)-1].price
	out, back := turn-open, last-turn
	return out*back < 0 && math.Abs(pct(open, last)) < driftPct
}

// consensus returns max(0, 1 - variance/0.5) over the latest quote of each
// bookmaker, and the number of books. Fewer than two books give 0.
func consensus(samples []sample) (float64, int) {
	latest := make(map[string]float64)
	for _, s := range samples {
		latest[s.book] = s.price
	}
	n := len(latest)
	if n < 2 {
		return 0, n
	}
	var sum float64
	for _, p := range latest {
		sum += p
	}
	mean := sum / float64(n)
	var ss float64
	for _, p := range latest {
		ss += (p - mean) * (p - mean)
	}
	variance := ss / float64(n-1)
	return math.Max(0, 1-variance/consensusVarianceScale), n
}

func pct(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}
