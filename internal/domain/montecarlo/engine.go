// Package montecarlo simulates a match minute by minute and aggregates the
// runs into market probabilities.
//
// Runs are split into a fixed number of shards, each with its own seeded
// generator, so a result depends only on the inputs, the seed and the number
// of simulations. The worker count only changes how many shards run at once.
package montecarlo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/pkg/logger"
	"github.com/okian/matchquant/pkg/metrics"
)

const (
	defaultSimulations = 10000
	defaultSeed        = 42
	defaultRedCardRate = 0.04
	shards             = 8
	minutes            = 90
	ctxCheckEvery      = 512

	minSigma       = 0.10
	sigmaSpread    = 0.10
	attackingSigma = 0.05 // caps attacking styles at 0.25

	redCardFactor = 0.70

	momentumDelta = 0.15
	momentumDecay = 0.98

	lateStateMinute    = 60
	closingStateMinute = 75
	oneGoalLeader      = 0.85
	oneGoalTrailer     = 1.20
	twoGoalLeader      = 0.70
	twoGoalTrailer     = 1.40
	closingLeader      = 0.60
	closingTrailer     = 1.50

	wilsonZ         = 1.96
	confidenceWidth = 0.15
)

// Params are the inputs of one simulation run.
type Params struct {
	XGHome    float64
	XGAway    float64
	StyleHome model.Style
	StyleAway model.Style
}

// Engine runs seeded Monte Carlo match simulations. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	simulations int
	seed        int64
	workers     int
	redCardRate float64
	logger      logger.Logger
}

// New creates an engine with default settings.
func New(opts ...Option) *Engine {
	e := &Engine{
		simulations: defaultSimulations,
		seed:        defaultSeed,
		workers:     shards,
		redCardRate: defaultRedCardRate,
		logger:      logger.Get().Named("montecarlo"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Simulations returns the configured number of runs.
func (e *Engine) Simulations() int { return e.simulations }

// tally is the aggregate of one shard.
type tally struct {
	n                      int
	home, draw, away       int
	btts                   int
	over15, over25, over35 int
	goalsHome, goalsAway   int
	scores                 map[Score]int
}

func (t *tally) add(h, a int) {
	t.n++
	switch {
	case h > a:
		t.home++
	case h < a:
		t.away++
	default:
		t.draw++
	}
	if h > 0 && a > 0 {
		t.btts++
	}
	total := h + a
	if total > 1 {
		t.over15++
	}
	if total > 2 {
		t.over25++
	}
	if total > 3 {
		t.over35++
	}
	t.goalsHome += h
	t.goalsAway += a
	t.scores[Score{Home: h, Away: a}]++
}

func (t *tally) merge(o *tally) {
	t.n += o.n
	t.home += o.home
	t.draw += o.draw
	t.away += o.away
	t.btts += o.btts
	t.over15 += o.over15
	t.over25 += o.over25
	t.over35 += o.over35
	t.goalsHome += o.goalsHome
	t.goalsAway += o.goalsAway
	for s, c := range o.scores {
		t.scores[s] += c
	}
}

// Simulate runs the configured number of matches and aggregates them.
func (e *Engine) Simulate(ctx context.Context, p Params) (*Result, error) {
	if !(p.XGHome > 0) || !(p.XGAway > 0) || math.IsInf(p.XGHome, 0) || math.IsInf(p.XGAway, 0) {
		return nil, fmt.Errorf("%w: home=%v away=%v", ErrInvalidXG, p.XGHome, p.XGAway)
	}
	start := time.Now()

	parts := make([]*tally, shards)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < shards; i++ {
		n := e.simulations / shards
		if i < e.simulations%shards {
			n++
		}
		rng := rand.New(rand.NewSource(e.seed + int64(i))) //nolint:gosec // seeded for reproducible runs
		g.Go(func() error {
			t, err := e.runShard(gctx, rng, n, p)
			if err != nil {
				return err
			}
			parts[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation interrupted: %w", err)
	}

	total := &tally{scores: make(map[Score]int)}
	for _, t := range parts {
		total.merge(t)
	}
	res := newResult(total, p)
	elapsed := time.Since(start)
	metrics.RecordSimulationLatency(float64(elapsed.Milliseconds()))
	e.logger.Debug(ctx, "simulation finished",
		logger.Int("simulations", total.n),
		logger.Float64("home_win", res.HomeWin),
		logger.Float64("confidence", res.Confidence),
		logger.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (e *Engine) runShard(ctx context.Context, rng *rand.Rand, n int, p Params) (*tally, error) {
	t := &tally{scores: make(map[Score]int)}
	for i := 0; i < n; i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		h, a := e.simulateMatch(rng, p)
		t.add(h, a)
	}
	return t, nil
}

// side is the per-match state of one team.
type side struct {
	lambda   float64
	sigma    float64
	momentum float64
	redAt    int
	goals    int
}

func (e *Engine) newSide(rng *rand.Rand, xg float64, style model.Style) side {
	s := side{lambda: xg / minutes, momentum: 1, redAt: minutes + 1}
	s.sigma = minSigma + rng.Float64()*sigmaSpread
	if style.Attacking() {
		s.sigma += attackingSigma
	}
	if rng.Float64() < e.redCardRate {
		s.redAt = 1 + rng.Intn(minutes)
	}
	return s
}

func (s *side) rate(minute int, state float64, rng *rand.Rand) float64 {
	r := s.lambda * s.momentum * state * (1 + rng.NormFloat64()*s.sigma)
	if minute >= s.redAt {
		r *= redCardFactor
	}
	return math.Max(0, r)
}

// stateMultipliers reshapes the scoring rates by the current lead and minute.
func stateMultipliers(diff, minute int) (home, away float64) {
	if minute < lateStateMinute || diff == 0 {
		return 1, 1
	}
	lead := diff
	if lead < 0 {
		lead = -lead
	}
	leader, trailer := oneGoalLeader, oneGoalTrailer
	switch {
	case minute >= closingStateMinute:
		leader, trailer = closingLeader, closingTrailer
	case lead >= 2:
		leader, trailer = twoGoalLeader, twoGoalTrailer
	}
	if diff > 0 {
		return leader, trailer
	}
	return trailer, leader
}

func (e *Engine) simulateMatch(rng *rand.Rand, p Params) (int, int) {
	home := e.newSide(rng, p.XGHome, p.StyleHome)
	away := e.newSide(rng, p.XGAway, p.StyleAway)
	for minute := 1; minute <= minutes; minute++ {
		sh, sa := stateMultipliers(home.goals-away.goals, minute)
		homeScores := rng.Float64() < home.rate(minute, sh, rng)
		awayScores := rng.Float64() < away.rate(minute, sa, rng)
		if homeScores {
			home.goals++
			home.momentum *= 1 + momentumDelta
			away.momentum *= 1 - momentumDelta/2
		}
		if awayScores {
			away.goals++
			away.momentum *= 1 + momentumDelta
			home.momentum *= 1 - momentumDelta/2
		}
		home.momentum = 1 + (home.momentum-1)*momentumDecay
		away.momentum = 1 + (away.momentum-1)*momentumDecay
	}
	return home.goals, away.goals
}
