// Package meta keeps the prediction log and learns, from settled picks,
// how much each scoring layer should be trusted.
package meta

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/matchquant/internal/domain/layers"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/pkg/logger"
	"github.com/okian/matchquant/pkg/metrics"
)

// Learning defaults.
const (
	DefaultRecordThreshold = 50
	DefaultMinPicks        = 30
	DefaultWindow          = 30 * 24 * time.Hour
	DefaultWeeklyDecay     = 0.95
	DefaultOutcomeMemory   = 10_000

	accuracyCentre = 0.50
	accuracyBand   = 0.05
	weightStep     = 0.10

	bucketWidth = 10
	week        = 7 * 24 * time.Hour

	settleStripes = 64
)

type observation struct {
	at      time.Time
	correct bool
}

// HitRate is a settled count and how many of them won.
type HitRate struct {
	Settled int     `json:"settled"`
	Correct int     `json:"correct"`
	Rate    float64 `json:"rate"`
}

func (h *HitRate) add(correct bool) {
	h.Settled++
	if correct {
		h.Correct++
	}
	h.Rate = float64(h.Correct) / float64(h.Settled)
}

// Calibration summarises settled picks per market and per score bucket.
// Bucket keys are the lower bound of a ten-point band.
type Calibration struct {
	Markets map[model.Market]HitRate `json:"markets"`
	Buckets map[int]HitRate          `json:"buckets"`
}

// Settlement reports what one settle call did.
type Settlement struct {
	MatchID    string
	Settled    int
	Correct    int
	ProfitLoss float64
}

// knownOutcome is a final score kept so that picks recorded after it can
// be settled on arrival.
type knownOutcome struct {
	outcome model.Outcome
	closing map[model.Market]float64
}

// Learner records picks and adapts layer weights. It is safe for concurrent
// use; record and settle may arrive in any order.
type Learner struct {
	log       Log
	defaults  layers.Weights
	threshold int
	minPicks  int
	window    time.Duration
	decay     float64
	now       func() time.Time
	logger    logger.Logger

	// Settlement of one match is serialised through its stripe.
	stripes [settleStripes]sync.Mutex

	outcomesMu sync.Mutex
	outcomes   map[string]knownOutcome
	outcomeIDs []string
	outcomeCap int

	mu       sync.RWMutex
	perf     map[model.Layer][]observation
	settled  []time.Time
	markets  map[model.Market]*HitRate
	buckets  map[int]*HitRate
	adjusted layers.Weights
}

// New creates a learner over log.
func New(log Log, opts ...Option) *Learner {
	l := &Learner{
		log:        log,
		defaults:   layers.DefaultWeights(),
		threshold:  DefaultRecordThreshold,
		minPicks:   DefaultMinPicks,
		window:     DefaultWindow,
		decay:      DefaultWeeklyDecay,
		now:        time.Now,
		logger:     logger.Get().Named("meta"),
		outcomes:   make(map[string]knownOutcome),
		outcomeCap: DefaultOutcomeMemory,
		perf:       make(map[model.Layer][]observation),
		markets:    make(map[model.Market]*HitRate),
		buckets:    make(map[int]*HitRate),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record persists p when its final score reaches the record threshold.
// Trapped picks are never recorded. It reports whether a row was written.
// A pick whose match already has a known outcome is settled right away.
func (l *Learner) Record(ctx context.Context, p model.QuantPick) (bool, error) { //nolint:gocritic // hugeParam: pick is converted once
	if p.IsTrap || p.FinalScore < l.threshold {
		return false, nil
	}
	if err := l.log.Append(ctx, RecordOf(p)); err != nil {
		return false, fmt.Errorf("append prediction %s: %w", p.PredictionID, err)
	}
	metrics.RecordPredictionRecorded()

	if k, ok := l.knownOutcome(p.MatchID); ok {
		if _, err := l.settle(ctx, k.outcome, k.closing); err != nil && !errors.Is(err, ErrNoPredictions) {
			return true, fmt.Errorf("settle late prediction %s: %w", p.PredictionID, err)
		}
	}
	return true, nil
}

// Settle grades every pending prediction of the outcome's match. closing
// holds closing odds per market when known and feeds the captured CLV. The
// outcome is kept, so predictions recorded later are settled on arrival;
// with nothing pending yet Settle returns ErrNoPredictions.
func (l *Learner) Settle(ctx context.Context, o model.Outcome, closing map[model.Market]float64) (Settlement, error) { //nolint:gocritic // hugeParam: outcome is read once
	l.remember(o, closing)
	return l.settle(ctx, o, closing)
}

func (l *Learner) settle(ctx context.Context, o model.Outcome, closing map[model.Market]float64) (Settlement, error) { //nolint:gocritic // hugeParam: see Settle
	res := Settlement{MatchID: o.MatchID}
	stripe := l.stripe(o.MatchID)
	stripe.Lock()
	defer stripe.Unlock()

	pending, err := l.log.Pending(ctx, o.MatchID)
	if err != nil {
		return res, fmt.Errorf("load pending predictions: %w", err)
	}
	if len(pending) == 0 {
		return res, ErrNoPredictions
	}

	at := l.now().UTC()
	score := fmt.Sprintf("%d-%d", o.HomeScore, o.AwayScore)
	for i := range pending {
		r := &pending[i]
		r.Settled = true
		r.SettledAt = at
		r.ActualResult = score
		r.IsCorrect = r.Market.Settle(o.HomeScore, o.AwayScore)
		r.ProfitLoss = profitLoss(r.Odds, r.IsCorrect)
		if c, ok := closing[r.Market]; ok && c > 1 {
			r.CLVCaptured = r.Odds/c - 1
		}
	}
	moved, err := l.log.Settle(ctx, pending)
	// Rows moved before a failure are settled in the log and must be learned.
	l.absorb(moved, &res)
	if err != nil {
		return res, fmt.Errorf("write settlements: %w", err)
	}
	if len(moved) == 0 {
		return res, ErrNoPredictions
	}

	l.logger.Info(ctx, "predictions settled",
		logger.String("match_id", o.MatchID),
		logger.Int("settled", res.Settled),
		logger.Int("correct", res.Correct),
		logger.Float64("profit_loss", res.ProfitLoss),
	)
	return res, nil
}

// absorb folds freshly settled records into the indices and the result.
func (l *Learner) absorb(moved []Record, res *Settlement) {
	if len(moved) == 0 {
		return
	}
	pl := decimal.Zero
	l.mu.Lock()
	for _, r := range moved {
		l.observe(r)
		pl = pl.Add(decimal.NewFromFloat(r.ProfitLoss))
		res.Settled++
		if r.IsCorrect {
			res.Correct++
			metrics.RecordPredictionSettled("won")
		} else {
			metrics.RecordPredictionSettled("lost")
		}
	}
	l.recompute()
	l.mu.Unlock()
	res.ProfitLoss = pl.InexactFloat64()
}

func (l *Learner) stripe(matchID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(matchID))
	return &l.stripes[h.Sum32()%settleStripes]
}

// remember keeps the outcome of a match, dropping the oldest one beyond
// the cap.
func (l *Learner) remember(o model.Outcome, closing map[model.Market]float64) { //nolint:gocritic // hugeParam: stored by value
	l.outcomesMu.Lock()
	defer l.outcomesMu.Unlock()
	if _, ok := l.outcomes[o.MatchID]; !ok {
		l.outcomeIDs = append(l.outcomeIDs, o.MatchID)
	}
	l.outcomes[o.MatchID] = knownOutcome{outcome: o, closing: closing}
	for len(l.outcomeIDs) > l.outcomeCap {
		delete(l.outcomes, l.outcomeIDs[0])
		l.outcomeIDs = l.outcomeIDs[1:]
	}
}

func (l *Learner) knownOutcome(matchID string) (knownOutcome, bool) {
	l.outcomesMu.Lock()
	defer l.outcomesMu.Unlock()
	k, ok := l.outcomes[matchID]
	return k, ok
}

// Restore reloads the learning state from the log's settled rows inside the
// window. It replaces whatever was learned in memory.
func (l *Learner) Restore(ctx context.Context) error {
	rows, err := l.log.SettledSince(ctx, l.now().Add(-l.window))
	if err != nil {
		return fmt.Errorf("load settled predictions: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.perf = make(map[model.Layer][]observation)
	l.settled = nil
	l.markets = make(map[model.Market]*HitRate)
	l.buckets = make(map[int]*HitRate)
	for _, r := range rows {
		l.observe(r)
	}
	l.recompute()
	return nil
}

// profitLoss is the one-unit-stake result of a bet at odds.
func profitLoss(odds float64, won bool) float64 {
	if !won {
		return -1
	}
	return decimal.NewFromFloat(odds).Sub(decimal.NewFromInt(1)).Round(4).InexactFloat64()
}

// observe folds one settled record into the indices. Callers hold mu.
func (l *Learner) observe(r Record) {
	l.settled = append(l.settled, r.SettledAt)
	for layer, v := range r.Layers {
		if v == 0 || layer == model.LayerTrap {
			continue
		}
		l.perf[layer] = append(l.perf[layer], observation{at: r.SettledAt, correct: (v > 0) == r.IsCorrect})
	}
	m, ok := l.markets[r.Market]
	if !ok {
		m = &HitRate{}
		l.markets[r.Market] = m
	}
	m.add(r.IsCorrect)
	b := bucketOf(r.FinalScore)
	h, ok := l.buckets[b]
	if !ok {
		h = &HitRate{}
		l.buckets[b] = h
	}
	h.add(r.IsCorrect)
}

func bucketOf(score int) int {
	return int(math.Floor(float64(score)/bucketWidth)) * bucketWidth
}

// recompute prunes observations outside the window and refreshes the
// adjusted weights. Readers call it too, so that weights fall back to the
// defaults once old settlements age out. Callers hold mu.
func (l *Learner) recompute() {
	cutoff := l.now().Add(-l.window)
	kept := l.settled[:0]
	for _, at := range l.settled {
		if !at.Before(cutoff) {
			kept = append(kept, at)
		}
	}
	l.settled = kept
	for layer, obs := range l.perf {
		fresh := obs[:0]
		for _, o := range obs {
			if !o.at.Before(cutoff) {
				fresh = append(fresh, o)
			}
		}
		l.perf[layer] = fresh
	}

	if len(l.settled) < l.minPicks {
		l.adjusted = nil
		return
	}
	w := l.defaults.Clone()
	for layer, base := range l.defaults {
		acc, ok := l.accuracy(layer)
		if !ok {
			continue
		}
		switch {
		case acc >= accuracyCentre+accuracyBand:
			w[layer] = math.Round(base * (1 + weightStep))
		case acc <= accuracyCentre-accuracyBand:
			w[layer] = math.Round(base * (1 - weightStep))
		}
		metrics.UpdateLayerWeight(string(layer), w[layer])
	}
	l.adjusted = w
}

// accuracy is the decay-weighted share of correct observations of layer.
// Callers hold mu.
func (l *Learner) accuracy(layer model.Layer) (float64, bool) {
	obs := l.perf[layer]
	if len(obs) == 0 {
		return 0, false
	}
	now := l.now()
	var num, den float64
	for _, o := range obs {
		weeks := now.Sub(o.at).Hours() / week.Hours()
		wt := math.Pow(l.decay, math.Max(0, weeks))
		den += wt
		if o.correct {
			num += wt
		}
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}

// AdjustedWeights returns the weights to score with. Before the minimum
// number of settled picks inside the window it returns the defaults
// unchanged.
func (l *Learner) AdjustedWeights() layers.Weights {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recompute()
	if l.adjusted == nil {
		return l.defaults.Clone()
	}
	return l.adjusted.Clone()
}

// LayerAccuracy returns the current decay-weighted accuracy of every layer
// with observations.
func (l *Learner) LayerAccuracy() map[model.Layer]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recompute()
	out := make(map[model.Layer]float64, len(l.perf))
	for layer := range l.perf {
		if acc, ok := l.accuracy(layer); ok {
			out[layer] = acc
		}
	}
	return out
}

// Calibration returns a copy of the per-market and per-bucket hit rates.
func (l *Learner) Calibration() Calibration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c := Calibration{
		Markets: make(map[model.Market]HitRate, len(l.markets)),
		Buckets: make(map[int]HitRate, len(l.buckets)),
	}
	for m, h := range l.markets {
		c.Markets[m] = *h
	}
	for b, h := range l.buckets {
		c.Buckets[b] = *h
	}
	return c
}

// SettledInWindow returns how many settled picks count toward learning.
func (l *Learner) SettledInWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recompute()
	return len(l.settled)
}
