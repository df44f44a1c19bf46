// Package service wires the analysis pipeline behind the two entry points:
// analysing a fixture and submitting its outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/matchquant/internal/adapters/mq/queue"
	"github.com/okian/matchquant/internal/adapters/mq/worker"
	"github.com/okian/matchquant/internal/adapters/repository"
	"github.com/okian/matchquant/internal/domain/dedupe"
	"github.com/okian/matchquant/internal/domain/dna"
	"github.com/okian/matchquant/internal/domain/dynamics"
	"github.com/okian/matchquant/internal/domain/layers"
	"github.com/okian/matchquant/internal/domain/lineup"
	"github.com/okian/matchquant/internal/domain/matchup"
	"github.com/okian/matchquant/internal/domain/meta"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/montecarlo"
	"github.com/okian/matchquant/internal/domain/picks"
	"github.com/okian/matchquant/internal/domain/trap"
	"github.com/okian/matchquant/pkg/logger"
	"github.com/okian/matchquant/pkg/metrics"
)

// Default service configuration.
const (
	DefaultFixtureBudget = 5 * time.Second
	defaultQueueSize     = 10000
	defaultDedupeSize    = 50000
	maxTrackedFixtures   = 50000

	budgetExceeded = "analysis budget exceeded"
)

// Service runs the analysis pipeline. AnalyseMatch and SubmitOutcomes are
// safe for concurrent use.
type Service struct {
	mu sync.RWMutex

	store    repository.HistoryStore
	resolver matchup.Resolver

	// Pipeline components, built by New.
	provider  *dna.Provider
	fetcher   *matchup.Fetcher
	adjuster  *lineup.Adjuster
	engine    *montecarlo.Engine
	dynamics  *dynamics.Analyser
	scorer    *layers.Scorer
	gate      *trap.Gate
	assembler *picks.Assembler
	learner   *meta.Learner
	overlay   *outcomeOverlay

	// Batch components, built by Start.
	deduper dedupe.Deduper
	queue   queue.Queue
	pool    *worker.Pool
	sink    worker.Sink

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	budget        time.Duration
	mcSimulations int
	mcSeed        *int64
	mcWorkers     int
	redCardRate   *float64
	steamWindow   time.Duration
	modelVersion  string
	season        string
	layerWeights  map[string]float64
	predictions   meta.Log
	learnerOpts   []meta.Option
	dnaCache      dna.RemoteCache
	now           func() time.Time

	// fixtures remembers analysed inputs so outcomes can be submitted by id.
	fixturesMu sync.Mutex
	fixtures   map[string]model.MatchInput

	analysed atomic.Int64
	degraded atomic.Int64
	failed   atomic.Int64
	settled  atomic.Int64

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a service over store. resolver canonicalises team and
// competition names; names.Resolver satisfies it.
func New(store repository.HistoryStore, resolver matchup.Resolver, opts ...Option) *Service {
	s := &Service{
		store:        store,
		resolver:     resolver,
		workerCount:  runtime.NumCPU(),
		queueSize:    defaultQueueSize,
		dedupeSize:   defaultDedupeSize,
		budget:       DefaultFixtureBudget,
		modelVersion: picks.DefaultModelVersion,
		predictions:  meta.NewMemoryLog(),
		overlay:      newOutcomeOverlay(),
		fixtures:     make(map[string]model.MatchInput),
		now:          time.Now,
		logger:       logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	var providerOpts []dna.ProviderOption
	if s.dnaCache != nil {
		providerOpts = append(providerOpts, dna.WithRemoteCache(s.dnaCache))
	}
	s.provider = dna.NewProvider(dna.NewBuilder(store, dna.WithOverlay(s.overlay)), providerOpts...)

	var fetchOpts []matchup.Option
	if s.season != "" {
		fetchOpts = append(fetchOpts, matchup.WithSeason(s.season))
	}
	s.fetcher = matchup.NewFetcher(store, resolver, s.provider, fetchOpts...)
	s.adjuster = lineup.New()

	mcOpts := []montecarlo.Option{}
	if s.mcSimulations > 0 {
		mcOpts = append(mcOpts, montecarlo.WithSimulations(s.mcSimulations))
	}
	if s.mcSeed != nil {
		mcOpts = append(mcOpts, montecarlo.WithSeed(*s.mcSeed))
	}
	if s.mcWorkers > 0 {
		mcOpts = append(mcOpts, montecarlo.WithWorkers(s.mcWorkers))
	}
	if s.redCardRate != nil {
		mcOpts = append(mcOpts, montecarlo.WithRedCardRate(*s.redCardRate))
	}
	s.engine = montecarlo.New(mcOpts...)

	dynOpts := []dynamics.Option{dynamics.WithColumns(dynamics.AllColumns())}
	if s.steamWindow > 0 {
		dynOpts = append(dynOpts, dynamics.WithWindow(s.steamWindow))
	}
	s.dynamics = dynamics.New(store, dynOpts...)

	s.scorer = layers.New(layers.WithWeights(s.layerWeights))
	s.gate = trap.New()
	s.assembler = picks.New(picks.WithModelVersion(s.modelVersion), picks.WithClock(s.now))

	learnerOpts := append([]meta.Option{
		meta.WithDefaultWeights(s.scorer.Weights()),
		meta.WithClock(s.now),
	}, s.learnerOpts...)
	s.learner = meta.New(s.predictions, learnerOpts...)
	return s
}

// Restore reloads the learner's state from the prediction log.
func (s *Service) Restore(ctx context.Context) error {
	if err := s.learner.Restore(ctx); err != nil {
		return err
	}
	s.logger.Info(ctx, "learner restored", logger.Int("settled_in_window", s.learner.SettledInWindow()))
	return nil
}

// AnalyseMatch produces one pick per recognised market of the fixture. An
// invalid input yields no picks and a *model.InputError. A fixture that runs
// out of its budget still yields a pick per market; the unscored ones are
// WATCH placeholders with low coverage.
func (s *Service) AnalyseMatch(ctx context.Context, in model.MatchInput) ([]model.QuantPick, error) { //nolint:gocritic // hugeParam: input is copied into the fixture context
	start := time.Now()
	if err := in.Validate(s.now()); err != nil {
		metrics.RecordFixtureFailed("invalid_input")
		s.failed.Add(1)
		return nil, err
	}

	out, err := s.analyse(ctx, in)
	if err != nil {
		metrics.RecordFixtureFailed(failureReason(err))
		s.failed.Add(1)
		s.logger.Error(ctx, "fixture abandoned",
			logger.String("match_id", in.MatchID),
			logger.Error(err),
		)
		return nil, err
	}

	s.remember(in)
	for _, p := range out {
		metrics.RecordPick(string(p.Recommendation))
		if _, err := s.learner.Record(ctx, p); err != nil {
			s.logger.Warn(ctx, "prediction not recorded",
				logger.String("prediction_id", p.PredictionID),
				logger.Error(err),
			)
		}
	}
	s.analysed.Add(1)
	metrics.RecordFixtureAnalysed(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// analyse runs the pipeline under the fixture budget.
func (s *Service) analyse(ctx context.Context, in model.MatchInput) ([]model.QuantPick, error) { //nolint:gocritic // hugeParam: see AnalyseMatch
	bctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	markets := in.MarketOdds()
	f := picks.Fixture{Input: in}
	out := make([]model.QuantPick, 0, len(markets))

	// expired reports whether the budget, not the caller, ended the run.
	expired := func(err error) bool {
		return err != nil && ctx.Err() == nil && errors.Is(bctx.Err(), context.DeadlineExceeded)
	}
	degrade := func(from int) []model.QuantPick {
		for _, mo := range markets[from:] {
			out = append(out, s.assembler.Degraded(f, mo, budgetExceeded))
		}
		metrics.RecordFixtureDegraded()
		s.degraded.Add(1)
		s.logger.Warn(ctx, "fixture budget exceeded",
			logger.String("match_id", in.MatchID),
			logger.Int("scored", from),
			logger.Int("markets", len(markets)),
			logger.Duration("budget", s.budget),
		)
		return out
	}

	c, err := s.fetcher.Fetch(bctx, in)
	if err != nil {
		if expired(err) {
			return degrade(0), nil
		}
		return nil, fmt.Errorf("fetch context: %w", err)
	}

	lu := s.adjuster.Adjust(c)
	f.Lineup = &lu

	mc, err := s.engine.Simulate(bctx, montecarlo.Params{
		XGHome:    lu.XGHome,
		XGAway:    lu.XGAway,
		StyleHome: c.Home.Profile().Style,
		StyleAway: c.Away.Profile().Style,
	})
	if err != nil {
		if expired(err) {
			return degrade(0), nil
		}
		return nil, fmt.Errorf("simulate: %w", err)
	}
	f.MC = mc

	weights := s.learner.AdjustedWeights()
	for i, mo := range markets {
		if bctx.Err() != nil {
			if expired(bctx.Err()) {
				return degrade(i), nil
			}
			return nil, ctx.Err()
		}
		if v := s.gate.Check(bctx, c, mo.Market); v.Blocked {
			out = append(out, s.assembler.Blocked(f, mo, v))
			continue
		}
		d := s.dynamics.Compute(mo.Market, c.Odds[mo.Market], mo.Odds)
		sc := s.scorer.Score(layers.Input{
			Context:  c,
			MC:       mc,
			Lineup:   &lu,
			Dynamics: d,
			Market:   mo.Market,
			Odds:     mo.Odds,
		}, weights)
		out = append(out, s.assembler.Assemble(f, mo, sc))
	}

	s.logger.Debug(ctx, "fixture analysed",
		logger.String("match_id", in.MatchID),
		logger.String("home", c.Home.Ref.Canonical),
		logger.String("away", c.Away.Ref.Canonical),
		logger.Float64("xg_home", lu.XGHome),
		logger.Float64("xg_away", lu.XGAway),
		logger.Int("picks", len(out)),
	)
	return out, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, montecarlo.ErrInvalidXG):
		return "invalid_xg"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

func (s *Service) remember(in model.MatchInput) { //nolint:gocritic // hugeParam: stored by value
	s.fixturesMu.Lock()
	defer s.fixturesMu.Unlock()
	if _, ok := s.fixtures[in.MatchID]; !ok && len(s.fixtures) >= maxTrackedFixtures {
		return
	}
	s.fixtures[in.MatchID] = in
}

func (s *Service) forget(matchID string) {
	s.fixturesMu.Lock()
	delete(s.fixtures, matchID)
	s.fixturesMu.Unlock()
}

func (s *Service) fixture(matchID string) (model.MatchInput, bool) {
	s.fixturesMu.Lock()
	defer s.fixturesMu.Unlock()
	in, ok := s.fixtures[matchID]
	return in, ok
}

// SubmitOutcomes settles a finished fixture. The match is rebuilt from its
// goal stream and folded into the form, first-goal and game-state slots of
// both teams' DNA on their next build, and every pending prediction of the
// match is graded. The outcome is kept, so a prediction recorded later is
// graded as it arrives. A fixture with no pending predictions still updates
// the DNA overlay; the returned settlement is then empty together with
// meta.ErrNoPredictions.
func (s *Service) SubmitOutcomes(ctx context.Context, o model.Outcome) (meta.Settlement, error) { //nolint:gocritic // hugeParam: outcome is read once
	if err := o.Validate(); err != nil {
		return meta.Settlement{MatchID: o.MatchID}, err
	}

	if err := s.fold(ctx, o); err != nil {
		s.logger.Warn(ctx, "outcome not folded into team dna",
			logger.String("match_id", o.MatchID),
			logger.Error(err),
		)
	}

	res, err := s.learner.Settle(ctx, o, o.Closing())
	if err != nil {
		return res, fmt.Errorf("settle %s: %w", o.MatchID, err)
	}
	s.settled.Add(int64(res.Settled))
	s.forget(o.MatchID)
	return res, nil
}

// fold rebuilds the match and drops the cached DNA of both teams.
func (s *Service) fold(ctx context.Context, o model.Outcome) error { //nolint:gocritic // hugeParam: see SubmitOutcomes
	in, ok := s.fixture(o.MatchID)
	if !ok {
		if o.HomeTeam == "" || o.AwayTeam == "" || o.Kickoff.IsZero() {
			return ErrUnknownFixture
		}
		in = model.MatchInput{MatchID: o.MatchID, HomeTeam: o.HomeTeam, AwayTeam: o.AwayTeam, CommenceTime: o.Kickoff}
	}

	home, away := s.fetcher.Resolve(in.HomeTeam), s.fetcher.Resolve(in.AwayTeam)
	season := s.season
	if season == "" {
		season = model.SeasonOf(in.CommenceTime)
	}
	competition := in.Competition
	if competition == "" {
		competition = in.League
	}
	m := model.Match{
		ID:          o.MatchID,
		Competition: s.resolver.Competition(competition),
		Season:      season,
		HomeTeam:    home.Canonical,
		AwayTeam:    away.Canonical,
		Kickoff:     in.CommenceTime,
		HomeGoals:   o.HomeScore,
		AwayGoals:   o.AwayScore,
	}
	if o.HTHome != nil && o.HTAway != nil {
		m.HTHome, m.HTAway, m.HasHT = *o.HTHome, *o.HTAway, true
	}
	if t, ok := in.Temperature(); ok {
		m.HasWeather, m.TemperatureC, m.Rainy = true, t, in.Rainy()
	}

	s.overlay.add(dna.FromOutcome(m, o.Goals), home.Canonical, away.Canonical)
	s.provider.Invalidate(ctx, home.Canonical, season)
	s.provider.Invalidate(ctx, away.Canonical, season)
	s.logger.Info(ctx, "outcome folded into team dna",
		logger.String("match_id", o.MatchID),
		logger.String("home", home.Canonical),
		logger.String("away", away.Canonical),
		logger.String("score", fmt.Sprintf("%d-%d", o.HomeScore, o.AwayScore)),
	)
	return nil
}

// Weights returns the layer weights the next fixture will be scored with.
func (s *Service) Weights() layers.Weights { return s.learner.AdjustedWeights() }

// LayerAccuracy returns the learner's decay-weighted accuracy per layer.
func (s *Service) LayerAccuracy() map[model.Layer]float64 { return s.learner.LayerAccuracy() }

// Calibration returns hit rates per market and score bucket.
func (s *Service) Calibration() meta.Calibration { return s.learner.Calibration() }

// ModelVersion returns the version stamped on picks.
func (s *Service) ModelVersion() string { return s.assembler.ModelVersion() }

// ResetBatch empties the local DNA cache so that the next fixtures see
// fresh history.
func (s *Service) ResetBatch() { s.provider.Reset() }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"modelVersion":    s.assembler.ModelVersion(),
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"fixtureBudgetMs": s.budget.Milliseconds(),
		"analysed":        s.analysed.Load(),
		"degraded":        s.degraded.Load(),
		"failed":          s.failed.Load(),
		"settled":         s.settled.Load(),
		"settledInWindow": s.learner.SettledInWindow(),
		"dnaCached":       s.provider.Len(),
		"overlayMatches":  s.overlay.len(),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["pending"] = s.deduper.Size()
	}
	return stats
}
