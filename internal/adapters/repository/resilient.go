package repository

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/pkg/logger"
	"github.com/okian/matchquant/pkg/metrics"
)

// Resilience defaults.
const (
	DefaultTimeout     = 3 * time.Second
	DefaultRetryJitter = 100 * time.Millisecond
)

// Resilient wraps a HistoryStore so that no read ever fails the analysis.
// Each call is bounded by a timeout and retried once after a jittered pause;
// a call that still fails is logged and downgraded to absence. Only the
// caller's own context errors are returned.
type Resilient struct {
	store   HistoryStore
	timeout time.Duration
	jitter  time.Duration
	limiter *rate.Limiter
	logger  logger.Logger
}

var _ HistoryStore = (*Resilient)(nil)

// NewResilient wraps store.
func NewResilient(store HistoryStore, opts ...Option) (*Resilient, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	r := &Resilient{
		store:   store,
		timeout: DefaultTimeout,
		jitter:  DefaultRetryJitter,
		logger:  logger.Get().Named("history_store"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// call runs fn with the wrapper's policy. A failed call yields the zero T.
func call[T any](ctx context.Context, r *Resilient, method string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	start := time.Now()
	defer func() {
		metrics.RecordStoreRead(method, float64(time.Since(start).Microseconds())/1000)
	}()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			metrics.RecordStoreRetry()
			if err := r.pause(ctx); err != nil {
				return zero, err
			}
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return zero, ctx.Err()
				}
				lastErr = err
				break
			}
		}
		actx, cancel := context.WithTimeout(ctx, r.timeout)
		v, err := fn(actx)
		cancel()
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		lastErr = err
	}

	metrics.RecordStoreDowngrade(method)
	r.logger.Warn(ctx, "history read failed, downgraded to absence",
		logger.String("method", method),
		logger.Error(lastErr),
	)
	return zero, nil
}

func (r *Resilient) pause(ctx context.Context) error {
	if r.jitter <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(rand.N(r.jitter) + 1)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Team implements HistoryStore.
func (r *Resilient) Team(ctx context.Context, team model.TeamRef) (*model.Team, error) {
	return call(ctx, r, "team", func(ctx context.Context) (*model.Team, error) {
		return r.store.Team(ctx, team)
	})
}

// TeamAggregates implements HistoryStore.
func (r *Resilient) TeamAggregates(ctx context.Context, team model.TeamRef, season string) (*model.TeamAggregates, error) {
	return call(ctx, r, "team_aggregates", func(ctx context.Context) (*model.TeamAggregates, error) {
		return r.store.TeamAggregates(ctx, team, season)
	})
}

// Players implements HistoryStore.
func (r *Resilient) Players(ctx context.Context, team model.TeamRef, season string) ([]model.Player, error) {
	return call(ctx, r, "players", func(ctx context.Context) ([]model.Player, error) {
		return r.store.Players(ctx, team, season)
	})
}

// Goals implements HistoryStore.
func (r *Resilient) Goals(ctx context.Context, team model.TeamRef, season string) ([]model.Goal, error) {
	return call(ctx, r, "goals", func(ctx context.Context) ([]model.Goal, error) {
		return r.store.Goals(ctx, team, season)
	})
}

// MatchesPlayed implements HistoryStore.
func (r *Resilient) MatchesPlayed(ctx context.Context, team model.TeamRef, competition string) ([]model.Match, error) {
	return call(ctx, r, "matches_played", func(ctx context.Context) ([]model.Match, error) {
		return r.store.MatchesPlayed(ctx, team, competition)
	})
}

// OddsTimeline implements HistoryStore.
func (r *Resilient) OddsTimeline(ctx context.Context, matchID string, market model.Market) ([]model.OddsSnapshot, error) {
	return call(ctx, r, "odds_timeline", func(ctx context.Context) ([]model.OddsSnapshot, error) {
		return r.store.OddsTimeline(ctx, matchID, market)
	})
}

// Referee implements HistoryStore.
func (r *Resilient) Referee(ctx context.Context, name, league string) (*model.RefereeProfile, error) {
	return call(ctx, r, "referee", func(ctx context.Context) (*model.RefereeProfile, error) {
		return r.store.Referee(ctx, name, league)
	})
}

// H2H implements HistoryStore.
func (r *Resilient) H2H(ctx context.Context, a, b model.TeamRef) (*model.H2HRecord, error) {
	return call(ctx, r, "h2h", func(ctx context.Context) (*model.H2HRecord, error) {
		return r.store.H2H(ctx, a, b)
	})
}

// MarketTraps implements HistoryStore.
func (r *Resilient) MarketTraps(ctx context.Context, team model.TeamRef) ([]model.MarketTrap, error) {
	return call(ctx, r, "market_traps", func(ctx context.Context) ([]model.MarketTrap, error) {
		return r.store.MarketTraps(ctx, team)
	})
}

// TacticalCell implements HistoryStore.
func (r *Resilient) TacticalCell(ctx context.Context, a, b model.Style) (*model.TacticalCell, error) {
	return call(ctx, r, "tactical_cell", func(ctx context.Context) (*model.TacticalCell, error) {
		return r.store.TacticalCell(ctx, a, b)
	})
}

// Momentum implements HistoryStore.
func (r *Resilient) Momentum(ctx context.Context, team model.TeamRef) (*model.TeamMomentum, error) {
	return call(ctx, r, "momentum", func(ctx context.Context) (*model.TeamMomentum, error) {
		return r.store.Momentum(ctx, team)
	})
}
