// Package repository provides the history store the analysis reads from:
// the contract, an in-memory implementation, a gorm/Postgres implementation
// and a resilient wrapper that turns failures into absence.
package repository

import (
	"context"
	"strings"

	"github.com/okian/matchquant/internal/domain/dna"
	"github.com/okian/matchquant/internal/domain/dynamics"
	"github.com/okian/matchquant/internal/domain/matchup"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/names"
)

// HistoryStore provides read-only lookups over the historical warehouse.
// Team arguments carry every source name the team is known under; a record
// matches when any of them matches after normalisation. Missing records are
// returned as nil or empty, never as ErrNotFound.
type HistoryStore interface {
	// Team returns the team's profile.
	Team(ctx context.Context, team model.TeamRef) (*model.Team, error)
	// TeamAggregates returns the season totals of team.
	TeamAggregates(ctx context.Context, team model.TeamRef, season string) (*model.TeamAggregates, error)
	// Players returns the season aggregates of every player of team.
	Players(ctx context.Context, team model.TeamRef, season string) ([]model.Player, error)
	// Goals returns every goal of the matches team played in season, for
	// both sides.
	Goals(ctx context.Context, team model.TeamRef, season string) ([]model.Goal, error)
	// MatchesPlayed returns the completed matches of team. An empty
	// competition returns all of them.
	MatchesPlayed(ctx context.Context, team model.TeamRef, competition string) ([]model.Match, error)
	// OddsTimeline returns the snapshots of matchID quoting market, oldest first.
	OddsTimeline(ctx context.Context, matchID string, market model.Market) ([]model.OddsSnapshot, error)
	// Referee returns the referee's profile, preferring the given league.
	Referee(ctx context.Context, name, league string) (*model.RefereeProfile, error)
	// H2H returns the head-to-head record from a's point of view.
	H2H(ctx context.Context, a, b model.TeamRef) (*model.H2HRecord, error)
	// MarketTraps returns every registered trap of team, active or not.
	MarketTraps(ctx context.Context, team model.TeamRef) ([]model.MarketTrap, error)
	// TacticalCell returns the tactical matrix entry of two styles.
	TacticalCell(ctx context.Context, a, b model.Style) (*model.TacticalCell, error)
	// Momentum returns the team's short-term form.
	Momentum(ctx context.Context, team model.TeamRef) (*model.TeamMomentum, error)
}

var (
	_ dna.Source     = HistoryStore(nil)
	_ matchup.Store  = HistoryStore(nil)
	_ dynamics.Store = HistoryStore(nil)
)

// CompetitionMapper folds a stored competition name onto the class the
// caller asks for, e.g. a domestic cup onto its parent league.
type CompetitionMapper func(name string) string

// keysOf returns the normalised names of team.
func keysOf(team model.TeamRef) map[string]struct{} {
	keys := make(map[string]struct{}, len(team.Aliases)+1)
	for _, n := range team.Names() {
		keys[names.Normalize(n)] = struct{}{}
	}
	return keys
}

func matches(keys map[string]struct{}, name string) bool {
	_, ok := keys[names.Normalize(name)]
	return ok
}

// inCompetition reports whether a match played in stored belongs to
// competition once mapped.
func inCompetition(mapper CompetitionMapper, stored, competition string) bool {
	if competition == "" {
		return true
	}
	if strings.EqualFold(stored, competition) {
		return true
	}
	return mapper != nil && strings.EqualFold(mapper(stored), competition)
}

// quotes reports whether s prices market.
func quotes(s model.OddsSnapshot, market model.Market) bool {
	col, ok := dynamics.AllColumns()[market]
	return ok && col(s) > 1
}
