package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/names"
)

type styleKey struct {
	a model.Style
	b model.Style
}

// MemoryStore is an in-memory HistoryStore. It is safe for concurrent use;
// writers are expected to load it before analysis starts.
type MemoryStore struct {
	competitions CompetitionMapper

	mu         sync.RWMutex
	teams      []model.Team
	aggregates []model.TeamAggregates
	players    []model.Player
	matches    []model.Match
	goals      map[string][]model.Goal
	odds       map[string][]model.OddsSnapshot
	referees   []model.RefereeProfile
	h2h        []model.H2HRecord
	traps      []model.MarketTrap
	cells      map[styleKey]model.TacticalCell
	momentum   []model.TeamMomentum
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		goals: make(map[string][]model.Goal),
		odds:  make(map[string][]model.OddsSnapshot),
		cells: make(map[styleKey]model.TacticalCell),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTeams stores team profiles.
func (s *MemoryStore) AddTeams(teams ...model.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = append(s.teams, teams...)
}

// AddAggregates stores season totals.
func (s *MemoryStore) AddAggregates(aggs ...model.TeamAggregates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregates = append(s.aggregates, aggs...)
}

// AddPlayers stores player season aggregates.
func (s *MemoryStore) AddPlayers(players ...model.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = append(s.players, players...)
}

// AddMatches stores completed matches.
func (s *MemoryStore) AddMatches(ms ...model.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, ms...)
}

// AddGoals stores goal events, indexed by match.
func (s *MemoryStore) AddGoals(goals ...model.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range goals {
		s.goals[g.MatchID] = append(s.goals[g.MatchID], g)
	}
}

// AddOdds stores odds snapshots, indexed by match.
func (s *MemoryStore) AddOdds(snaps ...model.OddsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range snaps {
		s.odds[o.MatchID] = append(s.odds[o.MatchID], o)
	}
}

// AddReferees stores referee profiles.
func (s *MemoryStore) AddReferees(refs ...model.RefereeProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referees = append(s.referees, refs...)
}

// AddH2H stores head-to-head records in either orientation.
func (s *MemoryStore) AddH2H(records ...model.H2HRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h2h = append(s.h2h, records...)
}

// AddTraps registers market traps.
func (s *MemoryStore) AddTraps(traps ...model.MarketTrap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traps = append(s.traps, traps...)
}

// AddTacticalCells stores tactical matrix entries.
func (s *MemoryStore) AddTacticalCells(cells ...model.TacticalCell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cells {
		s.cells[styleKey{a: c.StyleA, b: c.StyleB}] = c
	}
}

// SetMomentum stores short-term form, replacing any earlier record of the team.
func (s *MemoryStore) SetMomentum(ms ...model.TeamMomentum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range ms {
		key := names.Normalize(m.Team)
		replaced := false
		for i := range s.momentum {
			if names.Normalize(s.momentum[i].Team) == key {
				s.momentum[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			s.momentum = append(s.momentum, m)
		}
	}
}

// Team implements HistoryStore.
func (s *MemoryStore) Team(_ context.Context, team model.TeamRef) (*model.Team, error) {
	keys := keysOf(team)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.teams {
		if matches(keys, s.teams[i].Name) {
			t := s.teams[i]
			t.StarPlayers = append([]string(nil), t.StarPlayers...)
			return &t, nil
		}
	}
	return nil, nil
}

// TeamAggregates implements HistoryStore.
func (s *MemoryStore) TeamAggregates(_ context.Context, team model.TeamRef, season string) (*model.TeamAggregates, error) {
	keys := keysOf(team)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.aggregates {
		a := s.aggregates[i]
		if a.Season == season && matches(keys, a.Team.Name) {
			return &a, nil
		}
	}
	return nil, nil
}

// Players implements HistoryStore.
func (s *MemoryStore) Players(_ context.Context, team model.TeamRef, season string) ([]model.Player, error) {
	keys := keysOf(team)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Player
	for _, p := range s.players {
		if p.Season == season && matches(keys, p.Team) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Goals implements HistoryStore.
func (s *MemoryStore) Goals(_ context.Context, team model.TeamRef, season string) ([]model.Goal, error) {
	keys := keysOf(team)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Goal
	for _, m := range s.matches {
		if m.Season != season || !(matches(keys, m.HomeTeam) || matches(keys, m.AwayTeam)) {
			continue
		}
		out = append(out, s.goals[m.ID]...)
	}
	return out, nil
}

// MatchesPlayed implements HistoryStore.
func (s *MemoryStore) MatchesPlayed(_ context.Context, team model.TeamRef, competition string) ([]model.Match, error) {
	keys := keysOf(team)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Match
	for _, m := range s.matches {
		if !(matches(keys, m.HomeTeam) || matches(keys, m.AwayTeam)) {
			continue
		}
		if !inCompetition(s.competitions, m.Competition, competition) {
			continue
		}
		out = append(out, m)
	}
	sortMatches(out)
	return out, nil
}

// OddsTimeline implements HistoryStore.
func (s *MemoryStore) OddsTimeline(_ context.Context, matchID string, market model.Market) ([]model.OddsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.OddsSnapshot
	for _, o := range s.odds[matchID] {
		if quotes(o, market) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CapturedAt.Before(out[j].CapturedAt) })
	return out, nil
}

// Referee implements HistoryStore. A profile from another league is used
// when the requested league has none.
func (s *MemoryStore) Referee(_ context.Context, name, league string) (*model.RefereeProfile, error) {
	key := names.Normalize(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var fallback *model.RefereeProfile
	for i := range s.referees {
		r := s.referees[i]
		if names.Normalize(r.Name) != key {
			continue
		}
		if league == "" || strings.EqualFold(r.League, league) {
			return &r, nil
		}
		if fallback == nil {
			fallback = &r
		}
	}
	return fallback, nil
}

// H2H implements HistoryStore.
func (s *MemoryStore) H2H(_ context.Context, a, b model.TeamRef) (*model.H2HRecord, error) {
	ka, kb := keysOf(a), keysOf(b)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.h2h {
		switch {
		case matches(ka, h.TeamA) && matches(kb, h.TeamB):
			return &h, nil
		case matches(kb, h.TeamA) && matches(ka, h.TeamB):
			f := h.Flip()
			return &f, nil
		}
	}
	return nil, nil
}

// MarketTraps implements HistoryStore.
func (s *MemoryStore) MarketTraps(_ context.Context, team model.TeamRef) ([]model.MarketTrap, error) {
	keys := keysOf(team)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.MarketTrap
	for _, t := range s.traps {
		if matches(keys, t.Team) {
			out = append(out, t)
		}
	}
	return out, nil
}

// TacticalCell implements HistoryStore. The matrix is symmetric; a cell
// stored the other way round is returned with its styles swapped.
func (s *MemoryStore) TacticalCell(_ context.Context, a, b model.Style) (*model.TacticalCell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.cells[styleKey{a: a, b: b}]; ok {
		return &c, nil
	}
	if c, ok := s.cells[styleKey{a: b, b: a}]; ok {
		c.StyleA, c.StyleB = a, b
		return &c, nil
	}
	return nil, nil
}

// Momentum implements HistoryStore.
func (s *MemoryStore) Momentum(_ context.Context, team model.TeamRef) (*model.TeamMomentum, error) {
	keys := keysOf(team)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.momentum {
		if matches(keys, s.momentum[i].Team) {
			m := s.momentum[i]
			return &m, nil
		}
	}
	return nil, nil
}

func sortMatches(ms []model.Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		if !ms[i].Kickoff.Equal(ms[j].Kickoff) {
			return ms[i].Kickoff.Before(ms[j].Kickoff)
		}
		return ms[i].ID < ms[j].ID
	})
}
