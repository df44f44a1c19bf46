package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/names"
)

// GormStore is a HistoryStore over the Postgres warehouse.
type GormStore struct {
	db           *gorm.DB
	competitions CompetitionMapper
}

// NewGormStore creates a store over db.
func NewGormStore(db *gorm.DB, opts ...GormOption) (*GormStore, error) {
	if db == nil {
		return nil, ErrNoDB
	}
	s := &GormStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Migrate creates or updates the warehouse tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(tables()...); err != nil {
		return fmt.Errorf("migrate warehouse: %w", err)
	}
	return nil
}

// lowerNames returns the lower-cased and normalised names of team for an
// IN predicate.
func lowerNames(team model.TeamRef) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, n := range team.Names() {
		for _, v := range []string{strings.ToLower(strings.TrimSpace(n)), names.Normalize(n)} {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func (s *GormStore) teamQuery(ctx context.Context, team model.TeamRef) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&teamRow{}).
		Where("LOWER(name) IN ?", lowerNames(team)).
		Order("id asc").
		Limit(1)
}

// Team implements HistoryStore.
func (s *GormStore) Team(ctx context.Context, team model.TeamRef) (*model.Team, error) {
	var rows []teamRow
	if err := s.teamQuery(ctx, team).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load team %s: %w", team.Canonical, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	t := rows[0].toModel()
	return &t, nil
}

func (s *GormStore) aggregatesQuery(ctx context.Context, team model.TeamRef, season string) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&aggregateRow{}).
		Where("LOWER(team) IN ?", lowerNames(team)).
		Where("season = ?", season).
		Limit(1)
}

// TeamAggregates implements HistoryStore. The team profile is attached when
// one exists.
func (s *GormStore) TeamAggregates(ctx context.Context, team model.TeamRef, season string) (*model.TeamAggregates, error) {
	var rows []aggregateRow
	if err := s.aggregatesQuery(ctx, team, season).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load aggregates %s/%s: %w", team.Canonical, season, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	profile, err := s.Team(ctx, team)
	if err != nil {
		return nil, err
	}
	t := model.Team{Name: rows[0].Team}
	if profile != nil {
		t = *profile
	}
	a := rows[0].toModel(t)
	return &a, nil
}

// Players implements HistoryStore.
func (s *GormStore) Players(ctx context.Context, team model.TeamRef, season string) ([]model.Player, error) {
	var rows []playerRow
	err := s.db.WithContext(ctx).
		Model(&playerRow{}).
		Where("LOWER(team) IN ?", lowerNames(team)).
		Where("season = ?", season).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load players %s/%s: %w", team.Canonical, season, err)
	}
	out := make([]model.Player, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *GormStore) playedQuery(ctx context.Context, team model.TeamRef) *gorm.DB {
	ns := lowerNames(team)
	return s.db.WithContext(ctx).
		Model(&matchRow{}).
		Where("LOWER(home_team) IN ? OR LOWER(away_team) IN ?", ns, ns)
}

func (s *GormStore) goalsQuery(ctx context.Context, team model.TeamRef, season string) *gorm.DB {
	played := s.playedQuery(ctx, team).Select("id").Where("season = ?", season)
	return s.db.WithContext(ctx).
		Model(&goalRow{}).
		Where("match_id IN (?)", played).
		Order("match_id asc, minute asc, id asc")
}

// Goals implements HistoryStore.
func (s *GormStore) Goals(ctx context.Context, team model.TeamRef, season string) ([]model.Goal, error) {
	var rows []goalRow
	if err := s.goalsQuery(ctx, team, season).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load goals %s/%s: %w", team.Canonical, season, err)
	}
	out := make([]model.Goal, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// MatchesPlayed implements HistoryStore. Competition classes are resolved
// after loading since stored names need the competition mapper.
func (s *GormStore) MatchesPlayed(ctx context.Context, team model.TeamRef, competition string) ([]model.Match, error) {
	var rows []matchRow
	if err := s.playedQuery(ctx, team).Order("kickoff asc, id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load matches %s: %w", team.Canonical, err)
	}
	out := make([]model.Match, 0, len(rows))
	for _, r := range rows {
		if inCompetition(s.competitions, r.Competition, competition) {
			out = append(out, r.toModel())
		}
	}
	return out, nil
}

func (s *GormStore) oddsQuery(ctx context.Context, matchID string, market model.Market) (*gorm.DB, bool) {
	col, ok := oddsColumns[market]
	if !ok {
		return nil, false
	}
	return s.db.WithContext(ctx).
		Model(&oddsRow{}).
		Where("match_id = ?", matchID).
		Where(col+" > ?", 1).
		Order("captured_at asc, id asc"), true
}

// OddsTimeline implements HistoryStore.
func (s *GormStore) OddsTimeline(ctx context.Context, matchID string, market model.Market) ([]model.OddsSnapshot, error) {
	q, ok := s.oddsQuery(ctx, matchID, market)
	if !ok {
		return nil, nil
	}
	var rows []oddsRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load odds %s/%s: %w", matchID, market, err)
	}
	out := make([]model.OddsSnapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// Referee implements HistoryStore. A profile from another league is used
// when the requested league has none.
func (s *GormStore) Referee(ctx context.Context, name, league string) (*model.RefereeProfile, error) {
	var rows []refereeRow
	err := s.db.WithContext(ctx).
		Model(&refereeRow{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Order("matches desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load referee %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	pick := rows[0]
	for _, r := range rows {
		if strings.EqualFold(r.League, league) {
			pick = r
			break
		}
	}
	p := pick.toModel()
	return &p, nil
}

// H2H implements HistoryStore.
func (s *GormStore) H2H(ctx context.Context, a, b model.TeamRef) (*model.H2HRecord, error) {
	na, nb := lowerNames(a), lowerNames(b)
	var rows []h2hRow
	err := s.db.WithContext(ctx).
		Model(&h2hRow{}).
		Where("(LOWER(team_a) IN ? AND LOWER(team_b) IN ?) OR (LOWER(team_a) IN ? AND LOWER(team_b) IN ?)", na, nb, nb, na).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load h2h %s/%s: %w", a.Canonical, b.Canonical, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	h := rows[0].toModel()
	if !matches(keysOf(a), h.TeamA) {
		h = h.Flip()
	}
	return &h, nil
}

// MarketTraps implements HistoryStore.
func (s *GormStore) MarketTraps(ctx context.Context, team model.TeamRef) ([]model.MarketTrap, error) {
	var rows []trapRow
	err := s.db.WithContext(ctx).
		Model(&trapRow{}).
		Where("LOWER(team) IN ?", lowerNames(team)).
		Order("market asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load traps %s: %w", team.Canonical, err)
	}
	out := make([]model.MarketTrap, 0, len(rows))
	for _, r := range rows {
		if t := r.toModel(); t.Market != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// TacticalCell implements HistoryStore.
func (s *GormStore) TacticalCell(ctx context.Context, a, b model.Style) (*model.TacticalCell, error) {
	var rows []tacticalRow
	err := s.db.WithContext(ctx).
		Model(&tacticalRow{}).
		Where("(style_a = ? AND style_b = ?) OR (style_a = ? AND style_b = ?)", string(a), string(b), string(b), string(a)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load tactical cell %s/%s: %w", a, b, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	pick := rows[0]
	for _, r := range rows {
		if model.ParseStyle(r.StyleA) == a {
			pick = r
			break
		}
	}
	c := pick.toModel()
	c.StyleA, c.StyleB = a, b
	return &c, nil
}

// Momentum implements HistoryStore.
func (s *GormStore) Momentum(ctx context.Context, team model.TeamRef) (*model.TeamMomentum, error) {
	var rows []momentumRow
	err := s.db.WithContext(ctx).
		Model(&momentumRow{}).
		Where("LOWER(team) IN ?", lowerNames(team)).
		Order("updated_at desc").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load momentum %s: %w", team.Canonical, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	m := rows[0].toModel()
	return &m, nil
}
