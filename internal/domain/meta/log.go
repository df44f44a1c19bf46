package meta

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/matchquant/internal/domain/model"
)

// Record is one row of the prediction log: the pick as predicted plus its
// settlement columns.
type Record struct {
	PredictionID   string
	MatchID        string
	HomeTeam       string
	AwayTeam       string
	Market         model.Market
	ModelVersion   string
	PredictedProb  float64
	Odds           float64
	LayerScore     float64
	QuantScore     float64
	FinalScore     int
	Recommendation model.Recommendation
	Layers         model.LayerScores
	PredictedAt    time.Time

	Settled      bool
	ActualResult string // "home-away" final score
	IsCorrect    bool
	ProfitLoss   float64
	CLVCaptured  float64
	SettledAt    time.Time
}

// RecordOf converts a pick into an unsettled log record.
func RecordOf(p model.QuantPick) Record {
	layers := make(model.LayerScores, len(p.Layers))
	for l, v := range p.Layers {
		layers[l] = v
	}
	return Record{
		PredictionID:   p.PredictionID,
		MatchID:        p.MatchID,
		HomeTeam:       p.HomeTeam,
		AwayTeam:       p.AwayTeam,
		Market:         p.Market,
		ModelVersion:   p.ModelVersion,
		PredictedProb:  p.MCProb,
		Odds:           p.Odds,
		LayerScore:     p.LayerScore,
		QuantScore:     p.QuantScore,
		FinalScore:     p.FinalScore,
		Recommendation: p.Recommendation,
		Layers:         layers,
		PredictedAt:    p.CreatedAt,
	}
}

// Log is the append-only prediction log. Append is idempotent on the
// prediction id; settlement only fills the settlement columns. Settle
// returns the records it moved from pending to settled; a record settled
// by someone else in the meantime is not among them.
type Log interface {
	Append(ctx context.Context, r Record) error
	Pending(ctx context.Context, matchID string) ([]Record, error)
	Settle(ctx context.Context, rs []Record) ([]Record, error)
	SettledSince(ctx context.Context, since time.Time) ([]Record, error)
}

// MemoryLog is an in-process Log.
type MemoryLog struct {
	mu   sync.RWMutex
	rows map[string]Record
}

// NewMemoryLog creates an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{rows: make(map[string]Record)}
}

// Append stores r unless a record with the same id exists.
func (m *MemoryLog) Append(_ context.Context, r Record) error {
	if r.PredictionID == "" {
		return ErrInvalidRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[r.PredictionID]; !ok {
		m.rows[r.PredictionID] = r
	}
	return nil
}

// Pending returns the unsettled records of a match ordered by market.
func (m *MemoryLog) Pending(_ context.Context, matchID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.rows {
		if r.MatchID == matchID && !r.Settled {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PredictionID < out[j].PredictionID })
	return out, nil
}

// Settle writes the settlement columns of rs. Already settled rows are left
// untouched and left out of the result.
func (m *MemoryLog) Settle(_ context.Context, rs []Record) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := make([]Record, 0, len(rs))
	for _, r := range rs {
		cur, ok := m.rows[r.PredictionID]
		if !ok || cur.Settled {
			continue
		}
		cur.Settled = true
		cur.ActualResult = r.ActualResult
		cur.IsCorrect = r.IsCorrect
		cur.ProfitLoss = r.ProfitLoss
		cur.CLVCaptured = r.CLVCaptured
		cur.SettledAt = r.SettledAt
		m.rows[r.PredictionID] = cur
		moved = append(moved, cur)
	}
	return moved, nil
}

// SettledSince returns the records settled at or after since, oldest first.
func (m *MemoryLog) SettledSince(_ context.Context, since time.Time) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.rows {
		if r.Settled && !r.SettledAt.Before(since) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SettledAt.Before(out[j].SettledAt) })
	return out, nil
}

// Len returns the number of rows.
func (m *MemoryLog) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
