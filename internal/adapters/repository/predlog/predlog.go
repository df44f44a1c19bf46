// Package predlog stores the prediction log in Postgres. Every model version
// writes to its own table so that a new version starts learning from a clean
// history.
package predlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/okian/matchquant/internal/domain/meta"
	"github.com/okian/matchquant/internal/domain/model"
)

// TablePrefix is prepended to the sanitised model version.
const TablePrefix = "prediction_log_"

// Sentinel errors.
var (
	ErrNoDB           = errors.New("no database handle")
	ErrInvalidVersion = errors.New("invalid model version")
)

type predictionRow struct {
	PredictionID   string `gorm:"primaryKey;type:varchar(36)"`
	MatchID        string `gorm:"type:varchar(64);not null;index"`
	HomeTeam       string `gorm:"type:varchar(128)"`
	AwayTeam       string `gorm:"type:varchar(128)"`
	Market         string `gorm:"type:varchar(20);not null"`
	ModelVersion   string `gorm:"type:varchar(32);not null"`
	PredictedProb  float64
	Odds           float64
	LayerScore     float64
	QuantScore     float64
	FinalScore     int
	Recommendation string             `gorm:"type:varchar(20)"`
	Layers         map[string]float64 `gorm:"type:jsonb;serializer:json"`
	PredictedAt    time.Time          `gorm:"type:timestamptz"`

	Settled      bool   `gorm:"not null;default:false;index"`
	ActualResult string `gorm:"type:varchar(16)"`
	IsCorrect    bool
	ProfitLoss   decimal.Decimal `gorm:"type:numeric(12,4)"`
	CLVCaptured  float64         `gorm:"column:clv_captured"`
	SettledAt    *time.Time      `gorm:"type:timestamptz;index"`
}

func rowOf(r meta.Record) predictionRow {
	layers := make(map[string]float64, len(r.Layers))
	for l, v := range r.Layers {
		layers[string(l)] = v
	}
	row := predictionRow{
		PredictionID:   r.PredictionID,
		MatchID:        r.MatchID,
		HomeTeam:       r.HomeTeam,
		AwayTeam:       r.AwayTeam,
		Market:         string(r.Market),
		ModelVersion:   r.ModelVersion,
		PredictedProb:  r.PredictedProb,
		Odds:           r.Odds,
		LayerScore:     r.LayerScore,
		QuantScore:     r.QuantScore,
		FinalScore:     r.FinalScore,
		Recommendation: string(r.Recommendation),
		Layers:         layers,
		PredictedAt:    r.PredictedAt,
		Settled:        r.Settled,
		ActualResult:   r.ActualResult,
		IsCorrect:      r.IsCorrect,
		ProfitLoss:     decimal.NewFromFloat(r.ProfitLoss),
		CLVCaptured:    r.CLVCaptured,
	}
	if !r.SettledAt.IsZero() {
		at := r.SettledAt
		row.SettledAt = &at
	}
	return row
}

func (row predictionRow) toRecord() meta.Record {
	layers := make(model.LayerScores, len(row.Layers))
	for l, v := range row.Layers {
		layers[model.Layer(l)] = v
	}
	r := meta.Record{
		PredictionID:   row.PredictionID,
		MatchID:        row.MatchID,
		HomeTeam:       row.HomeTeam,
		AwayTeam:       row.AwayTeam,
		Market:         model.Market(row.Market),
		ModelVersion:   row.ModelVersion,
		PredictedProb:  row.PredictedProb,
		Odds:           row.Odds,
		LayerScore:     row.LayerScore,
		QuantScore:     row.QuantScore,
		FinalScore:     row.FinalScore,
		Recommendation: model.Recommendation(row.Recommendation),
		Layers:         layers,
		PredictedAt:    row.PredictedAt.UTC(),
		Settled:        row.Settled,
		ActualResult:   row.ActualResult,
		IsCorrect:      row.IsCorrect,
		ProfitLoss:     row.ProfitLoss.InexactFloat64(),
		CLVCaptured:    row.CLVCaptured,
	}
	if row.SettledAt != nil {
		r.SettledAt = row.SettledAt.UTC()
	}
	return r
}

// TableName returns the table of a model version, e.g. prediction_log_v10.
func TableName(version string) (string, error) {
	var b strings.Builder
	for _, c := range strings.ToLower(strings.TrimSpace(version)) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '.' || c == '-' || c == '_':
			b.WriteRune('_')
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidVersion, version)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty", ErrInvalidVersion)
	}
	return TablePrefix + b.String(), nil
}

// Log is a meta.Log over one versioned Postgres table.
type Log struct {
	db    *gorm.DB
	table string
}

var _ meta.Log = (*Log)(nil)

// New creates the log of a model version.
func New(db *gorm.DB, version string) (*Log, error) {
	if db == nil {
		return nil, ErrNoDB
	}
	table, err := TableName(version)
	if err != nil {
		return nil, err
	}
	return &Log{db: db, table: table}, nil
}

// Table returns the table the log writes to.
func (l *Log) Table() string { return l.table }

func (l *Log) tx(ctx context.Context) *gorm.DB {
	return l.db.WithContext(ctx).Table(l.table)
}

// Migrate creates or updates the log table.
func (l *Log) Migrate(ctx context.Context) error {
	if err := l.tx(ctx).AutoMigrate(&predictionRow{}); err != nil {
		return fmt.Errorf("migrate %s: %w", l.table, err)
	}
	return nil
}

// Append implements meta.Log. A second append of the same id is a no-op.
func (l *Log) Append(ctx context.Context, r meta.Record) error {
	if r.PredictionID == "" {
		return meta.ErrInvalidRecord
	}
	row := rowOf(r)
	err := l.tx(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "prediction_id"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("append %s: %w", r.PredictionID, err)
	}
	return nil
}

// Pending implements meta.Log.
func (l *Log) Pending(ctx context.Context, matchID string) ([]meta.Record, error) {
	var rows []predictionRow
	err := l.tx(ctx).
		Where("match_id = ?", matchID).
		Where("settled = ?", false).
		Order("prediction_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load pending %s: %w", matchID, err)
	}
	return records(rows), nil
}

// Settle implements meta.Log. Rows are updated one at a time and only while
// unsettled, so a settle retried after a partial failure completes the rest
// and a row settled by another writer is not reported twice.
func (l *Log) Settle(ctx context.Context, rs []meta.Record) ([]meta.Record, error) {
	moved := make([]meta.Record, 0, len(rs))
	for _, r := range rs {
		res := l.tx(ctx).
			Where("prediction_id = ?", r.PredictionID).
			Where("settled = ?", false).
			Updates(map[string]any{
				"settled":       true,
				"actual_result": r.ActualResult,
				"is_correct":    r.IsCorrect,
				"profit_loss":   decimal.NewFromFloat(r.ProfitLoss),
				"clv_captured":  r.CLVCaptured,
				"settled_at":    r.SettledAt,
			})
		if res.Error != nil {
			return moved, fmt.Errorf("settle %s: %w", r.PredictionID, res.Error)
		}
		if res.RowsAffected == 1 {
			moved = append(moved, r)
		}
	}
	return moved, nil
}

// SettledSince implements meta.Log.
func (l *Log) SettledSince(ctx context.Context, since time.Time) ([]meta.Record, error) {
	var rows []predictionRow
	err := l.tx(ctx).
		Where("settled = ?", true).
		Where("settled_at >= ?", since).
		Order("settled_at asc, prediction_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load settled since %s: %w", since.Format(time.RFC3339), err)
	}
	return records(rows), nil
}

func records(rows []predictionRow) []meta.Record {
	out := make([]meta.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecord())
	}
	return out
}
