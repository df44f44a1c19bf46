package dynamics

import (
	"time"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/pkg/logger"
)

// Option applies a configuration option to the Analyser.
type Option func(*Analyser)

// WithWindow sets the look-back window used for steam detection.
func WithWindow(d time.Duration) Option {
	return func(a *Analyser) {
		if d > 0 {
			a.window = d
		}
	}
}

// WithColumn maps market m onto a column of the odds history.
func WithColumn(m model.Market, c Column) Option {
	return func(a *Analyser) {
		if c != nil {
			a.columns[m] = c
		}
	}
}

// WithColumns adds every mapping of cols.
func WithColumns(cols map[model.Market]Column) Option {
	return func(a *Analyser) {
		for m, c := range cols {
			if c != nil {
				a.columns[m] = c
			}
		}
	}
}

// WithLogger sets a custom logger for the analyser.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyser) {
		if l != nil {
			a.logger = l
		}
	}
}
