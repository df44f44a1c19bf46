package meta

import (
	"time"

	"github.com/okian/matchquant/internal/domain/layers"
	"github.com/okian/matchquant/pkg/logger"
)

// Option applies a configuration option to the Learner.
type Option func(*Learner)

// WithRecordThreshold sets the minimum final score a pick needs to be logged.
func WithRecordThreshold(score int) Option {
	return func(l *Learner) {
		l.threshold = score
	}
}

// WithMinPicks sets how many settled picks are needed before weights move.
func WithMinPicks(n int) Option {
	return func(l *Learner) {
		if n > 0 {
			l.minPicks = n
		}
	}
}

// WithWindow sets how far back settled picks are learned from.
func WithWindow(d time.Duration) Option {
	return func(l *Learner) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithWeeklyDecay sets the weight an observation loses per week of age.
func WithWeeklyDecay(decay float64) Option {
	return func(l *Learner) {
		if decay > 0 && decay <= 1 {
			l.decay = decay
		}
	}
}

// WithOutcomeMemory sets how many match outcomes are kept for settling
// predictions recorded after their outcome.
func WithOutcomeMemory(n int) Option {
	return func(l *Learner) {
		if n > 0 {
			l.outcomeCap = n
		}
	}
}

// WithDefaultWeights sets the weights returned before learning kicks in.
func WithDefaultWeights(w layers.Weights) Option {
	return func(l *Learner) {
		if len(w) > 0 {
			l.defaults = w.Clone()
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Learner) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets a custom logger for the learner.
func WithLogger(lg logger.Logger) Option {
	return func(l *Learner) {
		if lg != nil {
			l.logger = lg
		}
	}
}
