package repository

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/matchquant/pkg/logger"
)

// Option applies a configuration option to the Resilient wrapper.
type Option func(*Resilient)

// WithTimeout bounds every store call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resilient) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRetryJitter sets the upper bound of the random pause before the retry.
func WithRetryJitter(d time.Duration) Option {
	return func(r *Resilient) {
		if d >= 0 {
			r.jitter = d
		}
	}
}

// WithRateLimit caps store calls per second. Zero or less disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(r *Resilient) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets a custom logger for the wrapper.
func WithLogger(l logger.Logger) Option {
	return func(r *Resilient) {
		if l != nil {
			r.logger = l
		}
	}
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryCompetitions folds stored competitions before comparing them.
func WithMemoryCompetitions(m CompetitionMapper) MemoryOption {
	return func(s *MemoryStore) {
		s.competitions = m
	}
}

// GormOption applies a configuration option to the GormStore.
type GormOption func(*GormStore)

// WithGormCompetitions folds stored competitions before comparing them.
func WithGormCompetitions(m CompetitionMapper) GormOption {
	return func(s *GormStore) {
		s.competitions = m
	}
}
