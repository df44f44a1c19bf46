package service

import (
	"time"

	"github.com/okian/matchquant/internal/adapters/mq/worker"
	"github.com/okian/matchquant/internal/domain/dna"
	"github.com/okian/matchquant/internal/domain/meta"
	"github.com/okian/matchquant/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the fixture queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many queued fixture ids are tracked.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithFixtureBudget sets the wall-clock budget of one fixture.
func WithFixtureBudget(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.budget = d
		}
	}
}

// WithSimulations sets the Monte Carlo run count.
func WithSimulations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.mcSimulations = n
		}
	}
}

// WithSeed sets the Monte Carlo base seed.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.mcSeed = &seed
	}
}

// WithSimulationWorkers caps the concurrent simulation shards per fixture.
func WithSimulationWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.mcWorkers = n
		}
	}
}

// WithRedCardRate sets the per-team red card probability of a simulated match.
func WithRedCardRate(rate float64) Option {
	return func(s *Service) {
		if rate >= 0 && rate <= 1 {
			s.redCardRate = &rate
		}
	}
}

// WithSteamWindow sets the look-back window of the steam detector.
func WithSteamWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.steamWindow = d
		}
	}
}

// WithModelVersion stamps picks with version.
func WithModelVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.modelVersion = version
		}
	}
}

// WithSeason pins the season instead of deriving it from the kick-off date.
func WithSeason(season string) Option {
	return func(s *Service) {
		s.season = season
	}
}

// WithLayerWeights overrides base layer weights by name.
func WithLayerWeights(weights map[string]float64) Option {
	return func(s *Service) {
		if len(weights) > 0 {
			s.layerWeights = weights
		}
	}
}

// WithPredictionLog sets where recorded picks are persisted.
func WithPredictionLog(log meta.Log) Option {
	return func(s *Service) {
		if log != nil {
			s.predictions = log
		}
	}
}

// WithLearnerOptions passes options through to the meta-learner.
func WithLearnerOptions(opts ...meta.Option) Option {
	return func(s *Service) {
		s.learnerOpts = append(s.learnerOpts, opts...)
	}
}

// WithDNACache sets the second-level TeamDNA cache.
func WithDNACache(c dna.RemoteCache) Option {
	return func(s *Service) {
		if c != nil {
			s.dnaCache = c
		}
	}
}

// WithSink sets where batch results are delivered.
func WithSink(sink worker.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithClock sets the time source used for validation and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
