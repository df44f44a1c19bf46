package dna

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/pkg/logger"
	"github.com/okian/matchquant/pkg/metrics"
)

// RemoteCache is a second-level DNA cache shared between processes. Get
// returns nil, nil on a miss.
type RemoteCache interface {
	Get(ctx context.Context, team, season string) (*TeamDNA, error)
	Set(ctx context.Context, d *TeamDNA) error
	Delete(ctx context.Context, team, season string) error
}

type cacheKey struct {
	team   string
	season string
}

// Provider serves TeamDNA records built lazily and cached for the batch.
// Returned records are shared and must not be mutated.
type Provider struct {
	builder *Builder
	remote  RemoteCache
	logger  logger.Logger

	mu    sync.RWMutex
	local map[cacheKey]*TeamDNA
	group singleflight.Group
}

// NewProvider creates a provider over builder.
func NewProvider(builder *Builder, opts ...ProviderOption) *Provider {
	p := &Provider{
		builder: builder,
		logger:  logger.Get().Named("dna_provider"),
		local:   make(map[cacheKey]*TeamDNA),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get returns the DNA of team for season, building it on first use.
// Concurrent requests for the same team share one build.
func (p *Provider) Get(ctx context.Context, team model.TeamRef, season string) (*TeamDNA, error) {
	key := cacheKey{team: team.Canonical, season: season}
	p.mu.RLock()
	d, ok := p.local[key]
	p.mu.RUnlock()
	metrics.RecordDNACacheLookup("local", ok)
	if ok {
		return d, nil
	}

	v, err, _ := p.group.Do(key.team+"\x00"+key.season, func() (any, error) {
		if p.remote != nil {
			cached, err := p.remote.Get(ctx, key.team, key.season)
			if err != nil {
				p.logger.Warn(ctx, "remote dna cache read failed",
					logger.String("team", key.team),
					logger.Error(err),
				)
			}
			metrics.RecordDNACacheLookup("remote", cached != nil)
			if cached != nil {
				p.store(key, cached)
				return cached, nil
			}
		}

		built, err := p.builder.Build(ctx, team, season)
		if err != nil {
			return nil, err
		}
		p.store(key, built)
		if p.remote != nil {
			if err := p.remote.Set(ctx, built); err != nil {
				p.logger.Warn(ctx, "remote dna cache write failed",
					logger.String("team", key.team),
					logger.Error(err),
				)
			}
		}
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TeamDNA), nil
}

func (p *Provider) store(key cacheKey, d *TeamDNA) {
	p.mu.Lock()
	p.local[key] = d
	p.mu.Unlock()
}

// Invalidate drops the cached DNA of team for season from both tiers.
func (p *Provider) Invalidate(ctx context.Context, team, season string) {
	p.mu.Lock()
	delete(p.local, cacheKey{team: team, season: season})
	p.mu.Unlock()
	if p.remote == nil {
		return
	}
	if err := p.remote.Delete(ctx, team, season); err != nil {
		p.logger.Warn(ctx, "remote dna cache delete failed",
			logger.String("team", team),
			logger.Error(err),
		)
	}
}

// Reset empties the local tier, starting a new batch.
func (p *Provider) Reset() {
	p.mu.Lock()
	p.local = make(map[cacheKey]*TeamDNA)
	p.mu.Unlock()
}

// Len returns the number of locally cached records.
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.local)
}
