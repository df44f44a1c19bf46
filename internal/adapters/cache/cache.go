// Package cache keeps built team DNAs in Redis so that processes analysing
// the same teams share one build per team-season.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/matchquant/internal/domain/dna"
	"github.com/okian/matchquant/internal/domain/names"
)

// Defaults.
const (
	DefaultPrefix = "matchquant:dna:v1"
	DefaultTTL    = 12 * time.Hour
)

// ErrNoClient is returned when the cache is built without a Redis client.
var ErrNoClient = errors.New("no redis client")

// DNACache is a dna.RemoteCache over Redis. Records are JSON blobs keyed by
// team and season; a new season is a new key.
type DNACache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ dna.RemoteCache = (*DNACache)(nil)

// New creates a cache over client.
func New(client redis.UniversalClient, opts ...Option) (*DNACache, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	c := &DNACache{
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Key returns the Redis key of a team-season.
func (c *DNACache) Key(team, season string) string {
	return c.prefix + ":" + strings.ReplaceAll(names.Normalize(team), " ", "_") + ":" + season
}

// Get implements dna.RemoteCache. A miss is nil, nil.
func (c *DNACache) Get(ctx context.Context, team, season string) (*dna.TeamDNA, error) {
	b, err := c.client.Get(ctx, c.Key(team, season)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dna %s/%s: %w", team, season, err)
	}
	var d dna.TeamDNA
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("unmarshal dna %s/%s: %w", team, season, err)
	}
	return &d, nil
}

// Set implements dna.RemoteCache.
func (c *DNACache) Set(ctx context.Context, d *dna.TeamDNA) error {
	if d == nil {
		return nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal dna %s/%s: %w", d.Team.Name, d.Season, err)
	}
	if err := c.client.Set(ctx, c.Key(d.Team.Name, d.Season), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("set dna %s/%s: %w", d.Team.Name, d.Season, err)
	}
	return nil
}

// Delete implements dna.RemoteCache.
func (c *DNACache) Delete(ctx context.Context, team, season string) error {
	if err := c.client.Del(ctx, c.Key(team, season)).Err(); err != nil {
		return fmt.Errorf("delete dna %s/%s: %w", team, season, err)
	}
	return nil
}

// Ping checks the connection.
func (c *DNACache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
