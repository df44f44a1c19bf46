// Package names canonicalises team and competition names across source feeds.
//
// The resolver keeps two maps: normalised source name to canonical name and
// canonical name to the source names seen for it. Both are filled once at
// startup from an alias table and are read-mostly afterwards.
package names

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/pkg/logger"
)

// maxExpandedSources caps the number of source names returned per team.
const maxExpandedSources = 10

//go:embed aliases.yaml
var defaultAliases []byte

// AliasTable is the on-disk shape of the alias asset.
type AliasTable struct {
	Teams        map[string][]string `yaml:"teams"`
	Competitions map[string]string   `yaml:"competitions"`
}

// Resolver maps user-supplied team names to canonical names and back.
type Resolver struct {
	mu           sync.RWMutex
	toCanonical  map[string]string
	sources      map[string][]string
	competitions map[string]string
	logger       logger.Logger
}

// New creates a resolver seeded with the built-in alias table.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		toCanonical:  make(map[string]string),
		sources:      make(map[string][]string),
		competitions: make(map[string]string),
		logger:       logger.Get().Named("names"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Load(strings.NewReader(string(defaultAliases))); err != nil {
		return nil, fmt.Errorf("load built-in aliases: %w", err)
	}
	return r, nil
}

// LoadFile merges an alias table from a YAML file.
func (r *Resolver) LoadFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return fmt.Errorf("open alias table: %w", err)
	}
	defer f.Close()
	return r.Load(f)
}

// Load merges an alias table read as YAML.
func (r *Resolver) Load(src io.Reader) error {
	var table AliasTable
	if err := yaml.NewDecoder(src).Decode(&table); err != nil && err != io.EOF {
		return fmt.Errorf("%w: %v", ErrInvalidAliasTable, err)
	}
	canonicals := make([]string, 0, len(table.Teams))
	for c := range table.Teams {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)
	for _, c := range canonicals {
		r.Add(c, table.Teams[c]...)
	}
	r.mu.Lock()
	for cup, league := range table.Competitions {
		r.competitions[Normalize(cup)] = league
	}
	r.mu.Unlock()
	return nil
}

// Add registers source names for a canonical team. The canonical name is
// always a source of itself.
func (r *Resolver) Add(canonical string, sources ...string) {
	canonical = strings.TrimSpace(canonical)
	if canonical == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range append([]string{canonical}, sources...) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := Normalize(s)
		if prev, ok := r.toCanonical[key]; ok && prev != canonical {
			r.logger.Warn(context.Background(), "alias already bound to another team",
				logger.String("alias", s),
				logger.String("existing", prev),
				logger.String("canonical", canonical),
			)
			continue
		}
		r.toCanonical[key] = canonical
		if !containsFold(r.sources[canonical], s) {
			r.sources[canonical] = append(r.sources[canonical], s)
		}
	}
}

// Canonical returns the canonical name for any known spelling or variant.
func (r *Resolver) Canonical(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range Variants(name) {
		if c, ok := r.toCanonical[Normalize(v)]; ok {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNoMatch, name)
}

// Expand resolves name to its canonical team and returns up to ten of its
// source names plus the deterministic variants of the input.
func (r *Resolver) Expand(name string) (model.TeamRef, error) {
	canonical, err := r.Canonical(name)
	if err != nil {
		return model.TeamRef{}, err
	}
	r.mu.RLock()
	srcs := r.sources[canonical]
	if len(srcs) > maxExpandedSources {
		srcs = srcs[:maxExpandedSources]
	}
	aliases := make([]string, 0, len(srcs)+4)
	aliases = append(aliases, srcs...)
	r.mu.RUnlock()
	aliases = append(aliases, Variants(name)...)
	ref := model.TeamRef{Canonical: canonical, Aliases: aliases}
	ref.Aliases = ref.Names()[1:]
	return ref, nil
}

// Fallback builds a reference for a name the alias table does not know.
func Fallback(name string) model.TeamRef {
	name = strings.TrimSpace(name)
	v := Variants(name)
	if len(v) > 0 {
		v = v[1:]
	}
	return model.TeamRef{Canonical: name, Aliases: v}
}

// Competition maps a competition onto the league whose scoring environment
// it is evaluated in. Unmapped competitions map to themselves.
func (r *Resolver) Competition(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if league, ok := r.competitions[Normalize(name)]; ok {
		return league
	}
	return strings.TrimSpace(name)
}

// Teams returns the number of canonical teams known.
func (r *Resolver) Teams() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
