package service

import (
	"sync"

	"github.com/okian/matchquant/internal/domain/dna"
)

// maxOverlayPerTeam bounds the settled matches kept for one team. Older
// ones are expected to have reached the history store by then.
const maxOverlayPerTeam = 64

// outcomeOverlay holds matches settled through SubmitOutcomes until the
// history store catches up. Keys are canonical team names.
type outcomeOverlay struct {
	mu      sync.RWMutex
	matches map[string][]dna.ReconstructedMatch
}

func newOutcomeOverlay() *outcomeOverlay {
	return &outcomeOverlay{matches: make(map[string][]dna.ReconstructedMatch)}
}

// Settled implements dna.Overlay.
func (o *outcomeOverlay) Settled(team string) []dna.ReconstructedMatch {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]dna.ReconstructedMatch(nil), o.matches[team]...)
}

// add stores r under both teams, replacing an earlier submission of the
// same match.
func (o *outcomeOverlay) add(r dna.ReconstructedMatch, teams ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, team := range teams {
		list := o.matches[team]
		replaced := false
		for i := range list {
			if list[i].Match.ID == r.Match.ID {
				list[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, r)
		}
		if len(list) > maxOverlayPerTeam {
			list = list[len(list)-maxOverlayPerTeam:]
		}
		o.matches[team] = list
	}
}

func (o *outcomeOverlay) len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	n := 0
	for _, l := range o.matches {
		n += len(l)
	}
	return n
}
