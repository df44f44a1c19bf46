// Package trap blocks markets that a team's pre-registered trap list marks
// as mispriced against the bettor.
package trap

import (
	"context"
	"fmt"

	"github.com/okian/matchquant/internal/domain/matchup"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/pkg/logger"
	"github.com/okian/matchquant/pkg/metrics"
)

// Verdict is the outcome of the gate for one market.
type Verdict struct {
	Blocked bool
	Side    model.Side
	Team    string
	Reason  string
}

// Gate checks markets against both teams' trap lists.
type Gate struct {
	logger logger.Logger
}

// New creates a gate.
func New(opts ...Option) *Gate {
	g := &Gate{logger: logger.Get().Named("trap")}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns a blocking verdict when either team has an active trap on
// market m. The home team's trap wins when both have one.
func (g *Gate) Check(ctx context.Context, c *matchup.Context, m model.Market) Verdict {
	for _, side := range []model.Side{model.SideHome, model.SideAway} {
		sd := c.Side(side)
		t, ok := sd.ActiveTrap(m)
		if !ok {
			continue
		}
		team := sd.Profile().Name
		reason := t.Reason
		if reason == "" {
			reason = fmt.Sprintf("registered %s trap on %s", m, team)
		}
		metrics.RecordTrapBlock()
		g.logger.Info(ctx, "market blocked by trap",
			logger.String("match_id", c.Input.MatchID),
			logger.String("market", string(m)),
			logger.String("team", team),
			logger.String("reason", reason),
		)
		return Verdict{Blocked: true, Side: side, Team: team, Reason: reason}
	}
	return Verdict{}
}
