package dna

import (
	"sort"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/names"
)

// Score is a home/away scoreline.
type Score struct {
	Home int
	Away int
}

// Diff returns the goal difference from side's point of view.
func (s Score) Diff(side model.Side) int {
	if side == model.SideHome {
		return s.Home - s.Away
	}
	return s.Away - s.Home
}

// State is the game state from one team's point of view.
type State string

// Game states.
const (
	StateLeading  State = "LEADING"
	StateLevel    State = "LEVEL"
	StateTrailing State = "TRAILING"
)

// StateFor returns the state of side given the score.
func StateFor(s Score, side model.Side) State {
	switch d := s.Diff(side); {
	case d > 0:
		return StateLeading
	case d < 0:
		return StateTrailing
	default:
		return StateLevel
	}
}

// Result is the outcome of a match from one side's point of view.
type Result string

// Results.
const (
	ResultWin  Result = "W"
	ResultDraw Result = "D"
	ResultLoss Result = "L"
)

// TimelineEvent is one goal in a reconstructed match. StateBefore is the
// scoring side's game state before the goal.
type TimelineEvent struct {
	Minute      int
	ScorerID    string
	Side        model.Side
	Before      Score
	After       Score
	StateBefore State
}

// ReconstructedMatch is a completed match rebuilt from its ordered goal stream.
type ReconstructedMatch struct {
	Match           model.Match
	Final           Score
	HalfTime        Score
	HasHalfTime     bool
	FirstGoalSide   model.Side
	FirstGoalMinute int
	Timeline        []TimelineEvent
	// Complete is false when the goal stream does not add up to the final
	// score; timeline-based slots skip incomplete matches.
	Complete bool
}

// ResultFor returns the match result for side.
func (r ReconstructedMatch) ResultFor(side model.Side) Result {
	switch d := r.Final.Diff(side); {
	case d > 0:
		return ResultWin
	case d < 0:
		return ResultLoss
	default:
		return ResultDraw
	}
}

type sidedGoal struct {
	minute   int
	scorerID string
	side     model.Side
	order    int
}

// Reconstruct rebuilds a match from its goal records. A goal whose team is
// neither side of the match is dropped and marks the match incomplete.
func Reconstruct(m model.Match, goals []model.Goal) ReconstructedMatch {
	home, away := names.Normalize(m.HomeTeam), names.Normalize(m.AwayTeam)
	events := make([]sidedGoal, 0, len(goals))
	dropped := false
	for i, g := range goals {
		if g.MatchID != "" && g.MatchID != m.ID {
			continue
		}
		var side model.Side
		switch names.Normalize(g.Team) {
		case home:
			side = model.SideHome
		case away:
			side = model.SideAway
		default:
			dropped = true
			continue
		}
		events = append(events, sidedGoal{minute: g.Minute, scorerID: g.ScorerID, side: side, order: i})
	}
	r := reconstruct(m, events)
	if dropped {
		r.Complete = false
	}
	return r
}

// FromOutcome rebuilds a match from a submitted outcome.
func FromOutcome(m model.Match, goals []model.GoalEvent) ReconstructedMatch {
	events := make([]sidedGoal, 0, len(goals))
	for i, g := range goals {
		events = append(events, sidedGoal{minute: g.Minute, side: g.Side, order: i})
	}
	return reconstruct(m, events)
}

func reconstruct(m model.Match, events []sidedGoal) ReconstructedMatch {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].minute != events[j].minute {
			return events[i].minute < events[j].minute
		}
		return events[i].order < events[j].order
	})

	r := ReconstructedMatch{
		Match: m,
		Final: Score{Home: m.HomeGoals, Away: m.AwayGoals},
	}
	var cur Score
	var ht Score
	for _, e := range events {
		before := cur
		if e.side == model.SideHome {
			cur.Home++
		} else {
			cur.Away++
		}
		if e.minute <= 45 {
			ht = cur
		}
		r.Timeline = append(r.Timeline, TimelineEvent{
			Minute:      e.minute,
			ScorerID:    e.scorerID,
			Side:        e.side,
			Before:      before,
			After:       cur,
			StateBefore: StateFor(before, e.side),
		})
	}
	r.Complete = cur == r.Final
	if len(r.Timeline) > 0 && r.Complete {
		r.FirstGoalSide = r.Timeline[0].Side
		r.FirstGoalMinute = r.Timeline[0].Minute
	}

	switch {
	case m.HasHT:
		r.HalfTime = Score{Home: m.HTHome, Away: m.HTAway}
		r.HasHalfTime = true
	case r.Complete:
		r.HalfTime = ht
		r.HasHalfTime = true
	}
	return r
}
