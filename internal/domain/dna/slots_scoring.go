package dna

import (
	"sort"

	"github.com/okian/matchquant/internal/domain/model"
)

// buildVolume fills slot 1 from the season aggregates, falling back to the
// reconstructed matches when no aggregate row exists.
func buildVolume(d *TeamDNA, in *buildInput) error {
	v := VolumeSlot{Tag: TagNoData}
	if a := in.agg; a != nil && a.Matches > 0 {
		if a.GoalsFor < 0 || a.GoalsAgainst < 0 || a.Shots < 0 {
			return inconsistent("negative season totals: goals=%d conceded=%d shots=%d", a.GoalsFor, a.GoalsAgainst, a.Shots)
		}
		v.Matches, v.Goals, v.Conceded, v.XG = a.Matches, a.GoalsFor, a.GoalsAgainst, a.XGFor
	} else {
		for _, r := range in.matches {
			side, _ := in.sideIn(r.Match)
			scored, conceded := r.Match.GoalsFor(side)
			v.Matches++
			v.Goals += scored
			v.Conceded += conceded
			if side == model.SideHome {
				v.XG += r.Match.HomeXG
			} else {
				v.XG += r.Match.AwayXG
			}
		}
	}
	if v.Matches == 0 {
		d.Volume = v
		return nil
	}

	n := float64(v.Matches)
	v.GoalsPerMatch = float64(v.Goals) / n
	v.ConcededPerMatch = float64(v.Conceded) / n
	v.XGPerMatch = v.XG / n
	v.XGOverperformance = float64(v.Goals) - v.XG
	switch {
	case v.GoalsPerMatch >= highScoringGPM:
		v.Tag = TagHighScoring
	case v.GoalsPerMatch < lowScoringGPM:
		v.Tag = TagLowScoring
	default:
		v.Tag = TagAverage
	}
	d.Volume = v
	return nil
}

// periodOf maps a minute onto the six 15-minute buckets; second-half
// stoppage time belongs to the last one.
func periodOf(minute int) int {
	p := (minute - 1) / 15
	if p > 5 {
		p = 5
	}
	if p < 0 {
		p = 0
	}
	return p
}

func buildTiming(d *TeamDNA, in *buildInput) error {
	t := TimingSlot{Tag: TagNoData}
	goals := in.ownGoals
	if in.agg != nil && in.agg.Matches > 0 && len(goals) > in.agg.GoalsFor {
		return inconsistent("%d goal records exceed season total %d", len(goals), in.agg.GoalsFor)
	}
	if len(goals) < minGoalsForTiming {
		d.Timing = t
		return nil
	}

	var first, clutch, early int
	for _, g := range goals {
		if g.Minute <= 0 {
			return inconsistent("goal %s at minute %d", g.MatchID, g.Minute)
		}
		t.GoalsByPeriod[periodOf(g.Minute)]++
		if g.Half() == 1 {
			first++
		}
		if g.Minute >= 76 {
			clutch++
		}
		if g.Minute <= 15 {
			early++
		}
	}
	total := float64(len(goals))
	t.FirstHalfPct = pct(float64(first), total)
	t.SecondHalfPct = pct(total-float64(first), total)
	t.ClutchPct = pct(float64(clutch), total)
	t.EarlyPct = pct(float64(early), total)
	for i, c := range t.GoalsByPeriod {
		if c > t.GoalsByPeriod[t.PeakPeriod] {
			t.PeakPeriod = i
		}
	}
	switch {
	case t.ClutchPct >= clutchPct:
		t.Tag = TagClutchTeam
	case t.SecondHalfPct >= dieselSecondHalf:
		t.Tag = TagDiesel
	case t.EarlyPct >= earlyPct:
		t.Tag = TagEarlyStarters
	default:
		t.Tag = TagBalanced
	}
	d.Timing = t
	return nil
}

// scorersByGoals orders players by goals, then xG, then id.
func scorersByGoals(players []model.Player) []model.Player {
	out := make([]model.Player, 0, len(players))
	for _, p := range players {
		if p.Goals > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Goals != out[j].Goals {
			return out[i].Goals > out[j].Goals
		}
		if out[i].XG != out[j].XG {
			return out[i].XG > out[j].XG
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func buildDependency(d *TeamDNA, in *buildInput) error {
	dep := DependencySlot{Tag: TagNoData}
	scorers := scorersByGoals(in.players)
	sum := 0
	for _, p := range scorers {
		sum += p.Goals
	}
	teamGoals := sum
	if in.agg != nil && in.agg.GoalsFor > 0 {
		teamGoals = in.agg.GoalsFor
		if sum > teamGoals {
			return inconsistent("player goals %d exceed team goals %d", sum, teamGoals)
		}
	}
	if teamGoals == 0 || len(scorers) == 0 {
		d.Dependency = dep
		return nil
	}

	dep.DistinctScorers = len(scorers)
	dep.TopScorerID = scorers[0].ID
	dep.TopScorerPct = pct(float64(scorers[0].Goals), float64(teamGoals))
	top3 := 0
	for i := 0; i < len(scorers) && i < 3; i++ {
		top3 += scorers[i].Goals
	}
	dep.Top3Pct = pct(float64(top3), float64(teamGoals))
	switch {
	case dep.TopScorerPct >= mvpSharePct:
		dep.Tag = TagMVPDependent
	case dep.Top3Pct >= top3SharePct:
		dep.Tag = TagTop3Dependent
	default:
		dep.Tag = TagDistributed
	}
	d.Dependency = dep
	return nil
}

func buildStyle(d *TeamDNA, in *buildInput) error {
	var s StyleSlot
	var known, open, setPiece, pens, bodyKnown, headers int
	for _, g := range in.ownGoals {
		if g.BodyPart != "" {
			bodyKnown++
			if g.BodyPart == model.BodyHead {
				headers++
			}
		}
		switch {
		case g.Situation == model.SituationUnknown:
			continue
		case g.Situation == model.SituationPenalty:
			pens++
		case g.Situation.SetPiece():
			setPiece++
		default:
			open++
		}
		known++
	}
	if known == 0 {
		d.Style = s
		return nil
	}
	s.HasData = true
	s.OpenPlayPct = pct(float64(open), float64(known))
	s.SetPiecePct = pct(float64(setPiece), float64(known))
	s.PenaltyPct = pct(float64(pens), float64(known))
	s.HeaderPct = pct(float64(headers), float64(bodyKnown))
	d.Style = s
	return nil
}

func buildHomeAway(d *TeamDNA, in *buildInput) error {
	h := HomeAwaySlot{Tag: TagNoData}
	var homeN, homeGoals, awayN, awayGoals int
	if a := in.agg; a != nil && a.HomeMatches > 0 && a.AwayMatches > 0 {
		homeN, homeGoals, awayN, awayGoals = a.HomeMatches, a.HomeScored, a.AwayMatches, a.AwayScored
	} else {
		for _, r := range in.matches {
			side, _ := in.sideIn(r.Match)
			scored, _ := r.Match.GoalsFor(side)
			if side == model.SideHome {
				homeN++
				homeGoals += scored
			} else {
				awayN++
				awayGoals += scored
			}
		}
	}
	if homeN == 0 || awayN == 0 {
		d.HomeAway = h
		return nil
	}
	if homeGoals < 0 || awayGoals < 0 {
		return inconsistent("negative home/away goals %d/%d", homeGoals, awayGoals)
	}
	h.HomeGoalsPerMatch = float64(homeGoals) / float64(homeN)
	h.AwayGoalsPerMatch = float64(awayGoals) / float64(awayN)
	h.Ratio = ratio(h.HomeGoalsPerMatch, h.AwayGoalsPerMatch)
	switch {
	case h.AwayGoalsPerMatch == 0 && h.HomeGoalsPerMatch > 0:
		h.Tag = TagFortress
	case h.AwayGoalsPerMatch == 0:
		h.Tag = TagBalanced
	case h.Ratio >= fortressRatio:
		h.Tag = TagFortress
	case h.Ratio <= roadWarriorsRatio:
		h.Tag = TagRoadWarriors
	default:
		h.Tag = TagBalanced
	}
	d.HomeAway = h
	return nil
}
