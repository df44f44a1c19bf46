package dna

import (
	"math"
	"sort"

	"github.com/okian/matchquant/internal/domain/model"
)

// teamMinutes returns the minutes of the team's goals in r.
func teamMinutes(r ReconstructedMatch, side model.Side) []int {
	var out []int
	for _, e := range r.Timeline {
		if e.Side == side {
			out = append(out, e.Minute)
		}
	}
	return out
}

func buildMomentum(d *TeamDNA, in *buildInput) error {
	m := MomentumSlot{Tag: TagNoData}
	var gaps, gapSum int
	for _, r := range in.matches {
		if !r.Complete {
			continue
		}
		side, _ := in.sideIn(r.Match)
		minutes := teamMinutes(r, side)
		if len(minutes) < 2 {
			continue
		}
		m.MultiGoalMatches++
		burst := false
		for i := 1; i < len(minutes); i++ {
			gap := minutes[i] - minutes[i-1]
			if gap < 0 {
				return inconsistent("unordered timeline in match %s", r.Match.ID)
			}
			gaps++
			gapSum += gap
			if gap <= burstGapMinutes {
				burst = true
			}
		}
		if burst {
			m.BurstMatches++
		}
	}
	if gaps > 0 {
		m.MeanGapMinutes = float64(gapSum) / float64(gaps)
	}
	if m.MultiGoalMatches < minMultiGoalMatches {
		d.Momentum = m
		return nil
	}
	m.BurstRatePct = pct(float64(m.BurstMatches), float64(m.MultiGoalMatches))
	switch {
	case m.BurstRatePct >= burstScorerPct:
		m.Tag = TagBurstScorer
	case m.BurstRatePct <= steadyScorerPct:
		m.Tag = TagSteadyScorer
	default:
		m.Tag = TagMixed
	}
	d.Momentum = m
	return nil
}

func buildFirstGoal(d *TeamDNA, in *buildInput) error {
	f := FirstGoalSlot{Tag: TagNoData}
	var winsFirst, lossesFirst, winsChasing, unbeatenChasing int
	for _, r := range in.recent {
		if !r.Complete || r.FirstGoalSide == "" {
			continue
		}
		side, _ := in.sideIn(r.Match)
		res := r.ResultFor(side)
		if r.FirstGoalSide == side {
			f.ScoredFirst++
			switch res {
			case ResultWin:
				winsFirst++
			case ResultLoss:
				lossesFirst++
			}
			continue
		}
		f.ConcededFirst++
		switch res {
		case ResultWin:
			winsChasing++
			unbeatenChasing++
		case ResultDraw:
			unbeatenChasing++
		}
	}
	if f.ScoredFirst+f.ConcededFirst == 0 {
		d.FirstGoal = f
		return nil
	}
	f.WinWhenScoringFirst = pct(float64(winsFirst), float64(f.ScoredFirst))
	f.CollapseRate = pct(float64(lossesFirst), float64(f.ScoredFirst))
	f.WinWhenConcedingFirst = pct(float64(winsChasing), float64(f.ConcededFirst))
	f.ComebackRate = pct(float64(unbeatenChasing), float64(f.ConcededFirst))

	leads := f.ScoredFirst >= minFirstGoalMatches
	chases := f.ConcededFirst >= minFirstGoalMatches
	switch {
	case leads && f.WinWhenScoringFirst >= frontRunnerWinPct:
		f.Tag = TagFrontRunner
	case chases && f.ComebackRate >= comebackKingPct:
		f.Tag = TagComebackKing
	case leads && f.CollapseRate >= fragileCollapsePct:
		f.Tag = TagFragile
	case chases && f.WinWhenConcedingFirst <= mentallyWeakWinPct:
		f.Tag = TagMentallyWeak
	default:
		f.Tag = TagResilient
	}
	d.FirstGoal = f
	return nil
}

func buildGameState(d *TeamDNA, in *buildInput) error {
	g := GameStateSlot{Tag: TagNoData}
	scored := make(map[State]int, 3)
	conceded := make(map[State]int, 3)
	for _, r := range in.recent {
		if !r.Complete {
			continue
		}
		side, _ := in.sideIn(r.Match)
		for _, e := range r.Timeline {
			if e.Side == side {
				scored[e.StateBefore]++
				continue
			}
			conceded[StateFor(e.Before, side)]++
		}
	}
	g.Goals = scored[StateLeading] + scored[StateLevel] + scored[StateTrailing]
	if g.Goals < minGameStateGoals {
		d.GameState = g
		return nil
	}
	n := float64(g.Goals)
	g.LeadingPct = pct(float64(scored[StateLeading]), n)
	g.TrailingPct = pct(float64(scored[StateTrailing]), n)
	g.LevelPct = pct(float64(scored[StateLevel]), n)
	g.KillerIndex = stateIndex(scored[StateLeading], conceded[StateLeading])
	g.ResilienceIndex = stateIndex(scored[StateTrailing], conceded[StateTrailing])
	switch {
	case g.LeadingPct >= killerLeadingPct && g.KillerIndex >= killerIndex:
		g.Tag = TagKiller
	case g.LeadingPct >= settlerLeadingPct && g.KillerIndex <= settlerIndex:
		g.Tag = TagSettler
	case g.TrailingPct >= comebackTrailingPct && g.ResilienceIndex >= comebackResilience:
		g.Tag = TagComebackSpecialist
	case g.LevelPct >= levelScorerPct:
		g.Tag = TagLevelScorer
	default:
		g.Tag = TagBalanced
	}
	d.GameState = g
	return nil
}

// stateIndex is goals over goals conceded in the same state; with nothing
// conceded it is the goal count itself.
func stateIndex(scored, conceded int) float64 {
	if conceded == 0 {
		return float64(scored)
	}
	return float64(scored) / float64(conceded)
}

func buildSchedule(d *TeamDNA, in *buildInput) error {
	s := ScheduleSlot{Tag: TagInsufficientData, Windows: make(map[Window]WindowStats)}
	goals := make(map[Window]int)
	total, matches := 0, 0
	for _, r := range in.matches {
		if r.Match.Kickoff.IsZero() {
			continue
		}
		side, _ := in.sideIn(r.Match)
		scored, _ := r.Match.GoalsFor(side)
		total += scored
		matches++
		w, ok := WindowOf(r.Match.Kickoff.Hour())
		if !ok {
			continue
		}
		st := s.Windows[w]
		st.Matches++
		s.Windows[w] = st
		goals[w] += scored
	}
	if matches == 0 {
		d.Schedule = s
		return nil
	}
	mean := float64(total) / float64(matches)

	var eligible []Window
	for w, st := range s.Windows {
		st.GoalsPerMatch = float64(goals[w]) / float64(st.Matches)
		st.Delta = st.GoalsPerMatch - mean
		s.Windows[w] = st
		if st.Matches >= minBucketMatches {
			eligible = append(eligible, w)
		}
	}
	if len(eligible) < 2 {
		d.Schedule = s
		return nil
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i] < eligible[j] })

	var strongest Window
	for _, w := range eligible {
		st := s.Windows[w]
		if s.BestWindow == "" || st.GoalsPerMatch > s.Windows[s.BestWindow].GoalsPerMatch {
			s.BestWindow = w
		}
		if strongest == "" || math.Abs(st.Delta) > math.Abs(s.Windows[strongest].Delta) {
			strongest = w
		}
	}
	s.Tag = windowTag(strongest, s.Windows[strongest].Delta)
	d.Schedule = s
	return nil
}

func windowTag(w Window, delta float64) Tag {
	if math.Abs(delta) < strongWindowDelta {
		if math.Abs(delta) >= slightWindowDelta {
			return TagSlightPreference
		}
		return TagConsistent
	}
	switch {
	case w == WindowPrime && delta > 0:
		return TagPrimeTimeBeast
	case w == WindowPrime:
		return TagPrimeTimeWeak
	case w == WindowAfternoon && delta > 0:
		return TagAfternoonSpecialist
	case w == WindowAfternoon:
		return TagAfternoonWeak
	case w == WindowLunch && delta > 0:
		return TagLunchWarrior
	default:
		return TagSlightPreference
	}
}

// splitOf compares the team's scoring and conceding under cond with the rest
// of the weather-tagged matches.
func splitOf(in *buildInput, cond func(model.Match) bool) Split {
	var s Split
	var inFor, inAgainst, outFor, outAgainst int
	for _, r := range in.matches {
		if !r.Match.HasWeather {
			continue
		}
		side, _ := in.sideIn(r.Match)
		scored, conceded := r.Match.GoalsFor(side)
		if cond(r.Match) {
			s.Matches++
			inFor += scored
			inAgainst += conceded
		} else {
			s.OtherMatches++
			outFor += scored
			outAgainst += conceded
		}
	}
	if s.Matches < minBucketMatches || s.OtherMatches < minBucketMatches {
		return s
	}
	s.Sufficient = true
	s.AttackDelta = float64(inFor)/float64(s.Matches) - float64(outFor)/float64(s.OtherMatches)
	s.DefenceDelta = float64(inAgainst)/float64(s.Matches) - float64(outAgainst)/float64(s.OtherMatches)
	return s
}

func buildWeather(d *TeamDNA, in *buildInput) error {
	w := WeatherSlot{Status: TagInsufficientData}
	w.Rain = splitOf(in, func(m model.Match) bool { return m.Rainy })
	w.Cold = splitOf(in, func(m model.Match) bool { return m.TemperatureC < coldBelowCelsius })
	w.Heat = splitOf(in, func(m model.Match) bool { return m.TemperatureC > hotAboveCelsius })
	if !w.Rain.Sufficient && !w.Cold.Sufficient && !w.Heat.Sufficient {
		d.Weather = w
		return nil
	}

	if r := w.Rain; r.Sufficient {
		if r.AttackDelta >= weatherDelta {
			w.Tags = append(w.Tags, TagRainAttacker)
		}
		if r.AttackDelta <= -weatherDelta {
			w.Tags = append(w.Tags, TagRainWeak)
		}
		if r.DefenceDelta >= weatherDelta {
			w.Tags = append(w.Tags, TagRainLeaky)
		}
		if r.DefenceDelta <= -weatherDelta {
			w.Tags = append(w.Tags, TagRainSolid)
		}
	}
	if c := w.Cold; c.Sufficient {
		if c.AttackDelta >= weatherDelta {
			w.Tags = append(w.Tags, TagColdSpecialist)
		}
		if c.DefenceDelta >= weatherDelta || c.AttackDelta <= -weatherDelta {
			w.Tags = append(w.Tags, TagColdVulnerable)
		}
	}
	if h := w.Heat; h.Sufficient {
		if h.AttackDelta >= weatherDelta {
			w.Tags = append(w.Tags, TagHeatDiesel)
		}
		if h.AttackDelta <= -weatherDelta {
			w.Tags = append(w.Tags, TagHeatWeak)
		}
	}
	w.Status = TagWeatherNeutral
	if len(w.Tags) > 0 {
		w.Status = w.Tags[0]
	}
	d.Weather = w
	return nil
}

func buildProfile(d *TeamDNA, in *buildInput) error {
	var p MarketProfile
	var btts, o15, o25, o35, win, draw, loss int
	for _, r := range in.matches {
		side, _ := in.sideIn(r.Match)
		scored, conceded := r.Match.GoalsFor(side)
		if scored < 0 || conceded < 0 {
			return inconsistent("negative score in match %s", r.Match.ID)
		}
		p.Matches++
		total := scored + conceded
		if scored > 0 && conceded > 0 {
			btts++
		}
		if total >= 2 {
			o15++
		}
		if total >= 3 {
			o25++
		}
		if total >= 4 {
			o35++
		}
		switch r.ResultFor(side) {
		case ResultWin:
			win++
		case ResultDraw:
			draw++
		default:
			loss++
		}
	}
	if p.Matches < minProfileMatches {
		d.Profile = MarketProfile{Matches: p.Matches}
		return nil
	}
	n := float64(p.Matches)
	p.HasData = true
	p.BTTSPct = pct(float64(btts), n)
	p.Over15Pct = pct(float64(o15), n)
	p.Over25Pct = pct(float64(o25), n)
	p.Over35Pct = pct(float64(o35), n)
	p.WinPct = pct(float64(win), n)
	p.DrawPct = pct(float64(draw), n)
	p.LossPct = pct(float64(loss), n)
	d.Profile = p
	return nil
}
