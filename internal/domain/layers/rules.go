package layers

import (
	"fmt"
	"math"

	"github.com/okian/matchquant/internal/domain/dna"
	"github.com/okian/matchquant/internal/domain/dynamics"
	"github.com/okian/matchquant/internal/domain/model"
)

// Decision table constants.
const (
	mcEdgeScale       = 200.0
	mcSweetEdgeLo     = 0.03
	mcSweetEdgeHi     = 0.08
	mcSuspiciousEdge  = 0.15
	mcSweetEdgeFactor = 1.25
	mcSuspiciousFact  = 0.8

	lineupStrongDelta = 0.15
	lineupWeakDelta   = 0.05
	lineupStrong      = 12.0
	lineupWeak        = 6.0
	lineupDerby       = 4.0
	lineupResult      = 8.0
	lineupResultWeak  = 4.0
	lineupDerbyDraw   = 2.0

	marketSteamShort = 12.0
	marketSteamDrift = -8.0
	marketCLVMin     = 0.05
	marketCLV        = 5.0
	marketConsensus  = 0.8
	marketAgreement  = 3.0

	momentumStrongGap = 6
	momentumWeakGap   = 3
	momentumStrong    = 6.0
	momentumWeak      = 3.0
	momentumDraw      = 2.0
	momentumTag       = 3.0
	momentumStateTag  = 2.0

	tacticalHi       = 60.0
	tacticalMidHi    = 55.0
	tacticalMidLo    = 45.0
	tacticalLo       = 40.0
	tacticalStrong   = 8.0
	tacticalWeak     = 4.0
	tacticalMinCells = 1

	intelTotalScale = 8.0
	intelBTTSHi     = 1.3
	intelBTTSMid    = 1.0
	intelBTTSLo     = 0.7
	intelBTTSStrong = 6.0
	intelBTTSWeak   = 3.0
	intelResult     = 5.0
	intelDrawBand   = 0.3
	intelDraw       = 3.0

	classWide = 8.0
	classOne  = 4.0
	classDraw = 3.0

	refereeMinMatches = 5
	refereeGoalsHi    = 3.0
	refereeGoalsMidHi = 2.8
	refereeGoalsMidLo = 2.4
	refereeGoalsLo    = 2.2
	refereeStrong     = 6.0
	refereeWeak       = 3.0
	refereeBTTSHi     = 60.0
	refereeBTTSLo     = 40.0
	refereeBTTS       = 5.0
	refereePenalties  = 0.35
	refereePenalty    = 2.0
	refereeHomeHi     = 50.0
	refereeHomeLo     = 35.0
	refereeHome       = 4.0

	h2hMinMatches = 3
	h2hWinHi      = 0.6
	h2hWinMid     = 0.5
	h2hWinLo      = 0.2
	h2hStrong     = 6.0
	h2hWeak       = 3.0
	h2hDrawShare  = 0.4
	h2hDraw       = 4.0
	h2hPctHi      = 65.0
	h2hPctMidHi   = 55.0
	h2hPctMidLo   = 45.0
	h2hPctLo      = 35.0
	h2hOver15Avg  = 2.5
	h2hOver35Avg  = 3.5
	h2hAvgBonus   = 4.0

	realityGap        = 0.5
	realityMismatch   = 3.0
	realitySuspicious = 5.0

	profileHi     = 70.0
	profileMidHi  = 60.0
	profileMidLo  = 40.0
	profileLo     = 30.0
	profileStrong = 5.0
	profileWeak   = 3.0
)

// ladder returns +strong at or above strongHi, +weak at or above weakHi,
// -strong at or below strongLo, -weak at or below weakLo, and 0 between.
func ladder(v, strongHi, weakHi, weakLo, strongLo, strong, weak float64) float64 {
	switch {
	case v >= strongHi:
		return strong
	case v >= weakHi:
		return weak
	case v <= strongLo:
		return -strong
	case v <= weakLo:
		return -weak
	default:
		return 0
	}
}

// goalsView describes a goals market: whether it is a BTTS or totals market,
// its line, and +1 when it wins on goals or -1 when it wins on their absence.
func goalsView(m model.Market) (btts bool, line, dir float64, ok bool) {
	switch m {
	case model.MarketBTTSYes:
		return true, 0, 1, true
	case model.MarketBTTSNo:
		return true, 0, -1, true
	case model.MarketOver15:
		return false, 1.5, 1, true
	case model.MarketOver25:
		return false, 2.5, 1, true
	case model.MarketOver35:
		return false, 3.5, 1, true
	case model.MarketUnder25:
		return false, 2.5, -1, true
	default:
		return false, 0, 0, false
	}
}

// sideSign is +1 for the home market, -1 for the away market and 0 for the
// draw, so that a home-minus-away difference can be read from either side.
func sideSign(m model.Market) float64 {
	switch m {
	case model.MarketHome:
		return 1
	case model.MarketAway:
		return -1
	default:
		return 0
	}
}

func monteCarloLayer(in *Input, t *tally) (float64, bool) {
	if in.MC == nil || in.Odds <= 1 {
		return 0, false
	}
	p, ok := in.MC.Prob(in.Market)
	if !ok {
		return 0, false
	}
	edge := p - 1/in.Odds
	factor := 1.0
	switch {
	case edge > mcSuspiciousEdge:
		factor = mcSuspiciousFact
		t.warn(fmt.Sprintf("edge %.1f%% is suspiciously large", edge*100))
	case edge >= mcSweetEdgeLo && edge <= mcSweetEdgeHi:
		factor = mcSweetEdgeFactor
	}
	if edge >= mcSweetEdgeLo {
		t.reason(fmt.Sprintf("simulated %.1f%% vs implied %.1f%% (edge %+.1f%%)", p*100, 100/in.Odds, edge*100))
	}
	return edge * mcEdgeScale * in.MC.Confidence * factor, true
}

func lineupLayer(in *Input, t *tally) (float64, bool) {
	if in.Lineup == nil {
		return 0, false
	}
	imp := &in.Lineup.Impact
	active := imp.Active()
	for _, r := range imp.Reasons {
		t.reason(r)
	}

	if _, _, dir, ok := goalsView(in.Market); ok {
		score := ladder(imp.TotalDelta(), lineupStrongDelta, lineupWeakDelta, -lineupWeakDelta, -lineupStrongDelta, lineupStrong, lineupWeak)
		if imp.Derby {
			score += lineupDerby
		}
		return score * dir, active
	}
	if in.Market == model.MarketDraw {
		if imp.Derby {
			return lineupDerbyDraw, active
		}
		return 0, active
	}
	diff := imp.HomeDelta - imp.AwayDelta
	score := ladder(diff, lineupStrongDelta, lineupWeakDelta, -lineupWeakDelta, -lineupStrongDelta, lineupResult, lineupResultWeak)
	return score * sideSign(in.Market), active
}

func marketLayer(in *Input, t *tally) (float64, bool) {
	d := in.Dynamics
	if !d.HasData {
		return 0, false
	}
	var score float64
	if d.Steam {
		switch d.Direction {
		case dynamics.DirectionShortening:
			score += marketSteamShort
		case dynamics.DirectionDrifting:
			score += marketSteamDrift
		}
	}
	t.reason(d.Reason())
	if d.CLVPotential > marketCLVMin {
		score += marketCLV
		t.reason(fmt.Sprintf("closing-line value %+.1f%%", d.CLVPotential*100))
	}
	if d.Consensus >= marketConsensus {
		score += marketAgreement
	}
	return score, true
}

// lastPoints prefers the momentum record and falls back to the DNA's form
// slot.
func lastPoints(m *model.TeamMomentum, d *dna.TeamDNA) (int, bool) {
	if m != nil {
		return m.Last5Points, true
	}
	if d != nil && len(d.Form.LastResults) > 0 {
		return d.Form.LastPoints, true
	}
	return 0, false
}

func momentumLayer(in *Input, t *tally) (float64, bool) {
	c := in.Context
	if c == nil {
		return 0, false
	}
	hp, hok := lastPoints(c.Home.Momentum, c.Home.DNA)
	ap, aok := lastPoints(c.Away.Momentum, c.Away.DNA)
	active := hok || aok

	if _, _, dir, ok := goalsView(in.Market); ok {
		var score float64
		for _, d := range []*dna.TeamDNA{c.Home.DNA, c.Away.DNA} {
			if d == nil {
				continue
			}
			active = true
			switch d.Form.Tag {
			case dna.TagHot:
				score += momentumTag
			case dna.TagDeclining:
				score -= momentumTag
			}
			if d.Momentum.Tag == dna.TagBurstScorer {
				score += momentumStateTag
			}
			if d.GameState.Tag == dna.TagKiller {
				score += momentumStateTag
			}
		}
		return score * dir, active
	}
	if !hok || !aok {
		return 0, active
	}
	gap := hp - ap
	if in.Market == model.MarketDraw {
		if abs(gap) <= 1 {
			return momentumDraw, true
		}
		return 0, true
	}
	score := ladder(float64(gap), momentumStrongGap, momentumWeakGap, -momentumWeakGap, -momentumStrongGap, momentumStrong, momentumWeak)
	if math.Abs(score) >= momentumStrong {
		t.reason(fmt.Sprintf("form gap of %d points over the last five", gap))
	}
	return score * sideSign(in.Market), true
}

func tacticalLayer(in *Input, t *tally) (float64, bool) {
	if in.Context == nil || in.Context.Tactical == nil || in.Context.Tactical.Matches < tacticalMinCells {
		return 0, false
	}
	cell := in.Context.Tactical
	btts, line, dir, ok := goalsView(in.Market)
	if !ok {
		return 0, true
	}
	pct := cell.Over25Pct
	switch {
	case btts:
		pct = cell.BTTSPct
	case line == 1.5 || line == 3.5:
		// Only the 2.5 line is tabulated; the other lines lean on it with
		// half the weight.
		return ladder(cell.Over25Pct, tacticalHi, tacticalMidHi, tacticalMidLo, tacticalLo, tacticalWeak, tacticalWeak/2) * dir, true
	}
	score := ladder(pct, tacticalHi, tacticalMidHi, tacticalMidLo, tacticalLo, tacticalStrong, tacticalWeak)
	if math.Abs(score) >= tacticalStrong {
		t.reason(fmt.Sprintf("%s vs %s matchups: %.0f%% land %s", cell.StyleA, cell.StyleB, pct, in.Market))
	}
	return score * dir, true
}

// volumes returns both DNA volume slots when both teams have matches.
func volumes(in *Input) (h, a dna.VolumeSlot, ok bool) {
	c := in.Context
	if c == nil || c.Home.DNA == nil || c.Away.DNA == nil {
		return h, a, false
	}
	h, a = c.Home.DNA.Volume, c.Away.DNA.Volume
	return h, a, h.Matches > 0 && a.Matches > 0
}

// dnaTotal is the goals per match the two sides' records point to.
func dnaTotal(h, a dna.VolumeSlot) float64 {
	return (h.GoalsPerMatch + a.ConcededPerMatch + a.GoalsPerMatch + h.ConcededPerMatch) / 2
}

func intelligenceLayer(in *Input, t *tally) (float64, bool) {
	h, a, ok := volumes(in)
	if !ok {
		return 0, false
	}
	if btts, line, dir, gok := goalsView(in.Market); gok {
		if btts {
			weaker := math.Min(h.GoalsPerMatch, a.GoalsPerMatch)
			return ladder(weaker, intelBTTSHi, intelBTTSMid, intelBTTSLo, -1, intelBTTSStrong, intelBTTSWeak) * dir, true
		}
		total := dnaTotal(h, a)
		if math.Abs(total-line) >= 1 {
			t.reason(fmt.Sprintf("season records point to %.1f goals a match", total))
		}
		return (total - line) * intelTotalScale * dir, true
	}
	diff := (h.GoalsPerMatch - h.ConcededPerMatch) - (a.GoalsPerMatch - a.ConcededPerMatch)
	if in.Market == model.MarketDraw {
		if math.Abs(diff) < intelDrawBand {
			return intelDraw, true
		}
		return 0, true
	}
	return diff * intelResult * sideSign(in.Market), true
}

func classLayer(in *Input, t *tally) (float64, bool) {
	if in.Context == nil {
		return 0, false
	}
	home, away := in.Context.Home.Profile(), in.Context.Away.Profile()
	if !home.Tier.Known() || !away.Tier.Known() {
		return 0, false
	}
	gap := int(home.Tier) - int(away.Tier)
	switch in.Market {
	case model.MarketDraw:
		switch {
		case gap == 0:
			return classDraw, true
		case abs(gap) >= 2:
			return -classDraw, true
		default:
			return 0, true
		}
	case model.MarketHome, model.MarketAway:
		score := ladder(float64(gap), 2, 1, -1, -2, classWide, classOne)
		if abs(gap) >= 2 {
			t.reason(fmt.Sprintf("class gap: tier %s vs tier %s", home.Tier, away.Tier))
		}
		return score * sideSign(in.Market), true
	default:
		return 0, true
	}
}

func refereeLayer(in *Input, t *tally) (float64, bool) {
	if in.Context == nil || in.Context.Referee == nil || in.Context.Referee.Matches < refereeMinMatches {
		return 0, false
	}
	r := in.Context.Referee
	btts, _, dir, ok := goalsView(in.Market)
	if !ok {
		if in.Market == model.MarketDraw {
			return 0, true
		}
		return ladder(r.HomeWinPct, refereeHomeHi, refereeHomeHi, refereeHomeLo, refereeHomeLo, refereeHome, refereeHome) * sideSign(in.Market), true
	}
	var score float64
	if btts {
		score = ladder(r.BTTSPct, refereeBTTSHi, refereeBTTSHi, refereeBTTSLo, refereeBTTSLo, refereeBTTS, refereeBTTS)
	} else {
		score = ladder(r.GoalsPerMatch, refereeGoalsHi, refereeGoalsMidHi, refereeGoalsMidLo, refereeGoalsLo, refereeStrong, refereeWeak)
	}
	if r.PenaltiesPerMatch >= refereePenalties {
		score += refereePenalty
	}
	if math.Abs(score) >= refereeStrong {
		t.reason(fmt.Sprintf("referee %s averages %.1f goals over %d matches", r.Name, r.GoalsPerMatch, r.Matches))
	}
	return score * dir, true
}

func h2hLayer(in *Input, t *tally) (float64, bool) {
	if in.Context == nil || in.Context.H2H == nil || in.Context.H2H.Matches < h2hMinMatches {
		return 0, false
	}
	h := in.Context.H2H
	n := float64(h.Matches)
	switch in.Market {
	case model.MarketHome:
		return ladder(float64(h.TeamAWins)/n, h2hWinHi, h2hWinMid, h2hWinLo, -1, h2hStrong, h2hWeak), true
	case model.MarketAway:
		return ladder(float64(h.TeamBWins)/n, h2hWinHi, h2hWinMid, h2hWinLo, -1, h2hStrong, h2hWeak), true
	case model.MarketDraw:
		if float64(h.Draws)/n >= h2hDrawShare {
			return h2hDraw, true
		}
		return 0, true
	}
	btts, line, dir, _ := goalsView(in.Market)
	var score float64
	switch {
	case btts:
		score = ladder(h.BTTSPct, h2hPctHi, h2hPctMidHi, h2hPctMidLo, h2hPctLo, h2hStrong, h2hWeak)
	case line == 1.5:
		if h.AvgGoals >= h2hOver15Avg {
			score = h2hAvgBonus
		}
	case line == 3.5:
		if h.AvgGoals >= h2hOver35Avg {
			score = h2hAvgBonus
		}
	default:
		score = ladder(h.Over25Pct, h2hPctHi, h2hPctMidHi, h2hPctMidLo, h2hPctLo, h2hStrong, h2hWeak)
	}
	if math.Abs(score) >= h2hStrong {
		t.reason(fmt.Sprintf("head to head: %d meetings averaging %.1f goals", h.Matches, h.AvgGoals))
	}
	return score * dir, true
}

func realityLayer(in *Input, t *tally) (float64, bool) {
	var score float64
	active := false
	if in.MC != nil && in.Odds > 1 {
		if p, ok := in.MC.Prob(in.Market); ok && p-1/in.Odds > mcSuspiciousEdge {
			score -= realitySuspicious
			active = true
		}
	}
	h, a, ok := volumes(in)
	if !ok || in.MC == nil {
		return score, active
	}
	_, _, dir, gok := goalsView(in.Market)
	if !gok {
		return score, true
	}
	gap := in.MC.MeanHome + in.MC.MeanAway - dnaTotal(h, a)
	switch {
	case gap > realityGap:
		score -= realityMismatch * dir
		t.warn(fmt.Sprintf("simulation expects %.1f more goals than the season records", gap))
	case gap < -realityGap:
		score += realityMismatch * dir
	}
	return score, true
}

// profileRate is a market's landing rate averaged over the sides that have
// a profile.
func profileRate(in *Input) (float64, bool) {
	c := in.Context
	if c == nil {
		return 0, false
	}
	var sum float64
	var n int
	add := func(p dna.MarketProfile, m model.Market, flip bool) {
		if !p.HasData {
			return
		}
		switch m {
		case model.MarketHome, model.MarketAway:
			if flip {
				sum += p.LossPct
			} else {
				sum += p.WinPct
			}
			n++
		case model.MarketDraw:
			sum += p.DrawPct
			n++
		default:
			if r, ok := p.Rate(m); ok {
				sum += r
				n++
			}
		}
	}
	var hp, ap dna.MarketProfile
	if c.Home.DNA != nil {
		hp = c.Home.DNA.Profile
	}
	if c.Away.DNA != nil {
		ap = c.Away.DNA.Profile
	}
	switch in.Market {
	case model.MarketHome:
		add(hp, in.Market, false)
		add(ap, in.Market, true)
	case model.MarketAway:
		add(ap, in.Market, false)
		add(hp, in.Market, true)
	default:
		add(hp, in.Market, false)
		add(ap, in.Market, false)
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func profileLayer(in *Input, t *tally) (float64, bool) {
	rate, ok := profileRate(in)
	if !ok {
		return 0, false
	}
	score := ladder(rate, profileHi, profileMidHi, profileMidLo, profileLo, profileStrong, profileWeak)
	if score >= profileStrong {
		t.reason(fmt.Sprintf("%s lands in %.0f%% of both sides' matches", in.Market, rate))
	}
	return score, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
