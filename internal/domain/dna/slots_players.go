package dna

import (
	"sort"

	"github.com/okian/matchquant/internal/domain/model"
)

// ClassifyFinishing grades a player's finishing. Fewer than ten shots is
// always LOW_VOLUME.
func ClassifyFinishing(p model.Player) Finishing {
	if p.Shots < minShotsForFinishing {
		return FinishingLowVolume
	}
	npOver := float64(p.NPGoals) - p.NPXG
	over := float64(p.Goals) - p.XG
	switch {
	case npOver >= trueClinicalNPOver:
		return FinishingTrueClinical
	case over >= penaltyInflatedOver && npOver <= 0:
		return FinishingPenaltyInflated
	case npOver >= clinicalNPOver:
		return FinishingClinical
	case npOver <= wastefulNPOver:
		return FinishingWasteful
	default:
		return FinishingNeutral
	}
}

// IsSuperSub reports whether a player scores at a high rate from short
// appearances off the bench.
func IsSuperSub(p model.Player) bool {
	if p.Minutes < superSubMinMinutes || p.Appearances == 0 || p.Goals < superSubMinGoals {
		return false
	}
	minsPerApp := float64(p.Minutes) / float64(p.Appearances)
	per90 := float64(p.Goals) / float64(p.Minutes) * 90
	return minsPerApp < superSubMaxMinsPerApp && per90 >= superSubMinPer90
}

// InvolvementRatio is xGChain per direct goal contribution. A player with no
// contributions but positive xGChain gets 2 x xGChain.
func InvolvementRatio(p model.Player) float64 {
	contributions := p.Goals + p.Assists
	switch {
	case contributions > 0:
		return p.XGChain / float64(contributions)
	case p.XGChain > 0:
		return 2 * p.XGChain
	default:
		return 0
	}
}

func teamGoals(d *TeamDNA, players []model.Player) int {
	if d.Volume.Goals > 0 {
		return d.Volume.Goals
	}
	total := 0
	for _, p := range players {
		total += p.Goals
	}
	return total
}

func buildEfficiency(d *TeamDNA, in *buildInput) error {
	e := EfficiencySlot{Finishing: make(map[string]Finishing)}
	shots, goals := 0, 0
	for _, p := range in.players {
		if p.Shots < 0 {
			return inconsistent("player %s has %d shots", p.ID, p.Shots)
		}
		shots += p.Shots
		goals += p.Goals
		if p.Shots == 0 {
			continue
		}
		class := ClassifyFinishing(p)
		e.Finishing[p.ID] = class
		switch class {
		case FinishingTrueClinical:
			e.EliteFinishers++
		case FinishingClinical:
			e.ClinicalCount++
		case FinishingWasteful:
			e.WastefulCount++
		}
	}
	if a := in.agg; a != nil && a.Shots > 0 {
		shots, goals = a.Shots, a.GoalsFor
	}
	e.ConversionPct = pct(float64(goals), float64(shots))
	d.Efficiency = e
	return nil
}

func buildSuperSub(d *TeamDNA, in *buildInput) error {
	s := SuperSubSlot{Tag: TagNoData}
	if len(in.players) == 0 {
		d.SuperSub = s
		return nil
	}
	subGoals := 0
	for _, p := range in.players {
		if IsSuperSub(p) {
			s.Players = append(s.Players, p.ID)
			subGoals += p.Goals
		}
	}
	s.GoalsPct = pct(float64(subGoals), float64(teamGoals(d, in.players)))
	switch {
	case len(s.Players) >= 2 || s.GoalsPct >= strongBenchSharePct:
		s.Tag = TagStrongBench
	case len(s.Players) == 1:
		s.Tag = TagAverageBench
	default:
		s.Tag = TagWeakBench
	}
	d.SuperSub = s
	return nil
}

func buildPenalty(d *TeamDNA, in *buildInput) error {
	p := PenaltySlot{Tag: TagUnproven}
	var best *model.Player
	for i := range in.players {
		c := &in.players[i]
		if c.PenaltiesScored > c.PenaltiesTaken && c.PenaltiesTaken > 0 {
			return inconsistent("player %s scored %d of %d penalties", c.ID, c.PenaltiesScored, c.PenaltiesTaken)
		}
		if c.PenaltiesScored < minPenaltiesForTaker {
			continue
		}
		if best == nil || c.PenaltiesScored > best.PenaltiesScored ||
			(c.PenaltiesScored == best.PenaltiesScored && c.PenaltiesTaken > best.PenaltiesTaken) {
			best = c
		}
	}
	if best == nil {
		d.Penalty = p
		return nil
	}
	p.TakerID = best.ID
	p.Scored = best.PenaltiesScored
	p.Taken = best.PenaltiesTaken
	if p.Taken < p.Scored {
		p.Taken = p.Scored
	}
	p.Conversion = ratio(float64(p.Scored), float64(p.Taken))
	switch {
	case p.Conversion >= reliablePenaltyRate:
		p.Tag = TagReliable
	case p.Conversion < shakyPenaltyRate:
		p.Tag = TagUnreliable
	default:
		p.Tag = TagAverage
	}
	d.Penalty = p
	return nil
}

func buildCreativity(d *TeamDNA, in *buildInput) error {
	c := CreativitySlot{Tag: TagNoData}
	var top *model.Player
	for i := range in.players {
		p := &in.players[i]
		c.Assists += p.Assists
		c.XA += p.XA
		if top == nil || p.XA > top.XA || (p.XA == top.XA && p.Assists > top.Assists) {
			top = p
		}
	}
	if c.Assists == 0 && c.XA == 0 {
		d.Creativity = c
		return nil
	}
	c.TopCreatorID = top.ID
	goals := teamGoals(d, in.players)
	switch {
	case c.XA > 0 && top.XA/c.XA >= creativeHubXAShare:
		c.Tag = TagCreativeHub
	case goals > 0 && float64(c.Assists)/float64(goals) < brillianceAssistPerGoal:
		c.Tag = TagIndividualBrilliance
	default:
		c.Tag = TagCollective
	}
	d.Creativity = c
	return nil
}

func buildForm(d *TeamDNA, in *buildInput) error {
	f := FormSlot{Tag: TagNoData}
	if len(in.players) == 0 && len(in.recent) == 0 {
		d.Form = f
		return nil
	}
	for _, p := range in.players {
		if float64(p.Goals)-p.XG >= regressionOverXG {
			f.RegressionCandidates = append(f.RegressionCandidates, p.ID)
		}
		if p.RecentMatches < minRecentMatches || p.Appearances == 0 {
			continue
		}
		seasonRate := float64(p.Goals) / float64(p.Appearances)
		recentRate := float64(p.RecentGoals) / float64(p.RecentMatches)
		switch {
		case p.RecentGoals >= 2 && recentRate >= hotStreakFactor*seasonRate:
			f.HotStreak = append(f.HotStreak, p.ID)
		case seasonRate >= coldSeasonGPA && p.RecentGoals == 0:
			f.ColdStreak = append(f.ColdStreak, p.ID)
		}
	}

	for i := len(in.recent) - 1; i >= 0 && len(f.LastResults) < 5; i-- {
		r := in.recent[i]
		side, _ := in.sideIn(r.Match)
		res := r.ResultFor(side)
		f.LastResults = append(f.LastResults, string(res))
		switch res {
		case ResultWin:
			f.LastPoints += 3
		case ResultDraw:
			f.LastPoints++
		}
	}

	trend := len(f.HotStreak) - len(f.ColdStreak)
	if len(f.LastResults) == 5 {
		switch {
		case f.LastPoints >= 10:
			trend++
		case f.LastPoints <= 4:
			trend--
		}
	}
	switch {
	case trend > 0:
		f.Tag = TagHot
	case trend < 0:
		f.Tag = TagDeclining
	default:
		f.Tag = TagStable
	}
	d.Form = f
	return nil
}

func buildNPClinical(d *TeamDNA, in *buildInput) error {
	n := NPClinicalSlot{Tag: TagNoData}
	if len(in.players) == 0 {
		d.NPClinical = n
		return nil
	}
	for _, p := range in.players {
		if p.NPGoals > p.Goals {
			return inconsistent("player %s has %d non-penalty goals of %d", p.ID, p.NPGoals, p.Goals)
		}
		n.NPOverperformance += float64(p.NPGoals) - p.NPXG
		switch ClassifyFinishing(p) {
		case FinishingTrueClinical:
			n.TrueClinical = append(n.TrueClinical, p.ID)
		case FinishingClinical:
			n.Clinical = append(n.Clinical, p.ID)
		case FinishingPenaltyInflated:
			n.PenaltyInflated = append(n.PenaltyInflated, p.ID)
		case FinishingWasteful:
			n.Wasteful = append(n.Wasteful, p.ID)
		}
	}
	switch {
	case n.NPOverperformance >= clinicalTeamNPOver:
		n.Tag = TagClinicalTeam
	case n.NPOverperformance <= wastefulTeamNPOver:
		n.Tag = TagWastefulTeam
	case d.Style.HasData && d.Style.PenaltyPct >= penaltyReliantPct:
		n.Tag = TagPenaltyReliant
	default:
		n.Tag = TagAverage
	}
	d.NPClinical = n
	return nil
}

func buildChain(d *TeamDNA, in *buildInput) error {
	c := ChainSlot{
		Tag:         TagNoData,
		Involvement: make(map[string]float64),
		Roles:       make(map[ChainRole][]string),
	}
	var topChain, teamXG float64
	for _, p := range in.players {
		if p.XGChain < 0 || p.XGBuildup < 0 {
			return inconsistent("player %s has negative chain values", p.ID)
		}
		c.XGChain += p.XGChain
		c.XGBuildup += p.XGBuildup
		teamXG += p.XG
		if p.XGChain > topChain {
			topChain = p.XGChain
		}
		if p.Appearances < minChainAppearances {
			continue
		}
		inv := InvolvementRatio(p)
		if inv > 0 {
			c.Involvement[p.ID] = inv
		}
		buildupShare := ratio(p.XGBuildup, p.XGChain)
		if p.XGBuildup >= architectMinBuildup && buildupShare >= architectBuildupShare {
			c.Roles[RoleBuildupArchitect] = append(c.Roles[RoleBuildupArchitect], p.ID)
		}
		if inv >= highInvolvementRatio {
			c.Roles[RoleHighInvolvement] = append(c.Roles[RoleHighInvolvement], p.ID)
		}
		if p.Goals >= finisherOnlyMinGoals && p.XGChain > 0 && buildupShare < finisherOnlyMaxShare {
			c.Roles[RoleFinisherOnly] = append(c.Roles[RoleFinisherOnly], p.ID)
		}
		if p.XA >= playmakerMinXA && p.KeyPasses >= playmakerMinKeyPasses {
			c.Roles[RolePlaymaker] = append(c.Roles[RolePlaymaker], p.ID)
		}
		if p.Shots >= boxCrasherMinShots && ratio(p.XG, p.XGChain) >= boxCrasherXGShare {
			c.Roles[RoleBoxCrasher] = append(c.Roles[RoleBoxCrasher], p.ID)
		}
	}
	if c.XGChain == 0 {
		d.Chain = c
		return nil
	}
	if in.agg != nil && in.agg.XGFor > 0 {
		teamXG = in.agg.XGFor
	}
	c.TopShare = pct(topChain, teamXG)
	switch {
	case c.TopShare >= highDependencyShare:
		c.Tag = TagHighDependency
	case c.TopShare >= moderateShare:
		c.Tag = TagModerate
	default:
		c.Tag = TagDistributed
	}
	d.Chain = c
	return nil
}

func buildCombos(d *TeamDNA, in *buildInput) error {
	type key struct{ creator, finisher string }
	type agg struct {
		n  int
		xg float64
	}
	pairs := make(map[key]*agg)
	assisted := 0
	for _, g := range in.ownGoals {
		if g.AssistID == "" || g.ScorerID == "" || g.AssistID == g.ScorerID {
			continue
		}
		assisted++
		k := key{g.AssistID, g.ScorerID}
		if pairs[k] == nil {
			pairs[k] = &agg{}
		}
		pairs[k].n++
		pairs[k].xg += g.ShotXG
	}
	combos := make([]Combo, 0, len(pairs))
	for k, a := range pairs {
		combos = append(combos, Combo{
			CreatorID:   k.creator,
			FinisherID:  k.finisher,
			Occurrences: a.n,
			AvgShotXG:   a.xg / float64(a.n),
		})
	}
	sort.Slice(combos, func(i, j int) bool {
		a, b := combos[i], combos[j]
		if a.Occurrences != b.Occurrences {
			return a.Occurrences > b.Occurrences
		}
		if a.AvgShotXG != b.AvgShotXG {
			return a.AvgShotXG > b.AvgShotXG
		}
		if a.CreatorID != b.CreatorID {
			return a.CreatorID < b.CreatorID
		}
		return a.FinisherID < b.FinisherID
	})
	if len(combos) > maxCombos {
		combos = combos[:maxCombos]
	}

	s := ComboSlot{Top: combos, Tag: TagNoCombo}
	if len(combos) > 0 {
		top := combos[0]
		switch {
		case top.Occurrences >= comboReliantCount && pct(float64(top.Occurrences), float64(assisted)) >= comboReliantShare:
			s.Tag = TagComboReliant
		case top.Occurrences >= 2:
			s.Tag = TagComboDiverse
		}
	}
	d.Combos = s
	return nil
}
