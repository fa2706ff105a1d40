package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

// BuildReport assembles a CampaignAnalytics snapshot from already-fetched data.
// It is pure: identical input, config and clock produce an identical report.
// Per-voter and per-edge problems become warnings; anything else fails the
// whole report with an *AggregationError.
func BuildReport(input ReportInput, cfg Config, now time.Time) (*CampaignAnalytics, error) {
	if err := cfg.Validate(); err != nil {
		return nil, aggregationFailure("config", err)
	}

	now = now.UTC()
	period := input.Period.resolve(now)

	voters, history, collapsed, warnings := campaignHistory(input, period, cfg)

	if err := types.ValidateDistrictHierarchy(input.Districts); err != nil {
		warnings = append(warnings, fmt.Sprintf("district hierarchy: %v", err))
	}

	inPeriod := make([]types.Contact, 0, len(history))
	for _, c := range history {
		if period.Contains(c.ContactedAt) {
			inPeriod = append(inPeriod, c)
		}
	}

	distribution, stanceWarnings := buildStanceDistribution(voters, cfg)
	warnings = append(warnings, stanceWarnings...)
	if distribution.Sum() != distribution.Total {
		return nil, aggregationFailure("stance_distribution",
			fmt.Errorf("buckets sum to %d, expected %d", distribution.Sum(), distribution.Total))
	}

	graph, graphWarnings := BuildInfluenceGraph(voters, input.Relationships, GraphOptions{Symmetric: cfg.SymmetricEdges})
	for _, gw := range graphWarnings {
		warnings = append(warnings, gw.Message)
	}
	influence, err := ComputeAllInfluence(graph, cfg)
	if err != nil {
		return nil, aggregationFailure("influence", err)
	}

	breakdowns, trend, win, err := outlook(voters, history, input.Districts, period, cfg)
	if err != nil {
		return nil, aggregationFailure("win_probability", err)
	}

	voterStats := buildVoterStats(voters, history, influence, period, cfg)
	contactStats := buildContactStats(inPeriod, len(voters), collapsed)
	top := rankInfluence(influence, cfg.TopInfluencerLimit)

	if warnings == nil {
		warnings = []string{}
	}

	return &CampaignAnalytics{
		CampaignID:         input.CampaignID,
		Period:             period,
		Timestamp:          now,
		VoterStats:         voterStats,
		ContactStats:       contactStats,
		StanceDistribution: distribution,
		DistrictBreakdown:  breakdowns,
		Trend:              trend,
		WinProbability:     win,
		TopInfluencers:     top,
		Insights:           buildInsights(win, voterStats, breakdowns, top, cfg),
		Warnings:           warnings,
	}, nil
}

// campaignHistory keeps active voters and the deduplicated contacts made up to
// period end. Contacts for unknown voters become warnings.
func campaignHistory(input ReportInput, period Period, cfg Config) ([]types.Voter, []types.Contact, int, []string) {
	var warnings []string

	voters := make([]types.Voter, 0, len(input.Voters))
	known := make(map[string]bool, len(input.Voters))
	for _, v := range input.Voters {
		if v.Active() {
			voters = append(voters, v)
			known[v.ID] = true
		}
	}

	history := make([]types.Contact, 0, len(input.Contacts))
	for _, c := range input.Contacts {
		if !known[c.VoterID] {
			warnings = append(warnings, fmt.Sprintf("contact %s references unknown voter %s", c.ID, c.VoterID))
			continue
		}
		if c.ContactedAt.After(period.To) {
			continue
		}
		history = append(history, c)
	}
	history, collapsed := NewPreprocessor(cfg.ContactDedupWindow).ProcessContacts(history)
	return voters, history, collapsed, warnings
}

// outlook aggregates districts, builds the trend and estimates the win
// probability including contact momentum
func outlook(voters []types.Voter, history []types.Contact, districts []types.District, period Period, cfg Config) ([]DistrictBreakdown, []TrendDataPoint, WinProbability, error) {
	// unknown-stance warnings are collected by the distribution pass
	breakdowns, _ := AggregateDistricts(voters, history, districts, cfg)
	trend := buildTrend(voters, history, period, cfg.MaxTrendPoints)

	win, err := EstimateWinProbability(breakdowns, cfg.VotesNeeded, cfg)
	if err != nil {
		return nil, nil, WinProbability{}, err
	}
	win.Factors = append(win.Factors, momentumFactor(trend, cfg))
	return breakdowns, trend, win, nil
}

func buildStanceDistribution(voters []types.Voter, cfg Config) (StanceDistribution, []string) {
	d := StanceDistribution{Total: len(voters)}
	var warnings []string

	for _, v := range voters {
		if _, err := scoreVoter(v, cfg); err != nil {
			d.Unknown++
			warnings = append(warnings, err.Error())
			continue
		}
		switch v.Stance {
		case types.StanceStrongSupport:
			d.StrongSupport++
		case types.StanceSupport:
			d.Support++
		case types.StanceLeanSupport:
			d.LeanSupport++
		case types.StanceUndecided:
			d.Undecided++
		case types.StanceNeutral:
			d.Neutral++
		case types.StanceLeanOppose:
			d.LeanOppose++
		case types.StanceOppose:
			d.Oppose++
		case types.StanceStrongOppose:
			d.StrongOppose++
		default:
			// scored only through the neutral fallback
			d.Neutral++
		}
	}

	return d, warnings
}

func buildVoterStats(voters []types.Voter, history []types.Contact, influence []InfluenceAnalysis, period Period, cfg Config) VoterStats {
	stats := VoterStats{TotalVoters: len(voters)}
	contacted := contactedSet(history)

	scoreSum, scored := 0.0, 0
	for _, v := range voters {
		if contacted[v.ID] {
			stats.ContactedVoters++
		}
		if !v.CreatedAt.IsZero() && period.Contains(v.CreatedAt) {
			stats.NewVoters++
		}
		if score, err := scoreVoter(v, cfg); err == nil {
			scoreSum += score
			scored++
		}
	}
	stats.UncontactedVoters = stats.TotalVoters - stats.ContactedVoters
	stats.AverageStanceScore = ratio(scoreSum, float64(scored))

	influenceSum := 0.0
	for _, ia := range influence {
		influenceSum += ia.TotalInfluence
		if ia.TotalInfluence >= cfg.HighInfluenceThreshold {
			stats.HighInfluenceVoters++
		}
	}
	stats.AverageInfluence = ratio(influenceSum, float64(len(influence)))

	return stats
}

func buildContactStats(contacts []types.Contact, totalVoters, collapsed int) ContactStats {
	stats := ContactStats{
		TotalContacts:       len(contacts),
		ByType:              make(map[types.ContactType]int, len(types.AllContactTypes)),
		ByOutcome:           make(map[types.ContactOutcome]int, len(types.AllContactOutcomes)),
		DuplicatesCollapsed: collapsed,
	}
	for _, t := range types.AllContactTypes {
		stats.ByType[t] = 0
	}
	for _, o := range types.AllContactOutcomes {
		stats.ByOutcome[o] = 0
	}

	unique := make(map[string]bool)
	var last time.Time
	for _, c := range contacts {
		stats.ByType[c.Type]++
		stats.ByOutcome[c.Outcome]++
		unique[c.VoterID] = true
		if c.ContactedAt.After(last) {
			last = c.ContactedAt
		}
	}

	stats.UniqueVoters = len(unique)
	stats.PositiveRate = ratio(float64(stats.ByOutcome[types.OutcomePositive]), float64(stats.TotalContacts))
	stats.ContactRate = ratio(float64(stats.UniqueVoters), float64(totalVoters))
	stats.AveragePerVoter = ratio(float64(stats.TotalContacts), float64(stats.UniqueVoters))
	if !last.IsZero() {
		lastUTC := last.UTC()
		stats.LastContactAt = &lastUTC
	}

	return stats
}

// buildTrend emits one point per UTC day. An unbounded period starts at the
// earliest voter or contact; at most maxPoints trailing days are kept.
func buildTrend(voters []types.Voter, history []types.Contact, period Period, maxPoints int) []TrendDataPoint {
	end := startOfDay(period.To)
	start := period.From
	if start.IsZero() {
		start = end
		for _, v := range voters {
			if !v.CreatedAt.IsZero() && v.CreatedAt.Before(start) {
				start = v.CreatedAt
			}
		}
		for _, c := range history {
			if c.ContactedAt.Before(start) {
				start = c.ContactedAt
			}
		}
	}
	start = startOfDay(start)

	days := int(end.Sub(start).Hours()/24) + 1
	if days > maxPoints {
		start = end.AddDate(0, 0, -(maxPoints - 1))
		days = maxPoints
	}
	if days <= 0 {
		return []TrendDataPoint{}
	}

	points := make([]TrendDataPoint, days)
	for i := range points {
		points[i].Date = start.AddDate(0, 0, i).Format(dateLayout)
	}
	dayIndex := func(t time.Time) int {
		d := int(startOfDay(t).Sub(start).Hours() / 24)
		if d < 0 || d >= days {
			return -1
		}
		return d
	}

	firstContact := make(map[string]time.Time)
	for _, c := range history {
		if first, ok := firstContact[c.VoterID]; !ok || c.ContactedAt.Before(first) {
			firstContact[c.VoterID] = c.ContactedAt
		}
		if !period.Contains(c.ContactedAt) {
			continue
		}
		if i := dayIndex(c.ContactedAt); i >= 0 {
			points[i].Contacts++
			if c.Outcome == types.OutcomePositive {
				points[i].PositiveContacts++
			}
		}
	}

	for _, v := range voters {
		if v.CreatedAt.IsZero() || !period.Contains(v.CreatedAt) {
			continue
		}
		if i := dayIndex(v.CreatedAt); i >= 0 {
			points[i].NewVoters++
		}
	}

	firsts := make([]time.Time, 0, len(firstContact))
	for _, t := range firstContact {
		firsts = append(firsts, t)
	}
	sort.Slice(firsts, func(i, j int) bool { return firsts[i].Before(firsts[j]) })

	cursor := 0
	for i := range points {
		dayEnd := start.AddDate(0, 0, i+1)
		for cursor < len(firsts) && firsts[cursor].Before(dayEnd) {
			cursor++
		}
		points[i].CumulativeContacted = cursor
	}

	return points
}

func momentumFactor(trend []TrendDataPoint, cfg Config) ProbabilityFactor {
	m := contactMomentum(trend, cfg.MomentumTauDays)
	return ProbabilityFactor{
		Name:        "contact_momentum",
		Impact:      clip(m*100, -100, 100),
		Description: fmt.Sprintf("recent daily contact volume is %+.1f%% against the period average", m*100),
	}
}

func buildInsights(win WinProbability, vs VoterStats, breakdowns []DistrictBreakdown, top []InfluenceAnalysis, cfg Config) []string {
	insights := []string{
		fmt.Sprintf("Win probability is %.1f%% (%s): %.0f estimated votes against %d needed",
			win.Probability*100, win.Scenario, win.EstimatedVotes, win.VotesNeeded),
	}

	if vs.TotalVoters == 0 {
		return append(insights, "No voters recorded yet")
	}

	coverage := ratio(float64(vs.ContactedVoters), float64(vs.TotalVoters))
	if coverage < 0.5 {
		insights = append(insights, fmt.Sprintf("Only %.1f%% of voters have been contacted; expand outreach", coverage*100))
	}

	for _, f := range win.Factors {
		switch {
		case f.Name == "undecided_share" && f.Impact <= -25:
			insights = append(insights, fmt.Sprintf("%.1f%% of scored voters are undecided or neutral; prioritise persuasion", -f.Impact))
		case f.Name == "contact_momentum" && f.Impact >= 20:
			insights = append(insights, "Outreach is accelerating compared with the period average")
		case f.Name == "contact_momentum" && f.Impact <= -20:
			insights = append(insights, "Outreach is slowing compared with the period average")
		}
	}

	var (
		populated  []DistrictBreakdown
		lowSample  int
		weakest    *DistrictBreakdown
		contactRts []float64
	)
	for i := range breakdowns {
		b := breakdowns[i]
		if b.TotalVoters == 0 {
			continue
		}
		populated = append(populated, b)
		contactRts = append(contactRts, b.ContactRate)
		if b.Confidence < 1 {
			lowSample++
		}
		if b.ScoredVoters > 0 && (weakest == nil || b.SupportRate < weakest.SupportRate) {
			weakest = &breakdowns[i]
		}
	}

	if lowSample > 0 {
		insights = append(insights, fmt.Sprintf("%d of %d districts have fewer than %d scored voters; treat their rates with caution",
			lowSample, len(populated), cfg.MinSampleSize))
	}
	if weakest != nil && len(populated) > 1 {
		insights = append(insights, fmt.Sprintf("%s has the lowest support rate (%.1f%%)",
			districtLabel(*weakest), weakest.SupportRate*100))
	}
	if len(contactRts) > 2 {
		mid := median(contactRts)
		below := 0
		for _, r := range contactRts {
			if r < mid {
				below++
			}
		}
		if below > 0 {
			insights = append(insights, fmt.Sprintf("%d districts are below the median contact rate of %.1f%%", below, mid*100))
		}
	}

	if len(top) > 0 && top[0].TotalInfluence > 0 {
		name := top[0].Name
		if name == "" {
			name = top[0].VoterID
		}
		insights = append(insights, fmt.Sprintf("%s is the most influential voter (total influence %.1f, reaches %d voters)",
			name, top[0].TotalInfluence, top[0].ReachableVoters))
	}

	return insights
}

func districtLabel(b DistrictBreakdown) string {
	if b.DistrictName != "" {
		return b.DistrictName
	}
	return "District " + b.DistrictID
}
