package analysis

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

func weekPeriod(t *testing.T) Period {
	t.Helper()
	p, err := ParsePeriod("7d", fixtureNow)
	require.NoError(t, err)
	return p
}

func TestBuildReport_Fixture(t *testing.T) {
	input := fixtureInput()
	input.Period = weekPeriod(t)

	report, err := BuildReport(input, DefaultConfig(), fixtureNow)
	require.NoError(t, err)

	assert.Equal(t, "camp-1", report.CampaignID)
	assert.Equal(t, fixtureNow, report.Timestamp)
	assert.Empty(t, report.Warnings)

	t.Run("contact stats", func(t *testing.T) {
		cs := report.ContactStats
		assert.Equal(t, 3, cs.TotalContacts)
		assert.Equal(t, 1, cs.DuplicatesCollapsed)
		assert.Equal(t, 2, cs.UniqueVoters)
		assert.InDelta(t, 2.0/3.0, cs.PositiveRate, 1e-9)
		assert.InDelta(t, 2.0/3.0, cs.ContactRate, 1e-9)
		assert.Equal(t, 1, cs.ByType[types.ContactSMS])
		assert.Equal(t, 0, cs.ByType[types.ContactEvent])
		require.NotNil(t, cs.LastContactAt)
		assert.Equal(t, at(14, 9, 0), *cs.LastContactAt)
	})

	t.Run("voter stats", func(t *testing.T) {
		vs := report.VoterStats
		assert.Equal(t, 3, vs.TotalVoters)
		assert.Equal(t, 2, vs.ContactedVoters)
		assert.Equal(t, 1, vs.UncontactedVoters)
		assert.Zero(t, vs.NewVoters)
		assert.Equal(t, 1, vs.HighInfluenceVoters)
	})

	t.Run("stance distribution", func(t *testing.T) {
		d := report.StanceDistribution
		assert.Equal(t, 3, d.Total)
		assert.Equal(t, d.Total, d.Sum())
		assert.Equal(t, 1, d.StrongSupport)
		assert.Equal(t, 1, d.Undecided)
		assert.Equal(t, 1, d.Oppose)
	})

	t.Run("trend", func(t *testing.T) {
		require.Len(t, report.Trend, 7)
		assert.Equal(t, "2024-03-09", report.Trend[0].Date)
		assert.Equal(t, "2024-03-15", report.Trend[6].Date)

		contacts := make([]int, 7)
		cumulative := make([]int, 7)
		for i, p := range report.Trend {
			contacts[i] = p.Contacts
			cumulative[i] = p.CumulativeContacted
		}
		assert.Equal(t, []int{0, 1, 0, 1, 0, 1, 0}, contacts)
		assert.Equal(t, []int{0, 1, 1, 2, 2, 2, 2}, cumulative)
		assert.Equal(t, 1, report.Trend[1].PositiveContacts)
	})

	t.Run("influence", func(t *testing.T) {
		require.Len(t, report.TopInfluencers, 3)
		assert.Equal(t, "v1", report.TopInfluencers[0].VoterID)
		assert.InDelta(t, 88.0, report.TopInfluencers[0].TotalInfluence, 1e-9)
		assert.Equal(t, "v2", report.TopInfluencers[1].VoterID)
		assert.InDelta(t, 40.0, report.TopInfluencers[1].TotalInfluence, 1e-9)
		assert.Zero(t, report.TopInfluencers[2].TotalInfluence)
	})

	t.Run("districts", func(t *testing.T) {
		require.Len(t, report.DistrictBreakdown, 2)
		north := report.DistrictBreakdown[0]
		assert.Equal(t, "North", north.DistrictName)
		assert.Equal(t, 2, north.TotalVoters)
		assert.InDelta(t, 0.5, north.SupportRate, 1e-9)
		assert.InDelta(t, 2*0.5*0.65, north.EstimatedVotes, 1e-9)
	})

	t.Run("win probability", func(t *testing.T) {
		wp := report.WinProbability
		assert.GreaterOrEqual(t, wp.Probability, 0.0)
		assert.LessOrEqual(t, wp.Probability, 1.0)
		assert.Equal(t, ClassifyScenario(wp.Probability), wp.Scenario)
		assert.Equal(t, 1, wp.VotesNeeded)
		require.Len(t, wp.Factors, 5)
		assert.Equal(t, "contact_momentum", wp.Factors[4].Name)
		assert.NotEmpty(t, report.Insights)
	})
}

func TestBuildReport_Deterministic(t *testing.T) {
	input := fixtureInput()
	input.Period = weekPeriod(t)

	first, err := BuildReport(input, DefaultConfig(), fixtureNow)
	require.NoError(t, err)
	second, err := BuildReport(input, DefaultConfig(), fixtureNow)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("reports differ (-first +second):\n%s", diff)
	}

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestBuildReport_DoesNotMutateInput(t *testing.T) {
	input := fixtureInput()
	input.Contacts[0], input.Contacts[3] = input.Contacts[3], input.Contacts[0]
	before := fixtureInput()
	before.Contacts[0], before.Contacts[3] = before.Contacts[3], before.Contacts[0]

	_, err := BuildReport(input, DefaultConfig(), fixtureNow)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(before, input))
}

func TestBuildReport_Warnings(t *testing.T) {
	input := fixtureInput()
	deleted := at(1, 0, 0)
	input.Voters = append(input.Voters,
		types.Voter{ID: "v4", Name: "Dan", Stance: "SHRUG", DistrictID: "d2"},
		types.Voter{ID: "v5", Name: "Eve", Stance: types.StanceSupport, DistrictID: "d2", DeletedAt: &deleted},
	)
	input.Relationships = append(input.Relationships,
		types.VoterRelationship{ID: "r3", SourceVoterID: "v1", TargetVoterID: "v5", RelationType: types.RelationFriend, InfluenceWeight: 10},
	)
	input.Contacts = append(input.Contacts,
		types.Contact{ID: "c9", VoterID: "ghost", Type: types.ContactSMS, Outcome: types.OutcomePositive, ContactedAt: at(13, 8, 0)},
	)

	report, err := BuildReport(input, DefaultConfig(), fixtureNow)
	require.NoError(t, err)

	assert.Equal(t, 4, report.StanceDistribution.Total)
	assert.Equal(t, 1, report.StanceDistribution.Unknown)
	assert.Equal(t, report.StanceDistribution.Total, report.StanceDistribution.Sum())

	require.Len(t, report.Warnings, 3)
	assert.Contains(t, report.Warnings[0], "ghost")
	assert.Contains(t, report.Warnings[1], "SHRUG")
	assert.Contains(t, report.Warnings[2], "v5")
}

func TestBuildReport_UnboundedPeriod(t *testing.T) {
	report, err := BuildReport(fixtureInput(), DefaultConfig(), fixtureNow)
	require.NoError(t, err)

	assert.Equal(t, "all", report.Period.Label)
	assert.Equal(t, "2024-01-01", report.Trend[0].Date)
	assert.Equal(t, 3, report.Trend[0].NewVoters)
	assert.Equal(t, 3, report.VoterStats.NewVoters)
}

func TestBuildReport_OpenEndedPeriod(t *testing.T) {
	input := fixtureInput()
	input.Period = Period{From: at(12, 0, 0)}

	report, err := BuildReport(input, DefaultConfig(), fixtureNow)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-12..", report.Period.Label)
	assert.True(t, at(12, 0, 0).Equal(report.Period.From), "start is kept")
	assert.True(t, fixtureNow.Equal(report.Period.To))
	assert.Equal(t, "2024-03-12", report.Trend[0].Date)
	assert.Len(t, report.Trend, 4)
}

func TestBuildReport_TrendCapped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTrendPoints = 5

	report, err := BuildReport(fixtureInput(), cfg, fixtureNow)
	require.NoError(t, err)
	require.Len(t, report.Trend, 5)
	assert.Equal(t, "2024-03-15", report.Trend[4].Date)
	assert.Equal(t, 1, report.Trend[0].CumulativeContacted)
}

func TestBuildReport_Empty(t *testing.T) {
	report, err := BuildReport(ReportInput{CampaignID: "empty"}, DefaultConfig(), fixtureNow)
	require.NoError(t, err)

	assert.Zero(t, report.VoterStats.TotalVoters)
	assert.Empty(t, report.DistrictBreakdown)
	assert.Empty(t, report.TopInfluencers)
	assert.NotNil(t, report.Warnings)
	assert.Equal(t, ScenarioStrongLose, report.WinProbability.Scenario)
}

func TestBuildReport_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSampleSize = 0

	_, err := BuildReport(fixtureInput(), cfg, fixtureNow)
	require.Error(t, err)

	var aggErr *AggregationError
	require.True(t, errors.As(err, &aggErr))
	assert.Equal(t, "config", aggErr.Component)
}

func TestBuildReport_ContactsAfterPeriodIgnored(t *testing.T) {
	input := fixtureInput()
	input.Period = Period{Label: "custom", From: at(9, 0, 0), To: at(11, 0, 0)}
	input.Contacts = append(input.Contacts, types.Contact{
		ID: "c5", VoterID: "v3", Type: types.ContactSMS, Outcome: types.OutcomeNegative,
		ContactedAt: fixtureNow.Add(time.Hour),
	})

	report, err := BuildReport(input, DefaultConfig(), fixtureNow)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ContactStats.TotalContacts)
	assert.Equal(t, 1, report.VoterStats.ContactedVoters)
	assert.Len(t, report.Trend, 3)
}
