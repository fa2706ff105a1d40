package analysis

import (
	"time"

	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

type VoterStats struct {
	TotalVoters         int     `json:"total_voters"`
	ContactedVoters     int     `json:"contacted_voters"`
	UncontactedVoters   int     `json:"uncontacted_voters"`
	NewVoters           int     `json:"new_voters"`
	HighInfluenceVoters int     `json:"high_influence_voters"`
	AverageInfluence    float64 `json:"average_influence"`
	AverageStanceScore  float64 `json:"average_stance_score"`
}

type ContactStats struct {
	TotalContacts       int                          `json:"total_contacts"`
	ByType              map[types.ContactType]int    `json:"by_type"`
	ByOutcome           map[types.ContactOutcome]int `json:"by_outcome"`
	PositiveRate        float64                      `json:"positive_rate"`
	UniqueVoters        int                          `json:"unique_voters"`
	ContactRate         float64                      `json:"contact_rate"`
	AveragePerVoter     float64                      `json:"average_per_voter"`
	DuplicatesCollapsed int                          `json:"duplicates_collapsed"`
	LastContactAt       *time.Time                   `json:"last_contact_at,omitempty"`
}

// StanceDistribution counts voters per stance. Unknown holds voters whose
// stance could not be scored, so the buckets always sum to Total.
type StanceDistribution struct {
	StrongSupport int `json:"strong_support"`
	Support       int `json:"support"`
	LeanSupport   int `json:"lean_support"`
	Undecided     int `json:"undecided"`
	Neutral       int `json:"neutral"`
	LeanOppose    int `json:"lean_oppose"`
	Oppose        int `json:"oppose"`
	StrongOppose  int `json:"strong_oppose"`
	Unknown       int `json:"unknown"`
	Total         int `json:"total"`
}

// Sum adds every bucket; equals Total for a well-formed distribution
func (d StanceDistribution) Sum() int {
	return d.StrongSupport + d.Support + d.LeanSupport + d.Undecided + d.Neutral +
		d.LeanOppose + d.Oppose + d.StrongOppose + d.Unknown
}

// TrendDataPoint is one UTC day of activity
type TrendDataPoint struct {
	Date                string `json:"date"`
	Contacts            int    `json:"contacts"`
	PositiveContacts    int    `json:"positive_contacts"`
	NewVoters           int    `json:"new_voters"`
	CumulativeContacted int    `json:"cumulative_contacted"`
}

// CampaignAnalytics is a point-in-time snapshot; it is derived, never a source of truth
type CampaignAnalytics struct {
	CampaignID         string              `json:"campaign_id"`
	Period             Period              `json:"period"`
	Timestamp          time.Time           `json:"timestamp"`
	VoterStats         VoterStats          `json:"voter_stats"`
	ContactStats       ContactStats        `json:"contact_stats"`
	StanceDistribution StanceDistribution  `json:"stance_distribution"`
	DistrictBreakdown  []DistrictBreakdown `json:"district_breakdown"`
	Trend              []TrendDataPoint    `json:"trend"`
	WinProbability     WinProbability      `json:"win_probability"`
	TopInfluencers     []InfluenceAnalysis `json:"top_influencers"`
	Insights           []string            `json:"insights"`
	Warnings           []string            `json:"warnings"`
}

// ReportInput is the already-fetched data a report is computed from
type ReportInput struct {
	CampaignID    string                    `json:"campaign_id" yaml:"campaign_id"`
	Period        Period                    `json:"period" yaml:"-"`
	Voters        []types.Voter             `json:"voters" yaml:"voters"`
	Relationships []types.VoterRelationship `json:"relationships" yaml:"relationships"`
	Contacts      []types.Contact           `json:"contacts" yaml:"contacts"`
	Districts     []types.District          `json:"districts" yaml:"districts"`
}
