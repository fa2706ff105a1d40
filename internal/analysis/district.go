package analysis

import (
	"sort"

	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

// UnassignedDistrictName labels voters without a district id
const UnassignedDistrictName = "Unassigned"

// DistrictBreakdown is the per-district rollup
type DistrictBreakdown struct {
	DistrictID         string  `json:"district_id"`
	DistrictName       string  `json:"district_name,omitempty"`
	TotalVoters        int     `json:"total_voters"`
	ScoredVoters       int     `json:"scored_voters"`
	SupportCount       int     `json:"support_count"`
	NeutralCount       int     `json:"neutral_count"`
	OpposeCount        int     `json:"oppose_count"`
	UnknownCount       int     `json:"unknown_count"`
	ContactedVoters    int     `json:"contacted_voters"`
	SupportRate        float64 `json:"support_rate"`
	NeutralRate        float64 `json:"neutral_rate"`
	OpposeRate         float64 `json:"oppose_rate"`
	ContactRate        float64 `json:"contact_rate"`
	AverageStanceScore float64 `json:"average_stance_score"`
	EstimatedVotes     float64 `json:"estimated_votes"`
	Confidence         float64 `json:"confidence"`
}

// AggregateDistrict rolls up the voters of one district. Stance rates are taken
// over voters with a known stance; unknown stances are excluded and reported in
// the returned warnings.
func AggregateDistrict(voters []types.Voter, contacts []types.Contact, districtID string, cfg Config) (DistrictBreakdown, []string) {
	var members []types.Voter
	for _, v := range voters {
		if v.Active() && v.DistrictID == districtID {
			members = append(members, v)
		}
	}
	return aggregate(districtID, members, contactedSet(contacts), cfg)
}

// AggregateDistricts covers every known district plus district ids that only
// appear on voters. Output is sorted by district id.
func AggregateDistricts(voters []types.Voter, contacts []types.Contact, districts []types.District, cfg Config) ([]DistrictBreakdown, []string) {
	names := make(map[string]string, len(districts))
	for _, d := range districts {
		names[d.ID] = d.Name
	}

	grouped := make(map[string][]types.Voter)
	for _, v := range voters {
		if !v.Active() {
			continue
		}
		grouped[v.DistrictID] = append(grouped[v.DistrictID], v)
	}

	ids := make([]string, 0, len(names)+1)
	for id := range names {
		ids = append(ids, id)
	}
	for id := range grouped {
		if _, known := names[id]; !known {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	contacted := contactedSet(contacts)
	breakdowns := make([]DistrictBreakdown, 0, len(ids))
	var warnings []string
	for _, id := range ids {
		b, w := aggregate(id, grouped[id], contacted, cfg)
		switch name, ok := names[id]; {
		case ok:
			b.DistrictName = name
		case id == "":
			b.DistrictName = UnassignedDistrictName
		}
		breakdowns = append(breakdowns, b)
		warnings = append(warnings, w...)
	}
	return breakdowns, warnings
}

func aggregate(districtID string, members []types.Voter, contacted map[string]bool, cfg Config) (DistrictBreakdown, []string) {
	b := DistrictBreakdown{DistrictID: districtID, TotalVoters: len(members)}
	if len(members) == 0 {
		return b, nil
	}

	var warnings []string
	scoreSum := 0.0
	for _, v := range members {
		if contacted[v.ID] {
			b.ContactedVoters++
		}

		score, err := scoreVoter(v, cfg)
		if err != nil {
			b.UnknownCount++
			warnings = append(warnings, err.Error())
			continue
		}
		b.ScoredVoters++
		scoreSum += score

		switch {
		case v.Stance.IsSupport():
			b.SupportCount++
		case v.Stance.IsOppose():
			b.OpposeCount++
		default:
			b.NeutralCount++
		}
	}

	scored := float64(b.ScoredVoters)
	total := float64(b.TotalVoters)
	b.SupportRate = ratio(float64(b.SupportCount), scored)
	b.OpposeRate = ratio(float64(b.OpposeCount), scored)
	b.NeutralRate = ratio(float64(b.NeutralCount), scored)
	b.ContactRate = ratio(float64(b.ContactedVoters), total)
	b.AverageStanceScore = ratio(scoreSum, scored)
	b.EstimatedVotes = total * b.SupportRate * cfg.TurnoutAssumption
	b.Confidence = clip(ratio(scored, float64(cfg.MinSampleSize)), 0, 1)

	return b, warnings
}

func contactedSet(contacts []types.Contact) map[string]bool {
	set := make(map[string]bool, len(contacts))
	for _, c := range contacts {
		set[c.VoterID] = true
	}
	return set
}
