package server

import (
	"time"

	"github.com/stanley00316/election-system-demo-sub004/internal/security"
	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

type createVoterRequest struct {
	ID             string   `json:"id" binding:"omitempty,max=64"`
	Name           string   `json:"name" binding:"required,max=200"`
	Stance         string   `json:"stance" binding:"required,stance"`
	InfluenceScore *float64 `json:"influence_score" binding:"omitempty,gte=0,lte=100"`
	PoliticalParty string   `json:"political_party" binding:"max=100"`
	City           string   `json:"city" binding:"max=100"`
	DistrictID     string   `json:"district_id" binding:"max=64"`
	Village        string   `json:"village" binding:"max=100"`
	Neighborhood   string   `json:"neighborhood" binding:"max=100"`
}

func (r createVoterRequest) toVoter(campaignID string, maxText int) types.Voter {
	stance, _ := types.ParseStance(r.Stance)
	v := types.Voter{
		ID:             r.ID,
		CampaignID:     campaignID,
		Name:           security.SanitizeText(r.Name, maxText),
		Stance:         stance,
		PoliticalParty: security.SanitizeText(r.PoliticalParty, maxText),
		City:           security.SanitizeText(r.City, maxText),
		DistrictID:     r.DistrictID,
		Village:        security.SanitizeText(r.Village, maxText),
		Neighborhood:   security.SanitizeText(r.Neighborhood, maxText),
	}
	if r.InfluenceScore != nil {
		v.InfluenceScore = *r.InfluenceScore
	}
	return v
}

type createRelationshipRequest struct {
	ID              string   `json:"id" binding:"omitempty,max=64"`
	SourceVoterID   string   `json:"source_voter_id" binding:"required"`
	TargetVoterID   string   `json:"target_voter_id" binding:"required,nefield=SourceVoterID"`
	RelationType    string   `json:"relation_type" binding:"required,relation_type"`
	InfluenceWeight *float64 `json:"influence_weight" binding:"required,gte=0,lte=100"`
}

func (r createRelationshipRequest) toRelationship(campaignID string) types.VoterRelationship {
	rt, _ := types.ParseRelationType(r.RelationType)
	return types.VoterRelationship{
		ID:              r.ID,
		CampaignID:      campaignID,
		SourceVoterID:   r.SourceVoterID,
		TargetVoterID:   r.TargetVoterID,
		RelationType:    rt,
		InfluenceWeight: *r.InfluenceWeight,
	}
}

type createContactRequest struct {
	VoterID     string     `json:"voter_id" binding:"required"`
	Type        string     `json:"type" binding:"required,contact_type"`
	Outcome     string     `json:"outcome" binding:"required,contact_outcome"`
	ContactedAt *time.Time `json:"contacted_at"`
	Notes       string     `json:"notes"`
	FollowUpAt  *time.Time `json:"follow_up_at"`
}

func (r createContactRequest) toContact(campaignID string, now time.Time, maxText int) types.Contact {
	ct, _ := types.ParseContactType(r.Type)
	outcome, _ := types.ParseContactOutcome(r.Outcome)
	contactedAt := now
	if r.ContactedAt != nil {
		contactedAt = *r.ContactedAt
	}
	return types.Contact{
		CampaignID:  campaignID,
		VoterID:     r.VoterID,
		Type:        ct,
		Outcome:     outcome,
		ContactedAt: contactedAt,
		Notes:       security.SanitizeText(r.Notes, maxText),
		FollowUpAt:  r.FollowUpAt,
	}
}

// updateContactRequest carries the only fields a contact may change after creation
type updateContactRequest struct {
	Notes      *string    `json:"notes"`
	FollowUpAt *time.Time `json:"follow_up_at"`
}

type createDistrictRequest struct {
	ID               string `json:"id" binding:"omitempty,max=64"`
	Name             string `json:"name" binding:"required,max=200"`
	Level            string `json:"level" binding:"required,district_level"`
	ParentID         string `json:"parent_id" binding:"max=64"`
	RegisteredVoters int    `json:"registered_voters" binding:"gte=0"`
	Boundary         string `json:"boundary"`
}

func (r createDistrictRequest) toDistrict(campaignID string, maxText int) types.District {
	level, _ := types.ParseDistrictLevel(r.Level)
	return types.District{
		ID:               r.ID,
		CampaignID:       campaignID,
		Name:             security.SanitizeText(r.Name, maxText),
		Level:            level,
		ParentID:         r.ParentID,
		RegisteredVoters: r.RegisteredVoters,
		Boundary:         r.Boundary,
	}
}
