package types

import "time"

// Voter is a campaign-owned voter record
type Voter struct {
	ID             string     `json:"id" yaml:"id"`
	CampaignID     string     `json:"campaign_id" yaml:"campaign_id"`
	Name           string     `json:"name" yaml:"name"`
	Stance         Stance     `json:"stance" yaml:"stance"`
	InfluenceScore float64    `json:"influence_score" yaml:"influence_score"`
	PoliticalParty string     `json:"political_party,omitempty" yaml:"political_party"`
	City           string     `json:"city,omitempty" yaml:"city"`
	DistrictID     string     `json:"district_id,omitempty" yaml:"district_id"`
	Village        string     `json:"village,omitempty" yaml:"village"`
	Neighborhood   string     `json:"neighborhood,omitempty" yaml:"neighborhood"`
	ContactCount   int        `json:"contact_count" yaml:"contact_count"`
	LastContactAt  *time.Time `json:"last_contact_at,omitempty" yaml:"last_contact_at"`
	CreatedAt      time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" yaml:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" yaml:"deleted_at"`
}

// Active reports whether the voter has not been soft-deleted
func (v Voter) Active() bool {
	return v.DeletedAt == nil
}

// VoterRelationship is a directed, weighted edge from source to target
type VoterRelationship struct {
	ID              string       `json:"id" yaml:"id"`
	CampaignID      string       `json:"campaign_id" yaml:"campaign_id"`
	SourceVoterID   string       `json:"source_voter_id" yaml:"source_voter_id"`
	TargetVoterID   string       `json:"target_voter_id" yaml:"target_voter_id"`
	RelationType    RelationType `json:"relation_type" yaml:"relation_type"`
	InfluenceWeight float64      `json:"influence_weight" yaml:"influence_weight"`
	CreatedAt       time.Time    `json:"created_at" yaml:"created_at"`
}

// District is a node in the CITY > DISTRICT > VILLAGE > NEIGHBORHOOD hierarchy
type District struct {
	ID               string        `json:"id" yaml:"id"`
	CampaignID       string        `json:"campaign_id" yaml:"campaign_id"`
	Name             string        `json:"name" yaml:"name"`
	Level            DistrictLevel `json:"level" yaml:"level"`
	ParentID         string        `json:"parent_id,omitempty" yaml:"parent_id"`
	RegisteredVoters int           `json:"registered_voters" yaml:"registered_voters"`
	Boundary         string        `json:"boundary,omitempty" yaml:"boundary"`
}

// Contact records one outreach attempt; only Notes and FollowUpAt change after creation
type Contact struct {
	ID          string         `json:"id" yaml:"id"`
	CampaignID  string         `json:"campaign_id" yaml:"campaign_id"`
	VoterID     string         `json:"voter_id" yaml:"voter_id"`
	Type        ContactType    `json:"type" yaml:"type"`
	Outcome     ContactOutcome `json:"outcome" yaml:"outcome"`
	ContactedAt time.Time      `json:"contacted_at" yaml:"contacted_at"`
	Notes       string         `json:"notes,omitempty" yaml:"notes"`
	FollowUpAt  *time.Time     `json:"follow_up_at,omitempty" yaml:"follow_up_at"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
}
