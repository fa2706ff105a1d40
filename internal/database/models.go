package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

const voterColumns = `id, campaign_id, name, stance, influence_score, political_party, city,
	district_id, village, neighborhood, contact_count, last_contact_at, created_at, updated_at, deleted_at`

func scanVoter(s scanner) (types.Voter, error) {
	var (
		v                      types.Voter
		stance                 string
		lastContact, deletedAt sql.NullTime
	)
	err := s.Scan(&v.ID, &v.CampaignID, &v.Name, &stance, &v.InfluenceScore, &v.PoliticalParty, &v.City,
		&v.DistrictID, &v.Village, &v.Neighborhood, &v.ContactCount, &lastContact, &v.CreatedAt, &v.UpdatedAt, &deletedAt)
	if err != nil {
		return v, err
	}
	v.Stance = types.Stance(stance)
	v.LastContactAt = nullTimePtr(lastContact)
	v.DeletedAt = nullTimePtr(deletedAt)
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}

const relationshipColumns = `id, campaign_id, source_voter_id, target_voter_id, relation_type, influence_weight, created_at`

func scanRelationship(s scanner) (types.VoterRelationship, error) {
	var (
		r       types.VoterRelationship
		relType string
	)
	err := s.Scan(&r.ID, &r.CampaignID, &r.SourceVoterID, &r.TargetVoterID, &relType, &r.InfluenceWeight, &r.CreatedAt)
	r.RelationType = types.RelationType(relType)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, err
}

const districtColumns = `id, campaign_id, name, level, parent_id, registered_voters, boundary`

func scanDistrict(s scanner) (types.District, error) {
	var (
		d     types.District
		level string
	)
	err := s.Scan(&d.ID, &d.CampaignID, &d.Name, &level, &d.ParentID, &d.RegisteredVoters, &d.Boundary)
	d.Level = types.DistrictLevel(level)
	return d, err
}

const contactColumns = `id, campaign_id, voter_id, type, outcome, contacted_at, notes, follow_up_at, created_at`

func scanContact(s scanner) (types.Contact, error) {
	var (
		c                    types.Contact
		contactType, outcome string
		followUp             sql.NullTime
	)
	err := s.Scan(&c.ID, &c.CampaignID, &c.VoterID, &contactType, &outcome, &c.ContactedAt, &c.Notes, &followUp, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.Type = types.ContactType(contactType)
	c.Outcome = types.ContactOutcome(outcome)
	c.FollowUpAt = nullTimePtr(followUp)
	c.ContactedAt = c.ContactedAt.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

func timeArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// newID assigns a uuid when the caller left ID empty
func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
