package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stanley00316/election-system-demo-sub004/internal/analysis"
	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

var (
	// ErrNotFound is returned for missing contacts and districts. Missing
	// voters surface as *analysis.VoterNotFoundError.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidHierarchy rejects a district that cannot nest under its parent
	ErrInvalidHierarchy = errors.New("invalid district hierarchy")
)

// Repository handles database operations. It satisfies analysis.DataSource
// and analysis.InfluenceWriter.
type Repository struct {
	db  *DB
	now func() time.Time
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

var (
	_ analysis.DataSource      = (*Repository)(nil)
	_ analysis.InfluenceWriter = (*Repository)(nil)
)

func (r *Repository) q(query string) string {
	return r.db.Rebind(query)
}

func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// bumpVersion must run inside the write's transaction so readers never see
// new rows under an old version.
func (r *Repository) bumpVersion(ctx context.Context, tx *sql.Tx, campaignID string) error {
	_, err := tx.ExecContext(ctx, r.q(`
		INSERT INTO campaign_versions (campaign_id, version) VALUES (?, 1)
		ON CONFLICT (campaign_id) DO UPDATE SET version = campaign_versions.version + 1
	`), campaignID)
	if err != nil {
		return fmt.Errorf("failed to bump data version: %w", err)
	}
	return nil
}

// DataVersion returns the campaign's write counter; 0 before the first write
func (r *Repository) DataVersion(ctx context.Context, campaignID string) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx, r.q(`SELECT version FROM campaign_versions WHERE campaign_id = ?`), campaignID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read data version: %w", err)
	}
	return version, nil
}

// BumpVersion invalidates cached reports for writes made outside the
// repository, such as settings changes.
func (r *Repository) BumpVersion(ctx context.Context, campaignID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return r.bumpVersion(ctx, tx, campaignID)
	})
}

// CreateVoter inserts a voter and returns the stored record
func (r *Repository) CreateVoter(ctx context.Context, v types.Voter) (types.Voter, error) {
	now := r.now().UTC()
	v.ID = newID(v.ID)
	v.CreatedAt = now
	v.UpdatedAt = now
	v.ContactCount = 0
	v.LastContactAt = nil
	v.DeletedAt = nil

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, r.q(`
			INSERT INTO voters (`+voterColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`), v.ID, v.CampaignID, v.Name, string(v.Stance), v.InfluenceScore, v.PoliticalParty, v.City,
			v.DistrictID, v.Village, v.Neighborhood, v.ContactCount, nil, v.CreatedAt, v.UpdatedAt, nil)
		if err != nil {
			return fmt.Errorf("failed to create voter: %w", err)
		}
		return r.bumpVersion(ctx, tx, v.CampaignID)
	})
	if err != nil {
		return types.Voter{}, err
	}
	return v, nil
}

// GetVoter returns an active voter
func (r *Repository) GetVoter(ctx context.Context, campaignID, voterID string) (types.Voter, error) {
	row := r.db.QueryRowContext(ctx, r.q(`
		SELECT `+voterColumns+` FROM voters
		WHERE campaign_id = ? AND id = ? AND deleted_at IS NULL
	`), campaignID, voterID)
	v, err := scanVoter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Voter{}, &analysis.VoterNotFoundError{VoterID: voterID}
	}
	if err != nil {
		return types.Voter{}, fmt.Errorf("failed to get voter: %w", err)
	}
	return v, nil
}

// ListVoters returns the campaign's active voters ordered by id
func (r *Repository) ListVoters(ctx context.Context, campaignID string) ([]types.Voter, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT `+voterColumns+` FROM voters
		WHERE campaign_id = ? AND deleted_at IS NULL
		ORDER BY id
	`), campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list voters: %w", err)
	}
	defer rows.Close()

	voters := []types.Voter{}
	for rows.Next() {
		v, err := scanVoter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voter: %w", err)
		}
		voters = append(voters, v)
	}
	return voters, rows.Err()
}

// SoftDeleteVoter hides a voter from analysis. Edges that touch it become
// dangling and are reported as graph warnings.
func (r *Repository) SoftDeleteVoter(ctx context.Context, campaignID, voterID string) error {
	now := r.now().UTC()
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.q(`
			UPDATE voters SET deleted_at = ?, updated_at = ?
			WHERE campaign_id = ? AND id = ? AND deleted_at IS NULL
		`), now, now, campaignID, voterID)
		if err != nil {
			return fmt.Errorf("failed to delete voter: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &analysis.VoterNotFoundError{VoterID: voterID}
		}
		return r.bumpVersion(ctx, tx, campaignID)
	})
}

// UpdateInfluenceScores persists recomputed scores in one transaction
func (r *Repository) UpdateInfluenceScores(ctx context.Context, campaignID string, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}
	now := r.now().UTC()
	return r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, r.q(`
			UPDATE voters SET influence_score = ?, updated_at = ?
			WHERE campaign_id = ? AND id = ?
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare influence update: %w", err)
		}
		defer stmt.Close()

		for voterID, score := range scores {
			if _, err := stmt.ExecContext(ctx, score, now, campaignID, voterID); err != nil {
				return fmt.Errorf("failed to update influence for %s: %w", voterID, err)
			}
		}
		return r.bumpVersion(ctx, tx, campaignID)
	})
}

func (r *Repository) activeVoterExists(ctx context.Context, tx *sql.Tx, campaignID, voterID string) error {
	var one int
	err := tx.QueryRowContext(ctx, r.q(`
		SELECT 1 FROM voters WHERE campaign_id = ? AND id = ? AND deleted_at IS NULL
	`), campaignID, voterID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return &analysis.VoterNotFoundError{VoterID: voterID}
	}
	if err != nil {
		return fmt.Errorf("failed to look up voter: %w", err)
	}
	return nil
}

// CreateRelationship stores a directed edge between two active voters
func (r *Repository) CreateRelationship(ctx context.Context, rel types.VoterRelationship) (types.VoterRelationship, error) {
	rel.ID = newID(rel.ID)
	rel.CreatedAt = r.now().UTC()

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range []string{rel.SourceVoterID, rel.TargetVoterID} {
			if err := r.activeVoterExists(ctx, tx, rel.CampaignID, id); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, r.q(`
			INSERT INTO voter_relationships (`+relationshipColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`), rel.ID, rel.CampaignID, rel.SourceVoterID, rel.TargetVoterID, string(rel.RelationType), rel.InfluenceWeight, rel.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create relationship: %w", err)
		}
		return r.bumpVersion(ctx, tx, rel.CampaignID)
	})
	if err != nil {
		return types.VoterRelationship{}, err
	}
	return rel, nil
}

// ListRelationships returns every stored edge in insertion order, including
// edges whose endpoints were later deleted.
func (r *Repository) ListRelationships(ctx context.Context, campaignID string) ([]types.VoterRelationship, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT `+relationshipColumns+` FROM voter_relationships
		WHERE campaign_id = ?
		ORDER BY created_at, id
	`), campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	rels := []types.VoterRelationship{}
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// CreateContact records an outreach attempt and updates the voter's contact
// count and last contact time.
func (r *Repository) CreateContact(ctx context.Context, c types.Contact) (types.Contact, error) {
	c.ID = newID(c.ID)
	c.CreatedAt = r.now().UTC()
	c.ContactedAt = c.ContactedAt.UTC()

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.activeVoterExists(ctx, tx, c.CampaignID, c.VoterID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, r.q(`
			INSERT INTO contacts (`+contactColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`), c.ID, c.CampaignID, c.VoterID, string(c.Type), string(c.Outcome), c.ContactedAt, c.Notes, timeArg(c.FollowUpAt), c.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}

		_, err = tx.ExecContext(ctx, r.q(`
			UPDATE voters SET
				contact_count = contact_count + 1,
				last_contact_at = CASE
					WHEN last_contact_at IS NULL OR last_contact_at < ? THEN ?
					ELSE last_contact_at
				END,
				updated_at = ?
			WHERE campaign_id = ? AND id = ?
		`), c.ContactedAt, c.ContactedAt, c.CreatedAt, c.CampaignID, c.VoterID)
		if err != nil {
			return fmt.Errorf("failed to update voter contact stats: %w", err)
		}
		return r.bumpVersion(ctx, tx, c.CampaignID)
	})
	if err != nil {
		return types.Contact{}, err
	}
	return c, nil
}

// UpdateContactNotes changes the mutable fields of a contact. Nil arguments
// leave the stored value unchanged.
func (r *Repository) UpdateContactNotes(ctx context.Context, campaignID, contactID string, notes *string, followUpAt *time.Time) (types.Contact, error) {
	var updated types.Contact
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, r.q(`
			SELECT `+contactColumns+` FROM contacts WHERE campaign_id = ? AND id = ?
		`), campaignID, contactID)
		current, err := scanContact(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("contact %s: %w", contactID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load contact: %w", err)
		}

		if notes != nil {
			current.Notes = *notes
		}
		if followUpAt != nil {
			utc := followUpAt.UTC()
			current.FollowUpAt = &utc
		}

		_, err = tx.ExecContext(ctx, r.q(`
			UPDATE contacts SET notes = ?, follow_up_at = ? WHERE campaign_id = ? AND id = ?
		`), current.Notes, timeArg(current.FollowUpAt), campaignID, contactID)
		if err != nil {
			return fmt.Errorf("failed to update contact: %w", err)
		}
		updated = current
		return r.bumpVersion(ctx, tx, campaignID)
	})
	return updated, err
}

// ListContacts returns contacts with from <= contacted_at <= to. A zero bound
// leaves that side open.
func (r *Repository) ListContacts(ctx context.Context, campaignID string, from, to time.Time) ([]types.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE campaign_id = ?`
	args := []interface{}{campaignID}
	if !from.IsZero() {
		query += ` AND contacted_at >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND contacted_at <= ?`
		args = append(args, to.UTC())
	}
	query += ` ORDER BY contacted_at, id`

	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []types.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// CreateDistrict stores a district after checking it nests under its parent
func (r *Repository) CreateDistrict(ctx context.Context, d types.District) (types.District, error) {
	d.ID = newID(d.ID)

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var parent *types.District
		if d.ParentID != "" {
			row := tx.QueryRowContext(ctx, r.q(`
				SELECT `+districtColumns+` FROM districts WHERE campaign_id = ? AND id = ?
			`), d.CampaignID, d.ParentID)
			p, err := scanDistrict(row)
			switch {
			case errors.Is(err, sql.ErrNoRows):
			case err != nil:
				return fmt.Errorf("failed to load parent district: %w", err)
			default:
				parent = &p
			}
		}
		if err := types.ValidateDistrictParent(d, parent); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidHierarchy, err)
		}

		_, err := tx.ExecContext(ctx, r.q(`
			INSERT INTO districts (`+districtColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`), d.ID, d.CampaignID, d.Name, string(d.Level), d.ParentID, d.RegisteredVoters, d.Boundary)
		if err != nil {
			return fmt.Errorf("failed to create district: %w", err)
		}
		return r.bumpVersion(ctx, tx, d.CampaignID)
	})
	if err != nil {
		return types.District{}, err
	}
	return d, nil
}

// GetDistrict returns one district
func (r *Repository) GetDistrict(ctx context.Context, campaignID, districtID string) (types.District, error) {
	row := r.db.QueryRowContext(ctx, r.q(`
		SELECT `+districtColumns+` FROM districts WHERE campaign_id = ? AND id = ?
	`), campaignID, districtID)
	d, err := scanDistrict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.District{}, fmt.Errorf("district %s: %w", districtID, ErrNotFound)
	}
	if err != nil {
		return types.District{}, fmt.Errorf("failed to get district: %w", err)
	}
	return d, nil
}

// ListDistricts returns the campaign's districts ordered by id
func (r *Repository) ListDistricts(ctx context.Context, campaignID string) ([]types.District, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT `+districtColumns+` FROM districts WHERE campaign_id = ? ORDER BY id
	`), campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	defer rows.Close()

	districts := []types.District{}
	for rows.Next() {
		d, err := scanDistrict(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan district: %w", err)
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}
