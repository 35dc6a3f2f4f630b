// internal/leads/store.go
package leads

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"program-matcher/internal/common/database"
	"program-matcher/internal/common/errors"
	"program-matcher/internal/models"

	"github.com/lib/pq"
)

// Store keeps a copy of every lead in Postgres next to an audit trail.
type Store struct {
	pg *database.PostgresClient
}

func NewStore(pg *database.PostgresClient) *Store {
	return &Store{pg: pg}
}

// Save inserts the lead and its "lead_created" audit entry in one
// transaction.
func (s *Store) Save(ctx context.Context, lead models.Lead) error {
	payload, err := json.Marshal(map[string]interface{}{
		"studyField":  lead.StudyField,
		"degreeLevel": lead.DegreeLevel,
		"countries":   lead.PreferredCountries,
		"matchScore":  lead.MatchScore,
	})
	if err != nil {
		payload = []byte("{}")
	}

	err = s.pg.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO leads (
				id, phone_number, study_field, degree_level, preferred_countries,
				budget, duration, highest_education, expected_score,
				matched_programs, match_score, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			lead.ID,
			lead.PhoneNumber,
			lead.StudyField,
			lead.DegreeLevel,
			pq.Array(lead.PreferredCountries),
			lead.Budget,
			lead.Duration,
			lead.HighestEducation,
			lead.ExpectedScore,
			pq.Array(lead.MatchedPrograms),
			lead.MatchScore,
			lead.Timestamp,
		); err != nil {
			return fmt.Errorf("insert lead: %w", err)
		}

		return insertAudit(ctx, tx, lead.ID, "lead_created", payload)
	})
	if err != nil {
		return errors.NewLeadStoreError(err)
	}
	return nil
}

// AttachCRMID records the CRM id once the lead has been synced.
func (s *Store) AttachCRMID(ctx context.Context, leadID, crmID string) error {
	err := s.pg.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE leads SET crm_lead_id = $1 WHERE id = $2`, crmID, leadID)
		if err != nil {
			return fmt.Errorf("update lead: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("lead %s not found", leadID)
		}

		payload, _ := json.Marshal(map[string]string{"crmLeadId": crmID})
		return insertAudit(ctx, tx, leadID, "lead_synced", payload)
	})
	if err != nil {
		return errors.NewLeadStoreError(err)
	}
	return nil
}

// RecentByPhone returns leads for phone, newest first.
func (s *Store) RecentByPhone(ctx context.Context, phone string, limit int) ([]models.Lead, error) {
	rows, err := s.pg.DB.QueryContext(ctx, `
		SELECT id, phone_number, study_field, degree_level, preferred_countries,
		       COALESCE(budget, ''), matched_programs, COALESCE(match_score, ''), created_at
		FROM leads
		WHERE phone_number = $1
		ORDER BY created_at DESC
		LIMIT $2`, phone, limit)
	if err != nil {
		return nil, errors.NewLeadStoreError(err)
	}
	defer rows.Close()

	var out []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(
			&l.ID, &l.PhoneNumber, &l.StudyField, &l.DegreeLevel,
			pq.Array(&l.PreferredCountries), &l.Budget,
			pq.Array(&l.MatchedPrograms), &l.MatchScore, &l.Timestamp,
		); err != nil {
			return nil, errors.NewLeadStoreError(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewLeadStoreError(err)
	}
	return out, nil
}

func insertAudit(ctx context.Context, tx *sql.Tx, leadID, action string, payload []byte) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (entity_type, entity_id, action, payload)
		VALUES ($1, $2, $3, $4)`,
		"lead", leadID, action, payload,
	); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
