package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

const sharedPlanColumns = `id, day_plan_id, share_token, title, description, is_active, expires_at, view_count, last_view_at, created_by, created_at`

func (s *pgStore) CreateSharedPlan(dayPlanID, shareToken, title string, description *string, expiresAt *time.Time, createdBy string) (model.SharedPlan, error) {
	var sp model.SharedPlan
	err := s.db.Get(&sp, `
		INSERT INTO shared_plans (id, day_plan_id, share_token, title, description, is_active, expires_at, view_count, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, true, $6, 0, $7, now())
		RETURNING `+sharedPlanColumns, uuid.NewString(), dayPlanID, shareToken, title, description, expiresAt, createdBy)
	return sp, err
}

func (s *pgStore) GetSharedPlanByID(id string) (*model.SharedPlan, error) {
	var sp model.SharedPlan
	err := s.db.Get(&sp, `
		SELECT `+sharedPlanColumns+`
		FROM shared_plans
		WHERE id = $1
		`, id)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *pgStore) GetSharedPlanByToken(token string) (*model.SharedPlan, error) {
	var sp model.SharedPlan
	err := s.db.Get(&sp, `
		SELECT `+sharedPlanColumns+`
		FROM shared_plans
		WHERE share_token = $1
		`, token)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *pgStore) ListDayPlanShares(dayPlanID string) ([]model.SharedPlan, error) {
	shares := []model.SharedPlan{}
	err := s.db.Select(&shares, `
		SELECT `+sharedPlanColumns+`
		FROM shared_plans
		WHERE day_plan_id = $1 AND is_active = true
		ORDER BY created_at DESC
		`, dayPlanID)
	return shares, err
}

func (s *pgStore) ListOrganisationShares(organisationID string) ([]model.SharedPlan, error) {
	shares := []model.SharedPlan{}
	err := s.db.Select(&shares, `
		SELECT sp.id, sp.day_plan_id, sp.share_token, sp.title, sp.description, sp.is_active,
		       sp.expires_at, sp.view_count, sp.last_view_at, sp.created_by, sp.created_at
		FROM shared_plans sp
		JOIN day_plans dp ON dp.id = sp.day_plan_id
		JOIN events e ON e.id = dp.event_id
		WHERE e.organisation_id = $1
		ORDER BY sp.created_at DESC
		`, organisationID)
	return shares, err
}

func (s *pgStore) UpdateSharedPlan(id string, title, description *string, isActive *bool, expiresAt *time.Time, clearExpiry bool) (model.SharedPlan, error) {
	var sp model.SharedPlan
	err := s.db.Get(&sp, `
		UPDATE shared_plans
		SET title = COALESCE($2, title),
		description = COALESCE($3, description),
		is_active = COALESCE($4, is_active),
		expires_at = CASE WHEN $6 THEN NULL ELSE COALESCE($5, expires_at) END
		WHERE id = $1
		RETURNING `+sharedPlanColumns, id, title, description, isActive, expiresAt, clearExpiry)
	return sp, err
}

func (s *pgStore) RecordSharedPlanView(id string) error {
	_, err := s.db.Exec(`
		UPDATE shared_plans
		SET view_count = view_count + 1,
		last_view_at = now()
		WHERE id = $1
		`, id)
	return err
}

func (s *pgStore) DeleteSharedPlan(id string) error {
	_, err := s.db.Exec(`DELETE FROM shared_plans WHERE id = $1`, id)
	return err
}
