package db

import (
	"github.com/google/uuid"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

const displayColumns = `id, pairing_code, status, organisation_id, current_day_plan_id, is_active, name, created_at`

func (s *pgStore) CreateDisplay(pairingCode, name string) (model.Display, error) {
	var d model.Display
	err := s.db.Get(&d, `
		INSERT INTO displays (id, pairing_code, status, is_active, name, created_at)
		VALUES ($1, $2, $3, false, $4, now())
		RETURNING `+displayColumns, uuid.NewString(), pairingCode, model.DisplayStatusPending, name)
	return d, err
}

func (s *pgStore) GetDisplayByID(id string) (*model.Display, error) {
	var d model.Display
	err := s.db.Get(&d, `
		SELECT `+displayColumns+`
		FROM displays
		WHERE id = $1
		`, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *pgStore) GetDisplayByPairingCode(code string) (*model.Display, error) {
	var d model.Display
	err := s.db.Get(&d, `
		SELECT `+displayColumns+`
		FROM displays
		WHERE pairing_code = $1
		`, code)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *pgStore) ListOrganisationDisplays(organisationID string) ([]model.Display, error) {
	displays := []model.Display{}
	err := s.db.Select(&displays, `
		SELECT `+displayColumns+`
		FROM displays
		WHERE organisation_id = $1
		ORDER BY created_at DESC
		`, organisationID)
	return displays, err
}

func (s *pgStore) ListDisplaysWithOrganisation() ([]model.Display, error) {
	displays := []model.Display{}
	err := s.db.Select(&displays, `
		SELECT `+displayColumns+`
		FROM displays
		WHERE organisation_id IS NOT NULL
		ORDER BY created_at
		`)
	return displays, err
}

func (s *pgStore) PairDisplay(id, organisationID, name string) (model.Display, error) {
	var d model.Display
	err := s.db.Get(&d, `
		UPDATE displays
		SET status = $2,
		organisation_id = $3,
		name = $4
		WHERE id = $1
		RETURNING `+displayColumns, id, model.DisplayStatusPaired, organisationID, name)
	return d, err
}

// ResetDisplayPairing puts a display back into the unpaired state, clearing the
// organisation, any assigned day plan and the active flag in one statement.
func (s *pgStore) ResetDisplayPairing(id string) (model.Display, error) {
	var d model.Display
	err := s.db.Get(&d, `
		UPDATE displays
		SET status = $2,
		organisation_id = NULL,
		current_day_plan_id = NULL,
		is_active = false
		WHERE id = $1
		RETURNING `+displayColumns, id, model.DisplayStatusPending)
	return d, err
}

func (s *pgStore) SetDisplayDayPlan(id string, dayPlanID *string) (model.Display, error) {
	var d model.Display
	err := s.db.Get(&d, `
		UPDATE displays
		SET current_day_plan_id = $2
		WHERE id = $1
		RETURNING `+displayColumns, id, dayPlanID)
	return d, err
}

func (s *pgStore) DeleteDisplay(id string) error {
	_, err := s.db.Exec(`DELETE FROM displays WHERE id = $1`, id)
	return err
}
