package db

import (
	"github.com/google/uuid"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

const organisationColumns = `id, name, description, logo_url, created_at, updated_at`

func (s *pgStore) CreateOrganisation(name string, description *string) (model.Organisation, error) {
	var o model.Organisation
	err := s.db.Get(&o, `
		INSERT INTO organisations (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING `+organisationColumns, uuid.NewString(), name, description)
	return o, err
}

func (s *pgStore) GetOrganisationByID(id string) (*model.Organisation, error) {
	var o model.Organisation
	err := s.db.Get(&o, `
		SELECT `+organisationColumns+`
		FROM organisations
		WHERE id = $1
		`, id)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *pgStore) ListOrganisations() ([]model.Organisation, error) {
	orgs := []model.Organisation{}
	err := s.db.Select(&orgs, `
		SELECT `+organisationColumns+`
		FROM organisations
		ORDER BY name
		`)
	return orgs, err
}

func (s *pgStore) UpdateOrganisation(id string, name, description, logoURL *string) (model.Organisation, error) {
	var o model.Organisation
	err := s.db.Get(&o, `
		UPDATE organisations
		SET name = COALESCE($2, name),
		description = COALESCE($3, description),
		logo_url = COALESCE($4, logo_url),
		updated_at = now()
		WHERE id = $1
		RETURNING `+organisationColumns, id, name, description, logoURL)
	return o, err
}

func (s *pgStore) DeleteOrganisation(id string) error {
	_, err := s.db.Exec(`DELETE FROM organisations WHERE id = $1`, id)
	return err
}
