package db

import (
	"github.com/google/uuid"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

func (s *pgStore) CreateEvent(organisationID, name string, description *string) (model.Event, error) {
	var e model.Event
	err := s.db.Get(&e, `
		INSERT INTO events (id, organisation_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, organisation_id, name, description, created_at, updated_at
		`, uuid.NewString(), organisationID, name, description)
	return e, err
}

func (s *pgStore) GetEventByID(id string) (*model.Event, error) {
	var e model.Event
	err := s.db.Get(&e, `
		SELECT id, organisation_id, name, description, created_at, updated_at
		FROM events
		WHERE id = $1
		`, id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *pgStore) ListEvents(organisationID string) ([]model.Event, error) {
	events := []model.Event{}
	err := s.db.Select(&events, `
		SELECT id, organisation_id, name, description, created_at, updated_at
		FROM events
		WHERE organisation_id = $1
		ORDER BY created_at DESC
		`, organisationID)
	return events, err
}

func (s *pgStore) DeleteEvent(id string) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE id = $1`, id)
	return err
}
