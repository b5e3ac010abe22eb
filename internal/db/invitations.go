package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

const invitationColumns = `id, organisation_id, email, role, token, invited_by, expires_at, created_at`

func (s *pgStore) CreateInvitation(organisationID, email, role, token, invitedBy string, expiresAt time.Time) (model.Invitation, error) {
	var inv model.Invitation
	err := s.db.Get(&inv, `
		INSERT INTO invitations (id, organisation_id, email, role, token, invited_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING `+invitationColumns, uuid.NewString(), organisationID, email, role, token, invitedBy, expiresAt)
	return inv, err
}

func (s *pgStore) GetInvitationByToken(token string) (*model.Invitation, error) {
	var inv model.Invitation
	err := s.db.Get(&inv, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE token = $1
		`, token)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *pgStore) ListInvitations(organisationID string) ([]model.Invitation, error) {
	invitations := []model.Invitation{}
	err := s.db.Select(&invitations, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE organisation_id = $1
		ORDER BY created_at DESC
		`, organisationID)
	return invitations, err
}

func (s *pgStore) DeleteInvitation(id string) error {
	_, err := s.db.Exec(`DELETE FROM invitations WHERE id = $1`, id)
	return err
}

func (s *pgStore) DeleteInvitationByEmail(organisationID, email string) error {
	_, err := s.db.Exec(`
		DELETE FROM invitations
		WHERE organisation_id = $1 AND email = $2
		`, organisationID, email)
	return err
}
