package db

import (
	"github.com/google/uuid"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

const userColumns = `id, organisation_id, username, email, password_hash, role, email_verified, created_at`

func (s *pgStore) CreateUser(organisationID, username string, email *string, passwordHash, role string) (model.User, error) {
	var u model.User
	err := s.db.Get(&u, `
		INSERT INTO users (id, organisation_id, username, email, password_hash, role, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, now())
		RETURNING `+userColumns, uuid.NewString(), organisationID, username, email, passwordHash, role)
	return u, err
}

func (s *pgStore) GetUserByID(id string) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
		`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByLogin resolves a login identifier that may be either the username
// or the email, scoped to one organisation.
func (s *pgStore) GetUserByLogin(organisationID, usernameOrEmail string) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `
		SELECT `+userColumns+`
		FROM users
		WHERE organisation_id = $1 AND (username = $2 OR email = $2)
		`, organisationID, usernameOrEmail)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *pgStore) ListOrganisationUsers(organisationID string) ([]model.User, error) {
	users := []model.User{}
	err := s.db.Select(&users, `
		SELECT `+userColumns+`
		FROM users
		WHERE organisation_id = $1
		ORDER BY created_at
		`, organisationID)
	return users, err
}

func (s *pgStore) UpdateUserPassword(id, passwordHash string) error {
	_, err := s.db.Exec(`
		UPDATE users
		SET password_hash = $2
		WHERE id = $1
		`, id, passwordHash)
	return err
}

func (s *pgStore) MarkEmailVerified(id string) error {
	_, err := s.db.Exec(`
		UPDATE users
		SET email_verified = true
		WHERE id = $1
		`, id)
	return err
}

func (s *pgStore) DeleteUser(id string) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	return err
}
