package model

import "time"

// User roles within an organisation.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID             string    `db:"id"              json:"id"`
	OrganisationID string    `db:"organisation_id" json:"organisation_id"`
	Username       string    `db:"username"        json:"username"`
	Email          *string   `db:"email"           json:"email"`
	PasswordHash   string    `db:"password_hash"   json:"-"`
	Role           string    `db:"role"            json:"role"`
	EmailVerified  bool      `db:"email_verified"  json:"email_verified"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}
