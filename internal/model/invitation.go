package model

import "time"

type Invitation struct {
	ID             string    `db:"id"              json:"id"`
	OrganisationID string    `db:"organisation_id" json:"organisation_id"`
	Email          string    `db:"email"           json:"email"`
	Role           string    `db:"role"            json:"role"`
	Token          string    `db:"token"           json:"-"`
	InvitedBy      string    `db:"invited_by"      json:"invited_by"`
	ExpiresAt      time.Time `db:"expires_at"      json:"expires_at"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}
