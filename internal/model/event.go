package model

import "time"

type Event struct {
	ID             string    `db:"id"              json:"id"`
	OrganisationID string    `db:"organisation_id" json:"organisation_id"`
	Name           string    `db:"name"            json:"name"`
	Description    *string   `db:"description"     json:"description"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"      json:"updated_at"`
}
