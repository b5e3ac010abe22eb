package model

import "time"

// Display status values. A display starts PENDING and becomes PAIRED once an
// operator registers its pairing code against an organisation.
const (
	DisplayStatusPending = "PENDING"
	DisplayStatusPaired  = "PAIRED"
)

// Display represents one physical presentation device.
type Display struct {
	ID               string    `db:"id"                  json:"id"`
	PairingCode      string    `db:"pairing_code"        json:"pairing_code"`
	Status           string    `db:"status"              json:"status"`
	OrganisationID   *string   `db:"organisation_id"     json:"organisation_id"`
	CurrentDayPlanID *string   `db:"current_day_plan_id" json:"current_day_plan_id"`
	IsActive         bool      `db:"is_active"           json:"is_active"`
	Name             string    `db:"name"                json:"name"`
	CreatedAt        time.Time `db:"created_at"          json:"created_at"`
}
