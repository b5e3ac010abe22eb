package packets

// RESPONSES FOR /api/displays/pairing/*
//
// The device protocol uses camelCase keys; unattended displays in the field
// depend on this shape.

import (
	"time"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

type PairingInitResponse struct {
	Success  bool   `json:"success"`
	Code     string `json:"code"`
	DeviceID string `json:"deviceId"`
}

// DisplayResponse mirrors model.Display but flattens times to RFC3339.
type DisplayResponse struct {
	ID               string  `json:"id"`
	PairingCode      string  `json:"pairingCode"`
	Status           string  `json:"status"`
	OrganisationID   *string `json:"organisationId"`
	CurrentDayPlanID *string `json:"currentDayPlanId"`
	IsActive         bool    `json:"isActive"`
	Name             string  `json:"name"`
	CreatedAt        string  `json:"createdAt"`
}

func NewDisplayResponse(d model.Display) DisplayResponse {
	return DisplayResponse{
		ID:               d.ID,
		PairingCode:      d.PairingCode,
		Status:           d.Status,
		OrganisationID:   d.OrganisationID,
		CurrentDayPlanID: d.CurrentDayPlanID,
		IsActive:         d.IsActive,
		Name:             d.Name,
		CreatedAt:        d.CreatedAt.Format(time.RFC3339),
	}
}
