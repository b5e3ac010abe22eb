package packets

type RegisterDisplayRequest struct {
	PairingCode    string  `json:"pairingCode" binding:"required"`
	OrganisationID string  `json:"organisationId" binding:"required"`
	DeviceName     *string `json:"deviceName"`
}

type AssignDayPlanRequest struct {
	DayPlanID string `json:"dayPlanId" binding:"required"`
}
