package packets

import "time"

type UpdateOrganisationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type InviteUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=admin member"`
}

type CreateEventRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type ScheduleItemRequest struct {
	Time     string  `json:"time" binding:"required"`
	Type     string  `json:"type" binding:"required"`
	Title    string  `json:"title" binding:"required"`
	Speaker  *string `json:"speaker"`
	Location *string `json:"location"`
	Details  *string `json:"details"`
}

type CreateDayPlanRequest struct {
	Name          string                `json:"name" binding:"required"`
	Date          string                `json:"date" binding:"required"`
	ScheduleItems []ScheduleItemRequest `json:"schedule_items"`
}

type UpdateScheduleRequest struct {
	ScheduleItems []ScheduleItemRequest `json:"schedule_items" binding:"required"`
}

type CreateShareRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type UpdateShareRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	IsActive    *bool      `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ClearExpiry bool       `json:"clear_expiry"`
}
