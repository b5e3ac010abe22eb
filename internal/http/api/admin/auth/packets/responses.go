package packets

import (
	"time"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

type UserResponse struct {
	ID             string  `json:"id"`
	OrganisationID string  `json:"organisation_id"`
	Username       string  `json:"username"`
	Email          *string `json:"email"`
	Role           string  `json:"role"`
	EmailVerified  bool    `json:"email_verified"`
	CreatedAt      string  `json:"created_at"`
}

func NewUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		OrganisationID: u.OrganisationID,
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		EmailVerified:  u.EmailVerified,
		CreatedAt:      u.CreatedAt.Format(time.RFC3339),
	}
}

type SessionResponse struct {
	Token        string             `json:"token"`
	User         UserResponse       `json:"user"`
	Organisation model.Organisation `json:"organisation"`
}
