package packets

type SignupRequest struct {
	OrgName       string  `json:"org_name" binding:"required"`
	Description   *string `json:"description"`
	AdminUsername string  `json:"admin_username" binding:"required"`
	AdminEmail    *string `json:"admin_email"`
	Password      string  `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	OrganisationID  string `json:"organisation_id" binding:"required"`
	UsernameOrEmail string `json:"username_or_email" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	OrganisationID string `json:"organisation_id" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

type AcceptInvitationRequest struct {
	Token    string `json:"token" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}
