package endpoints

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lu2a-dev/dayplaner/internal/db"
	"github.com/lu2a-dev/dayplaner/internal/http/api"
	"github.com/lu2a-dev/dayplaner/internal/http/api/admin/auth/packets"
	"github.com/lu2a-dev/dayplaner/internal/http/middleware"
	"github.com/lu2a-dev/dayplaner/internal/mail"
	"github.com/lu2a-dev/dayplaner/internal/model"
	"github.com/lu2a-dev/dayplaner/internal/redis"
)

// AuthPublicModule mounts the unauthenticated account endpoints.
func AuthPublicModule(jwtSecret string, store db.Store, mailer *mail.Mailer, frontendURL string) api.Module {
	ctl := newAccountManager(jwtSecret, store, mailer, frontendURL)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/signup", ctl.signup)
		c.PUBLIC_POST("/auth/login", ctl.login)
		c.PUBLIC_POST("/auth/forgot_password", ctl.forgotPassword)
		c.PUBLIC_POST("/auth/reset_password", ctl.resetPassword)
		c.PUBLIC_POST("/auth/verify_email", ctl.verifyEmail)
		c.PUBLIC_POST("/auth/accept_invitation", ctl.acceptInvitation)
	})
}

// AuthSessionModule mounts the endpoints that need a logged-in user.
func AuthSessionModule(jwtSecret string, store db.Store, mailer *mail.Mailer, frontendURL string) api.Module {
	ctl := newAccountManager(jwtSecret, store, mailer, frontendURL)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/auth/me", ctl.me)
		c.POST("/auth/send_verification", ctl.sendVerification)
	})
}

type AccountManager struct {
	jwtSecret   string
	store       db.Store
	mailer      *mail.Mailer
	frontendURL string
}

func newAccountManager(secret string, store db.Store, mailer *mail.Mailer, frontendURL string) *AccountManager {
	return &AccountManager{jwtSecret: secret, store: store, mailer: mailer, frontendURL: frontendURL}
}

func randomToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// POST /api/auth/signup — creates an organisation together with its first
// admin user.
func (a *AccountManager) signup(ctx *gin.Context) (any, *api.APIError) {
	var request packets.SignupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	hashed, err := middleware.HashPassword(request.Password)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not hash password"}
	}

	org, err := a.store.CreateOrganisation(request.OrgName, request.Description)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create organisation"}
	}

	user, err := a.store.CreateUser(org.ID, request.AdminUsername, request.AdminEmail, hashed, model.RoleAdmin)
	if err != nil {
		// the organisation row is useless without its admin
		if delErr := a.store.DeleteOrganisation(org.ID); delErr != nil {
			log.Error().Err(delErr).Str("organisation_id", org.ID).Msg("failed to roll back organisation after signup error")
		}
		return nil, &api.APIError{Code: http.StatusConflict, Message: "username or email already in use"}
	}

	token, err := middleware.GenerateJWT(user.ID, a.jwtSecret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not generate token"}
	}

	log.Info().Str("organisation_id", org.ID).Str("user_id", user.ID).Msg("organisation signed up")
	return packets.SessionResponse{Token: token, User: packets.NewUserResponse(user), Organisation: org}, nil
}

// POST /api/auth/login — per-organisation login by username or email.
func (a *AccountManager) login(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	org, err := a.store.GetOrganisationByID(request.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "organisation not found"}
	}

	user, err := a.store.GetUserByLogin(request.OrganisationID, request.UsernameOrEmail)
	if err != nil || !middleware.CheckPassword(user.PasswordHash, request.Password) {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	token, err := middleware.GenerateJWT(user.ID, a.jwtSecret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not generate token"}
	}

	return packets.SessionResponse{Token: token, User: packets.NewUserResponse(*user), Organisation: *org}, nil
}

// GET /api/auth/me
func (a *AccountManager) me(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	org, err := a.store.GetOrganisationByID(user.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load organisation"}
	}

	return gin.H{
		"user":         packets.NewUserResponse(*user),
		"organisation": org,
	}, nil
}

// POST /api/auth/forgot_password — always answers success so the endpoint
// cannot be used to probe which emails exist.
func (a *AccountManager) forgotPassword(ctx *gin.Context) (any, *api.APIError) {
	var request packets.ForgotPasswordRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	response := gin.H{"success": true, "message": "If the address is known, a reset email has been sent"}

	user, err := a.store.GetUserByLogin(request.OrganisationID, request.Email)
	if err != nil || user.Email == nil {
		return response, nil
	}

	token := randomToken()
	if err := redis.SetToken(ctx, redis.TokenPasswordReset, token, user.ID, time.Hour); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create reset token"}
	}

	a.mailer.SendPasswordReset(*user.Email, user.Username, a.frontendURL+"/reset-password?token="+token)
	return response, nil
}

// POST /api/auth/reset_password
func (a *AccountManager) resetPassword(ctx *gin.Context) (any, *api.APIError) {
	var request packets.ResetPasswordRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	userID, err := redis.GetToken(ctx, redis.TokenPasswordReset, request.Token)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not verify reset token"}
	}
	if userID == "" {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid or expired token"}
	}

	hashed, err := middleware.HashPassword(request.NewPassword)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not hash password"}
	}

	if err := a.store.UpdateUserPassword(userID, hashed); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update password"}
	}
	if err := redis.DeleteToken(ctx, redis.TokenPasswordReset, request.Token); err != nil {
		log.Warn().Err(err).Msg("failed to consume password reset token")
	}

	return gin.H{"success": true}, nil
}

// POST /api/auth/send_verification
func (a *AccountManager) sendVerification(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if user.Email == nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "no email address on file"}
	}
	if user.EmailVerified {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "email already verified"}
	}

	token := randomToken()
	if err := redis.SetToken(ctx, redis.TokenVerifyEmail, token, user.ID, 24*time.Hour); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create verification token"}
	}

	if !a.mailer.SendVerification(*user.Email, user.Username, a.frontendURL+"/verify-email?token="+token) {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to send verification email"}
	}
	return gin.H{"success": true}, nil
}

// POST /api/auth/verify_email
func (a *AccountManager) verifyEmail(ctx *gin.Context) (any, *api.APIError) {
	var request packets.VerifyEmailRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	userID, err := redis.GetToken(ctx, redis.TokenVerifyEmail, request.Token)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not verify token"}
	}
	if userID == "" {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid or expired token"}
	}

	if err := a.store.MarkEmailVerified(userID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not verify email"}
	}
	if err := redis.DeleteToken(ctx, redis.TokenVerifyEmail, request.Token); err != nil {
		log.Warn().Err(err).Msg("failed to consume verification token")
	}

	return gin.H{"success": true}, nil
}

// POST /api/auth/accept_invitation — turns a pending invitation into a member
// account and logs it in.
func (a *AccountManager) acceptInvitation(ctx *gin.Context) (any, *api.APIError) {
	var request packets.AcceptInvitationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	invitation, err := a.store.GetInvitationByToken(request.Token)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "invitation not found"}
	}
	if time.Now().After(invitation.ExpiresAt) {
		if delErr := a.store.DeleteInvitation(invitation.ID); delErr != nil {
			log.Warn().Err(delErr).Str("invitation_id", invitation.ID).Msg("failed to delete expired invitation")
		}
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invitation has expired"}
	}

	hashed, err := middleware.HashPassword(request.Password)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not hash password"}
	}

	email := invitation.Email
	user, err := a.store.CreateUser(invitation.OrganisationID, request.Username, &email, hashed, invitation.Role)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "username already in use"}
	}

	// the invite proved ownership of the address
	if err := a.store.MarkEmailVerified(user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to mark invited email verified")
	} else {
		user.EmailVerified = true
	}

	if err := a.store.DeleteInvitation(invitation.ID); err != nil {
		log.Warn().Err(err).Str("invitation_id", invitation.ID).Msg("failed to delete accepted invitation")
	}

	org, err := a.store.GetOrganisationByID(invitation.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load organisation"}
	}

	token, err := middleware.GenerateJWT(user.ID, a.jwtSecret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not generate token"}
	}

	log.Info().Str("user_id", user.ID).Str("organisation_id", org.ID).Msg("invitation accepted")
	return packets.SessionResponse{Token: token, User: packets.NewUserResponse(user), Organisation: *org}, nil
}
