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
	"github.com/lu2a-dev/dayplaner/internal/http/api/admin/control/packets"
	"github.com/lu2a-dev/dayplaner/internal/mail"
	"github.com/lu2a-dev/dayplaner/internal/model"
	"github.com/lu2a-dev/dayplaner/internal/storage"
)

const invitationTTL = 7 * 24 * time.Hour

// OrganisationModule mounts organisation settings and membership management.
func OrganisationModule(store db.Store, mailer *mail.Mailer, files storage.Storage, frontendURL string) api.Module {
	ctl := &OrganisationController{store: store, mailer: mailer, files: files, frontendURL: frontendURL}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/organisation", ctl.get)
		c.PUT("/organisation", ctl.update)
		c.POST("/organisation/logo", ctl.uploadLogo)
		c.GET("/organisation/users", ctl.listUsers)
		c.DELETE("/organisation/users/:id", ctl.removeUser)
		c.GET("/organisation/invitations", ctl.listInvitations)
		c.POST("/organisation/invitations", ctl.invite)
		c.DELETE("/organisation/invitations/:id", ctl.revokeInvitation)
	})
}

type OrganisationController struct {
	store       db.Store
	mailer      *mail.Mailer
	files       storage.Storage
	frontendURL string
}

// requireAdmin gates the endpoints that change organisation state.
func requireAdmin(user *model.User) *api.APIError {
	if user.Role != model.RoleAdmin {
		return &api.APIError{Code: http.StatusForbidden, Message: "admin role required"}
	}
	return nil
}

func (o *OrganisationController) get(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	org, err := o.store.GetOrganisationByID(user.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load organisation"}
	}
	return org, nil
}

func (o *OrganisationController) update(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := requireAdmin(user); apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateOrganisationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	org, err := o.store.UpdateOrganisation(user.OrganisationID, request.Name, request.Description, nil)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update organisation"}
	}
	return org, nil
}

// POST /api/organisation/logo — multipart upload, stored via the configured
// storage backend.
func (o *OrganisationController) uploadLogo(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := requireAdmin(user); apiErr != nil {
		return nil, apiErr
	}

	fileHeader, err := ctx.FormFile("logo")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "logo file is required"}
	}

	url, err := o.files.SaveFile(fileHeader, user.OrganisationID+"-logo-"+fileHeader.Filename)
	if err != nil {
		log.Error().Err(err).Str("organisation_id", user.OrganisationID).Msg("logo upload failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store logo"}
	}

	org, err := o.store.UpdateOrganisation(user.OrganisationID, nil, nil, &url)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update organisation"}
	}
	return org, nil
}

func (o *OrganisationController) listUsers(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	users, err := o.store.ListOrganisationUsers(user.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list users"}
	}
	return users, nil
}

func (o *OrganisationController) removeUser(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := requireAdmin(user); apiErr != nil {
		return nil, apiErr
	}

	targetID := ctx.Param("id")
	if targetID == user.ID {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "cannot remove your own account"}
	}

	target, err := o.store.GetUserByID(targetID)
	if err != nil || target.OrganisationID != user.OrganisationID {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "user not found"}
	}

	if err := o.store.DeleteUser(targetID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not remove user"}
	}
	return gin.H{"success": true}, nil
}

func (o *OrganisationController) listInvitations(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	invitations, err := o.store.ListInvitations(user.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list invitations"}
	}
	return invitations, nil
}

// POST /api/organisation/invitations — issues a 7 day invite token and mails
// it out. A fresh invite to the same address replaces the previous one.
func (o *OrganisationController) invite(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := requireAdmin(user); apiErr != nil {
		return nil, apiErr
	}

	var request packets.InviteUserRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if existing, err := o.store.GetUserByLogin(user.OrganisationID, request.Email); err == nil && existing != nil {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "a user with this email already exists"}
	}

	if err := o.store.DeleteInvitationByEmail(user.OrganisationID, request.Email); err != nil {
		log.Warn().Err(err).Str("email", request.Email).Msg("failed to clear previous invitation")
	}

	token := inviteToken()
	invitation, err := o.store.CreateInvitation(user.OrganisationID, request.Email, request.Role, token, user.ID, time.Now().Add(invitationTTL))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create invitation"}
	}

	org, err := o.store.GetOrganisationByID(user.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load organisation"}
	}

	inviteURL := o.frontendURL + "/accept-invitation?token=" + token
	if !o.mailer.SendInvitation(request.Email, org.Name, user.Username, request.Role, inviteURL) {
		// an invitation nobody received is just noise in the list
		if delErr := o.store.DeleteInvitation(invitation.ID); delErr != nil {
			log.Warn().Err(delErr).Str("invitation_id", invitation.ID).Msg("failed to delete undelivered invitation")
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to send invitation email"}
	}

	log.Info().Str("organisation_id", user.OrganisationID).Str("email", request.Email).Msg("invitation sent")
	return invitation, nil
}

func (o *OrganisationController) revokeInvitation(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := requireAdmin(user); apiErr != nil {
		return nil, apiErr
	}

	id := ctx.Param("id")
	invitations, err := o.store.ListInvitations(user.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list invitations"}
	}

	for _, inv := range invitations {
		if inv.ID == id {
			if err := o.store.DeleteInvitation(id); err != nil {
				return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not revoke invitation"}
			}
			return gin.H{"success": true}, nil
		}
	}
	return nil, &api.APIError{Code: http.StatusNotFound, Message: "invitation not found"}
}

func inviteToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
