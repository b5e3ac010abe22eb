package endpoints

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lu2a-dev/dayplaner/internal/db"
	"github.com/lu2a-dev/dayplaner/internal/http/api"
	"github.com/lu2a-dev/dayplaner/internal/http/api/admin/control/packets"
	"github.com/lu2a-dev/dayplaner/internal/model"
)

// ShareModule mounts management of public share links for day plans.
func ShareModule(store db.Store, frontendURL string) api.Module {
	ctl := &ShareController{store: store, frontendURL: frontendURL}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/shares", ctl.listAll)
		c.POST("/day_plans/:id/shares", ctl.create)
		c.GET("/day_plans/:id/shares", ctl.listForDayPlan)
		c.PATCH("/shares/:id", ctl.update)
		c.DELETE("/shares/:id", ctl.delete)
	})
}

type ShareController struct {
	store       db.Store
	frontendURL string
}

func shareToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// dayPlan resolves a day plan and checks it belongs to the caller's
// organisation via its event.
func (s *ShareController) dayPlan(id string, user *model.User) (*model.DayPlan, *api.APIError) {
	plan, err := s.store.GetDayPlanByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "day plan not found"}
	}
	event, err := s.store.GetEventByID(plan.EventID)
	if err != nil || event.OrganisationID != user.OrganisationID {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "day plan not found"}
	}
	return plan, nil
}

// share resolves a shared plan and checks ownership the same way.
func (s *ShareController) share(id string, user *model.User) (*model.SharedPlan, *api.APIError) {
	shared, err := s.store.GetSharedPlanByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "share not found"}
	}
	if _, apiErr := s.dayPlan(shared.DayPlanID, user); apiErr != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "share not found"}
	}
	return shared, nil
}

func (s *ShareController) create(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	plan, apiErr := s.dayPlan(ctx.Param("id"), user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.CreateShareRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	title := plan.Name
	if request.Title != nil && *request.Title != "" {
		title = *request.Title
	}

	shared, err := s.store.CreateSharedPlan(plan.ID, shareToken(), title, request.Description, request.ExpiresAt, user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create share"}
	}

	log.Info().Str("day_plan_id", plan.ID).Str("share_id", shared.ID).Msg("share link created")
	return packets.NewShareResponse(shared, s.frontendURL), nil
}

func (s *ShareController) listForDayPlan(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	plan, apiErr := s.dayPlan(ctx.Param("id"), user)
	if apiErr != nil {
		return nil, apiErr
	}

	shares, err := s.store.ListDayPlanShares(plan.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list shares"}
	}
	return packets.NewShareResponses(shares, s.frontendURL), nil
}

func (s *ShareController) listAll(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	shares, err := s.store.ListOrganisationShares(user.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list shares"}
	}
	return packets.NewShareResponses(shares, s.frontendURL), nil
}

func (s *ShareController) update(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	shared, apiErr := s.share(ctx.Param("id"), user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateShareRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	updated, err := s.store.UpdateSharedPlan(shared.ID, request.Title, request.Description, request.IsActive, request.ExpiresAt, request.ClearExpiry)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update share"}
	}
	return packets.NewShareResponse(updated, s.frontendURL), nil
}

func (s *ShareController) delete(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	shared, apiErr := s.share(ctx.Param("id"), user)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := s.store.DeleteSharedPlan(shared.ID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete share"}
	}
	return gin.H{"success": true}, nil
}
