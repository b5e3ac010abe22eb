package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lu2a-dev/dayplaner/internal/http/api"
	displaypackets "github.com/lu2a-dev/dayplaner/internal/http/api/display/packets"
	"github.com/lu2a-dev/dayplaner/internal/model"
	"github.com/lu2a-dev/dayplaner/internal/pairing"
)

// DisplayModule mounts the operator view of paired displays. The device side
// of the protocol lives under /displays/pairing and is unauthenticated.
func DisplayModule(svc *pairing.Service) api.Module {
	ctl := &DisplayController{svc: svc}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/displays", ctl.list)
		c.PUT("/displays/:id/dayplan", ctl.assignDayPlan)
		c.POST("/displays/:id/disconnect", ctl.disconnect)
		c.POST("/displays/:id/reset", ctl.reset)
	})
}

type DisplayController struct {
	svc *pairing.Service
}

// owned verifies the display is paired to the caller's organisation.
func (d *DisplayController) owned(id string, user *model.User) *api.APIError {
	displays, err := d.svc.ListForOrganisation(user.OrganisationID)
	if err != nil {
		return &api.APIError{Code: http.StatusInternalServerError, Message: "could not list displays"}
	}
	for _, display := range displays {
		if display.ID == id {
			return nil
		}
	}
	return &api.APIError{Code: http.StatusNotFound, Message: "display not found"}
}

func (d *DisplayController) list(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	displays, err := d.svc.ListForOrganisation(user.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list displays"}
	}

	out := make([]displaypackets.DisplayResponse, 0, len(displays))
	for _, display := range displays {
		out = append(out, displaypackets.NewDisplayResponse(display))
	}
	return out, nil
}

func (d *DisplayController) assignDayPlan(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := d.owned(ctx.Param("id"), user); apiErr != nil {
		return nil, apiErr
	}

	var request displaypackets.AssignDayPlanRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	display, plan, err := d.svc.AssignDayPlan(ctx.Param("id"), request.DayPlanID)
	if err != nil {
		return nil, mapAdminPairingError(err)
	}

	return gin.H{
		"success": true,
		"display": displaypackets.NewDisplayResponse(display),
		"dayPlan": plan,
	}, nil
}

func (d *DisplayController) disconnect(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := d.owned(ctx.Param("id"), user); apiErr != nil {
		return nil, apiErr
	}

	display, err := d.svc.Disconnect(ctx.Param("id"))
	if err != nil {
		return nil, mapAdminPairingError(err)
	}
	return gin.H{"success": true, "display": displaypackets.NewDisplayResponse(display)}, nil
}

func (d *DisplayController) reset(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := d.owned(ctx.Param("id"), user); apiErr != nil {
		return nil, apiErr
	}

	display, err := d.svc.Reset(ctx.Param("id"))
	if err != nil {
		return nil, mapAdminPairingError(err)
	}
	return gin.H{"success": true, "display": displaypackets.NewDisplayResponse(display)}, nil
}

func mapAdminPairingError(err error) *api.APIError {
	switch {
	case errors.Is(err, pairing.ErrDisplayNotFound),
		errors.Is(err, pairing.ErrDayPlanNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, pairing.ErrNotPaired),
		errors.Is(err, pairing.ErrOrganisationGone):
		return &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, pairing.ErrWrongOrganisation):
		return &api.APIError{Code: http.StatusForbidden, Message: err.Error()}
	default:
		return &api.APIError{Code: http.StatusInternalServerError, Message: "internal error"}
	}
}
