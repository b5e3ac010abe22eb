package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lu2a-dev/dayplaner/internal/http/api"
	"github.com/lu2a-dev/dayplaner/internal/http/api/display/packets"
	"github.com/lu2a-dev/dayplaner/internal/pairing"
)

type PairingController struct {
	svc *pairing.Service
}

func newPairingController(svc *pairing.Service) *PairingController {
	return &PairingController{svc: svc}
}

// PairingModule mounts the display pairing protocol. The routes are
// unauthenticated: unattended devices hold no credentials, and the pairing
// code is the binding secret.
func PairingModule(svc *pairing.Service) api.Module {
	ctl := newPairingController(svc)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/displays/pairing/init", ctl.initDisplay)
		c.PUBLIC_GET("/displays/pairing/status/:id", ctl.displayStatus)
		c.PUBLIC_POST("/displays/pairing/register", ctl.registerDisplay)
		c.PUBLIC_POST("/displays/pairing/cleanup", ctl.cleanupOrphans)
		c.PUBLIC_GET("/displays/pairing/:id", ctl.listOrganisationDisplays)
		c.PUBLIC_PUT("/displays/pairing/:id/dayplan", ctl.assignDayPlan)
		c.PUBLIC_POST("/displays/pairing/:id/disconnect", ctl.disconnectDisplay)
		c.PUBLIC_POST("/displays/pairing/:id/reset", ctl.resetDisplay)
	})
}

// mapPairingError translates pairing service errors to the protocol's HTTP
// codes. Cross-organisation assignment is a permission error, not a
// not-found.
func mapPairingError(err error) *api.APIError {
	switch {
	case errors.Is(err, pairing.ErrDisplayNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: "Display not found"}
	case errors.Is(err, pairing.ErrOrganisationNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: "Organisation not found"}
	case errors.Is(err, pairing.ErrDayPlanNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: "DayPlan not found"}
	case errors.Is(err, pairing.ErrAlreadyPaired):
		return &api.APIError{Code: http.StatusBadRequest, Message: "Display is already paired"}
	case errors.Is(err, pairing.ErrNotPaired):
		return &api.APIError{Code: http.StatusBadRequest, Message: "Display must be paired with an organisation first"}
	case errors.Is(err, pairing.ErrOrganisationGone):
		return &api.APIError{Code: http.StatusBadRequest, Message: "Display organisation no longer exists. Display has been reset."}
	case errors.Is(err, pairing.ErrWrongOrganisation):
		return &api.APIError{Code: http.StatusForbidden, Message: "DayPlan must belong to the same organisation as the display"}
	case errors.Is(err, pairing.ErrExhaustedRetries):
		return &api.APIError{Code: http.StatusInternalServerError, Message: "Failed to generate pairing code"}
	default:
		return &api.APIError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	}
}

// POST /api/displays/pairing/init
func (p *PairingController) initDisplay(ctx *gin.Context) (any, *api.APIError) {
	display, err := p.svc.Init()
	if err != nil {
		return nil, mapPairingError(err)
	}

	return packets.PairingInitResponse{
		Success:  true,
		Code:     display.PairingCode,
		DeviceID: display.ID,
	}, nil
}

// GET /api/displays/pairing/status/:id
func (p *PairingController) displayStatus(ctx *gin.Context) (any, *api.APIError) {
	status, err := p.svc.GetStatus(ctx.Param("id"))
	if err != nil {
		return nil, mapPairingError(err)
	}
	return status, nil
}

// POST /api/displays/pairing/register
func (p *PairingController) registerDisplay(ctx *gin.Context) (any, *api.APIError) {
	var request packets.RegisterDisplayRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "Missing required fields: pairingCode and organisationId are required"}
	}

	display, err := p.svc.Register(request.PairingCode, request.OrganisationID, request.DeviceName)
	if err != nil {
		return nil, mapPairingError(err)
	}

	return gin.H{
		"success": true,
		"display": packets.NewDisplayResponse(display),
	}, nil
}

// GET /api/displays/pairing/:id (organisation id)
func (p *PairingController) listOrganisationDisplays(ctx *gin.Context) (any, *api.APIError) {
	displays, err := p.svc.ListForOrganisation(ctx.Param("id"))
	if err != nil {
		return nil, mapPairingError(err)
	}

	out := make([]packets.DisplayResponse, 0, len(displays))
	for _, d := range displays {
		out = append(out, packets.NewDisplayResponse(d))
	}
	return out, nil
}

// PUT /api/displays/pairing/:id/dayplan
func (p *PairingController) assignDayPlan(ctx *gin.Context) (any, *api.APIError) {
	var request packets.AssignDayPlanRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "dayPlanId is required"}
	}

	display, dayPlan, err := p.svc.AssignDayPlan(ctx.Param("id"), request.DayPlanID)
	if err != nil {
		return nil, mapPairingError(err)
	}

	return gin.H{
		"success": true,
		"display": packets.NewDisplayResponse(display),
		"dayPlan": dayPlan,
	}, nil
}

// POST /api/displays/pairing/:id/disconnect
func (p *PairingController) disconnectDisplay(ctx *gin.Context) (any, *api.APIError) {
	display, err := p.svc.Disconnect(ctx.Param("id"))
	if err != nil {
		return nil, mapPairingError(err)
	}

	return gin.H{
		"success": true,
		"message": "Display disconnected successfully",
		"display": packets.NewDisplayResponse(display),
	}, nil
}

// POST /api/displays/pairing/:id/reset
func (p *PairingController) resetDisplay(ctx *gin.Context) (any, *api.APIError) {
	replacement, err := p.svc.Reset(ctx.Param("id"))
	if err != nil {
		return nil, mapPairingError(err)
	}

	return gin.H{
		"success":  true,
		"message":  "Display reset successfully",
		"code":     replacement.PairingCode,
		"deviceId": replacement.ID,
	}, nil
}

// POST /api/displays/pairing/cleanup
func (p *PairingController) cleanupOrphans(ctx *gin.Context) (any, *api.APIError) {
	cleaned, details, err := p.svc.CleanupOrphans()
	if err != nil {
		return nil, mapPairingError(err)
	}

	if details == nil {
		details = []pairing.CleanupResult{}
	}
	message := "No orphaned displays found"
	if len(details) > 0 {
		message = "Cleaned up orphaned displays"
	}
	return gin.H{
		"success": true,
		"message": message,
		"cleaned": cleaned,
		"details": details,
	}, nil
}
