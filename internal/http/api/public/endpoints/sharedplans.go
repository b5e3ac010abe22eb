package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lu2a-dev/dayplaner/internal/db"
	"github.com/lu2a-dev/dayplaner/internal/http/api"
	"github.com/lu2a-dev/dayplaner/internal/model"
)

// SharedPlanModule mounts the public, unauthenticated share viewer endpoint.
func SharedPlanModule(store db.Store) api.Module {
	ctl := &SharedPlanController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/share/:token", ctl.view)
	})
}

type SharedPlanController struct {
	store db.Store
}

// GET /api/share/:token — resolves a share link to its day plan. Disabled and
// expired links answer 404 just like unknown tokens.
func (s *SharedPlanController) view(ctx *gin.Context) (any, *api.APIError) {
	shared, err := s.store.GetSharedPlanByToken(ctx.Param("token"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "share not found"}
	}
	if !shared.IsActive {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "share not found"}
	}
	if shared.ExpiresAt != nil && time.Now().After(*shared.ExpiresAt) {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "share not found"}
	}

	plan, err := s.store.GetDayPlanByID(shared.DayPlanID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "share not found"}
	}
	items, err := s.store.ListScheduleItems(plan.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load schedule"}
	}
	event, err := s.store.GetEventByID(plan.EventID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "share not found"}
	}
	org, err := s.store.GetOrganisationByID(event.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "share not found"}
	}

	// view counting is best effort, a failed update never blocks the viewer
	if err := s.store.RecordSharedPlanView(shared.ID); err != nil {
		log.Warn().Err(err).Str("share_id", shared.ID).Msg("failed to record share view")
	}

	return gin.H{
		"title":       shared.Title,
		"description": shared.Description,
		"dayPlan":     model.DayPlanWithItems{DayPlan: *plan, ScheduleItems: items},
		"event": gin.H{
			"id":   event.ID,
			"name": event.Name,
		},
		"organisation": gin.H{
			"name":    org.Name,
			"logoUrl": org.LogoURL,
		},
	}, nil
}
