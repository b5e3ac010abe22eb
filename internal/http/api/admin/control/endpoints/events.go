package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lu2a-dev/dayplaner/internal/db"
	"github.com/lu2a-dev/dayplaner/internal/http/api"
	"github.com/lu2a-dev/dayplaner/internal/http/api/admin/control/packets"
	"github.com/lu2a-dev/dayplaner/internal/model"
)

// EventModule mounts event, day plan and schedule editing.
func EventModule(store db.Store) api.Module {
	ctl := &EventController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/events", ctl.list)
		c.POST("/events", ctl.create)
		c.DELETE("/events/:id", ctl.delete)
		c.GET("/events/:id/day_plans", ctl.listDayPlans)
		c.POST("/events/:id/day_plans", ctl.createDayPlan)
		c.GET("/day_plans/:id", ctl.getDayPlan)
		c.PUT("/day_plans/:id/schedule", ctl.updateSchedule)
		c.DELETE("/day_plans/:id", ctl.deleteDayPlan)
	})
}

type EventController struct {
	store db.Store
}

// ownedEvent resolves an event and verifies it belongs to the caller's
// organisation. Cross-organisation ids answer 404, not 403, so they leak
// nothing about other tenants.
func (e *EventController) ownedEvent(id string, user *model.User) (*model.Event, *api.APIError) {
	event, err := e.store.GetEventByID(id)
	if err != nil || event.OrganisationID != user.OrganisationID {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "event not found"}
	}
	return event, nil
}

func (e *EventController) ownedDayPlan(id string, user *model.User) (*model.DayPlan, *api.APIError) {
	plan, err := e.store.GetDayPlanByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "day plan not found"}
	}
	if _, apiErr := e.ownedEvent(plan.EventID, user); apiErr != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "day plan not found"}
	}
	return plan, nil
}

func (e *EventController) list(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	events, err := e.store.ListEvents(user.OrganisationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list events"}
	}
	return events, nil
}

func (e *EventController) create(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateEventRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	event, err := e.store.CreateEvent(user.OrganisationID, request.Name, request.Description)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create event"}
	}
	return event, nil
}

func (e *EventController) delete(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := requireAdmin(user); apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := e.ownedEvent(ctx.Param("id"), user); apiErr != nil {
		return nil, apiErr
	}

	if err := e.store.DeleteEvent(ctx.Param("id")); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete event"}
	}
	return gin.H{"success": true}, nil
}

func (e *EventController) listDayPlans(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	event, apiErr := e.ownedEvent(ctx.Param("id"), user)
	if apiErr != nil {
		return nil, apiErr
	}

	plans, err := e.store.ListDayPlans(event.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list day plans"}
	}
	return plans, nil
}

func (e *EventController) createDayPlan(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	event, apiErr := e.ownedEvent(ctx.Param("id"), user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.CreateDayPlanRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	plan, err := e.store.CreateDayPlan(event.ID, request.Name, request.Date)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create day plan"}
	}

	items := scheduleItemsFromRequest(request.ScheduleItems)
	saved, err := e.store.ReplaceScheduleItems(plan.ID, items)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not save schedule"}
	}

	return model.DayPlanWithItems{DayPlan: plan, ScheduleItems: saved}, nil
}

func (e *EventController) getDayPlan(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	plan, apiErr := e.ownedDayPlan(ctx.Param("id"), user)
	if apiErr != nil {
		return nil, apiErr
	}

	items, err := e.store.ListScheduleItems(plan.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load schedule"}
	}
	return model.DayPlanWithItems{DayPlan: *plan, ScheduleItems: items}, nil
}

// PUT /api/day_plans/:id/schedule — replaces the whole schedule. Items are
// stored in request order, positions renumbered from zero.
func (e *EventController) updateSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	plan, apiErr := e.ownedDayPlan(ctx.Param("id"), user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	saved, err := e.store.ReplaceScheduleItems(plan.ID, scheduleItemsFromRequest(request.ScheduleItems))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not save schedule"}
	}
	return model.DayPlanWithItems{DayPlan: *plan, ScheduleItems: saved}, nil
}

func (e *EventController) deleteDayPlan(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if apiErr := requireAdmin(user); apiErr != nil {
		return nil, apiErr
	}
	plan, apiErr := e.ownedDayPlan(ctx.Param("id"), user)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := e.store.DeleteDayPlan(plan.ID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete day plan"}
	}
	return gin.H{"success": true}, nil
}

func scheduleItemsFromRequest(in []packets.ScheduleItemRequest) []model.ScheduleItem {
	items := make([]model.ScheduleItem, 0, len(in))
	for _, r := range in {
		items = append(items, model.ScheduleItem{
			Time:     r.Time,
			Type:     r.Type,
			Title:    r.Title,
			Speaker:  r.Speaker,
			Location: r.Location,
			Details:  r.Details,
		})
	}
	return items
}
