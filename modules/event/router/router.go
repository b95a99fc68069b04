package router

import (
	"duet-api/core/middleware"
	"duet-api/modules/event/controller"

	"github.com/labstack/echo/v4"
)

// EventRouter handles event routes
type EventRouter struct {
	EventController *controller.EventController
}

// NewEventRouter creates a new router
func NewEventRouter(eventController *controller.EventController) *EventRouter {
	return &EventRouter{
		EventController: eventController,
	}
}

// Setup registers event routes
func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Participant-facing routes (all protected)
	eventRoutes := v1.Group("/private/events", mw.AuthMiddleware())
	eventRoutes.GET("", r.EventController.GetMyEvents)
	eventRoutes.GET("/:id", r.EventController.GetEvent)
	eventRoutes.GET("/:id/participation", r.EventController.GetMyParticipation)
	eventRoutes.POST("/:id/join", r.EventController.JoinEvent)
	eventRoutes.POST("/:id/vote", r.EventController.SubmitVote)
	eventRoutes.POST("/:id/reminder-response", r.EventController.RespondToReminder)
	eventRoutes.POST("/:id/cancel", r.EventController.CancelParticipation)

	// Internal triggers, normally driven by the background scheduler
	internal := v1.Group("/internal", mw.InternalMiddleware())
	internal.POST("/orchestrator/process-queues", r.EventController.ProcessQueues)
	internal.POST("/orchestrator/events/:id/fill-vacancies", r.EventController.FillVacancies)
	internal.POST("/reminders/run", r.EventController.SendReminders)
}
