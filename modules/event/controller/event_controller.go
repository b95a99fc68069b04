package controller

import (
	"duet-api/core/constants"
	"duet-api/core/controller"
	"duet-api/core/errors"
	"duet-api/core/utils"
	"duet-api/modules/event/dto"
	"duet-api/modules/event/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// EventController handles event HTTP requests
type EventController struct {
	controller.BaseController
	ParticipationService service.ParticipationServiceInterface
	OrchestratorService  service.OrchestratorServiceInterface
	ReminderService      service.ReminderServiceInterface
}

// NewEventController creates a new controller
func NewEventController(
	participation service.ParticipationServiceInterface,
	orchestrator service.OrchestratorServiceInterface,
	reminders service.ReminderServiceInterface,
) *EventController {
	return &EventController{
		BaseController:       controller.NewBaseController(),
		ParticipationService: participation,
		OrchestratorService:  orchestrator,
		ReminderService:      reminders,
	}
}

// getUserIDFromContext extracts user ID from JWT context
func (c *EventController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}

	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}

	return claims.UserID, nil
}

// GetMyEvents handles GET /events
// @Summary List my events
// @Description Lists every event the caller is attached to
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.EventResponse
// @Failure 401 {object} errors.AppError
// @Router /private/events [get]
func (c *EventController) GetMyEvents(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.ParticipationService.GetEventsForUser(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// GetEvent handles GET /events/:id
// @Summary Get event
// @Description Gets one event by id
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id} [get]
func (c *EventController) GetEvent(ctx echo.Context) error {
	result, appErr := c.ParticipationService.GetEvent(ctx.Request().Context(), ctx.Param("id"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// GetMyParticipation handles GET /events/:id/participation
// @Summary Get my participation
// @Description Gets the caller's participation record on an event
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.ParticipantResponse
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/participation [get]
func (c *EventController) GetMyParticipation(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.ParticipationService.GetParticipant(ctx.Request().Context(), ctx.Param("id"), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// JoinEvent handles POST /events/:id/join
// @Summary Join event
// @Description Moves the caller from pending_join to joined
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Failure 403 {object} errors.AppError
// @Failure 409 {object} errors.AppError
// @Router /private/events/{id}/join [post]
func (c *EventController) JoinEvent(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.ParticipationService.JoinEvent(ctx.Request().Context(), ctx.Param("id"), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Joined event")
}

// SubmitVote handles POST /events/:id/vote
// @Summary Vote for a venue
// @Description Records the caller's venue choice; the last vote finalizes the venue
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.VoteRequest true "Venue choice"
// @Success 200 {object} dto.EventResponse
// @Failure 400 {object} errors.AppError
// @Failure 409 {object} errors.AppError
// @Router /private/events/{id}/vote [post]
func (c *EventController) SubmitVote(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.VoteRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}
	if req.VenueOptionID == "" {
		return c.BadRequest(errors.ErrInvalidInput, "venue_option_id is required")
	}

	result, appErr := c.ParticipationService.SubmitVote(ctx.Request().Context(), ctx.Param("id"), userID, req.VenueOptionID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Vote recorded")
}

// RespondToReminder handles POST /events/:id/reminder-response
// @Summary Answer the event reminder
// @Description Confirms attendance or cancels participation
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.ReminderResponseRequest true "confirm or cancel"
// @Success 200 {object} dto.EventResponse
// @Failure 400 {object} errors.AppError
// @Failure 409 {object} errors.AppError
// @Router /private/events/{id}/reminder-response [post]
func (c *EventController) RespondToReminder(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.ReminderResponseRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.ParticipationService.RespondToReminder(ctx.Request().Context(), ctx.Param("id"), userID, req.Response)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Response recorded")
}

// CancelParticipation handles POST /events/:id/cancel
// @Summary Cancel participation
// @Description Removes the caller and their pair partner from the event
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/cancel [post]
func (c *EventController) CancelParticipation(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.ParticipationService.CancelParticipation(ctx.Request().Context(), ctx.Param("id"), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Participation canceled")
}

// ProcessQueues handles POST /internal/orchestrator/process-queues
// @Summary Run the queue pass
// @Description Creates events from every event type's queue
// @Tags Internal
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /internal/orchestrator/process-queues [post]
func (c *EventController) ProcessQueues(ctx echo.Context) error {
	created, appErr := c.OrchestratorService.ProcessAllQueues(ctx.Request().Context())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, created, "Queues processed")
}

// FillVacancies handles POST /internal/orchestrator/events/:id/fill-vacancies
// @Summary Backfill one event
// @Description Assigns queued pairs to an event short of pairs
// @Tags Internal
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} map[string]int
// @Failure 404 {object} errors.AppError
// @Router /internal/orchestrator/events/{id}/fill-vacancies [post]
func (c *EventController) FillVacancies(ctx echo.Context) error {
	assigned, appErr := c.OrchestratorService.FillEventVacancies(ctx.Request().Context(), ctx.Param("id"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, map[string]int{"assigned": assigned}, "Vacancies filled")
}

// SendReminders handles POST /internal/reminders/run
// @Summary Run the reminder pass
// @Description Sends reminders for ready events two days out
// @Tags Internal
// @Produce json
// @Success 200 {object} map[string]int
// @Router /internal/reminders/run [post]
func (c *EventController) SendReminders(ctx echo.Context) error {
	processed, appErr := c.ReminderService.SendUpcomingEventReminders(ctx.Request().Context())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, map[string]int{"processed": processed}, "Reminders sent")
}
