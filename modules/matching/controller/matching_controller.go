package controller

import (
	"duet-api/core/constants"
	"duet-api/core/controller"
	"duet-api/core/errors"
	"duet-api/core/utils"
	"duet-api/modules/matching/dto"
	"duet-api/modules/matching/service"
	eventEntity "duet-api/modules/event/entity"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// MatchingController handles pair match HTTP requests
type MatchingController struct {
	controller.BaseController
	MatchingService service.MatchingServiceInterface
}

// NewMatchingController creates a new controller
func NewMatchingController(svc service.MatchingServiceInterface) *MatchingController {
	return &MatchingController{
		BaseController:  controller.NewBaseController(),
		MatchingService: svc,
	}
}

// getUserIDFromContext extracts user ID from JWT context
func (c *MatchingController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

// UpsertPair handles POST /internal/matching/pairs
// @Summary Upsert a pair match
// @Description Recomputes a pair's queueing state; fired by the swipe subsystem on a mutual like
// @Tags Matching
// @Accept json
// @Produce json
// @Param request body dto.UpsertPairRequest true "The two matched users"
// @Success 200 {object} dto.PairMatchResponse
// @Failure 400 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /internal/matching/pairs [post]
func (c *MatchingController) UpsertPair(ctx echo.Context) error {
	var req dto.UpsertPairRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	userAID, err := uuid.Parse(req.UserAID)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid user_a_id")
	}
	userBID, err := uuid.Parse(req.UserBID)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid user_b_id")
	}

	result, appErr := c.MatchingService.UpsertPairMatch(ctx.Request().Context(), userAID, userBID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Pair match upserted")
}

// GetMyPairs handles GET /matching/pairs
// @Summary List my pair matches
// @Description Lists the caller's active pair matches
// @Tags Matching
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.PairMatchResponse
// @Failure 401 {object} errors.AppError
// @Router /private/matching/pairs [get]
func (c *MatchingController) GetMyPairs(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.MatchingService.GetPairMatchesForUser(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// GetQueuedPairs handles GET /internal/matching/queues/:type
// @Summary List a queue
// @Description Lists queued pairs for one event type, oldest first
// @Tags Matching
// @Produce json
// @Param type path string true "Event type"
// @Success 200 {array} dto.PairMatchResponse
// @Failure 400 {object} errors.AppError
// @Router /internal/matching/queues/{type} [get]
func (c *MatchingController) GetQueuedPairs(ctx echo.Context) error {
	eventType := eventEntity.EventType(ctx.Param("type"))
	if !eventType.Valid() {
		return c.BadRequest(errors.ErrInvalidInput, "Unknown event type")
	}

	pairs, appErr := c.MatchingService.GetQueuedPairsForEventType(ctx.Request().Context(), eventType)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	out := make([]dto.PairMatchResponse, 0, len(pairs))
	for i := range pairs {
		out = append(out, *dto.ToPairMatchResponse(&pairs[i]))
	}
	return c.SuccessResponse(ctx, out, "Success")
}
