package router

import (
	"duet-api/core/middleware"
	"duet-api/modules/matching/controller"

	"github.com/labstack/echo/v4"
)

// MatchingRouter handles pair match routes
type MatchingRouter struct {
	MatchingController *controller.MatchingController
}

// NewMatchingRouter creates a new router
func NewMatchingRouter(matchingController *controller.MatchingController) *MatchingRouter {
	return &MatchingRouter{
		MatchingController: matchingController,
	}
}

// Setup registers pair match routes
func (r *MatchingRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	privateRoutes := v1.Group("/private/matching", mw.AuthMiddleware())
	privateRoutes.GET("/pairs", r.MatchingController.GetMyPairs)

	// Fired by the swipe subsystem, not end users
	internal := v1.Group("/internal/matching", mw.InternalMiddleware())
	internal.POST("/pairs", r.MatchingController.UpsertPair)
	internal.GET("/queues/:type", r.MatchingController.GetQueuedPairs)
}
