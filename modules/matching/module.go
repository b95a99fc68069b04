package matching

import (
	"github.com/labstack/echo/v4"

	"duet-api/core/database"
	"duet-api/core/middleware"
	"duet-api/modules/matching/controller"
	"duet-api/modules/matching/repository"
	"duet-api/modules/matching/router"
	"duet-api/modules/matching/service"
	userRepository "duet-api/modules/user/repository"
)

// Init initializes the matching module and registers routes
func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware) {
	pairRepo := repository.NewPairMatchRepository(db)
	userRepo := userRepository.NewUserRepository(db)
	svc := service.NewMatchingService(pairRepo, userRepo)
	ctrl := controller.NewMatchingController(svc)

	router.NewMatchingRouter(ctrl).Setup(e, mw)
}
