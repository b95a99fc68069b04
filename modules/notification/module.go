package notification

import (
	"github.com/labstack/echo/v4"

	"duet-api/core/database"
	"duet-api/core/middleware"
	"duet-api/modules/notification/controller"
	"duet-api/modules/notification/repository"
	"duet-api/modules/notification/router"
	"duet-api/modules/notification/service"
)

// Init initializes the notification module and registers routes. The returned
// service doubles as the push sender other modules depend on.
func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware) service.NotificationServiceInterface {
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo)
	ctrl := controller.NewNotificationController(svc)

	router.NewNotificationRouter(ctrl).Setup(e, mw)

	return svc
}
