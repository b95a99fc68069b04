package event

import (
	"github.com/labstack/echo/v4"

	"duet-api/core/config"
	"duet-api/core/database"
	"duet-api/core/middleware"
	"duet-api/modules/event/controller"
	"duet-api/modules/event/repository"
	"duet-api/modules/event/router"
	"duet-api/modules/event/service"
	matchingRepository "duet-api/modules/matching/repository"
	userRepository "duet-api/modules/user/repository"
)

// Services are the event module's background-facing services, handed to the
// worker so the periodic tasks can drive them.
type Services struct {
	Orchestrator service.OrchestratorServiceInterface
	Reminders    service.ReminderServiceInterface
}

// Init initializes the event module and registers routes
func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, cfg *config.Config, chat service.ChatProvisioner, notifier service.Notifier) Services {
	eventRepo := repository.NewEventRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	pairRepo := matchingRepository.NewPairMatchRepository(db)
	userRepo := userRepository.NewUserRepository(db)
	templates := service.NewConfigTemplateProvider(cfg.Events)

	orchestrator := service.NewOrchestratorService(&db, templates, eventRepo, participantRepo, pairRepo, userRepo)
	participation := service.NewParticipationService(&db, eventRepo, participantRepo, pairRepo, userRepo, chat, notifier, orchestrator)
	reminders := service.NewReminderService(eventRepo, notifier)

	ctrl := controller.NewEventController(participation, orchestrator, reminders)
	router.NewEventRouter(ctrl).Setup(e, mw)

	return Services{Orchestrator: orchestrator, Reminders: reminders}
}
