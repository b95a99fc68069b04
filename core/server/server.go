package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"duet-api/core/cache"
	"duet-api/core/config"
	"duet-api/core/database"
	"duet-api/core/logger"
	"duet-api/core/middleware"
	"duet-api/core/worker"
	"duet-api/modules/chat"
	"duet-api/modules/event"
	"duet-api/modules/matching"
	"duet-api/modules/notification"
)

// Run boots the whole service: config, logger, postgres, redis, HTTP routes,
// the background worker, and blocks until a shutdown signal.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Logger.Level, cfg.Logger.Format)

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() { _ = db.SQLx().Close() }()

	redisCache, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("init redis: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())

	mw := middleware.NewMiddleware()

	e.GET("/healthz", healthHandler(db, redisCache))

	// Collaborators first, then the event core that consumes them.
	notifier := notification.Init(e, db, mw)
	chatSvc := chat.Init(db)
	matching.Init(e, db, mw)
	eventServices := event.Init(e, db, mw, cfg, chatSvc, notifier)

	w := worker.New(cfg, redisCache, eventServices.Orchestrator, eventServices.Reminders)
	if err := w.Start(cfg); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down", "signal", sig.String())

	w.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func healthHandler(db database.Database, c cache.Cache) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := map[string]string{"database": "ok", "redis": "ok"}

		if err := db.SQLx().PingContext(reqCtx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := c.Ping(reqCtx); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}

		return ctx.JSON(status, checks)
	}
}
