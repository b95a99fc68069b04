package worker

import (
	"context"
	"fmt"
	"os"

	"github.com/hibiken/asynq"

	"duet-api/core/cache"
	"duet-api/core/config"
	"duet-api/core/constants"
	"duet-api/core/errors"
	"duet-api/core/logger"
	"duet-api/modules/event/entity"
)

const (
	TypeProcessQueues = "event:process_queues"
	TypeSendReminders = "event:send_reminders"

	lockKeyProcessQueues = "lock:event:process_queues"
	lockKeySendReminders = "lock:event:send_reminders"
)

// QueueProcessor is the slice of the orchestrator the worker drives.
type QueueProcessor interface {
	ProcessAllQueues(ctx context.Context) (map[entity.EventType][]string, *errors.AppError)
	SweepOpenVacancies(ctx context.Context) (int, *errors.AppError)
}

// ReminderSender dispatches due reminders.
type ReminderSender interface {
	SendUpcomingEventReminders(ctx context.Context) (int, *errors.AppError)
}

// Worker runs the periodic background jobs: queue processing and reminders.
// Each run takes a redis lease first so multiple instances never process the
// same tick twice.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	cache     cache.Cache
	owner     string

	queues    QueueProcessor
	reminders ReminderSender
}

func New(cfg *config.Config, c cache.Cache, queues QueueProcessor, reminders ReminderSender) *Worker {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Logger:      asynqLogger{},
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: asynqLogger{},
	})

	hostname, _ := os.Hostname()
	return &Worker{
		server:    server,
		scheduler: scheduler,
		cache:     c,
		owner:     fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		queues:    queues,
		reminders: reminders,
	}
}

// Start registers the periodic tasks and launches the asynq server and
// scheduler. Non-blocking; call Shutdown on exit.
func (w *Worker) Start(cfg *config.Config) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeProcessQueues, w.handleProcessQueues)
	mux.HandleFunc(TypeSendReminders, w.handleSendReminders)

	if _, err := w.scheduler.Register(cfg.Jobs.ProcessQueuesSpec, asynq.NewTask(TypeProcessQueues, nil)); err != nil {
		return fmt.Errorf("register %s: %w", TypeProcessQueues, err)
	}
	if _, err := w.scheduler.Register(cfg.Jobs.SendRemindersSpec, asynq.NewTask(TypeSendReminders, nil)); err != nil {
		return fmt.Errorf("register %s: %w", TypeSendReminders, err)
	}

	if err := w.server.Start(mux); err != nil {
		return fmt.Errorf("start worker server: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return fmt.Errorf("start scheduler: %w", err)
	}

	logger.Info("Worker started",
		"process_queues", cfg.Jobs.ProcessQueuesSpec,
		"send_reminders", cfg.Jobs.SendRemindersSpec)
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

func (w *Worker) handleProcessQueues(ctx context.Context, _ *asynq.Task) error {
	ok, err := w.cache.AcquireLock(ctx, lockKeyProcessQueues, w.owner, constants.QueueProcessLockTTL)
	if err != nil {
		return err
	}
	if !ok {
		logger.Debug("Worker:handleProcessQueues - lease held elsewhere, skipping")
		return nil
	}
	defer func() { _ = w.cache.ReleaseLock(ctx, lockKeyProcessQueues, w.owner) }()

	created, appErr := w.queues.ProcessAllQueues(ctx)
	if appErr != nil {
		return appErr
	}

	total := 0
	for _, ids := range created {
		total += len(ids)
	}

	placed, appErr := w.queues.SweepOpenVacancies(ctx)
	if appErr != nil {
		return appErr
	}

	logger.Info("Worker:handleProcessQueues done", "events_created", total, "pairs_backfilled", placed)
	return nil
}

func (w *Worker) handleSendReminders(ctx context.Context, _ *asynq.Task) error {
	ok, err := w.cache.AcquireLock(ctx, lockKeySendReminders, w.owner, constants.ReminderLockTTL)
	if err != nil {
		return err
	}
	if !ok {
		logger.Debug("Worker:handleSendReminders - lease held elsewhere, skipping")
		return nil
	}
	defer func() { _ = w.cache.ReleaseLock(ctx, lockKeySendReminders, w.owner) }()

	sent, appErr := w.reminders.SendUpcomingEventReminders(ctx)
	if appErr != nil {
		return appErr
	}

	logger.Info("Worker:handleSendReminders done", "reminders_sent", sent)
	return nil
}

// asynqLogger adapts asynq's logging onto the application logger.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logger.Debug(fmt.Sprint(args...)) }
func (asynqLogger) Info(args ...interface{})  { logger.Info(fmt.Sprint(args...)) }
func (asynqLogger) Warn(args ...interface{})  { logger.Warn(fmt.Sprint(args...)) }
func (asynqLogger) Error(args ...interface{}) { logger.Error(fmt.Sprint(args...)) }
func (asynqLogger) Fatal(args ...interface{}) {
	logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
