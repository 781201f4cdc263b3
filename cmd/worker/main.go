package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/compass-mel/compass-mel/internal/app"
	"github.com/compass-mel/compass-mel/internal/identity"
	"github.com/compass-mel/compass-mel/internal/notify"
	"github.com/compass-mel/compass-mel/internal/partners"
	"github.com/compass-mel/compass-mel/internal/platform/db"
	"github.com/compass-mel/compass-mel/internal/rolerequest"
	"github.com/compass-mel/compass-mel/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisJobsDB}

	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	identityRepo := identity.NewRepository(dbpool)
	notifyService := notify.NewService(notify.NewStore(dbpool), identityRepo)

	partnersService := partners.NewService(partners.NewRepository(dbpool))
	requestService := rolerequest.NewService(rolerequest.NewRepository(dbpool), partnersService, logger)

	reminderJob := jobs.NewPendingReminderJob(requestService, notifyService, client, logger, cfg.ReminderAfter)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.JobConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypePendingReminder, Handler: reminderJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: jobs.NewPendingReminderTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
