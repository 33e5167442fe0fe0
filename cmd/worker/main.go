package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/rpac/rpac/internal/app"
	"github.com/rpac/rpac/internal/audit"
	jobmetrics "github.com/rpac/rpac/internal/jobs"
	"github.com/rpac/rpac/internal/platform/db"
	"github.com/rpac/rpac/jobs"
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

	if cfg.DBMigrate {
		if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
			logger.Error("migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditService := audit.NewService(audit.NewRepository(pool))
	metrics := jobmetrics.NewMetrics(nil)
	auditJob := jobs.NewAuditJob(auditService, logger, metrics)
	pruneJob := jobs.NewPruneJob(auditService, cfg.AuditRetention, logger, metrics)

	var cron []jobs.CronRegistration
	if cfg.AuditRetention > 0 {
		cron = append(cron, jobs.CronRegistration{Spec: cfg.AuditPruneCron, Task: jobs.NewAuditPruneTask()})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuthEvent, Handler: auditJob.Handle},
			{Type: jobs.TaskAuditPrune, Handler: pruneJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("audit worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
