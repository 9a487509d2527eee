package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/vetstock-erp/vetstock/internal/app"
	"github.com/vetstock-erp/vetstock/internal/delivery"
	"github.com/vetstock-erp/vetstock/internal/inventory"
	"github.com/vetstock-erp/vetstock/internal/platform/cache"
	"github.com/vetstock-erp/vetstock/internal/platform/db"
	"github.com/vetstock-erp/vetstock/internal/reports"
	"github.com/vetstock-erp/vetstock/internal/shared"
	"github.com/vetstock-erp/vetstock/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = jobClient.Close() }()

	// Worker processes have no websocket peers of their own; broadcasts from
	// job-driven transitions are dropped here and picked up by the dashboard
	// on its next poll.
	deliveryService := delivery.NewService(logger, delivery.NewRepository(pool), auditLogger)
	inventoryService := inventory.NewService(inventory.NewRepository(pool), idempotency, auditLogger)
	deliveryService.SetInventoryPort(delivery.NewInventoryAdapter(inventoryService))
	deliveryService.SetJobPort(jobClient)

	reportsService := reports.NewService(reports.NewRepository(pool), reports.NewCache(redisClient, cfg.ReportCacheTTL))

	repostJob := jobs.NewInventoryRepostJob(logger, deliveryService)
	expiryJob := jobs.NewExpiryScanJob(logger, inventoryService, nopBroadcaster{}, auditLogger, cfg.LotExpiryWindow)
	warmupJob := jobs.NewReportsWarmupJob(logger, reportsService)
	cleanupJob := jobs.NewIdempotencyCleanupJob(logger, idempotency)

	repostSweep, err := jobs.NewInventoryRepostTask(jobs.InventoryRepostPayload{})
	if err != nil {
		logger.Error("build repost task", slog.Any("error", err))
		os.Exit(1)
	}
	expiryTask, err := jobs.NewExpiryScanTask(jobs.ExpiryScanPayload{})
	if err != nil {
		logger.Error("build expiry task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(jobs.IdempotencyCleanupPayload{})
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskInventoryRepost, Handler: repostJob.Handle},
			{Type: jobs.TaskExpiryScan, Handler: expiryJob.Handle},
			{Type: jobs.TaskReportsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: repostSweep, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 6 * * *", Task: expiryTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 5 * * *", Task: jobs.NewReportsWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * 0", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(event string, payload any) {}
