package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/ayurbooks/ayurbooks/internal/app"
	"github.com/ayurbooks/ayurbooks/internal/ledger"
	"github.com/ayurbooks/ayurbooks/internal/platform/cache"
	"github.com/ayurbooks/ayurbooks/internal/platform/db"
	"github.com/ayurbooks/ayurbooks/internal/reports"
	"github.com/ayurbooks/ayurbooks/internal/stock"
	"github.com/ayurbooks/ayurbooks/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	_ = godotenv.Load()

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
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	stockService := stock.NewService(stock.NewRepository(pool))
	ledgerService := ledger.NewService(ledger.NewRepository(pool))
	reportService := reports.NewService(logger, reports.NewRepository(pool), stockService, ledgerService, reportCache)

	snapshotJob := jobs.NewSnapshotInitJob(stockService, logger)
	warmupJob := jobs.NewReportsWarmupJob(reportService, logger)

	snapshotTask, err := jobs.NewStockSnapshotInitTask(time.Time{})
	if err != nil {
		logger.Error("build snapshot task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewReportsWarmupTask("fytd")
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStockSnapshotInit, Handler: snapshotJob.Handle},
			{Type: jobs.TaskReportsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SnapshotCron, Task: snapshotTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	// Document writes bump the cache version and publish an invalidation
	// event; re-warm the caches shortly after instead of on the next read.
	client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()
	if sub := reportCache.SubscribeBumps(ctx); sub != nil {
		go func() {
			defer func() {
				if err := sub.Close(); err != nil {
					logger.Warn("bump subscription close", slog.Any("error", err))
				}
			}()
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-sub.Channel():
					if !ok {
						return
					}
					if _, err := client.EnqueueReportsWarmup(ctx, "fytd"); err != nil {
						logger.Warn("enqueue warmup", slog.Any("error", err))
					}
				}
			}
		}()
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
