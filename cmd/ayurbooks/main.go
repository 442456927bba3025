package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/ayurbooks/ayurbooks/internal/app"
	"github.com/ayurbooks/ayurbooks/internal/journals"
	"github.com/ayurbooks/ayurbooks/internal/ledger"
	"github.com/ayurbooks/ayurbooks/internal/platform/cache"
	"github.com/ayurbooks/ayurbooks/internal/platform/db"
	"github.com/ayurbooks/ayurbooks/internal/purchases"
	"github.com/ayurbooks/ayurbooks/internal/report"
	"github.com/ayurbooks/ayurbooks/internal/reports"
	reporthttp "github.com/ayurbooks/ayurbooks/internal/reports/http"
	"github.com/ayurbooks/ayurbooks/internal/sales"
	"github.com/ayurbooks/ayurbooks/internal/stock"
	"github.com/ayurbooks/ayurbooks/internal/suppliers"
	"github.com/ayurbooks/ayurbooks/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
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

	ledgerService := ledger.NewService(ledger.NewRepository(pool))
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	journalService := journals.NewService(journals.NewRepository(pool), reportCache)
	journalHandler := journals.NewHandler(logger, journalService)

	supplierRepo := suppliers.NewRepository(pool)
	supplierHandler := suppliers.NewHandler(logger, supplierRepo)

	purchaseService := purchases.NewService(purchases.NewRepository(pool), reportCache, cfg.PurchasePaymentsAccountID)
	purchaseHandler := purchases.NewHandler(logger, purchaseService)

	saleService := sales.NewService(sales.NewRepository(pool), reportCache, cfg.SaleReceiptsAccountID)
	saleHandler := sales.NewHandler(logger, saleService)

	stockService := stock.NewService(stock.NewRepository(pool))

	reportService := reports.NewService(logger, reports.NewRepository(pool), stockService, ledgerService, reportCache)
	pdfClient := &report.GotenbergClient{Endpoint: cfg.GotenbergURL, Client: http.DefaultClient}
	reportHandler := reporthttp.NewHandler(logger, reportService, pdfClient)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		LedgerHandler:    ledgerHandler,
		JournalsHandler:  journalHandler,
		SuppliersHandler: supplierHandler,
		PurchasesHandler: purchaseHandler,
		SalesHandler:     saleHandler,
		ReportsHandler:   reportHandler,
		JobHandler:       jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
