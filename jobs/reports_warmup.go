package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ayurbooks/ayurbooks/internal/reports"
	"github.com/ayurbooks/ayurbooks/internal/shared"
)

// ReportWarmer regenerates report caches. Satisfied by reports.Service.
type ReportWarmer interface {
	TaxCredits(ctx context.Context, rng shared.DateRange, forceRefresh bool) (reports.TaxCreditReport, error)
	TradeBalances(ctx context.Context, forceRefresh bool) (reports.TradeBalances, error)
	ProfitLoss(ctx context.Context, rng shared.DateRange, granularity reports.Granularity, forceRefresh bool) (reports.ProfitLossReport, error)
	TrialBalance(ctx context.Context, rng shared.DateRange, forceRefresh bool) (reports.TrialBalanceReport, error)
	BalanceSheet(ctx context.Context, rng shared.DateRange, forceRefresh bool) (reports.BalanceSheetReport, error)
}

// ReportsWarmupJob pre-populates the report caches so the first reader after
// an invalidation does not pay the aggregation cost.
type ReportsWarmupJob struct {
	Reports ReportWarmer
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(warmer ReportWarmer, logger *slog.Logger) *ReportsWarmupJob {
	return &ReportsWarmupJob{
		Reports: warmer,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskReportsWarmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Scope == "" {
		payload.Scope = "fytd"
	}

	now := j.now()
	rng := warmupRange(now)
	logger := j.logger().With(slog.String("scope", payload.Scope), slog.String("range", rng.Key()))
	logger.Info("starting report warmup")

	// Tighten each report with its own timeout so one slow aggregation
	// cannot starve the rest.
	warm := func(name string, fn func(context.Context) error) error {
		warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := fn(warmCtx); err != nil {
			logger.Error("warm report", slog.String("report", name), slog.Any("error", err))
			return err
		}
		return nil
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"tax-credits", func(ctx context.Context) error {
			_, err := j.Reports.TaxCredits(ctx, rng, true)
			return err
		}},
		{"trade-balances", func(ctx context.Context) error {
			_, err := j.Reports.TradeBalances(ctx, true)
			return err
		}},
		{"profit-loss", func(ctx context.Context) error {
			_, err := j.Reports.ProfitLoss(ctx, rng, reports.GranularityDetailed, true)
			return err
		}},
		{"trial-balance", func(ctx context.Context) error {
			_, err := j.Reports.TrialBalance(ctx, rng, true)
			return err
		}},
		{"balance-sheet", func(ctx context.Context) error {
			_, err := j.Reports.BalanceSheet(ctx, rng, true)
			return err
		}},
	}
	for _, step := range steps {
		if err := warm(step.name, step.fn); err != nil {
			return err
		}
	}

	logger.Info("completed report warmup", slog.Duration("duration", time.Since(now)))
	return nil
}

func (j *ReportsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportsWarmup))
}

func (j *ReportsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// warmupRange covers the current financial year to date. The financial year
// starts on 1 April in the business timezone.
func warmupRange(now time.Time) shared.DateRange {
	day := businessDay(now)
	year := day.Year()
	if day.Month() < time.April {
		year--
	}
	return shared.DateRange{
		From: time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC),
		To:   day,
	}
}
