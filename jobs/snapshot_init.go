package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// istZone anchors the business day. The scheduler runs in UTC, so the
// 18:30 UTC cron fires at midnight IST and the payload day must be derived
// in the business timezone, not the worker's.
var istZone = time.FixedZone("IST", 5*3600+30*60)

// SnapshotInitializer creates missing daily stock snapshot rows for a day.
type SnapshotInitializer interface {
	InitializeDailySnapshotsIfNeeded(ctx context.Context, day time.Time) (int, error)
}

// SnapshotInitJob materialises daily stock snapshots from live stock.
type SnapshotInitJob struct {
	Stock  SnapshotInitializer
	Logger *slog.Logger
	clock  func() time.Time
}

// NewSnapshotInitJob wires dependencies for the snapshot handler.
func NewSnapshotInitJob(stock SnapshotInitializer, logger *slog.Logger) *SnapshotInitJob {
	return &SnapshotInitJob{
		Stock:  stock,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskStockSnapshotInit tasks.
func (j *SnapshotInitJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Stock == nil {
		return errors.New("snapshot init: handler not configured")
	}
	var payload StockSnapshotInitPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	day := payload.ScheduledFor
	if day.IsZero() {
		day = j.now()
	}
	day = businessDay(day)

	logger := j.logger().With(slog.String("day", day.Format("2006-01-02")))
	created, err := j.Stock.InitializeDailySnapshotsIfNeeded(ctx, day)
	if err != nil {
		logger.Error("initialise snapshots", slog.Any("error", err))
		return err
	}
	if created > 0 {
		logger.Info("initialised daily snapshots", slog.Int("created", created))
	}
	return nil
}

func (j *SnapshotInitJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStockSnapshotInit))
	}
	return slog.Default().With(slog.String("job", TaskStockSnapshotInit))
}

func (j *SnapshotInitJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// businessDay truncates an instant to the calendar date in the business
// timezone.
func businessDay(at time.Time) time.Time {
	local := at.In(istZone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
