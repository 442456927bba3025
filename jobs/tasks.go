package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockSnapshotInit lazily creates the daily stock snapshot rows.
	TaskStockSnapshotInit = "stock:snapshot_init"
	// TaskReportsWarmup regenerates the report caches after invalidation.
	TaskReportsWarmup = "reports:warmup"
)

// StockSnapshotInitPayload carries the day the snapshots should cover.
type StockSnapshotInitPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewStockSnapshotInitTask constructs an Asynq task for snapshot creation.
// A zero time means "the day the worker picks the task up".
func NewStockSnapshotInitTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(StockSnapshotInitPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockSnapshotInit, body, asynq.Queue(QueueDefault)), nil
}

// ReportsWarmupPayload selects the period the warmup covers. Scope "fytd"
// (the default) warms from the start of the current financial year to today.
type ReportsWarmupPayload struct {
	Scope string `json:"scope"`
}

// NewReportsWarmupTask constructs an Asynq task for report cache warmup.
func NewReportsWarmupTask(scope string) (*asynq.Task, error) {
	body, err := json.Marshal(ReportsWarmupPayload{Scope: scope})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, body, asynq.Queue(QueueDefault)), nil
}
