package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAlertsEvaluate evaluates one position against its thresholds.
	TaskAlertsEvaluate = "alerts:evaluate"
	// TaskAlertsSweep re-evaluates every position of a tenant.
	TaskAlertsSweep = "alerts:sweep"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// AlertsEvaluatePayload identifies the position to evaluate. Quantity rides
// along for logging only; the handler re-reads the current position.
type AlertsEvaluatePayload struct {
	TenantID    uuid.UUID       `json:"tenant_id"`
	WarehouseID int64           `json:"warehouse_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// NewAlertsEvaluateTask constructs an Asynq task for one position.
func NewAlertsEvaluateTask(payload AlertsEvaluatePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAlertsEvaluate, body, asynq.Queue(QueueDefault)), nil
}

// AlertsSweepPayload carries scheduling metadata.
type AlertsSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewAlertsSweepTask constructs the nightly sweep task.
func NewAlertsSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(AlertsSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAlertsSweep, body, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupPayload sets the retention window.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
