package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/alerts"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/stock"
)

// AlertNotifier bridges the stock service to the job queue: every committed
// movement enqueues one evaluation task for the affected position.
type AlertNotifier struct {
	client *Client
}

// NewAlertNotifier constructs the notifier.
func NewAlertNotifier(client *Client) *AlertNotifier {
	return &AlertNotifier{client: client}
}

// PositionChanged implements stock.Notifier.
func (n *AlertNotifier) PositionChanged(ctx context.Context, pos stock.Position) error {
	task, err := NewAlertsEvaluateTask(AlertsEvaluatePayload{
		TenantID:    pos.TenantID,
		WarehouseID: pos.WarehouseID,
		ProductID:   pos.ProductID,
		Quantity:    pos.Quantity,
	})
	if err != nil {
		return err
	}
	_, err = n.client.Enqueue(ctx, task, asynq.MaxRetry(3))
	return err
}

// AlertsEvaluateJob handles TaskAlertsEvaluate.
type AlertsEvaluateJob struct {
	service *alerts.Service
	stocks  *stock.Repository
	logger  *slog.Logger
}

// NewAlertsEvaluateJob constructs the job.
func NewAlertsEvaluateJob(service *alerts.Service, stocks *stock.Repository, logger *slog.Logger) *AlertsEvaluateJob {
	return &AlertsEvaluateJob{service: service, stocks: stocks, logger: logger}
}

// Handle re-reads the position and evaluates it. The payload quantity may be
// stale by the time the task runs; the database is authoritative.
func (j *AlertsEvaluateJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AlertsEvaluatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	pos, err := j.stocks.GetPosition(ctx, payload.TenantID, payload.WarehouseID, payload.ProductID)
	if err != nil {
		if errors.Is(err, stock.ErrPositionNotFound) {
			return nil
		}
		return err
	}
	return j.service.EvaluatePosition(ctx, pos)
}

// AlertsSweepJob handles TaskAlertsSweep: it walks every position and
// re-evaluates it, catching threshold edits made without any stock movement.
type AlertsSweepJob struct {
	pool    *pgxpool.Pool
	service *alerts.Service
	logger  *slog.Logger
}

// NewAlertsSweepJob constructs the job.
func NewAlertsSweepJob(pool *pgxpool.Pool, service *alerts.Service, logger *slog.Logger) *AlertsSweepJob {
	return &AlertsSweepJob{pool: pool, service: service, logger: logger}
}

// Handle evaluates all positions with bounded concurrency.
func (j *AlertsSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AlertsSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	started := time.Now()

	rows, err := j.pool.Query(ctx, `SELECT tenant_id, warehouse_id, product_id, quantity, average_cost, reserved_quantity, last_movement_at FROM stock_positions`)
	if err != nil {
		return err
	}
	positions := []stock.Position{}
	for rows.Next() {
		var pos stock.Position
		if err := rows.Scan(&pos.TenantID, &pos.WarehouseID, &pos.ProductID, &pos.Quantity, &pos.AverageCost, &pos.ReservedQuantity, &pos.LastMovementAt); err != nil {
			rows.Close()
			return err
		}
		positions = append(positions, pos)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, pos := range positions {
		g.Go(func() error {
			return j.service.EvaluatePosition(gctx, pos)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	j.logger.Info("alert sweep finished",
		slog.Int("positions", len(positions)),
		slog.Duration("took", time.Since(started)))
	return nil
}

// IdempotencyCleanupJob prunes expired idempotency keys.
type IdempotencyCleanupJob struct {
	store  *shared.IdempotencyStore
	logger *slog.Logger
}

// NewIdempotencyCleanupJob constructs the job.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, logger *slog.Logger) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{store: store, logger: logger}
}

// Handle removes keys older than the retention window.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = 48 * time.Hour
	}
	if err := j.store.Cleanup(ctx, retention); err != nil {
		return err
	}
	j.logger.Info("idempotency cleanup finished", slog.Duration("retention", retention))
	return nil
}
