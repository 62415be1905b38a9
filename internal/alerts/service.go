package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/catalog"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/stock"
)

// RepositoryPort abstracts alert persistence for the service.
type RepositoryPort interface {
	UpsertOpen(ctx context.Context, a Alert) (Alert, error)
	Resolve(ctx context.Context, tenantID uuid.UUID, warehouseID, productID int64) error
	List(ctx context.Context, tenantID uuid.UUID, warehouseID int64, status string, limit int) ([]Alert, error)
}

// ProductPort resolves product thresholds from the catalog.
type ProductPort interface {
	GetProduct(ctx context.Context, tenantID uuid.UUID, id int64) (catalog.Product, error)
}

// Service evaluates positions against product thresholds and maintains the
// stock_alerts projection. A redis cooldown suppresses repeat notifications
// while an alert stays open.
type Service struct {
	repo     RepositoryPort
	products ProductPort
	redis    *redis.Client
	logger   *slog.Logger
	metrics  *observability.Metrics
	cooldown time.Duration
}

// NewService builds Service.
func NewService(repo RepositoryPort, products ProductPort, redisClient *redis.Client, logger *slog.Logger, metrics *observability.Metrics, cooldown time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cooldown <= 0 {
		cooldown = 15 * time.Minute
	}
	return &Service{repo: repo, products: products, redis: redisClient, logger: logger, metrics: metrics, cooldown: cooldown}
}

// EvaluatePosition compares one position against its product thresholds,
// raising or resolving the alert row accordingly. Products missing from the
// catalog resolve silently; thresholds may have been deleted under us.
func (s *Service) EvaluatePosition(ctx context.Context, pos stock.Position) error {
	product, err := s.products.GetProduct(ctx, pos.TenantID, pos.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("alerts: product lookup: %w", err)
	}

	kind, threshold, breached := Evaluate(pos.Quantity, Thresholds{Min: product.MinStock, Max: product.MaxStock})
	if !breached {
		return s.repo.Resolve(ctx, pos.TenantID, pos.WarehouseID, pos.ProductID)
	}

	alert, err := s.repo.UpsertOpen(ctx, Alert{
		TenantID:    pos.TenantID,
		WarehouseID: pos.WarehouseID,
		ProductID:   pos.ProductID,
		Kind:        kind,
		Quantity:    pos.Quantity,
		Threshold:   threshold,
	})
	if err != nil {
		return fmt.Errorf("alerts: upsert: %w", err)
	}

	if s.shouldNotify(ctx, alert) {
		if s.metrics != nil {
			s.metrics.AlertRaised(string(kind))
		}
		s.logger.Warn("stock alert raised",
			slog.String("kind", string(kind)),
			slog.Int64("warehouse_id", pos.WarehouseID),
			slog.Int64("product_id", pos.ProductID),
			slog.String("quantity", pos.Quantity.String()),
			slog.String("threshold", threshold.String()))
	}
	return nil
}

// shouldNotify applies the redis cooldown. Without redis every evaluation
// notifies, which is the right behavior for tests and single-node setups.
func (s *Service) shouldNotify(ctx context.Context, a Alert) bool {
	if s.redis == nil {
		return true
	}
	key := fmt.Sprintf("alerts:cooldown:%s:%d:%d:%s", a.TenantID, a.WarehouseID, a.ProductID, a.Kind)
	set, err := s.redis.SetNX(ctx, key, time.Now().Unix(), s.cooldown).Result()
	if err != nil {
		s.logger.Warn("alert cooldown check failed", slog.Any("error", err))
		return true
	}
	return set
}

// List returns alerts for a tenant.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, warehouseID int64, status string, limit int) ([]Alert, error) {
	if status != "" && status != StatusOpen && status != StatusResolved {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return s.repo.List(ctx, tenantID, warehouseID, status, limit)
}
