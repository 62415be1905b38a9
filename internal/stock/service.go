package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPosition(ctx context.Context, tenantID uuid.UUID, warehouseID, productID int64) (Position, error)
	ListPositions(ctx context.Context, tenantID uuid.UUID, warehouseID int64, limit int) ([]Position, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort abstracts replay detection. CheckAndInsert returns
// shared.ErrIdempotencyConflict when the key was already processed; Delete
// releases a key whose transaction did not commit.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// AllowNegativeStock permits outbound movements to drive a position
	// negative (oversell). On by default to match historical behavior;
	// operators that want a hard insufficient-stock rule turn it off.
	AllowNegativeStock bool
}

// Service records movements: it is the only writer of the ledger and the
// position projection, and it keeps the pair consistent by doing both writes
// in a single transaction with the position row locked.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	notifier    Notifier
	logger      *slog.Logger
	allowNeg    bool
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, notifier Notifier, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, idempotency: idem, notifier: notifier, logger: logger, allowNeg: cfg.AllowNegativeStock}
}

// RecordMovement appends one ledger entry and advances the position
// projection atomically. Either both writes commit or neither does.
func (s *Service) RecordMovement(ctx context.Context, input MovementInput) (Movement, error) {
	if err := validateMovementInput(input); err != nil {
		return Movement{}, err
	}

	insertedKey := false
	key := ""
	if input.IdempotencyKey != "" && s.idempotency != nil {
		key = fmt.Sprintf("%s:%s", input.TenantID, input.IdempotencyKey)
		if err := s.idempotency.CheckAndInsert(ctx, key, "stock"); err != nil {
			return Movement{}, err
		}
		insertedKey = true
	}

	var recorded Movement
	var updated Position
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		pos, err := tx.GetPositionForUpdate(ctx, input.TenantID, input.WarehouseID, input.ProductID)
		if err != nil && !errors.Is(err, ErrPositionNotFound) {
			return err
		}
		if errors.Is(err, ErrPositionNotFound) {
			pos = Position{TenantID: input.TenantID, WarehouseID: input.WarehouseID, ProductID: input.ProductID}
		}

		val, err := ApplyMovement(Valuation{Quantity: pos.Quantity, AverageCost: pos.AverageCost}, input.Type, input.Quantity, input.UnitCost)
		if err != nil {
			return err
		}
		if !s.allowNeg && input.Type.Outbound() && val.Quantity.IsNegative() {
			return fmt.Errorf("%w: have %s, need %s", ErrInsufficientStock, pos.Quantity, input.Quantity)
		}

		movement := Movement{
			TenantID:    input.TenantID,
			WarehouseID: input.WarehouseID,
			ProductID:   input.ProductID,
			Type:        input.Type,
			Quantity:    input.Quantity,
			UnitCost:    input.UnitCost,
			Reference:   input.Reference,
			Notes:       input.Notes,
			UserID:      input.UserID,
		}
		movement, err = tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}

		pos.Quantity = val.Quantity
		pos.AverageCost = val.AverageCost
		pos.LastMovementAt = movement.CreatedAt
		if err := tx.UpsertPosition(ctx, pos); err != nil {
			return err
		}

		recorded = movement
		updated = pos
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Movement{}, err
	}

	s.afterCommit(ctx, input, recorded, updated)
	return recorded, nil
}

// afterCommit runs best-effort side effects. The movement is durable at this
// point, so failures here are logged and never surfaced to the caller.
func (s *Service) afterCommit(ctx context.Context, input MovementInput, recorded Movement, updated Position) {
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			TenantID: input.TenantID,
			ActorID:  input.UserID,
			Action:   fmt.Sprintf("stock:%s", input.Type),
			Entity:   "stock_movement",
			EntityID: fmt.Sprintf("%d", recorded.ID),
			Meta: map[string]any{
				"warehouse_id": input.WarehouseID,
				"product_id":   input.ProductID,
				"quantity":     input.Quantity.String(),
				"reference":    input.Reference,
			},
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err), slog.Int64("movement_id", recorded.ID))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.PositionChanged(ctx, updated); err != nil {
			s.logger.Warn("position change notification failed", slog.Any("error", err))
		}
	}
}

// Reserve allocates on-hand units to an unfulfilled order. Reservations never
// touch quantity or average cost; they only constrain availability.
func (s *Service) Reserve(ctx context.Context, input ReservationInput) (Position, error) {
	if err := validateReservationInput(input); err != nil {
		return Position{}, err
	}
	var reserved Position
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		pos, err := tx.GetPositionForUpdate(ctx, input.TenantID, input.WarehouseID, input.ProductID)
		if err != nil {
			return err
		}
		if input.Quantity.GreaterThan(pos.Available()) {
			return fmt.Errorf("%w: available %s, requested %s", ErrReservationExceedsStock, pos.Available(), input.Quantity)
		}
		pos.ReservedQuantity = pos.ReservedQuantity.Add(input.Quantity)
		if err := tx.UpsertPosition(ctx, pos); err != nil {
			return err
		}
		reserved = pos
		return nil
	})
	if err != nil {
		return Position{}, err
	}
	return reserved, nil
}

// ReleaseReservation returns allocated units to availability. Releasing more
// than is reserved clamps at zero rather than failing.
func (s *Service) ReleaseReservation(ctx context.Context, input ReservationInput) (Position, error) {
	if err := validateReservationInput(input); err != nil {
		return Position{}, err
	}
	var released Position
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		pos, err := tx.GetPositionForUpdate(ctx, input.TenantID, input.WarehouseID, input.ProductID)
		if err != nil {
			return err
		}
		pos.ReservedQuantity = pos.ReservedQuantity.Sub(input.Quantity)
		if pos.ReservedQuantity.IsNegative() {
			pos.ReservedQuantity = decimal.Zero
		}
		if err := tx.UpsertPosition(ctx, pos); err != nil {
			return err
		}
		released = pos
		return nil
	})
	if err != nil {
		return Position{}, err
	}
	return released, nil
}

// GetPosition returns the current position, or a zero-valued one when no
// movement has touched the pair yet.
func (s *Service) GetPosition(ctx context.Context, tenantID uuid.UUID, warehouseID, productID int64) (Position, error) {
	if warehouseID == 0 || productID == 0 {
		return Position{}, errors.New("stock: warehouse and product required")
	}
	pos, err := s.repo.GetPosition(ctx, tenantID, warehouseID, productID)
	if errors.Is(err, ErrPositionNotFound) {
		return Position{TenantID: tenantID, WarehouseID: warehouseID, ProductID: productID}, nil
	}
	return pos, err
}

// ListPositions lists positions in a warehouse.
func (s *Service) ListPositions(ctx context.Context, tenantID uuid.UUID, warehouseID int64, limit int) ([]Position, error) {
	if warehouseID == 0 {
		return nil, errors.New("stock: warehouse required")
	}
	return s.repo.ListPositions(ctx, tenantID, warehouseID, limit)
}

// ListMovements lists ledger history for a position.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error) {
	if filter.WarehouseID == 0 || filter.ProductID == 0 {
		return nil, 0, errors.New("stock: warehouse and product required")
	}
	return s.repo.ListMovements(ctx, filter)
}

func validateMovementInput(input MovementInput) error {
	if input.TenantID == uuid.Nil {
		return shared.ErrTenantMissing
	}
	if input.WarehouseID == 0 || input.ProductID == 0 {
		return errors.New("stock: warehouse and product required")
	}
	if !input.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMovementType, input.Type)
	}
	if !input.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if input.UnitCost.IsNegative() {
		return ErrInvalidUnitCost
	}
	return nil
}

func validateReservationInput(input ReservationInput) error {
	if input.TenantID == uuid.Nil {
		return shared.ErrTenantMissing
	}
	if input.WarehouseID == 0 || input.ProductID == 0 {
		return errors.New("stock: warehouse and product required")
	}
	if !input.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	return nil
}
