package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists stock data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service. The
// position read locks the row (FOR UPDATE) so concurrent movements on the
// same tenant+warehouse+product serialize on it until commit or rollback.
type TxRepository interface {
	GetPositionForUpdate(ctx context.Context, tenantID uuid.UUID, warehouseID, productID int64) (Position, error)
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
	UpsertPosition(ctx context.Context, p Position) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("stock repository not initialised")
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
	return mapPgError(err)
}

// GetPosition reads the current position without locking it.
func (r *Repository) GetPosition(ctx context.Context, tenantID uuid.UUID, warehouseID, productID int64) (Position, error) {
	var pos Position
	err := r.pool.QueryRow(ctx, `SELECT tenant_id, warehouse_id, product_id, quantity, average_cost, reserved_quantity, last_movement_at
FROM stock_positions WHERE tenant_id=$1 AND warehouse_id=$2 AND product_id=$3`, tenantID, warehouseID, productID).
		Scan(&pos.TenantID, &pos.WarehouseID, &pos.ProductID, &pos.Quantity, &pos.AverageCost, &pos.ReservedQuantity, &pos.LastMovementAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Position{}, ErrPositionNotFound
		}
		return Position{}, err
	}
	return pos, nil
}

// ListPositions lists positions in a warehouse ordered by product.
func (r *Repository) ListPositions(ctx context.Context, tenantID uuid.UUID, warehouseID int64, limit int) ([]Position, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT tenant_id, warehouse_id, product_id, quantity, average_cost, reserved_quantity, last_movement_at
FROM stock_positions WHERE tenant_id=$1 AND warehouse_id=$2 ORDER BY product_id ASC LIMIT $3`, tenantID, warehouseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	positions := []Position{}
	for rows.Next() {
		var pos Position
		if err := rows.Scan(&pos.TenantID, &pos.WarehouseID, &pos.ProductID, &pos.Quantity, &pos.AverageCost, &pos.ReservedQuantity, &pos.LastMovementAt); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// ListMovements lists ledger entries matching the filter, newest first, plus
// the total count for pagination.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error) {
	page := shared.NewPagination(filter.Page, filter.Limit, 0)
	from := nullTimestamptz(filter.From)
	to := nullTimestamptz(filter.To)

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements
WHERE tenant_id=$1 AND warehouse_id=$2 AND product_id=$3
AND created_at BETWEEN COALESCE($4, '-infinity') AND COALESCE($5, 'infinity')`,
		filter.TenantID, filter.WarehouseID, filter.ProductID, from, to).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, warehouse_id, product_id, movement_type, quantity, unit_cost, reference, notes, user_id, created_at
FROM stock_movements
WHERE tenant_id=$1 AND warehouse_id=$2 AND product_id=$3
AND created_at BETWEEN COALESCE($4, '-infinity') AND COALESCE($5, 'infinity')
ORDER BY created_at DESC, id DESC
LIMIT $6 OFFSET $7`,
		filter.TenantID, filter.WarehouseID, filter.ProductID, from, to, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	movements := []Movement{}
	for rows.Next() {
		var m Movement
		var userID *int64
		if err := rows.Scan(&m.ID, &m.TenantID, &m.WarehouseID, &m.ProductID, &m.Type, &m.Quantity, &m.UnitCost, &m.Reference, &m.Notes, &userID, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		if userID != nil {
			m.UserID = *userID
		}
		movements = append(movements, m)
	}
	return movements, total, rows.Err()
}

func (r *txRepository) GetPositionForUpdate(ctx context.Context, tenantID uuid.UUID, warehouseID, productID int64) (Position, error) {
	var pos Position
	err := r.tx.QueryRow(ctx, `SELECT tenant_id, warehouse_id, product_id, quantity, average_cost, reserved_quantity, last_movement_at
FROM stock_positions WHERE tenant_id=$1 AND warehouse_id=$2 AND product_id=$3 FOR UPDATE`, tenantID, warehouseID, productID).
		Scan(&pos.TenantID, &pos.WarehouseID, &pos.ProductID, &pos.Quantity, &pos.AverageCost, &pos.ReservedQuantity, &pos.LastMovementAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Position{}, ErrPositionNotFound
		}
		return Position{}, err
	}
	return pos, nil
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_movements (tenant_id, warehouse_id, product_id, movement_type, quantity, unit_cost, reference, notes, user_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW()) RETURNING id, created_at`,
		m.TenantID, m.WarehouseID, m.ProductID, string(m.Type), m.Quantity, m.UnitCost, m.Reference, m.Notes, nullInt(m.UserID)).
		Scan(&m.ID, &m.CreatedAt)
	return m, err
}

func (r *txRepository) UpsertPosition(ctx context.Context, p Position) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_positions (tenant_id, warehouse_id, product_id, quantity, average_cost, reserved_quantity, last_movement_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (tenant_id, warehouse_id, product_id) DO UPDATE
SET quantity=EXCLUDED.quantity, average_cost=EXCLUDED.average_cost, reserved_quantity=EXCLUDED.reserved_quantity, last_movement_at=EXCLUDED.last_movement_at`,
		p.TenantID, p.WarehouseID, p.ProductID, p.Quantity, p.AverageCost, p.ReservedQuantity, p.LastMovementAt)
	return err
}

// mapPgError translates Postgres failure classes the caller can act on.
// Foreign-key violations mean an unknown warehouse/product/tenant reference.
// Lock timeouts and serialization failures are transient and safe to retry;
// the latter happens when two first movements race to create the same
// position row, since FOR UPDATE has nothing to lock yet.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return fmt.Errorf("%w: %s", shared.ErrNotFound, pgErr.ConstraintName)
		case "55P03", "40001":
			return fmt.Errorf("%w: %s", ErrLockUnavailable, pgErr.Message)
		}
	}
	return err
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

// nullTimestamptz wraps an optional time as a typed NULL. Untyped nil params
// leave the placeholder type unknown, and COALESCE over all-unknown arguments
// resolves to text, which no timestamptz operator accepts.
func nullTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}
