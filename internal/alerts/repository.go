package alerts

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists stock alerts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertOpen raises or refreshes the open alert for a position. The partial
// unique index on (tenant_id, warehouse_id, product_id) WHERE status='open'
// keeps it to one row.
func (r *Repository) UpsertOpen(ctx context.Context, a Alert) (Alert, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO stock_alerts (tenant_id, warehouse_id, product_id, kind, status, quantity, threshold, created_at)
VALUES ($1,$2,$3,$4,'open',$5,$6,NOW())
ON CONFLICT (tenant_id, warehouse_id, product_id) WHERE status='open'
DO UPDATE SET kind=EXCLUDED.kind, quantity=EXCLUDED.quantity, threshold=EXCLUDED.threshold
RETURNING id, status, created_at`,
		a.TenantID, a.WarehouseID, a.ProductID, string(a.Kind), a.Quantity, a.Threshold).
		Scan(&a.ID, &a.Status, &a.CreatedAt)
	return a, err
}

// Resolve closes any open alert for the position.
func (r *Repository) Resolve(ctx context.Context, tenantID uuid.UUID, warehouseID, productID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE stock_alerts SET status='resolved', resolved_at=NOW()
WHERE tenant_id=$1 AND warehouse_id=$2 AND product_id=$3 AND status='open'`, tenantID, warehouseID, productID)
	return err
}

// List returns alerts for a tenant, optionally filtered by warehouse and status.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, warehouseID int64, status string, limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, warehouse_id, product_id, kind, status, quantity, threshold, created_at, resolved_at
FROM stock_alerts
WHERE tenant_id=$1 AND ($2=0 OR warehouse_id=$2) AND ($3='' OR status=$3)
ORDER BY created_at DESC LIMIT $4`, tenantID, warehouseID, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []Alert{}
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.TenantID, &a.WarehouseID, &a.ProductID, &a.Kind, &a.Status, &a.Quantity, &a.Threshold, &a.CreatedAt, &a.ResolvedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
