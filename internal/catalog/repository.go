package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, tenant_id, sku, name, unit, min_stock, max_stock, is_active, created_at, updated_at`

// CreateProduct inserts a product and returns it with generated fields.
func (r *Repository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO products (tenant_id, sku, name, unit, min_stock, max_stock, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		p.TenantID, p.SKU, p.Name, p.Unit, p.MinStock, p.MaxStock, p.IsActive).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, fmt.Errorf("%w: %s", ErrSKUExists, p.SKU)
		}
		return Product{}, err
	}
	return p, nil
}

// GetProduct fetches one product by id.
func (r *Repository) GetProduct(ctx context.Context, tenantID uuid.UUID, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id=$1 AND id=$2`, tenantID, id).
		Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Unit, &p.MinStock, &p.MaxStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// ListProducts lists products for a tenant, optionally matching a search term.
func (r *Repository) ListProducts(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	page := shared.NewPagination(filter.Page, filter.Limit, 0)
	search := "%" + filter.Search + "%"

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE tenant_id=$1 AND (sku ILIKE $2 OR name ILIKE $2)`,
		filter.TenantID, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products
WHERE tenant_id=$1 AND (sku ILIKE $2 OR name ILIKE $2)
ORDER BY sku ASC LIMIT $3 OFFSET $4`, filter.TenantID, search, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Unit, &p.MinStock, &p.MaxStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// CreateWarehouse inserts a warehouse and returns it with generated fields.
func (r *Repository) CreateWarehouse(ctx context.Context, w Warehouse) (Warehouse, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO warehouses (tenant_id, code, name, address, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		w.TenantID, w.Code, w.Name, w.Address, w.IsActive).
		Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Warehouse{}, fmt.Errorf("%w: %s", ErrCodeExists, w.Code)
		}
		return Warehouse{}, err
	}
	return w, nil
}

// GetWarehouse fetches one warehouse by id.
func (r *Repository) GetWarehouse(ctx context.Context, tenantID uuid.UUID, id int64) (Warehouse, error) {
	var w Warehouse
	err := r.pool.QueryRow(ctx, `SELECT id, tenant_id, code, name, address, is_active, created_at, updated_at FROM warehouses WHERE tenant_id=$1 AND id=$2`, tenantID, id).
		Scan(&w.ID, &w.TenantID, &w.Code, &w.Name, &w.Address, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Warehouse{}, shared.ErrNotFound
		}
		return Warehouse{}, err
	}
	return w, nil
}

// ListWarehouses lists warehouses for a tenant.
func (r *Repository) ListWarehouses(ctx context.Context, tenantID uuid.UUID) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, code, name, address, is_active, created_at, updated_at FROM warehouses WHERE tenant_id=$1 ORDER BY code ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	warehouses := []Warehouse{}
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.TenantID, &w.Code, &w.Name, &w.Address, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}
