package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var testTenant = uuid.MustParse("6c1a8cbe-7a40-45a1-93d8-2f40b3a1f2aa")

type memoryCatalogRepo struct {
	products   map[int64]Product
	warehouses map[int64]Warehouse
	nextID     int64
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{products: make(map[int64]Product), warehouses: make(map[int64]Warehouse)}
}

func (r *memoryCatalogRepo) CreateProduct(ctx context.Context, p Product) (Product, error) {
	for _, existing := range r.products {
		if existing.TenantID == p.TenantID && existing.SKU == p.SKU {
			return Product{}, ErrSKUExists
		}
	}
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryCatalogRepo) GetProduct(ctx context.Context, tenantID uuid.UUID, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryCatalogRepo) ListProducts(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	var out []Product
	for _, p := range r.products {
		if p.TenantID == filter.TenantID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (r *memoryCatalogRepo) CreateWarehouse(ctx context.Context, w Warehouse) (Warehouse, error) {
	for _, existing := range r.warehouses {
		if existing.TenantID == w.TenantID && existing.Code == w.Code {
			return Warehouse{}, ErrCodeExists
		}
	}
	r.nextID++
	w.ID = r.nextID
	r.warehouses[w.ID] = w
	return w, nil
}

func (r *memoryCatalogRepo) GetWarehouse(ctx context.Context, tenantID uuid.UUID, id int64) (Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok || w.TenantID != tenantID {
		return Warehouse{}, shared.ErrNotFound
	}
	return w, nil
}

func (r *memoryCatalogRepo) ListWarehouses(ctx context.Context, tenantID uuid.UUID) ([]Warehouse, error) {
	var out []Warehouse
	for _, w := range r.warehouses {
		if w.TenantID == tenantID {
			out = append(out, w)
		}
	}
	return out, nil
}

func TestCreateProductNormalizesSKU(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())

	p, err := svc.CreateProduct(context.Background(), Product{TenantID: testTenant, SKU: "  ab-01 ", Name: "Widget"})
	require.NoError(t, err)
	require.Equal(t, "AB-01", p.SKU)
	require.True(t, p.IsActive)

	_, err = svc.CreateProduct(context.Background(), Product{TenantID: testTenant, SKU: "ab-01", Name: "Widget again"})
	require.ErrorIs(t, err, ErrSKUExists)
}

func TestCreateProductThresholds(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, Product{TenantID: testTenant, SKU: "A", Name: "A", MinStock: decimal.NewFromInt(10), MaxStock: decimal.NewFromInt(5)})
	require.ErrorIs(t, err, ErrInvalidThresholds)

	// Zero max disables the overstock check entirely.
	_, err = svc.CreateProduct(ctx, Product{TenantID: testTenant, SKU: "B", Name: "B", MinStock: decimal.NewFromInt(10)})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, Product{TenantID: testTenant, SKU: "C", Name: "C", MinStock: decimal.NewFromInt(-1)})
	require.Error(t, err)
}

func TestCreateWarehouseNormalizesCode(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())

	w, err := svc.CreateWarehouse(context.Background(), Warehouse{TenantID: testTenant, Code: " main ", Name: "Main"})
	require.NoError(t, err)
	require.Equal(t, "MAIN", w.Code)

	_, err = svc.CreateWarehouse(context.Background(), Warehouse{TenantID: testTenant, Code: "MAIN", Name: "Other"})
	require.ErrorIs(t, err, ErrCodeExists)
}
