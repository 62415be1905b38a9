package alerts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/catalog"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/stock"
)

var testTenant = uuid.MustParse("9e2b41c4-0b51-4b6c-8a5e-6f3b1a2d4c7e")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name      string
		quantity  string
		min       string
		max       string
		wantKind  Kind
		breached  bool
		threshold string
	}{
		{name: "in range", quantity: "50", min: "10", max: "100", breached: false},
		{name: "empty", quantity: "0", min: "10", max: "100", wantKind: KindOutOfStock, breached: true, threshold: "0"},
		{name: "oversold", quantity: "-3", min: "10", max: "100", wantKind: KindOutOfStock, breached: true, threshold: "0"},
		{name: "at minimum", quantity: "10", min: "10", max: "100", wantKind: KindLowStock, breached: true, threshold: "10"},
		{name: "below minimum", quantity: "5", min: "10", max: "100", wantKind: KindLowStock, breached: true, threshold: "10"},
		{name: "at maximum", quantity: "100", min: "10", max: "100", wantKind: KindOverstock, breached: true, threshold: "100"},
		{name: "max disabled", quantity: "1000", min: "10", max: "0", breached: false},
		{name: "min disabled", quantity: "1", min: "0", max: "100", breached: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, threshold, breached := Evaluate(dec(tc.quantity), Thresholds{Min: dec(tc.min), Max: dec(tc.max)})
			require.Equal(t, tc.breached, breached)
			if tc.breached {
				require.Equal(t, tc.wantKind, kind)
				require.True(t, threshold.Equal(dec(tc.threshold)), "threshold %s", threshold)
			}
		})
	}
}

type memoryAlertRepo struct {
	open     map[string]Alert
	resolved int
	nextID   int64
	listErr  error
}

func newMemoryAlertRepo() *memoryAlertRepo {
	return &memoryAlertRepo{open: make(map[string]Alert)}
}

func alertKey(tenantID uuid.UUID, warehouseID, productID int64) string {
	return fmt.Sprintf("%s:%d:%d", tenantID, warehouseID, productID)
}

func (r *memoryAlertRepo) UpsertOpen(ctx context.Context, a Alert) (Alert, error) {
	key := alertKey(a.TenantID, a.WarehouseID, a.ProductID)
	if existing, ok := r.open[key]; ok {
		existing.Kind = a.Kind
		existing.Quantity = a.Quantity
		existing.Threshold = a.Threshold
		r.open[key] = existing
		return existing, nil
	}
	r.nextID++
	a.ID = r.nextID
	a.Status = StatusOpen
	a.CreatedAt = time.Now()
	r.open[key] = a
	return a, nil
}

func (r *memoryAlertRepo) Resolve(ctx context.Context, tenantID uuid.UUID, warehouseID, productID int64) error {
	key := alertKey(tenantID, warehouseID, productID)
	if _, ok := r.open[key]; ok {
		delete(r.open, key)
		r.resolved++
	}
	return nil
}

func (r *memoryAlertRepo) List(ctx context.Context, tenantID uuid.UUID, warehouseID int64, status string, limit int) ([]Alert, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []Alert
	for _, a := range r.open {
		out = append(out, a)
	}
	return out, nil
}

type staticProducts struct {
	products map[int64]catalog.Product
}

func (p *staticProducts) GetProduct(ctx context.Context, tenantID uuid.UUID, id int64) (catalog.Product, error) {
	product, ok := p.products[id]
	if !ok {
		return catalog.Product{}, shared.ErrNotFound
	}
	return product, nil
}

func position(productID int64, qty string) stock.Position {
	return stock.Position{TenantID: testTenant, WarehouseID: 1, ProductID: productID, Quantity: dec(qty)}
}

func TestEvaluatePositionLifecycle(t *testing.T) {
	repo := newMemoryAlertRepo()
	products := &staticProducts{products: map[int64]catalog.Product{
		1: {ID: 1, TenantID: testTenant, SKU: "SKU-1", MinStock: dec("10"), MaxStock: dec("100")},
	}}
	svc := NewService(repo, products, nil, nil, nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, svc.EvaluatePosition(ctx, position(1, "5")))
	require.Len(t, repo.open, 1)
	for _, a := range repo.open {
		require.Equal(t, KindLowStock, a.Kind)
	}

	// The position draining further escalates the same open alert.
	require.NoError(t, svc.EvaluatePosition(ctx, position(1, "0")))
	require.Len(t, repo.open, 1)
	for _, a := range repo.open {
		require.Equal(t, KindOutOfStock, a.Kind)
	}

	// Restocking into range resolves it.
	require.NoError(t, svc.EvaluatePosition(ctx, position(1, "50")))
	require.Empty(t, repo.open)
	require.Equal(t, 1, repo.resolved)
}

func TestEvaluatePositionUnknownProduct(t *testing.T) {
	repo := newMemoryAlertRepo()
	svc := NewService(repo, &staticProducts{products: map[int64]catalog.Product{}}, nil, nil, nil, time.Minute)

	require.NoError(t, svc.EvaluatePosition(context.Background(), position(99, "0")))
	require.Empty(t, repo.open, "positions without a catalog product never alert")
}

func TestNotificationCooldown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := newMemoryAlertRepo()
	products := &staticProducts{products: map[int64]catalog.Product{
		1: {ID: 1, TenantID: testTenant, SKU: "SKU-1", MinStock: dec("10")},
	}}
	svc := NewService(repo, products, client, nil, nil, time.Minute)
	ctx := context.Background()

	require.True(t, svc.shouldNotify(ctx, Alert{TenantID: testTenant, WarehouseID: 1, ProductID: 1, Kind: KindLowStock}))
	require.False(t, svc.shouldNotify(ctx, Alert{TenantID: testTenant, WarehouseID: 1, ProductID: 1, Kind: KindLowStock}),
		"second notification inside the cooldown window is suppressed")

	// A different kind for the same position notifies independently.
	require.True(t, svc.shouldNotify(ctx, Alert{TenantID: testTenant, WarehouseID: 1, ProductID: 1, Kind: KindOutOfStock}))

	mr.FastForward(2 * time.Minute)
	require.True(t, svc.shouldNotify(ctx, Alert{TenantID: testTenant, WarehouseID: 1, ProductID: 1, Kind: KindLowStock}),
		"cooldown expiry re-arms the notification")
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMemoryAlertRepo(), &staticProducts{}, nil, nil, nil, time.Minute)
	_, err := svc.List(context.Background(), testTenant, 0, "snoozed", 10)
	require.ErrorIs(t, err, ErrUnknownStatus)
}
