package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item. MinStock and MaxStock are the thresholds the
// alert evaluator compares positions against; zero MaxStock disables the
// overstock check.
type Product struct {
	ID        int64           `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	MinStock  decimal.Decimal `json:"min_stock"`
	MaxStock  decimal.Decimal `json:"max_stock"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Warehouse is a stock-keeping location.
type Warehouse struct {
	ID        int64     `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter filters catalog listings.
type ListFilter struct {
	TenantID uuid.UUID
	Search   string
	Page     int
	Limit    int
}

// ErrSKUExists indicates a duplicate product SKU within a tenant.
var ErrSKUExists = errors.New("catalog: sku already exists")

// ErrCodeExists indicates a duplicate warehouse code within a tenant.
var ErrCodeExists = errors.New("catalog: warehouse code already exists")

// ErrInvalidThresholds indicates max stock below min stock.
var ErrInvalidThresholds = errors.New("catalog: max stock must be zero or >= min stock")
