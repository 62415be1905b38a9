package alerts

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies a stock alert.
type Kind string

const (
	// KindOutOfStock means the position is at or below zero.
	KindOutOfStock Kind = "out_of_stock"
	// KindLowStock means the position is at or below the product minimum.
	KindLowStock Kind = "low_stock"
	// KindOverstock means the position is at or above the product maximum.
	KindOverstock Kind = "overstock"
)

// Alert is a persisted stock alert. At most one open alert exists per
// tenant+warehouse+product; it is resolved automatically once the position
// returns in range.
type Alert struct {
	ID          int64           `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	WarehouseID int64           `json:"warehouse_id"`
	ProductID   int64           `json:"product_id"`
	Kind        Kind            `json:"kind"`
	Status      string          `json:"status"`
	Quantity    decimal.Decimal `json:"quantity"`
	Threshold   decimal.Decimal `json:"threshold"`
	CreatedAt   time.Time       `json:"created_at"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
}

// StatusOpen and StatusResolved are the two alert lifecycle states.
const (
	StatusOpen     = "open"
	StatusResolved = "resolved"
)

// ErrUnknownStatus indicates a status filter outside the lifecycle states.
var ErrUnknownStatus = errors.New("alerts: unknown status")

// Thresholds carries the product limits the evaluator compares against.
// A zero Max disables the overstock check.
type Thresholds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Evaluate decides whether a quantity breaches the thresholds. The checks are
// ordered by severity: an empty position is out_of_stock even when it is also
// under the minimum.
func Evaluate(quantity decimal.Decimal, t Thresholds) (Kind, decimal.Decimal, bool) {
	switch {
	case !quantity.IsPositive():
		return KindOutOfStock, decimal.Zero, true
	case t.Min.IsPositive() && quantity.LessThanOrEqual(t.Min):
		return KindLowStock, t.Min, true
	case t.Max.IsPositive() && quantity.GreaterThanOrEqual(t.Max):
		return KindOverstock, t.Max, true
	default:
		return "", decimal.Zero, false
	}
}
