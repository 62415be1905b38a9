package stock

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType enumerates supported stock movements. Direction is carried by
// the type, never by the sign of the quantity.
type MovementType string

const (
	// MovementEntry represents an inbound receipt (e.g. purchase).
	MovementEntry MovementType = "entry"
	// MovementExit represents an outbound issue (e.g. sale).
	MovementExit MovementType = "exit"
	// MovementTransferIn receives stock from another warehouse.
	MovementTransferIn MovementType = "transfer_in"
	// MovementTransferOut sends stock to another warehouse.
	MovementTransferOut MovementType = "transfer_out"
	// MovementAdjustment replaces the on-hand quantity from a physical count.
	MovementAdjustment MovementType = "adjustment"
	// MovementReturn represents a customer return flowing back into stock.
	MovementReturn MovementType = "return"
)

// Valid reports whether the type is one of the closed set.
func (t MovementType) Valid() bool {
	switch t {
	case MovementEntry, MovementExit, MovementTransferIn, MovementTransferOut, MovementAdjustment, MovementReturn:
		return true
	}
	return false
}

// Inbound reports whether the movement adds cost-bearing units.
func (t MovementType) Inbound() bool {
	switch t {
	case MovementEntry, MovementTransferIn, MovementReturn:
		return true
	}
	return false
}

// Outbound reports whether the movement consumes units at the current average cost.
func (t MovementType) Outbound() bool {
	switch t {
	case MovementExit, MovementTransferOut:
		return true
	}
	return false
}

// Movement is one immutable ledger entry in stock_movements. Rows are only
// ever inserted; the table is the audit trail.
type Movement struct {
	ID          int64           `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	WarehouseID int64           `json:"warehouse_id"`
	ProductID   int64           `json:"product_id"`
	Type        MovementType    `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	UserID      int64           `json:"user_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Position is the mutable projection per tenant+warehouse+product, advanced
// one movement at a time. Replaying all movements in creation order must
// reproduce it.
type Position struct {
	TenantID         uuid.UUID       `json:"tenant_id"`
	WarehouseID      int64           `json:"warehouse_id"`
	ProductID        int64           `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	AverageCost      decimal.Decimal `json:"average_cost"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
	LastMovementAt   time.Time       `json:"last_movement_at"`
}

// Available returns on-hand units not allocated to reservations.
func (p Position) Available() decimal.Decimal {
	return p.Quantity.Sub(p.ReservedQuantity)
}

// MovementInput describes a validated movement request.
type MovementInput struct {
	TenantID       uuid.UUID
	WarehouseID    int64
	ProductID      int64
	Type           MovementType
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	Reference      string
	Notes          string
	UserID         int64
	IdempotencyKey string
}

// ReservationInput describes a reservation change request.
type ReservationInput struct {
	TenantID    uuid.UUID
	WarehouseID int64
	ProductID   int64
	Quantity    decimal.Decimal
}

// MovementFilter filters ledger history listings.
type MovementFilter struct {
	TenantID    uuid.UUID
	WarehouseID int64
	ProductID   int64
	From        time.Time
	To          time.Time
	Page        int
	Limit       int
}

// ErrUnknownMovementType indicates a movement type outside the closed set.
var ErrUnknownMovementType = errors.New("stock: unknown movement type")

// ErrInvalidQuantity indicates a non-positive quantity.
var ErrInvalidQuantity = errors.New("stock: quantity must be positive")

// ErrInvalidUnitCost indicates a negative unit cost.
var ErrInvalidUnitCost = errors.New("stock: unit cost must be >= 0")

// ErrInsufficientStock triggered when an outbound movement would drive the
// position negative and the negative-stock policy forbids it.
var ErrInsufficientStock = errors.New("stock: insufficient stock")

// ErrPositionNotFound indicates a missing position row.
var ErrPositionNotFound = errors.New("stock: position not found")

// ErrReservationExceedsStock indicates a reservation beyond available units.
var ErrReservationExceedsStock = errors.New("stock: reservation exceeds available stock")

// ErrLockUnavailable indicates the position row lock could not be acquired in
// time. The operation is safe to retry; a retry re-reads the current position.
var ErrLockUnavailable = errors.New("stock: position lock unavailable")
