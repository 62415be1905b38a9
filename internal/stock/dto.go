package stock

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// recordMovementRequest is the JSON payload of POST /stock/movements.
// Quantity is a positive magnitude; direction comes from Type. Decimals
// accept both JSON numbers and strings.
type recordMovementRequest struct {
	WarehouseID int64           `json:"warehouse_id" validate:"required,gt=0"`
	ProductID   int64           `json:"product_id" validate:"required,gt=0"`
	Type        string          `json:"type" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Reference   string          `json:"reference" validate:"omitempty,max=100"`
	Notes       string          `json:"notes" validate:"omitempty,max=1000"`
	UserID      int64           `json:"user_id" validate:"omitempty,gt=0"`
}

type reservationRequest struct {
	WarehouseID int64           `json:"warehouse_id" validate:"required,gt=0"`
	ProductID   int64           `json:"product_id" validate:"required,gt=0"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type movementListResponse struct {
	Movements  []Movement        `json:"movements"`
	Pagination shared.Pagination `json:"pagination"`
}

type positionListResponse struct {
	Positions []Position `json:"positions"`
}
