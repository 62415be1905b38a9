package stock

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Valuation is the cost-bearing slice of a position: on-hand quantity and the
// weighted-average unit cost of those units.
type Valuation struct {
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
}

// ApplyMovement computes the valuation that results from applying one
// movement to the current valuation. It is pure arithmetic: no I/O and no
// business policy. A zero Valuation stands in for an absent position.
//
// Inbound movements blend the movement cost into the running average. A
// zero-cost inbound (free sample restock) leaves the average untouched, and
// so does an inbound that lands the quantity at or below zero, which keeps
// the division well defined. Outbound movements consume at the existing
// average without changing it. Adjustments replace the quantity from a
// physical count and keep the cost basis.
func ApplyMovement(current Valuation, typ MovementType, qty, unitCost decimal.Decimal) (Valuation, error) {
	switch typ {
	case MovementEntry, MovementTransferIn, MovementReturn:
		newQty := current.Quantity.Add(qty)
		avg := current.AverageCost
		if unitCost.IsPositive() && newQty.IsPositive() {
			total := current.Quantity.Mul(current.AverageCost).Add(qty.Mul(unitCost))
			avg = total.Div(newQty)
		}
		return Valuation{Quantity: newQty, AverageCost: avg}, nil
	case MovementExit, MovementTransferOut:
		return Valuation{Quantity: current.Quantity.Sub(qty), AverageCost: current.AverageCost}, nil
	case MovementAdjustment:
		return Valuation{Quantity: qty, AverageCost: current.AverageCost}, nil
	default:
		return Valuation{}, fmt.Errorf("%w: %q", ErrUnknownMovementType, typ)
	}
}
