package stock

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyMovementWeightedAverage(t *testing.T) {
	current := Valuation{Quantity: dec("100"), AverageCost: dec("10.00")}

	got, err := ApplyMovement(current, MovementEntry, dec("50"), dec("16.00"))
	require.NoError(t, err)
	require.True(t, got.Quantity.Equal(dec("150")), "quantity %s", got.Quantity)
	require.True(t, got.AverageCost.Equal(dec("12")), "average cost %s", got.AverageCost)
}

func TestApplyMovementFirstInbound(t *testing.T) {
	got, err := ApplyMovement(Valuation{}, MovementEntry, dec("10"), dec("100"))
	require.NoError(t, err)
	require.True(t, got.Quantity.Equal(dec("10")))
	require.True(t, got.AverageCost.Equal(dec("100")))
}

func TestApplyMovementOutboundKeepsAverage(t *testing.T) {
	current := Valuation{Quantity: dec("100"), AverageCost: dec("10.00")}

	for _, typ := range []MovementType{MovementExit, MovementTransferOut} {
		got, err := ApplyMovement(current, typ, dec("30"), decimal.Zero)
		require.NoError(t, err)
		require.True(t, got.Quantity.Equal(dec("70")), "%s quantity %s", typ, got.Quantity)
		require.True(t, got.AverageCost.Equal(dec("10.00")), "%s average cost %s", typ, got.AverageCost)
	}
}

func TestApplyMovementZeroCostInbound(t *testing.T) {
	current := Valuation{Quantity: dec("100"), AverageCost: dec("10.00")}

	got, err := ApplyMovement(current, MovementEntry, dec("20"), decimal.Zero)
	require.NoError(t, err)
	require.True(t, got.Quantity.Equal(dec("120")))
	require.True(t, got.AverageCost.Equal(dec("10.00")), "free units must not dilute the average")
}

func TestApplyMovementInboundIntoNonPositiveQuantity(t *testing.T) {
	// Oversold position climbing back to zero: the division guard keeps the
	// prior average instead of producing garbage.
	current := Valuation{Quantity: dec("-5"), AverageCost: dec("10.00")}

	got, err := ApplyMovement(current, MovementEntry, dec("5"), dec("20"))
	require.NoError(t, err)
	require.True(t, got.Quantity.IsZero())
	require.True(t, got.AverageCost.Equal(dec("10.00")))
}

func TestApplyMovementInboundVariants(t *testing.T) {
	current := Valuation{Quantity: dec("10"), AverageCost: dec("8")}

	for _, typ := range []MovementType{MovementTransferIn, MovementReturn} {
		got, err := ApplyMovement(current, typ, dec("10"), dec("12"))
		require.NoError(t, err)
		require.True(t, got.Quantity.Equal(dec("20")), "%s", typ)
		require.True(t, got.AverageCost.Equal(dec("10")), "%s average cost %s", typ, got.AverageCost)
	}
}

func TestApplyMovementAdjustment(t *testing.T) {
	current := Valuation{Quantity: dec("100"), AverageCost: dec("10.00")}

	got, err := ApplyMovement(current, MovementAdjustment, dec("65"), decimal.Zero)
	require.NoError(t, err)
	require.True(t, got.Quantity.Equal(dec("65")), "adjustment replaces the quantity")
	require.True(t, got.AverageCost.Equal(dec("10.00")), "adjustment keeps the cost basis")
}

func TestApplyMovementUnknownType(t *testing.T) {
	_, err := ApplyMovement(Valuation{}, MovementType("teleport"), dec("1"), dec("1"))
	require.ErrorIs(t, err, ErrUnknownMovementType)
}
