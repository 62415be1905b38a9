package stock

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func TestNullTimestamptz(t *testing.T) {
	zero := nullTimestamptz(time.Time{})
	require.False(t, zero.Valid, "zero time must become a typed NULL, not a value")

	now := time.Now()
	set := nullTimestamptz(now)
	require.True(t, set.Valid)
	require.Equal(t, now, set.Time)
}

func TestMapPgError(t *testing.T) {
	require.NoError(t, mapPgError(nil))

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "stock_movements_product_id_fkey"}
	require.ErrorIs(t, mapPgError(fk), shared.ErrNotFound)

	lock := &pgconn.PgError{Code: "55P03", Message: "could not obtain lock on row"}
	require.ErrorIs(t, mapPgError(lock), ErrLockUnavailable)

	// Two first movements racing to create the same position row surface as
	// a serialization failure; it is just as retryable as a lock timeout.
	serialization := &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
	require.ErrorIs(t, mapPgError(serialization), ErrLockUnavailable)

	unique := &pgconn.PgError{Code: "23505"}
	require.NotErrorIs(t, mapPgError(unique), ErrLockUnavailable)

	plain := fmt.Errorf("boom")
	require.Equal(t, plain, mapPgError(plain))
}
