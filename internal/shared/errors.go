package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrTenantMissing occurs when a request carries no tenant.
	ErrTenantMissing = errors.New("tenant missing")
	// ErrTenantInvalid occurs when the tenant identifier cannot be parsed.
	ErrTenantInvalid = errors.New("tenant invalid")
)
