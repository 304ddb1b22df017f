package tenancy

import (
	"errors"
	"fmt"

	"github.com/Strob0t/PropDesk/internal/domain"
)

var (
	// ErrResolution wraps any directory failure during tenant resolution.
	// It never leaves the resolver.
	ErrResolution = errors.New("tenant resolution failed")

	// ErrDirectoryUnavailable means the tenant directory could not be reached.
	ErrDirectoryUnavailable = errors.New("tenant directory unavailable")

	// ErrCrossTenantDenied is returned when a non-admin principal targets a
	// tenant other than its home tenant.
	ErrCrossTenantDenied = fmt.Errorf("access to another tenant's data is not permitted: %w", domain.ErrForbidden)

	// ErrAccessDenied is returned by resource-level access checks.
	ErrAccessDenied = fmt.Errorf("access denied: %w", domain.ErrForbidden)

	// ErrTenantRequired is returned when an operation needs a tenant context and none is available.
	ErrTenantRequired = errors.New("tenant context is required for this operation")

	// ErrEntityNotInTenant is returned by strict-mode gateways when an update
	// or delete targets no record inside the gateway's tenant.
	ErrEntityNotInTenant = errors.New("entity not found in tenant")
)
