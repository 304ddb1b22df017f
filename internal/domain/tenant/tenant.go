// Package tenant defines the organizational tenant domain model.
package tenant

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)

// Tenant is an organizational customer whose data is isolated from other tenants.
type Tenant struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Domain    *string   `json:"domain,omitempty" db:"domain"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name     string  `json:"name"`
	Domain   *string `json:"domain,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Validate normalizes the domain and checks required fields.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if len(r.Name) > 200 {
		return errors.New("name too long (max 200 chars)")
	}
	return normalizeDomain(&r.Domain)
}

// UpdateRequest holds the fields that can be updated on a tenant.
type UpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Domain   *string `json:"domain,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Validate normalizes the domain and checks field constraints.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name must not be empty")
	}
	return normalizeDomain(&r.Domain)
}

// ListFilter narrows a tenant listing.
type ListFilter struct {
	Search   string
	IsActive *bool
	Limit    uint64
	Offset   uint64
}

// Counts holds the number of dependent records a tenant owns.
type Counts struct {
	Users      int64 `json:"users"`
	Properties int64 `json:"properties"`
	Buildings  int64 `json:"buildings"`
}

// HasDependents reports whether any dependent records exist.
func (c Counts) HasDependents() bool {
	return c.Users > 0 || c.Properties > 0 || c.Buildings > 0
}

// Detail is a tenant together with its dependent counts.
type Detail struct {
	Tenant
	Counts Counts `json:"counts"`
}

// Stats summarizes a tenant's portfolio.
type Stats struct {
	Users             int64   `json:"users"`
	Buildings         int64   `json:"buildings"`
	Properties        int64   `json:"properties"`
	RentedProperties  int64   `json:"rented_properties"`
	ActiveContracts   int64   `json:"active_contracts"`
	MonthlyRentalRoll float64 `json:"monthly_rental_roll"`
}

// normalizeDomain lowercases and trims *d, clearing it when blank.
func normalizeDomain(d **string) error {
	if *d == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(**d))
	if v == "" {
		*d = nil
		return nil
	}
	if len(v) > 253 || !domainPattern.MatchString(v) {
		return errors.New("invalid domain format")
	}
	*d = &v
	return nil
}
