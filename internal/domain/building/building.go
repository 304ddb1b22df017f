// Package building defines the building domain model.
package building

import (
	"errors"
	"strings"
	"time"
)

// Building is a physical building that groups properties of one tenant.
type Building struct {
	ID               string    `json:"id" db:"id"`
	TenantID         string    `json:"tenant_id" db:"tenant_id"`
	Name             string    `json:"name" db:"name"`
	Address          string    `json:"address" db:"address"`
	City             string    `json:"city" db:"city"`
	District         string    `json:"district" db:"district"`
	TotalUnits       int       `json:"total_units" db:"total_units"`
	ConstructionYear *int      `json:"construction_year,omitempty" db:"construction_year"`
	ManagerID        *string   `json:"manager_id,omitempty" db:"manager_id"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// OwningTenant returns the tenant that owns the building.
func (b Building) OwningTenant() string { return b.TenantID }

// CreateRequest is the input for creating a building.
type CreateRequest struct {
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	City             string  `json:"city"`
	District         string  `json:"district"`
	TotalUnits       int     `json:"total_units"`
	ConstructionYear *int    `json:"construction_year,omitempty"`
	ManagerID        *string `json:"manager_id,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`

	// TenantID is honoured only for administrators acting without a resolved tenant.
	TenantID string `json:"tenant_id,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return errors.New("name is required")
	case strings.TrimSpace(r.Address) == "":
		return errors.New("address is required")
	case strings.TrimSpace(r.City) == "":
		return errors.New("city is required")
	case r.TotalUnits < 0:
		return errors.New("total_units must not be negative")
	}
	return validYear(r.ConstructionYear)
}

// UpdateRequest holds the mutable building fields.
type UpdateRequest struct {
	Name             *string `json:"name,omitempty"`
	Address          *string `json:"address,omitempty"`
	City             *string `json:"city,omitempty"`
	District         *string `json:"district,omitempty"`
	TotalUnits       *int    `json:"total_units,omitempty"`
	ConstructionYear *int    `json:"construction_year,omitempty"`
	ManagerID        *string `json:"manager_id,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

// Validate checks the optional fields of an UpdateRequest.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name must not be empty")
	}
	if r.TotalUnits != nil && *r.TotalUnits < 0 {
		return errors.New("total_units must not be negative")
	}
	return validYear(r.ConstructionYear)
}

// ListFilter narrows a building listing.
type ListFilter struct {
	Search   string
	City     string
	District string
	IsActive *bool
	Limit    uint64
	Offset   uint64
}

func validYear(y *int) error {
	if y != nil && (*y < 1800 || *y > time.Now().Year()+5) {
		return errors.New("construction_year out of range")
	}
	return nil
}
