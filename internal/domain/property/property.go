// Package property defines rental properties and their documents and maintenance records.
package property

import (
	"errors"
	"strings"
	"time"
)

// Type classifies a property.
type Type string

const (
	TypeApartment Type = "APARTMENT"
	TypeHouse     Type = "HOUSE"
	TypeVilla     Type = "VILLA"
	TypeOffice    Type = "OFFICE"
	TypeShop      Type = "SHOP"
	TypeLand      Type = "LAND"
	TypeOther     Type = "OTHER"
)

var validTypes = map[Type]bool{
	TypeApartment: true, TypeHouse: true, TypeVilla: true, TypeOffice: true,
	TypeShop: true, TypeLand: true, TypeOther: true,
}

// Status is the rental state of a property.
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusRented      Status = "RENTED"
	StatusMaintenance Status = "MAINTENANCE"
	StatusSold        Status = "SOLD"
)

var validStatuses = map[Status]bool{
	StatusAvailable: true, StatusRented: true, StatusMaintenance: true, StatusSold: true,
}

// Property is a rentable unit owned by one tenant.
type Property struct {
	ID            string    `json:"id" db:"id"`
	TenantID      string    `json:"tenant_id" db:"tenant_id"`
	BuildingID    *string   `json:"building_id,omitempty" db:"building_id"`
	Title         string    `json:"title" db:"title"`
	Type          Type      `json:"type" db:"type"`
	Status        Status    `json:"status" db:"status"`
	Address       string    `json:"address" db:"address"`
	City          string    `json:"city" db:"city"`
	District      string    `json:"district" db:"district"`
	TotalArea     float64   `json:"total_area" db:"total_area"`
	NumberOfRooms *int      `json:"number_of_rooms,omitempty" db:"number_of_rooms"`
	Floor         *int      `json:"floor,omitempty" db:"floor"`
	Description   *string   `json:"description,omitempty" db:"description"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// OwningTenant returns the tenant that owns the property.
func (p Property) OwningTenant() string { return p.TenantID }

// CreateRequest is the input for creating a property.
type CreateRequest struct {
	Title         string  `json:"title"`
	Type          Type    `json:"type"`
	Status        Status  `json:"status,omitempty"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	District      string  `json:"district"`
	TotalArea     float64 `json:"total_area"`
	NumberOfRooms *int    `json:"number_of_rooms,omitempty"`
	Floor         *int    `json:"floor,omitempty"`
	Description   *string `json:"description,omitempty"`
	BuildingID    *string `json:"building_id,omitempty"`

	// TenantID is honoured only for administrators acting without a resolved tenant.
	TenantID string `json:"tenant_id,omitempty"`
}

// Validate checks required fields and fills the default status.
func (r *CreateRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return errors.New("title is required")
	case !validTypes[r.Type]:
		return errors.New("invalid property type")
	case strings.TrimSpace(r.Address) == "":
		return errors.New("address is required")
	case strings.TrimSpace(r.City) == "":
		return errors.New("city is required")
	case r.TotalArea <= 0:
		return errors.New("total_area must be positive")
	}
	if r.Status == "" {
		r.Status = StatusAvailable
	}
	if !validStatuses[r.Status] {
		return errors.New("invalid property status")
	}
	return nil
}

// UpdateRequest holds the mutable property fields.
type UpdateRequest struct {
	Title         *string  `json:"title,omitempty"`
	Type          *Type    `json:"type,omitempty"`
	Status        *Status  `json:"status,omitempty"`
	Address       *string  `json:"address,omitempty"`
	City          *string  `json:"city,omitempty"`
	District      *string  `json:"district,omitempty"`
	TotalArea     *float64 `json:"total_area,omitempty"`
	NumberOfRooms *int     `json:"number_of_rooms,omitempty"`
	Floor         *int     `json:"floor,omitempty"`
	Description   *string  `json:"description,omitempty"`
	BuildingID    *string  `json:"building_id,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

// Validate checks the optional fields of an UpdateRequest.
func (r *UpdateRequest) Validate() error {
	switch {
	case r.Title != nil && strings.TrimSpace(*r.Title) == "":
		return errors.New("title must not be empty")
	case r.Type != nil && !validTypes[*r.Type]:
		return errors.New("invalid property type")
	case r.Status != nil && !validStatuses[*r.Status]:
		return errors.New("invalid property status")
	case r.TotalArea != nil && *r.TotalArea <= 0:
		return errors.New("total_area must be positive")
	}
	return nil
}

// ListFilter narrows a property listing.
type ListFilter struct {
	Search     string
	Status     Status
	Type       Type
	City       string
	BuildingID string
	MinArea    *float64
	MaxArea    *float64
	Limit      uint64
	Offset     uint64
}
