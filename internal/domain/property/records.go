package property

import (
	"errors"
	"strings"
	"time"
)

// Document is metadata for a file attached to a property. Only the URL is stored.
type Document struct {
	ID          string    `json:"id" db:"id"`
	TenantID    string    `json:"tenant_id" db:"tenant_id"`
	PropertyID  string    `json:"property_id" db:"property_id"`
	Title       string    `json:"title" db:"title"`
	Type        string    `json:"type" db:"type"`
	FileURL     string    `json:"file_url" db:"file_url"`
	FileName    string    `json:"file_name" db:"file_name"`
	FileType    string    `json:"file_type" db:"file_type"`
	FileSize    *int64    `json:"file_size,omitempty" db:"file_size"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// OwningTenant returns the tenant that owns the document.
func (d Document) OwningTenant() string { return d.TenantID }

// AddDocumentRequest is the input for attaching a document to a property.
type AddDocumentRequest struct {
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	FileURL     string  `json:"file_url"`
	FileName    string  `json:"file_name"`
	FileType    string  `json:"file_type"`
	FileSize    *int64  `json:"file_size,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Validate checks that the AddDocumentRequest has all required fields.
func (r *AddDocumentRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return errors.New("title is required")
	case r.Type == "":
		return errors.New("type is required")
	case !strings.HasPrefix(r.FileURL, "http://") && !strings.HasPrefix(r.FileURL, "https://"):
		return errors.New("file_url must be an http(s) URL")
	case r.FileName == "":
		return errors.New("file_name is required")
	case r.FileType == "":
		return errors.New("file_type is required")
	}
	return nil
}

// Maintenance is a maintenance record for a property.
type Maintenance struct {
	ID              string     `json:"id" db:"id"`
	TenantID        string     `json:"tenant_id" db:"tenant_id"`
	PropertyID      string     `json:"property_id" db:"property_id"`
	Title           string     `json:"title" db:"title"`
	Description     *string    `json:"description,omitempty" db:"description"`
	Cost            *float64   `json:"cost,omitempty" db:"cost"`
	Date            time.Time  `json:"date" db:"date"`
	MaintenanceType string     `json:"maintenance_type" db:"maintenance_type"`
	Contractor      *string    `json:"contractor,omitempty" db:"contractor"`
	InvoiceNumber   *string    `json:"invoice_number,omitempty" db:"invoice_number"`
	Warranty        *time.Time `json:"warranty,omitempty" db:"warranty"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// OwningTenant returns the tenant that owns the maintenance record.
func (m Maintenance) OwningTenant() string { return m.TenantID }

// AddMaintenanceRequest is the input for recording maintenance on a property.
type AddMaintenanceRequest struct {
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	Cost            *float64   `json:"cost,omitempty"`
	Date            time.Time  `json:"date"`
	MaintenanceType string     `json:"maintenance_type"`
	Contractor      *string    `json:"contractor,omitempty"`
	InvoiceNumber   *string    `json:"invoice_number,omitempty"`
	Warranty        *time.Time `json:"warranty,omitempty"`
}

// Validate checks that the AddMaintenanceRequest has all required fields.
func (r *AddMaintenanceRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return errors.New("title is required")
	case r.MaintenanceType == "":
		return errors.New("maintenance_type is required")
	case r.Date.IsZero():
		return errors.New("date is required")
	case r.Cost != nil && *r.Cost < 0:
		return errors.New("cost must not be negative")
	}
	return nil
}
