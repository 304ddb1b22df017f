// Package contract defines rental contracts and their payments.
package contract

import (
	"errors"
	"strings"
	"time"
)

// Status is the lifecycle state of a rental contract.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusTerminated Status = "TERMINATED"
	StatusExpired    Status = "EXPIRED"
	StatusRenewed    Status = "RENEWED"
)

// Ended reports whether the contract no longer runs.
func (s Status) Ended() bool {
	return s == StatusTerminated || s == StatusExpired
}

var validStatuses = map[Status]bool{
	StatusActive: true, StatusTerminated: true, StatusExpired: true, StatusRenewed: true,
}

// PaymentMethod is how rent is paid.
type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCash         PaymentMethod = "CASH"
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentCheck        PaymentMethod = "CHECK"
)

var validMethods = map[PaymentMethod]bool{
	PaymentBankTransfer: true, PaymentCash: true, PaymentCreditCard: true, PaymentCheck: true,
}

// Contract is a rental agreement between the tenant organization and a renter.
type Contract struct {
	ID                string        `json:"id" db:"id"`
	TenantID          string        `json:"tenant_id" db:"tenant_id"`
	PropertyID        string        `json:"property_id" db:"property_id"`
	RenterID          string        `json:"renter_id" db:"renter_id"`
	Title             string        `json:"title" db:"title"`
	Status            Status        `json:"status" db:"status"`
	StartDate         time.Time     `json:"start_date" db:"start_date"`
	EndDate           time.Time     `json:"end_date" db:"end_date"`
	MonthlyRent       float64       `json:"monthly_rent" db:"monthly_rent"`
	DepositAmount     float64       `json:"deposit_amount" db:"deposit_amount"`
	PaymentDay        int           `json:"payment_day" db:"payment_day"`
	PaymentMethod     PaymentMethod `json:"payment_method" db:"payment_method"`
	NoticePeriod      int           `json:"notice_period" db:"notice_period"`
	Notes             *string       `json:"notes,omitempty" db:"notes"`
	TerminationDate   *time.Time    `json:"termination_date,omitempty" db:"termination_date"`
	TerminationReason *string       `json:"termination_reason,omitempty" db:"termination_reason"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// OwningTenant returns the tenant that owns the contract.
func (c Contract) OwningTenant() string { return c.TenantID }

// CreateRequest is the input for creating a rental contract.
type CreateRequest struct {
	Title         string        `json:"title"`
	PropertyID    string        `json:"property_id"`
	RenterID      string        `json:"renter_id"`
	StartDate     time.Time     `json:"start_date"`
	EndDate       time.Time     `json:"end_date"`
	MonthlyRent   float64       `json:"monthly_rent"`
	DepositAmount float64       `json:"deposit_amount"`
	PaymentDay    int           `json:"payment_day"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	NoticePeriod  int           `json:"notice_period"`
	Notes         *string       `json:"notes,omitempty"`
}

// Validate checks required fields and fills default dates.
func (r *CreateRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return errors.New("title is required")
	case r.PropertyID == "":
		return errors.New("property_id is required")
	case r.RenterID == "":
		return errors.New("renter_id is required")
	case r.MonthlyRent <= 0:
		return errors.New("monthly_rent must be positive")
	case r.DepositAmount < 0:
		return errors.New("deposit_amount must not be negative")
	case r.PaymentDay < 1 || r.PaymentDay > 31:
		return errors.New("payment_day must be between 1 and 31")
	case !validMethods[r.PaymentMethod]:
		return errors.New("invalid payment_method")
	case r.NoticePeriod < 0:
		return errors.New("notice_period must not be negative")
	}
	if r.StartDate.IsZero() {
		r.StartDate = time.Now().UTC()
	}
	if r.EndDate.IsZero() {
		r.EndDate = r.StartDate.AddDate(1, 0, 0)
	}
	if !r.EndDate.After(r.StartDate) {
		return errors.New("end_date must be after start_date")
	}
	return nil
}

// UpdateRequest holds the mutable contract fields.
type UpdateRequest struct {
	Title         *string        `json:"title,omitempty"`
	Status        *Status        `json:"status,omitempty"`
	StartDate     *time.Time     `json:"start_date,omitempty"`
	EndDate       *time.Time     `json:"end_date,omitempty"`
	MonthlyRent   *float64       `json:"monthly_rent,omitempty"`
	DepositAmount *float64       `json:"deposit_amount,omitempty"`
	PaymentDay    *int           `json:"payment_day,omitempty"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	NoticePeriod  *int           `json:"notice_period,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
}

// NotesOnly reports whether notes is the only field set.
func (r *UpdateRequest) NotesOnly() bool {
	return r.Title == nil && r.Status == nil && r.StartDate == nil && r.EndDate == nil &&
		r.MonthlyRent == nil && r.DepositAmount == nil && r.PaymentDay == nil &&
		r.PaymentMethod == nil && r.NoticePeriod == nil
}

// Validate checks the optional fields of an UpdateRequest.
func (r *UpdateRequest) Validate() error {
	switch {
	case r.Title != nil && strings.TrimSpace(*r.Title) == "":
		return errors.New("title must not be empty")
	case r.Status != nil && !validStatuses[*r.Status]:
		return errors.New("invalid contract status")
	case r.MonthlyRent != nil && *r.MonthlyRent <= 0:
		return errors.New("monthly_rent must be positive")
	case r.PaymentDay != nil && (*r.PaymentDay < 1 || *r.PaymentDay > 31):
		return errors.New("payment_day must be between 1 and 31")
	case r.PaymentMethod != nil && !validMethods[*r.PaymentMethod]:
		return errors.New("invalid payment_method")
	}
	return nil
}

// TerminateRequest is the input for ending a contract early.
type TerminateRequest struct {
	TerminationReason string    `json:"termination_reason"`
	TerminationDate   time.Time `json:"termination_date"`
	Notes             *string   `json:"notes,omitempty"`
}

// Validate checks that the TerminateRequest has all required fields.
func (r *TerminateRequest) Validate() error {
	if strings.TrimSpace(r.TerminationReason) == "" {
		return errors.New("termination_reason is required")
	}
	if r.TerminationDate.IsZero() {
		r.TerminationDate = time.Now().UTC()
	}
	return nil
}

// ListFilter narrows a contract listing.
type ListFilter struct {
	Search     string
	Status     Status
	PropertyID string
	RenterID   string
	Limit      uint64
	Offset     uint64
}
