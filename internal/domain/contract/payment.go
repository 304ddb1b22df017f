package contract

import (
	"errors"
	"time"
)

// Payment is a rent payment recorded against a contract.
type Payment struct {
	ID              string        `json:"id" db:"id"`
	TenantID        string        `json:"tenant_id" db:"tenant_id"`
	ContractID      string        `json:"contract_id" db:"contract_id"`
	Amount          float64       `json:"amount" db:"amount"`
	PaymentDate     time.Time     `json:"payment_date" db:"payment_date"`
	PaymentMethod   PaymentMethod `json:"payment_method" db:"payment_method"`
	PeriodStartDate time.Time     `json:"period_start_date" db:"period_start_date"`
	PeriodEndDate   time.Time     `json:"period_end_date" db:"period_end_date"`
	ReceiptNumber   *string       `json:"receipt_number,omitempty" db:"receipt_number"`
	IsPaid          bool          `json:"is_paid" db:"is_paid"`
	Notes           *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// OwningTenant returns the tenant that owns the payment.
func (p Payment) OwningTenant() string { return p.TenantID }

// AddPaymentRequest is the input for recording a rent payment.
type AddPaymentRequest struct {
	Amount          float64       `json:"amount"`
	PaymentDate     time.Time     `json:"payment_date"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	PeriodStartDate time.Time     `json:"period_start_date"`
	PeriodEndDate   time.Time     `json:"period_end_date"`
	ReceiptNumber   *string       `json:"receipt_number,omitempty"`
	IsPaid          bool          `json:"is_paid"`
	Notes           *string       `json:"notes,omitempty"`
}

// Validate checks that the AddPaymentRequest has all required fields.
func (r *AddPaymentRequest) Validate() error {
	switch {
	case r.Amount <= 0:
		return errors.New("amount must be positive")
	case !validMethods[r.PaymentMethod]:
		return errors.New("invalid payment_method")
	case r.PeriodStartDate.IsZero() || r.PeriodEndDate.IsZero():
		return errors.New("period_start_date and period_end_date are required")
	case r.PeriodEndDate.Before(r.PeriodStartDate):
		return errors.New("period_end_date must not precede period_start_date")
	}
	if r.PaymentDate.IsZero() {
		r.PaymentDate = time.Now().UTC()
	}
	return nil
}
