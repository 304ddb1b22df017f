package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/audit"
	"github.com/Strob0t/PropDesk/internal/domain/contract"
	"github.com/Strob0t/PropDesk/internal/domain/property"
	"github.com/Strob0t/PropDesk/internal/port/database"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

const (
	entityContract = "rental_contract"
	entityPayment  = "payment"
)

// ContractService manages rental contracts and their payments. Contract
// state changes and the matching property status change share a transaction.
type ContractService struct {
	deps *Deps
	now  func() time.Time
}

// NewContractService creates a ContractService.
func NewContractService(deps *Deps) *ContractService {
	return &ContractService{deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

// List returns the contracts of the request's tenant, latest start first.
func (s *ContractService) List(ctx context.Context, f contract.ListFilter) ([]contract.Contract, error) {
	g, err := forRequest(ctx, s.deps, s.deps.Tables.Contracts, entityContract)
	if err != nil {
		return nil, err
	}
	where := sq.And{}
	if f.Search != "" {
		where = append(where, search(f.Search, "title", "notes"))
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if f.PropertyID != "" {
		where = append(where, sq.Eq{"property_id": f.PropertyID})
	}
	if f.RenterID != "" {
		where = append(where, sq.Eq{"renter_id": f.RenterID})
	}
	limit, offset := page(f.Limit, f.Offset)
	return g.FindMany(ctx, database.Query{Where: where, OrderBy: []string{"start_date DESC"}, Limit: limit, Offset: offset})
}

// Get returns one contract.
func (s *ContractService) Get(ctx context.Context, id string) (*contract.Contract, error) {
	return locate(ctx, s.deps.Validator, s.deps.Tables.Contracts, entityContract, id)
}

// Create opens an ACTIVE contract on an AVAILABLE property of the request's
// tenant and marks the property RENTED. The renter must be a user of the
// same tenant. An administrator without a tenant works in the property's.
func (s *ContractService) Create(ctx context.Context, req *contract.CreateRequest) (*contract.Contract, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	tenantID, err := s.tenantFor(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	tb := s.deps.Tables
	contracts, err := scopedTo(s.deps, tb.Contracts, entityContract, tenantID)
	if err != nil {
		return nil, err
	}
	props, err := scopedTo(s.deps, tb.Properties, entityProperty, tenantID)
	if err != nil {
		return nil, err
	}
	users, err := scopedTo(s.deps, tb.Users, "user", tenantID)
	if err != nil {
		return nil, err
	}

	var c *contract.Contract
	err = tb.Tx.InTx(ctx, func(ctx context.Context) error {
		p, err := props.FindUnique(ctx, sq.Eq{"id": req.PropertyID})
		if err != nil {
			return notInTenant(err, "property_id")
		}
		if p.Status != property.StatusAvailable {
			return invalid(errors.New("property is not available for rent"))
		}
		if _, err := users.FindUnique(ctx, sq.Eq{"id": req.RenterID}); err != nil {
			return notInTenant(err, "renter_id")
		}
		c, err = contracts.Create(ctx, database.Record{
			"property_id":    req.PropertyID,
			"renter_id":      req.RenterID,
			"title":          req.Title,
			"status":         contract.StatusActive,
			"start_date":     req.StartDate,
			"end_date":       req.EndDate,
			"monthly_rent":   req.MonthlyRent,
			"deposit_amount": req.DepositAmount,
			"payment_day":    req.PaymentDay,
			"payment_method": req.PaymentMethod,
			"notice_period":  req.NoticePeriod,
			"notes":          req.Notes,
		})
		if err != nil {
			return fmt.Errorf("create contract: %w", err)
		}
		_, err = props.Update(ctx, sq.Eq{"id": p.ID}, database.Record{"status": property.StatusRented})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.deps.Audit.Record(ctx, audit.ActionCreate, entityContract, c.ID, tenantID, nil, c)
	return c, nil
}

// Update applies req to a contract. A status change moves the property with
// it: ACTIVE rents it, TERMINATED or EXPIRED releases it. Ended contracts
// only accept notes.
func (s *ContractService) Update(ctx context.Context, id string, req *contract.UpdateRequest) (*contract.Contract, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if old.Status.Ended() && !req.NotesOnly() {
		return nil, invalid(errors.New("only notes can be changed on an ended contract"))
	}
	data := database.Record{}
	setIf(data, "title", req.Title)
	setIf(data, "status", req.Status)
	setIf(data, "start_date", req.StartDate)
	setIf(data, "end_date", req.EndDate)
	setIf(data, "monthly_rent", req.MonthlyRent)
	setIf(data, "deposit_amount", req.DepositAmount)
	setIf(data, "payment_day", req.PaymentDay)
	setIf(data, "payment_method", req.PaymentMethod)
	setIf(data, "notice_period", req.NoticePeriod)
	setIf(data, "notes", req.Notes)

	start, end := old.StartDate, old.EndDate
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.EndDate != nil {
		end = *req.EndDate
	}
	if !end.After(start) {
		return nil, invalid(errors.New("end_date must be after start_date"))
	}

	tb := s.deps.Tables
	contracts, err := scopedTo(s.deps, tb.Contracts, entityContract, old.TenantID)
	if err != nil {
		return nil, err
	}
	props, err := scopedTo(s.deps, tb.Properties, entityProperty, old.TenantID)
	if err != nil {
		return nil, err
	}
	var c *contract.Contract
	err = tb.Tx.InTx(ctx, func(ctx context.Context) error {
		if req.Status != nil && *req.Status != old.Status {
			if err := syncProperty(ctx, contracts, props, old, *req.Status); err != nil {
				return err
			}
		}
		if len(data) > 0 {
			if _, err := contracts.Update(ctx, sq.Eq{"id": id}, data); err != nil {
				return fmt.Errorf("update contract: %w", err)
			}
		}
		var err error
		c, err = contracts.FindUnique(ctx, sq.Eq{"id": id})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.deps.Audit.Record(ctx, audit.ActionUpdate, entityContract, id, c.TenantID, old, c)
	return c, nil
}

// syncProperty moves c's property to match the contract's new status.
func syncProperty(ctx context.Context, contracts *tenancy.Gateway[contract.Contract], props *tenancy.Gateway[property.Property], c *contract.Contract, status contract.Status) error {
	switch status {
	case contract.StatusActive:
		others, err := otherActive(ctx, contracts, c)
		if err != nil {
			return err
		}
		if others > 0 {
			return invalid(errors.New("property already has an active contract"))
		}
		if _, err := props.Update(ctx, sq.Eq{"id": c.PropertyID}, database.Record{"status": property.StatusRented}); err != nil {
			return fmt.Errorf("rent property: %w", err)
		}
	case contract.StatusTerminated, contract.StatusExpired:
		return release(ctx, contracts, props, c)
	}
	return nil
}

// otherActive counts ACTIVE contracts on c's property other than c.
func otherActive(ctx context.Context, contracts *tenancy.Gateway[contract.Contract], c *contract.Contract) (int64, error) {
	n, err := contracts.Count(ctx, sq.And{
		sq.Eq{"property_id": c.PropertyID, "status": contract.StatusActive},
		sq.NotEq{"id": c.ID},
	})
	if err != nil {
		return 0, fmt.Errorf("count active contracts: %w", err)
	}
	return n, nil
}

// release sets c's property AVAILABLE unless another contract still holds it.
func release(ctx context.Context, contracts *tenancy.Gateway[contract.Contract], props *tenancy.Gateway[property.Property], c *contract.Contract) error {
	others, err := otherActive(ctx, contracts, c)
	if err != nil {
		return err
	}
	if others > 0 {
		return nil
	}
	if _, err := props.Update(ctx, sq.Eq{"id": c.PropertyID}, database.Record{"status": property.StatusAvailable}); err != nil {
		return fmt.Errorf("release property: %w", err)
	}
	return nil
}

// Terminate ends a contract early and releases its property.
// TERMINATED and RENEWED contracts cannot be terminated.
func (s *ContractService) Terminate(ctx context.Context, id string, req *contract.TerminateRequest) (*contract.Contract, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch old.Status {
	case contract.StatusTerminated:
		return nil, invalid(errors.New("contract is already terminated"))
	case contract.StatusRenewed:
		return nil, invalid(errors.New("renewed contract cannot be terminated"))
	}
	data := database.Record{
		"status":             contract.StatusTerminated,
		"termination_date":   req.TerminationDate,
		"termination_reason": req.TerminationReason,
	}
	setIf(data, "notes", req.Notes)
	c, err := s.end(ctx, old, data)
	if err != nil {
		return nil, err
	}
	s.deps.Audit.Record(ctx, audit.ActionTerminate, entityContract, id, c.TenantID, old, c)
	return c, nil
}

// Delete cancels a contract and releases its property. With permanent set
// the contract is removed instead, which is refused once payments exist.
func (s *ContractService) Delete(ctx context.Context, id string, permanent bool) error {
	old, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !permanent {
		if old.Status != contract.StatusActive {
			return invalid(errors.New("only active contracts can be cancelled"))
		}
		c, err := s.end(ctx, old, database.Record{
			"status":             contract.StatusTerminated,
			"termination_date":   s.now(),
			"termination_reason": "cancelled",
		})
		if err != nil {
			return err
		}
		s.deps.Audit.Record(ctx, audit.ActionCancel, entityContract, id, c.TenantID, old, c)
		return nil
	}

	tb := s.deps.Tables
	payments, err := scopedTo(s.deps, tb.Payments, entityPayment, old.TenantID)
	if err != nil {
		return err
	}
	n, err := payments.Count(ctx, sq.Eq{"contract_id": id})
	if err != nil {
		return err
	}
	if n > 0 {
		return invalid(errors.New("contract with payments cannot be deleted permanently"))
	}
	contracts, err := scopedTo(s.deps, tb.Contracts, entityContract, old.TenantID)
	if err != nil {
		return err
	}
	props, err := scopedTo(s.deps, tb.Properties, entityProperty, old.TenantID)
	if err != nil {
		return err
	}
	err = tb.Tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := contracts.Delete(ctx, sq.Eq{"id": id}); err != nil {
			return fmt.Errorf("delete contract: %w", err)
		}
		if old.Status != contract.StatusActive {
			return nil
		}
		return release(ctx, contracts, props, old)
	})
	if err != nil {
		return err
	}
	s.deps.Audit.Record(ctx, audit.ActionDelete, entityContract, id, old.TenantID, old, nil)
	return nil
}

// end applies data to c and releases its property in one transaction.
func (s *ContractService) end(ctx context.Context, c *contract.Contract, data database.Record) (*contract.Contract, error) {
	tb := s.deps.Tables
	contracts, err := scopedTo(s.deps, tb.Contracts, entityContract, c.TenantID)
	if err != nil {
		return nil, err
	}
	props, err := scopedTo(s.deps, tb.Properties, entityProperty, c.TenantID)
	if err != nil {
		return nil, err
	}
	var out *contract.Contract
	err = tb.Tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := contracts.Update(ctx, sq.Eq{"id": c.ID}, data); err != nil {
			return fmt.Errorf("end contract: %w", err)
		}
		if err := release(ctx, contracts, props, c); err != nil {
			return err
		}
		out, err = contracts.FindUnique(ctx, sq.Eq{"id": c.ID})
		return err
	})
	return out, err
}

// AddPayment records a rent payment against a contract.
func (s *ContractService) AddPayment(ctx context.Context, contractID string, req *contract.AddPaymentRequest) (*contract.Payment, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	c, err := s.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Payments, entityPayment, c.TenantID)
	if err != nil {
		return nil, err
	}
	p, err := g.Create(ctx, database.Record{
		"contract_id":       c.ID,
		"amount":            req.Amount,
		"payment_date":      req.PaymentDate,
		"payment_method":    req.PaymentMethod,
		"period_start_date": req.PeriodStartDate,
		"period_end_date":   req.PeriodEndDate,
		"receipt_number":    req.ReceiptNumber,
		"is_paid":           req.IsPaid,
		"notes":             req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("add payment: %w", err)
	}
	s.deps.Audit.Record(ctx, audit.ActionCreate, entityPayment, p.ID, c.TenantID, nil, p)
	return p, nil
}

// Payments lists the payments of a contract, latest first.
func (s *ContractService) Payments(ctx context.Context, contractID string) ([]contract.Payment, error) {
	c, err := s.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Payments, entityPayment, c.TenantID)
	if err != nil {
		return nil, err
	}
	return g.FindMany(ctx, database.Query{Where: sq.Eq{"contract_id": c.ID}, OrderBy: []string{"payment_date DESC"}})
}

func (s *ContractService) tenantFor(ctx context.Context, propertyID string) (string, error) {
	rc := tenancy.FromContext(ctx)
	if id := rc.EffectiveTenantID(); id != "" {
		return id, nil
	}
	if rc == nil || !rc.Principal.IsAdmin() {
		return "", tenancy.ErrTenantRequired
	}
	p, err := s.deps.Tables.Properties.FindUnique(ctx, sq.Eq{"id": propertyID})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", invalid(errors.New("property_id does not exist"))
		}
		return "", err
	}
	return p.TenantID, nil
}

// notInTenant turns a scoped lookup miss on field into a validation error.
func notInTenant(err error, field string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return invalid(fmt.Errorf("%s does not belong to this tenant", field))
	}
	return err
}
