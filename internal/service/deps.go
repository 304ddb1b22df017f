package service

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/port/database"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

// Deps are the collaborators shared by the tenant-owned services.
type Deps struct {
	Tables    database.Tables
	Validator *tenancy.Validator
	Audit     *AuditService

	// Gateway options applied to every tenant gateway, e.g. strict mode.
	Gateway []tenancy.GatewayOption
}

const defaultPageSize = 50

func invalid(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}

func principal(ctx context.Context) *user.Principal {
	if rc := tenancy.FromContext(ctx); rc != nil {
		return rc.Principal
	}
	return nil
}

func page(limit, offset uint64) (uint64, uint64) {
	if limit == 0 || limit > 500 {
		limit = defaultPageSize
	}
	return limit, offset
}

// locate loads a record by id from the whole table, then authorizes the
// caller against its owner. A missing record is ErrNotFound whatever the
// caller's tenant; a foreign one is ErrAccessDenied for non-admins.
func locate[T database.TenantOwned](ctx context.Context, v *tenancy.Validator, repo database.Repository[T], entity, id string) (*T, error) {
	rec, err := repo.FindUnique(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entity, err)
	}
	if err := v.CheckResource(ctx, principal(ctx), (*rec).OwningTenant()); err != nil {
		return nil, err
	}
	return rec, nil
}

// targetTenant picks the tenant a new record lands in: the request's
// effective tenant, or for an administrator without one, the tenant named
// in the payload.
func (d *Deps) targetTenant(ctx context.Context, explicit string) (string, error) {
	rc := tenancy.FromContext(ctx)
	if id := rc.EffectiveTenantID(); id != "" {
		return id, nil
	}
	if rc == nil || !rc.Principal.IsAdmin() || explicit == "" {
		return "", tenancy.ErrTenantRequired
	}
	if err := d.checkTenant(ctx, explicit); err != nil {
		return "", err
	}
	return explicit, nil
}

func (d *Deps) checkTenant(ctx context.Context, id string) error {
	if _, err := d.Tables.Tenants.FindUnique(ctx, sq.Eq{"id": id}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return invalid(errors.New("tenant_id does not exist"))
		}
		return err
	}
	return nil
}

func scopedTo[T database.TenantOwned](d *Deps, repo database.Repository[T], entity, tenantID string) (*tenancy.Gateway[T], error) {
	return tenancy.Scoped(repo, entity, tenantID, d.Gateway...)
}

func forRequest[T database.TenantOwned](ctx context.Context, d *Deps, repo database.Repository[T], entity string) (*tenancy.Gateway[T], error) {
	return tenancy.ForRequest(ctx, repo, entity, d.Gateway...)
}

// search builds a case-insensitive substring match over cols.
func search(term string, cols ...string) sq.Sqlizer {
	or := make(sq.Or, 0, len(cols))
	for _, c := range cols {
		or = append(or, sq.ILike{c: "%" + term + "%"})
	}
	return or
}

func setIf[V any](r database.Record, col string, v *V) {
	if v != nil {
		r[col] = *v
	}
}

// optional maps a pointer to "" to NULL.
func optional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
