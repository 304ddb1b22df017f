package tenancy

import (
	"context"
	"log/slog"

	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/logger"
)

// ValidateAccess reports whether a principal holding role with home tenant
// principalTenant may access data owned by targetTenant. Administrators
// always may; everyone else only within their own tenant, where two absent
// tenants count as equal. A pointer to "" is treated as absent.
func ValidateAccess(role user.Role, principalTenant, targetTenant *string) bool {
	switch role {
	case user.RoleAdmin:
		return true
	case user.RolePropertyOwner, user.RoleManager, user.RoleAccountant, user.RoleTenant:
		return sameTenant(principalTenant, targetTenant)
	default:
		// Unknown roles get no privileges.
		return sameTenant(principalTenant, targetTenant)
	}
}

// IsCrossTenant reports whether a request targeting requestTenant leaves the
// principal's home tenant. A request without a target tenant never crosses.
func IsCrossTenant(principalTenant, requestTenant *string) bool {
	if present(requestTenant) == nil {
		return false
	}
	return !sameTenant(principalTenant, requestTenant)
}

func sameTenant(a, b *string) bool {
	a, b = present(a), present(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func present(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// ptr returns &s, or nil for "".
func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// AccessRecorder persists cross-tenant administrative access events.
type AccessRecorder interface {
	RecordCrossTenantAccess(ctx context.Context, p *user.Principal, targetTenant string)
}

// Validator runs access checks that have side effects: security logging
// and recording of administrative cross-tenant access.
type Validator struct {
	log      *slog.Logger
	recorder AccessRecorder
}

// NewValidator creates a Validator. A nil log uses slog.Default; recorder may be nil.
func NewValidator(log *slog.Logger, recorder AccessRecorder) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{log: log, recorder: recorder}
}

// CheckResource decides whether p may read or mutate a loaded resource owned
// by resourceTenant. Denials return ErrAccessDenied.
func (v *Validator) CheckResource(ctx context.Context, p *user.Principal, resourceTenant string) error {
	if p == nil {
		return ErrAccessDenied
	}
	target := ptr(resourceTenant)
	if !ValidateAccess(p.Role, p.TenantID, target) {
		v.log.WarnContext(ctx, "cross-tenant access denied", v.attrs(ctx, p, resourceTenant)...)
		return ErrAccessDenied
	}
	if p.IsAdmin() && IsCrossTenant(p.TenantID, target) {
		v.crossed(ctx, p, resourceTenant)
	}
	return nil
}

// GuardCrossTenant checks a principal against the tenant resolved for the
// request. It is a no-op when either is absent.
func (v *Validator) GuardCrossTenant(ctx context.Context, p *user.Principal, resolved *tenant.Tenant) error {
	if p == nil || resolved == nil {
		return nil
	}
	if !IsCrossTenant(p.TenantID, &resolved.ID) {
		return nil
	}
	if !p.IsAdmin() {
		v.log.WarnContext(ctx, "cross-tenant access denied", v.attrs(ctx, p, resolved.ID)...)
		return ErrCrossTenantDenied
	}
	v.crossed(ctx, p, resolved.ID)
	return nil
}

// crossed logs and records an administrative crossing once per request and target.
func (v *Validator) crossed(ctx context.Context, p *user.Principal, target string) {
	if rc := FromContext(ctx); rc != nil && !rc.firstCrossing(target) {
		return
	}
	v.log.WarnContext(ctx, "cross-tenant administrative access", v.attrs(ctx, p, target)...)
	if v.recorder != nil {
		v.recorder.RecordCrossTenantAccess(ctx, p, target)
	}
}

func (v *Validator) attrs(ctx context.Context, p *user.Principal, target string) []any {
	return []any{
		"principal_id", p.ID,
		"principal_role", string(p.Role),
		"principal_tenant", p.HomeTenant(),
		"target_tenant", target,
		"request_id", logger.RequestID(ctx),
	}
}
