package service

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/audit"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/port/database"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

const entityUser = "user"

var errAdminOnlyRole = fmt.Errorf("only administrators may grant the ADMIN role: %w", domain.ErrForbidden)

// UserService manages user accounts.
type UserService struct {
	deps *Deps
	auth *AuthService
}

// NewUserService creates a UserService. auth supplies password hashing.
func NewUserService(deps *Deps, auth *AuthService) *UserService {
	return &UserService{deps: deps, auth: auth}
}

// List returns the users of the request's tenant ordered by name.
func (s *UserService) List(ctx context.Context, f user.ListFilter) ([]user.User, error) {
	g, err := forRequest(ctx, s.deps, s.deps.Tables.Users, entityUser)
	if err != nil {
		return nil, err
	}
	where := sq.And{}
	if f.Search != "" {
		where = append(where, search(f.Search, "name", "email"))
	}
	if f.Role != "" {
		where = append(where, sq.Eq{"role": f.Role})
	}
	limit, offset := page(f.Limit, f.Offset)
	return g.FindMany(ctx, database.Query{Where: where, OrderBy: []string{"name ASC"}, Limit: limit, Offset: offset})
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*user.User, error) {
	return locate(ctx, s.deps.Validator, s.deps.Tables.Users, entityUser, id)
}

// Create registers a user in the request's tenant. Administrators may name
// another tenant, or none for a new administrator.
func (s *UserService) Create(ctx context.Context, req *user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	p := principal(ctx)
	if req.Role == user.RoleAdmin && !p.IsAdmin() {
		return nil, errAdminOnlyRole
	}

	tenantID := tenancy.FromContext(ctx).EffectiveTenantID()
	if p.IsAdmin() && req.TenantID != nil && *req.TenantID != "" {
		if err := s.deps.checkTenant(ctx, *req.TenantID); err != nil {
			return nil, err
		}
		tenantID = *req.TenantID
	}
	if tenantID == "" && req.Role != user.RoleAdmin {
		return nil, tenancy.ErrTenantRequired
	}

	hash, err := s.auth.HashPassword(ctx, req.Password)
	if err != nil {
		return nil, err
	}
	g, err := s.gateway(tenantID)
	if err != nil {
		return nil, err
	}
	u, err := g.Create(ctx, database.Record{
		"email":         req.Email,
		"name":          req.Name,
		"password_hash": hash,
		"role":          req.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.deps.Audit.Record(ctx, audit.ActionCreate, entityUser, u.ID, tenantID, nil, u)
	return u, nil
}

// Update applies req to a user.
func (s *UserService) Update(ctx context.Context, id string, req *user.UpdateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Role != nil && *req.Role == user.RoleAdmin && !principal(ctx).IsAdmin() {
		return nil, errAdminOnlyRole
	}
	data := database.Record{}
	setIf(data, "name", req.Name)
	setIf(data, "role", req.Role)
	setIf(data, "is_active", req.IsActive)
	if req.Password != nil {
		hash, err := s.auth.HashPassword(ctx, *req.Password)
		if err != nil {
			return nil, err
		}
		data["password_hash"] = hash
	}
	g, err := s.gateway(old.OwningTenant())
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if _, err := g.Update(ctx, sq.Eq{"id": id}, data); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	u, err := g.FindUnique(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, err
	}
	s.deps.Audit.Record(ctx, audit.ActionUpdate, entityUser, id, u.OwningTenant(), old, u)
	return u, nil
}

// Delete removes a user. Callers cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if p := principal(ctx); p != nil && p.ID == id {
		return invalid(errors.New("you cannot delete your own account"))
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	g, err := s.gateway(u.OwningTenant())
	if err != nil {
		return err
	}
	if _, err := g.Delete(ctx, sq.Eq{"id": id}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.deps.Audit.Record(ctx, audit.ActionDelete, entityUser, id, u.OwningTenant(), u, nil)
	return nil
}

// gateway scopes to tenantID, or to the whole table for tenantless administrators.
func (s *UserService) gateway(tenantID string) (*tenancy.Gateway[user.User], error) {
	if tenantID == "" {
		return tenancy.Unscoped(s.deps.Tables.Users, entityUser, s.deps.Gateway...), nil
	}
	return scopedTo(s.deps, s.deps.Tables.Users, entityUser, tenantID)
}
