package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/PropDesk/internal/domain/audit"
	"github.com/Strob0t/PropDesk/internal/domain/contract"
	"github.com/Strob0t/PropDesk/internal/domain/property"
	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/port/database"
	"github.com/Strob0t/PropDesk/internal/port/messagequeue"
)

// TenantCache is the part of the tenant directory that caches lookups.
type TenantCache interface {
	Invalidate(ctx context.Context, t *tenant.Tenant)
}

// TenantService manages the tenant lifecycle. Tenants are system-owned, so
// its operations are for administrators only.
type TenantService struct {
	deps  *Deps
	cache TenantCache
	queue messagequeue.Queue
	log   *slog.Logger
}

// NewTenantService creates a TenantService. cache and queue may be nil.
func NewTenantService(deps *Deps, cache TenantCache, queue messagequeue.Queue) *TenantService {
	return &TenantService{deps: deps, cache: cache, queue: queue, log: slog.Default()}
}

// List returns tenants ordered by name.
func (s *TenantService) List(ctx context.Context, f tenant.ListFilter) ([]tenant.Tenant, error) {
	where := sq.And{}
	if f.Search != "" {
		where = append(where, search(f.Search, "name", "domain"))
	}
	if f.IsActive != nil {
		where = append(where, sq.Eq{"is_active": *f.IsActive})
	}
	limit, offset := page(f.Limit, f.Offset)
	return s.deps.Tables.Tenants.FindMany(ctx, database.Query{
		Where:   where,
		OrderBy: []string{"name ASC"},
		Limit:   limit,
		Offset:  offset,
	})
}

// Create validates and creates a tenant. Domains are unique.
func (s *TenantService) Create(ctx context.Context, req *tenant.CreateRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	data := database.Record{"name": req.Name, "domain": req.Domain}
	setIf(data, "is_active", req.IsActive)
	t, err := s.deps.Tables.Tenants.Create(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	s.deps.Audit.Record(ctx, audit.ActionCreate, "tenant", t.ID, "", nil, t)
	return t, nil
}

// Get returns a tenant together with its dependent counts.
func (s *TenantService) Get(ctx context.Context, id string) (*tenant.Detail, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.counts(ctx, id)
	if err != nil {
		return nil, err
	}
	return &tenant.Detail{Tenant: *t, Counts: counts}, nil
}

// Update applies req to a tenant and evicts it from every directory cache.
func (s *TenantService) Update(ctx context.Context, id string, req *tenant.UpdateRequest) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	old, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	data := database.Record{}
	setIf(data, "name", req.Name)
	setIf(data, "domain", req.Domain)
	setIf(data, "is_active", req.IsActive)
	if len(data) > 0 {
		if _, err := s.deps.Tables.Tenants.Update(ctx, sq.Eq{"id": id}, data); err != nil {
			return nil, fmt.Errorf("update tenant: %w", err)
		}
	}
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, old)
	s.deps.Audit.Record(ctx, audit.ActionUpdate, "tenant", id, "", old, t)
	return t, nil
}

// Delete deactivates a tenant. With permanent set it removes the tenant
// instead, which is refused while users, buildings or properties remain.
func (s *TenantService) Delete(ctx context.Context, id string, permanent bool) error {
	t, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if permanent {
		counts, err := s.counts(ctx, id)
		if err != nil {
			return err
		}
		if counts.HasDependents() {
			return invalid(errors.New("tenant with users, buildings or properties cannot be deleted permanently"))
		}
		if _, err := s.deps.Tables.Tenants.Delete(ctx, sq.Eq{"id": id}); err != nil {
			return fmt.Errorf("delete tenant: %w", err)
		}
		s.invalidate(ctx, t)
		s.deps.Audit.Record(ctx, audit.ActionDelete, "tenant", id, "", t, nil)
		return nil
	}
	if _, err := s.deps.Tables.Tenants.Update(ctx, sq.Eq{"id": id}, database.Record{"is_active": false}); err != nil {
		return fmt.Errorf("deactivate tenant: %w", err)
	}
	s.invalidate(ctx, t)
	s.deps.Audit.Record(ctx, audit.ActionDeactivate, "tenant", id, "", t, nil)
	return nil
}

// Stats summarizes a tenant's portfolio. The counts run concurrently.
func (s *TenantService) Stats(ctx context.Context, id string) (*tenant.Stats, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	tb := s.deps.Tables
	users, err := scopedTo(s.deps, tb.Users, entityUser, id)
	if err != nil {
		return nil, err
	}
	buildings, err := scopedTo(s.deps, tb.Buildings, entityBuilding, id)
	if err != nil {
		return nil, err
	}
	properties, err := scopedTo(s.deps, tb.Properties, entityProperty, id)
	if err != nil {
		return nil, err
	}
	contracts, err := scopedTo(s.deps, tb.Contracts, entityContract, id)
	if err != nil {
		return nil, err
	}
	active := sq.Eq{"status": contract.StatusActive}

	var st tenant.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { st.Users, err = users.Count(gctx, nil); return })
	g.Go(func() (err error) { st.Buildings, err = buildings.Count(gctx, nil); return })
	g.Go(func() (err error) { st.Properties, err = properties.Count(gctx, nil); return })
	g.Go(func() (err error) {
		st.RentedProperties, err = properties.Count(gctx, sq.Eq{"status": property.StatusRented})
		return
	})
	g.Go(func() (err error) { st.ActiveContracts, err = contracts.Count(gctx, active); return })
	g.Go(func() (err error) {
		st.MonthlyRentalRoll, err = contracts.Aggregate(gctx, active, database.Aggregation{Func: database.Sum, Column: "monthly_rent"})
		return
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tenant stats: %w", err)
	}
	return &st, nil
}

// HandleInvalidation evicts the tenant named in a tenants.invalidated
// message from the local directory cache.
func (s *TenantService) HandleInvalidation(ctx context.Context, _ string, data []byte) error {
	var msg messagequeue.TenantInvalidatedPayload
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode invalidation: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, &tenant.Tenant{ID: msg.TenantID, Domain: msg.Domain})
	}
	return nil
}

func (s *TenantService) find(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := s.deps.Tables.Tenants.FindUnique(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, fmt.Errorf("tenant: %w", err)
	}
	return t, nil
}

func (s *TenantService) counts(ctx context.Context, id string) (tenant.Counts, error) {
	tb := s.deps.Tables
	where := sq.Eq{database.TenantColumn: id}
	var c tenant.Counts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { c.Users, err = tb.Users.Count(gctx, where); return })
	g.Go(func() (err error) { c.Properties, err = tb.Properties.Count(gctx, where); return })
	g.Go(func() (err error) { c.Buildings, err = tb.Buildings.Count(gctx, where); return })
	if err := g.Wait(); err != nil {
		return c, fmt.Errorf("tenant counts: %w", err)
	}
	return c, nil
}

// invalidate evicts t locally and tells the other instances to do the same.
func (s *TenantService) invalidate(ctx context.Context, t *tenant.Tenant) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, t)
	}
	if s.queue == nil {
		return
	}
	body, err := json.Marshal(messagequeue.TenantInvalidatedPayload{TenantID: t.ID, Domain: t.Domain})
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectTenantInvalidated, body); err != nil {
		s.log.WarnContext(ctx, "tenant invalidation publish failed", "tenant_id", t.ID, "error", err)
	}
}
