package service

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/audit"
	"github.com/Strob0t/PropDesk/internal/domain/building"
	"github.com/Strob0t/PropDesk/internal/port/database"
)

const entityBuilding = "building"

// BuildingService manages buildings inside a tenant.
type BuildingService struct {
	deps *Deps
}

// NewBuildingService creates a BuildingService.
func NewBuildingService(deps *Deps) *BuildingService {
	return &BuildingService{deps: deps}
}

// List returns the buildings of the request's tenant ordered by name.
func (s *BuildingService) List(ctx context.Context, f building.ListFilter) ([]building.Building, error) {
	g, err := forRequest(ctx, s.deps, s.deps.Tables.Buildings, entityBuilding)
	if err != nil {
		return nil, err
	}
	where := sq.And{}
	if f.Search != "" {
		where = append(where, search(f.Search, "name", "address"))
	}
	if f.City != "" {
		where = append(where, sq.ILike{"city": f.City})
	}
	if f.District != "" {
		where = append(where, sq.ILike{"district": f.District})
	}
	if f.IsActive != nil {
		where = append(where, sq.Eq{"is_active": *f.IsActive})
	}
	limit, offset := page(f.Limit, f.Offset)
	return g.FindMany(ctx, database.Query{Where: where, OrderBy: []string{"name ASC"}, Limit: limit, Offset: offset})
}

// Get returns one building.
func (s *BuildingService) Get(ctx context.Context, id string) (*building.Building, error) {
	return locate(ctx, s.deps.Validator, s.deps.Tables.Buildings, entityBuilding, id)
}

// Create adds a building to the request's tenant.
func (s *BuildingService) Create(ctx context.Context, req *building.CreateRequest) (*building.Building, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	tenantID, err := s.deps.targetTenant(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if err := s.checkManager(ctx, tenantID, req.ManagerID); err != nil {
		return nil, err
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Buildings, entityBuilding, tenantID)
	if err != nil {
		return nil, err
	}
	data := database.Record{
		"name":              req.Name,
		"address":           req.Address,
		"city":              req.City,
		"district":          req.District,
		"total_units":       req.TotalUnits,
		"construction_year": req.ConstructionYear,
		"manager_id":        optional(req.ManagerID),
	}
	setIf(data, "is_active", req.IsActive)
	b, err := g.Create(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("create building: %w", err)
	}
	s.deps.Audit.Record(ctx, audit.ActionCreate, entityBuilding, b.ID, tenantID, nil, b)
	return b, nil
}

// Update applies req to a building.
func (s *BuildingService) Update(ctx context.Context, id string, req *building.UpdateRequest) (*building.Building, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkManager(ctx, old.TenantID, req.ManagerID); err != nil {
		return nil, err
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Buildings, entityBuilding, old.TenantID)
	if err != nil {
		return nil, err
	}
	data := database.Record{}
	setIf(data, "name", req.Name)
	setIf(data, "address", req.Address)
	setIf(data, "city", req.City)
	setIf(data, "district", req.District)
	setIf(data, "total_units", req.TotalUnits)
	setIf(data, "construction_year", req.ConstructionYear)
	if req.ManagerID != nil {
		data["manager_id"] = optional(req.ManagerID)
	}
	setIf(data, "is_active", req.IsActive)
	if len(data) > 0 {
		if _, err := g.Update(ctx, sq.Eq{"id": id}, data); err != nil {
			return nil, fmt.Errorf("update building: %w", err)
		}
	}
	b, err := g.FindUnique(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, err
	}
	s.deps.Audit.Record(ctx, audit.ActionUpdate, entityBuilding, id, b.TenantID, old, b)
	return b, nil
}

// Delete deactivates a building, or removes it when permanent is set and
// no property references it.
func (s *BuildingService) Delete(ctx context.Context, id string, permanent bool) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Buildings, entityBuilding, b.TenantID)
	if err != nil {
		return err
	}
	if !permanent {
		if _, err := g.Update(ctx, sq.Eq{"id": id}, database.Record{"is_active": false}); err != nil {
			return fmt.Errorf("deactivate building: %w", err)
		}
		s.deps.Audit.Record(ctx, audit.ActionDeactivate, entityBuilding, id, b.TenantID, b, nil)
		return nil
	}

	props, err := scopedTo(s.deps, s.deps.Tables.Properties, entityProperty, b.TenantID)
	if err != nil {
		return err
	}
	n, err := props.Count(ctx, sq.Eq{"building_id": id})
	if err != nil {
		return err
	}
	if n > 0 {
		return invalid(errors.New("building with properties cannot be deleted permanently"))
	}
	if _, err := g.Delete(ctx, sq.Eq{"id": id}); err != nil {
		return fmt.Errorf("delete building: %w", err)
	}
	s.deps.Audit.Record(ctx, audit.ActionDelete, entityBuilding, id, b.TenantID, b, nil)
	return nil
}

// checkManager requires a manager, when given, to be a user of tenantID.
func (s *BuildingService) checkManager(ctx context.Context, tenantID string, managerID *string) error {
	if managerID == nil || *managerID == "" {
		return nil
	}
	users, err := scopedTo(s.deps, s.deps.Tables.Users, "user", tenantID)
	if err != nil {
		return err
	}
	if _, err := users.FindUnique(ctx, sq.Eq{"id": *managerID}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return invalid(errors.New("manager_id does not belong to this tenant"))
		}
		return err
	}
	return nil
}
