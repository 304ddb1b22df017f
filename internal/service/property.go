package service

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/audit"
	"github.com/Strob0t/PropDesk/internal/domain/contract"
	"github.com/Strob0t/PropDesk/internal/domain/property"
	"github.com/Strob0t/PropDesk/internal/port/database"
)

const (
	entityProperty    = "property"
	entityDocument    = "property_document"
	entityMaintenance = "property_maintenance"
)

// PropertyService manages properties and their documents and maintenance records.
type PropertyService struct {
	deps *Deps
}

// NewPropertyService creates a PropertyService.
func NewPropertyService(deps *Deps) *PropertyService {
	return &PropertyService{deps: deps}
}

// List returns the properties of the request's tenant, newest first.
func (s *PropertyService) List(ctx context.Context, f property.ListFilter) ([]property.Property, error) {
	g, err := forRequest(ctx, s.deps, s.deps.Tables.Properties, entityProperty)
	if err != nil {
		return nil, err
	}
	where := sq.And{}
	if f.Search != "" {
		where = append(where, search(f.Search, "title", "address", "description"))
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if f.Type != "" {
		where = append(where, sq.Eq{"type": f.Type})
	}
	if f.City != "" {
		where = append(where, sq.ILike{"city": f.City})
	}
	if f.BuildingID != "" {
		where = append(where, sq.Eq{"building_id": f.BuildingID})
	}
	if f.MinArea != nil {
		where = append(where, sq.GtOrEq{"total_area": *f.MinArea})
	}
	if f.MaxArea != nil {
		where = append(where, sq.LtOrEq{"total_area": *f.MaxArea})
	}
	limit, offset := page(f.Limit, f.Offset)
	return g.FindMany(ctx, database.Query{Where: where, OrderBy: []string{"created_at DESC"}, Limit: limit, Offset: offset})
}

// Get returns one property.
func (s *PropertyService) Get(ctx context.Context, id string) (*property.Property, error) {
	return locate(ctx, s.deps.Validator, s.deps.Tables.Properties, entityProperty, id)
}

// Create adds a property to the request's tenant. A building, when given,
// must belong to the same tenant.
func (s *PropertyService) Create(ctx context.Context, req *property.CreateRequest) (*property.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	tenantID, err := s.deps.targetTenant(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if err := s.checkBuilding(ctx, tenantID, req.BuildingID); err != nil {
		return nil, err
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Properties, entityProperty, tenantID)
	if err != nil {
		return nil, err
	}
	p, err := g.Create(ctx, database.Record{
		"title":           req.Title,
		"type":            req.Type,
		"status":          req.Status,
		"address":         req.Address,
		"city":            req.City,
		"district":        req.District,
		"total_area":      req.TotalArea,
		"number_of_rooms": req.NumberOfRooms,
		"floor":           req.Floor,
		"description":     req.Description,
		"building_id":     optional(req.BuildingID),
	})
	if err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}
	s.deps.Audit.Record(ctx, audit.ActionCreate, entityProperty, p.ID, tenantID, nil, p)
	return p, nil
}

// Update applies req to a property.
func (s *PropertyService) Update(ctx context.Context, id string, req *property.UpdateRequest) (*property.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkBuilding(ctx, old.TenantID, req.BuildingID); err != nil {
		return nil, err
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Properties, entityProperty, old.TenantID)
	if err != nil {
		return nil, err
	}
	data := database.Record{}
	setIf(data, "title", req.Title)
	setIf(data, "type", req.Type)
	setIf(data, "status", req.Status)
	setIf(data, "address", req.Address)
	setIf(data, "city", req.City)
	setIf(data, "district", req.District)
	setIf(data, "total_area", req.TotalArea)
	setIf(data, "number_of_rooms", req.NumberOfRooms)
	setIf(data, "floor", req.Floor)
	setIf(data, "description", req.Description)
	if req.BuildingID != nil {
		data["building_id"] = optional(req.BuildingID)
	}
	setIf(data, "is_active", req.IsActive)
	if len(data) > 0 {
		if _, err := g.Update(ctx, sq.Eq{"id": id}, data); err != nil {
			return nil, fmt.Errorf("update property: %w", err)
		}
	}
	p, err := g.FindUnique(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, err
	}
	s.deps.Audit.Record(ctx, audit.ActionUpdate, entityProperty, id, p.TenantID, old, p)
	return p, nil
}

// Delete deactivates a property, or removes it when permanent is set and
// nothing references it. A property under an active contract is never deleted.
func (s *PropertyService) Delete(ctx context.Context, id string, permanent bool) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	tb := s.deps.Tables
	contracts, err := scopedTo(s.deps, tb.Contracts, entityContract, p.TenantID)
	if err != nil {
		return err
	}
	byProperty := sq.Eq{"property_id": id}
	active, err := contracts.Count(ctx, sq.And{byProperty, sq.Eq{"status": contract.StatusActive}})
	if err != nil {
		return err
	}
	if active > 0 {
		return invalid(errors.New("property with an active contract cannot be deleted"))
	}

	g, err := scopedTo(s.deps, tb.Properties, entityProperty, p.TenantID)
	if err != nil {
		return err
	}
	if !permanent {
		if _, err := g.Update(ctx, sq.Eq{"id": id}, database.Record{"is_active": false}); err != nil {
			return fmt.Errorf("deactivate property: %w", err)
		}
		s.deps.Audit.Record(ctx, audit.ActionDeactivate, entityProperty, id, p.TenantID, p, nil)
		return nil
	}

	docs, err := scopedTo(s.deps, tb.Documents, entityDocument, p.TenantID)
	if err != nil {
		return err
	}
	maint, err := scopedTo(s.deps, tb.Maintenance, entityMaintenance, p.TenantID)
	if err != nil {
		return err
	}
	for _, count := range []func(context.Context, sq.Sqlizer) (int64, error){contracts.Count, docs.Count, maint.Count} {
		n, err := count(ctx, byProperty)
		if err != nil {
			return err
		}
		if n > 0 {
			return invalid(errors.New("property with documents, maintenance records or contracts cannot be deleted permanently"))
		}
	}
	if _, err := g.Delete(ctx, sq.Eq{"id": id}); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	s.deps.Audit.Record(ctx, audit.ActionDelete, entityProperty, id, p.TenantID, p, nil)
	return nil
}

// AddDocument attaches document metadata to a property.
func (s *PropertyService) AddDocument(ctx context.Context, propertyID string, req *property.AddDocumentRequest) (*property.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	p, err := s.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Documents, entityDocument, p.TenantID)
	if err != nil {
		return nil, err
	}
	d, err := g.Create(ctx, database.Record{
		"property_id": p.ID,
		"title":       req.Title,
		"type":        req.Type,
		"file_url":    req.FileURL,
		"file_name":   req.FileName,
		"file_type":   req.FileType,
		"file_size":   req.FileSize,
		"description": req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("add document: %w", err)
	}
	s.deps.Audit.Record(ctx, audit.ActionCreate, entityDocument, d.ID, p.TenantID, nil, d)
	return d, nil
}

// Documents lists the documents of a property, newest first.
func (s *PropertyService) Documents(ctx context.Context, propertyID string) ([]property.Document, error) {
	p, err := s.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Documents, entityDocument, p.TenantID)
	if err != nil {
		return nil, err
	}
	return g.FindMany(ctx, database.Query{Where: sq.Eq{"property_id": p.ID}, OrderBy: []string{"created_at DESC"}})
}

// AddMaintenance records maintenance work on a property.
func (s *PropertyService) AddMaintenance(ctx context.Context, propertyID string, req *property.AddMaintenanceRequest) (*property.Maintenance, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	p, err := s.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Maintenance, entityMaintenance, p.TenantID)
	if err != nil {
		return nil, err
	}
	m, err := g.Create(ctx, database.Record{
		"property_id":      p.ID,
		"title":            req.Title,
		"description":      req.Description,
		"cost":             req.Cost,
		"date":             req.Date,
		"maintenance_type": req.MaintenanceType,
		"contractor":       req.Contractor,
		"invoice_number":   req.InvoiceNumber,
		"warranty":         req.Warranty,
	})
	if err != nil {
		return nil, fmt.Errorf("add maintenance: %w", err)
	}
	s.deps.Audit.Record(ctx, audit.ActionCreate, entityMaintenance, m.ID, p.TenantID, nil, m)
	return m, nil
}

// Maintenance lists the maintenance records of a property, latest work first.
func (s *PropertyService) Maintenance(ctx context.Context, propertyID string) ([]property.Maintenance, error) {
	p, err := s.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Maintenance, entityMaintenance, p.TenantID)
	if err != nil {
		return nil, err
	}
	return g.FindMany(ctx, database.Query{Where: sq.Eq{"property_id": p.ID}, OrderBy: []string{"date DESC"}})
}

func (s *PropertyService) checkBuilding(ctx context.Context, tenantID string, buildingID *string) error {
	if buildingID == nil || *buildingID == "" {
		return nil
	}
	g, err := scopedTo(s.deps, s.deps.Tables.Buildings, entityBuilding, tenantID)
	if err != nil {
		return err
	}
	if _, err := g.FindUnique(ctx, sq.Eq{"id": *buildingID}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return invalid(errors.New("building_id does not belong to this tenant"))
		}
		return err
	}
	return nil
}
