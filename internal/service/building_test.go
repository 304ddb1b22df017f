package service

import (
	"context"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/audit"
	"github.com/Strob0t/PropDesk/internal/domain/building"
	"github.com/Strob0t/PropDesk/internal/domain/property"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

func TestBuildingService_CreateLandsInRequestTenant(t *testing.T) {
	f := newFixture(t)
	svc := NewBuildingService(f.deps)

	b, err := svc.Create(manager("T1"), &building.CreateRequest{
		Name: "Tower", Address: "x", City: "Izmir", TenantID: "T2",
	})
	require.NoError(t, err)
	assert.Equal(t, "T1", b.TenantID, "payload tenant is ignored for non-admins")
	assert.True(t, b.IsActive)

	b, err = svc.Create(admin(), &building.CreateRequest{
		Name: "Annex", Address: "x", City: "Izmir", TenantID: "T2",
	})
	require.NoError(t, err)
	assert.Equal(t, "T2", b.TenantID)

	_, err = svc.Create(admin(), &building.CreateRequest{Name: "Nowhere", Address: "x", City: "Izmir"})
	assert.ErrorIs(t, err, tenancy.ErrTenantRequired)

	_, err = svc.Create(admin(), &building.CreateRequest{Name: "Ghost", Address: "x", City: "Izmir", TenantID: "T9"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(manager("T1"), &building.CreateRequest{Name: "", Address: "x", City: "Izmir"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBuildingService_ManagerMustBelongToTenant(t *testing.T) {
	f := newFixture(t)
	svc := NewBuildingService(f.deps)
	foreign := f.renter(t, "T2", "m@two.example.com")
	local := f.renter(t, "T1", "m@one.example.com")

	_, err := svc.Create(manager("T1"), &building.CreateRequest{
		Name: "Tower", Address: "x", City: "Izmir", ManagerID: &foreign.ID,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	b, err := svc.Create(manager("T1"), &building.CreateRequest{
		Name: "Tower", Address: "x", City: "Izmir", ManagerID: &local.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, b.ManagerID)
	assert.Equal(t, local.ID, *b.ManagerID)
}

// Locate then authorize: a missing building is 404 for everyone, a foreign
// one is 403 for non-admins and allowed, and recorded, for administrators.
func TestBuildingService_LocateThenAuthorize(t *testing.T) {
	f := newFixture(t)
	svc := NewBuildingService(f.deps)
	theirs := f.building(t, manager("T2"), "Theirs")

	_, err := svc.Get(manager("T1"), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(manager("T1"), theirs.ID)
	assert.ErrorIs(t, err, tenancy.ErrAccessDenied)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Update(manager("T1"), theirs.ID, &building.UpdateRequest{Name: strPtr("Mine")})
	assert.ErrorIs(t, err, tenancy.ErrAccessDenied)
	assert.ErrorIs(t, svc.Delete(manager("T1"), theirs.ID, true), tenancy.ErrAccessDenied)

	home := as(user.RoleAdmin, "T1", "")
	got, err := svc.Update(home, theirs.ID, &building.UpdateRequest{Name: strPtr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "T2", got.TenantID)

	crossings, err := f.tables.AuditLogs.Count(context.Background(), sq.Eq{"action": audit.ActionCrossTenant})
	require.NoError(t, err)
	assert.Equal(t, int64(1), crossings)
}

func TestBuildingService_ListIsolation(t *testing.T) {
	f := newFixture(t)
	svc := NewBuildingService(f.deps)
	f.building(t, manager("T1"), "Alpha")
	f.building(t, manager("T1"), "Beta")
	f.building(t, manager("T2"), "Gamma")

	mine, err := svc.List(manager("T1"), building.ListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Alpha", mine[0].Name)

	searched, err := svc.List(manager("T1"), building.ListFilter{Search: "bet"})
	require.NoError(t, err)
	require.Len(t, searched, 1)

	all, err := svc.List(admin(), building.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	resolved, err := svc.List(as(user.RoleAdmin, "", "T2"), building.ListFilter{})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "Gamma", resolved[0].Name)
}

func TestBuildingService_Delete(t *testing.T) {
	f := newFixture(t)
	svc := NewBuildingService(f.deps)
	ctx := manager("T1")
	b := f.building(t, ctx, "Tower")

	require.NoError(t, svc.Delete(ctx, b.ID, false))
	got, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = NewPropertyService(f.deps).Create(ctx, &property.CreateRequest{
		Title: "Flat", Type: property.TypeApartment, Address: "x", City: "Izmir", TotalArea: 50, BuildingID: &b.ID,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, b.ID, true), domain.ErrValidation)

	empty := f.building(t, ctx, "Empty")
	require.NoError(t, svc.Delete(ctx, empty.ID, true))
	_, err = svc.Get(ctx, empty.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
