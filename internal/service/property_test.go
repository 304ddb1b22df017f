package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/contract"
	"github.com/Strob0t/PropDesk/internal/domain/property"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

func TestPropertyService_BuildingMustShareTenant(t *testing.T) {
	f := newFixture(t)
	svc := NewPropertyService(f.deps)
	theirs := f.building(t, manager("T2"), "Theirs")
	mine := f.building(t, manager("T1"), "Mine")
	req := func(b *string) *property.CreateRequest {
		return &property.CreateRequest{
			Title: "Flat", Type: property.TypeApartment, Address: "x", City: "Izmir", TotalArea: 50, BuildingID: b,
		}
	}

	_, err := svc.Create(manager("T1"), req(&theirs.ID))
	assert.ErrorIs(t, err, domain.ErrValidation)

	p, err := svc.Create(manager("T1"), req(&mine.ID))
	require.NoError(t, err)
	assert.Equal(t, property.StatusAvailable, p.Status)
	require.NotNil(t, p.BuildingID)

	_, err = svc.Update(manager("T1"), p.ID, &property.UpdateRequest{BuildingID: &theirs.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)

	empty := ""
	p, err = svc.Update(manager("T1"), p.ID, &property.UpdateRequest{BuildingID: &empty})
	require.NoError(t, err)
	assert.Nil(t, p.BuildingID, "empty building_id detaches the property")
}

func TestPropertyService_ListFilters(t *testing.T) {
	f := newFixture(t)
	svc := NewPropertyService(f.deps)
	ctx := manager("T1")
	small := f.property(t, ctx, "Studio")
	_, err := svc.Update(ctx, small.ID, &property.UpdateRequest{TotalArea: ptrTo(30.0)})
	require.NoError(t, err)
	f.property(t, ctx, "Loft")
	f.property(t, manager("T2"), "Loft elsewhere")

	got, err := svc.List(ctx, property.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.List(ctx, property.ListFilter{MaxArea: ptrTo(50.0)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Studio", got[0].Title)

	got, err = svc.List(ctx, property.ListFilter{Search: "loft"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.List(ctx, property.ListFilter{City: "IZMIR", Type: property.TypeApartment})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPropertyService_DocumentsAndMaintenance(t *testing.T) {
	f := newFixture(t)
	svc := NewPropertyService(f.deps)
	ctx := manager("T1")
	p := f.property(t, ctx, "Flat")

	d, err := svc.AddDocument(ctx, p.ID, &property.AddDocumentRequest{
		Title: "Deed", Type: "DEED", FileURL: "https://files.example.com/deed.pdf", FileName: "deed.pdf", FileType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "T1", d.TenantID)
	assert.Equal(t, p.ID, d.PropertyID)

	_, err = svc.AddDocument(ctx, p.ID, &property.AddDocumentRequest{Title: "Bad", Type: "X", FileURL: "ftp://x", FileName: "x", FileType: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	m, err := svc.AddMaintenance(ctx, p.ID, &property.AddMaintenanceRequest{
		Title: "Boiler", MaintenanceType: "REPAIR", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Cost: ptrTo(250.0),
	})
	require.NoError(t, err)
	assert.Equal(t, "T1", m.TenantID)

	docs, err := svc.Documents(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	work, err := svc.Maintenance(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, work, 1)

	_, err = svc.AddDocument(manager("T2"), p.ID, &property.AddDocumentRequest{
		Title: "Spoof", Type: "DEED", FileURL: "https://x", FileName: "x", FileType: "x",
	})
	assert.ErrorIs(t, err, tenancy.ErrAccessDenied)
	_, err = svc.Documents(manager("T2"), p.ID)
	assert.ErrorIs(t, err, tenancy.ErrAccessDenied)
}

func TestPropertyService_Delete(t *testing.T) {
	f := newFixture(t)
	svc := NewPropertyService(f.deps)
	ctx := manager("T1")
	rented := f.property(t, ctx, "Rented")
	r := f.renter(t, "T1", "r@one.example.com")
	_, err := NewContractService(f.deps).Create(ctx, &contract.CreateRequest{
		Title: "Lease", PropertyID: rented.ID, RenterID: r.ID, MonthlyRent: 900,
		PaymentDay: 5, PaymentMethod: contract.PaymentCash,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, rented.ID, false), domain.ErrValidation)

	documented := f.property(t, ctx, "Documented")
	_, err = svc.AddDocument(ctx, documented.ID, &property.AddDocumentRequest{
		Title: "Plan", Type: "PLAN", FileURL: "https://x", FileName: "x", FileType: "x",
	})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, documented.ID, true), domain.ErrValidation)
	require.NoError(t, svc.Delete(ctx, documented.ID, false))
	got, err := svc.Get(ctx, documented.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	bare := f.property(t, ctx, "Bare")
	require.NoError(t, svc.Delete(ctx, bare.ID, true))
	_, err = svc.Get(ctx, bare.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func ptrTo[V any](v V) *V { return &v }
