package memory

import (
	"context"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/property"
	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/port/database"
)

func seedProperties(t *testing.T, tbl *Table[property.Property]) {
	t.Helper()
	ctx := context.Background()
	rows := []database.Record{
		{"tenant_id": "t1", "title": "Sea View", "type": property.TypeApartment, "address": "1 Quay", "city": "Izmir", "total_area": 80.0},
		{"tenant_id": "t1", "title": "Garden House", "type": property.TypeHouse, "address": "2 Lane", "city": "Ankara", "total_area": 140.0, "status": property.StatusRented},
		{"tenant_id": "t2", "title": "Corner Shop", "type": property.TypeShop, "address": "3 Market", "city": "Izmir", "total_area": 45.5},
	}
	for _, r := range rows {
		_, err := tbl.Create(ctx, r)
		require.NoError(t, err)
	}
}

func TestTable_CreateAssignsIDAndDefaults(t *testing.T) {
	tbl := NewTables().Properties.(*Table[property.Property])
	p, err := tbl.Create(context.Background(), database.Record{
		"tenant_id": "t1", "title": "Loft", "type": property.TypeApartment,
		"address": "x", "city": "y", "total_area": 50,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, property.StatusAvailable, p.Status)
	assert.True(t, p.IsActive)
	assert.Equal(t, 50.0, p.TotalArea)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestTable_CreateRejectsUnknownColumn(t *testing.T) {
	tbl := NewTable[tenant.Tenant]("tenants")
	_, err := tbl.Create(context.Background(), database.Record{"name": "a", "slug": "nope"})
	require.Error(t, err)
}

func TestTable_Predicates(t *testing.T) {
	tbl := NewTable[property.Property]("properties")
	seedProperties(t, tbl)
	ctx := context.Background()

	tests := []struct {
		name  string
		where sq.Sqlizer
		want  []string
	}{
		{name: "nil matches all", where: nil, want: []string{"Corner Shop", "Garden House", "Sea View"}},
		{name: "eq", where: sq.Eq{"tenant_id": "t1"}, want: []string{"Garden House", "Sea View"}},
		{name: "eq typed value", where: sq.Eq{"status": property.StatusRented}, want: []string{"Garden House"}},
		{name: "in", where: sq.Eq{"city": []string{"Ankara", "Bursa"}}, want: []string{"Garden House"}},
		{name: "and", where: sq.And{sq.Eq{"city": "Izmir"}, sq.Eq{"tenant_id": "t2"}}, want: []string{"Corner Shop"}},
		{name: "or", where: sq.Or{sq.Eq{"city": "Ankara"}, sq.Eq{"type": property.TypeShop}}, want: []string{"Corner Shop", "Garden House"}},
		{name: "ilike", where: sq.ILike{"title": "%SEA%"}, want: []string{"Sea View"}},
		{name: "not eq", where: sq.NotEq{"tenant_id": "t1"}, want: []string{"Corner Shop"}},
		{name: "range", where: sq.And{sq.GtOrEq{"total_area": 50}, sq.Lt{"total_area": 100}}, want: []string{"Sea View"}},
		{name: "is null", where: sq.Eq{"building_id": nil}, want: []string{"Corner Shop", "Garden House", "Sea View"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := tbl.FindMany(ctx, database.Query{Where: tt.where, OrderBy: []string{"title ASC"}})
			require.NoError(t, err)
			got := make([]string, len(items))
			for i, p := range items {
				got[i] = p.Title
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_UnsupportedPredicate(t *testing.T) {
	tbl := NewTable[property.Property]("properties")
	seedProperties(t, tbl)
	_, err := tbl.FindMany(context.Background(), database.Query{Where: sq.Expr("1 = 1")})
	require.Error(t, err)
}

func TestTable_OrderAndPaginate(t *testing.T) {
	tbl := NewTable[property.Property]("properties")
	seedProperties(t, tbl)

	items, err := tbl.FindMany(context.Background(), database.Query{OrderBy: []string{"total_area DESC"}, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Sea View", items[0].Title)
	assert.Equal(t, "Corner Shop", items[1].Title)
}

func TestTable_FindFirstNotFound(t *testing.T) {
	tbl := NewTable[property.Property]("properties")
	_, err := tbl.FindFirst(context.Background(), database.Query{Where: sq.Eq{"id": "missing"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTable_UpdateDeleteCount(t *testing.T) {
	tbl := NewTable[property.Property]("properties")
	seedProperties(t, tbl)
	ctx := context.Background()

	n, err := tbl.Update(ctx, sq.Eq{"city": "Izmir"}, database.Record{"status": property.StatusMaintenance})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = tbl.Count(ctx, sq.Eq{"status": property.StatusMaintenance})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = tbl.Delete(ctx, sq.Eq{"tenant_id": "t2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_Aggregate(t *testing.T) {
	tbl := NewTable[property.Property]("properties")
	seedProperties(t, tbl)
	ctx := context.Background()

	sum, err := tbl.Aggregate(ctx, sq.Eq{"tenant_id": "t1"}, database.Aggregation{Func: database.Sum, Column: "total_area"})
	require.NoError(t, err)
	assert.InDelta(t, 220.0, sum, 1e-9)

	maxArea, err := tbl.Aggregate(ctx, nil, database.Aggregation{Func: database.Max, Column: "total_area"})
	require.NoError(t, err)
	assert.InDelta(t, 140.0, maxArea, 1e-9)

	empty, err := tbl.Aggregate(ctx, sq.Eq{"tenant_id": "none"}, database.Aggregation{Func: database.Avg, Column: "total_area"})
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestTable_UniqueConstraint(t *testing.T) {
	tbl := NewTable[tenant.Tenant]("tenants", WithUnique("domain"))
	ctx := context.Background()

	_, err := tbl.Create(ctx, database.Record{"name": "A", "domain": "a.example.com"})
	require.NoError(t, err)
	_, err = tbl.Create(ctx, database.Record{"name": "B", "domain": "a.example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// NULL domains never conflict.
	_, err = tbl.Create(ctx, database.Record{"name": "C"})
	require.NoError(t, err)
	_, err = tbl.Create(ctx, database.Record{"name": "D", "domain": nil})
	require.NoError(t, err)
}
