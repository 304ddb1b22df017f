package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/PropDesk/internal/adapter/postgres"
	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/property"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/port/database"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

// setupTables connects to DATABASE_URL, runs all migrations, and returns
// the repositories. The pool is closed via t.Cleanup.
func setupTables(t *testing.T) database.Tables {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return postgres.NewTables(pool)
}

// createTestTenant creates a tenant with a random domain and returns its ID.
func createTestTenant(t *testing.T, db database.Tables) string {
	t.Helper()
	domainName := "test-" + uuid.NewString()[:8]
	tn, err := db.Tenants.Create(context.Background(), database.Record{
		"name":   "Test Tenant " + domainName,
		"domain": domainName,
	})
	if err != nil {
		t.Fatalf("create test tenant: %v", err)
	}
	if !tn.IsActive {
		t.Fatal("expected is_active default true")
	}
	return tn.ID
}

func propertyData(title string) database.Record {
	return database.Record{
		"title":      title,
		"type":       property.TypeApartment,
		"address":    "1 Main St",
		"city":       "Izmir",
		"district":   "Konak",
		"total_area": 95.5,
	}
}

func TestTable_PropertyCRUD(t *testing.T) {
	db := setupTables(t)
	ctx := context.Background()
	tenantID := createTestTenant(t, db)
	g, err := tenancy.Scoped(db.Properties, "property", tenantID)
	if err != nil {
		t.Fatal(err)
	}

	created, err := g.Create(ctx, propertyData("Harbour flat"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.TenantID != tenantID {
		t.Fatalf("unexpected created row: %+v", created)
	}
	if created.Status != property.StatusAvailable {
		t.Fatalf("expected default status AVAILABLE, got %s", created.Status)
	}

	n, err := g.Update(ctx, sq.Eq{"id": created.ID}, database.Record{"status": property.StatusRented})
	if err != nil || n != 1 {
		t.Fatalf("Update: n=%d err=%v", n, err)
	}
	got, err := g.FindUnique(ctx, sq.Eq{"id": created.ID})
	if err != nil {
		t.Fatalf("FindUnique: %v", err)
	}
	if got.Status != property.StatusRented {
		t.Fatalf("expected RENTED, got %s", got.Status)
	}
	if !got.UpdatedAt.After(created.UpdatedAt) && !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatal("updated_at went backwards")
	}

	items, err := g.FindMany(ctx, database.Query{
		Where:   sq.ILike{"title": "%harbour%"},
		OrderBy: []string{"created_at DESC"},
	})
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 match, got %d", len(items))
	}

	sum, err := g.Aggregate(ctx, nil, database.Aggregation{Func: database.Sum, Column: "total_area"})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if sum != 95.5 {
		t.Fatalf("expected 95.5, got %v", sum)
	}

	n, err = g.Delete(ctx, sq.Eq{"id": created.ID})
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	if _, err := g.FindUnique(ctx, sq.Eq{"id": created.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTable_TenantIsolation(t *testing.T) {
	db := setupTables(t)
	ctx := context.Background()
	t1 := createTestTenant(t, db)
	t2 := createTestTenant(t, db)

	g1, _ := tenancy.Scoped(db.Properties, "property", t1)
	g2, _ := tenancy.Scoped(db.Properties, "property", t2, tenancy.WithStrictMode(true))

	p, err := g1.Create(ctx, propertyData("Only in T1"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g2.FindUnique(ctx, sq.Eq{"id": p.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("T2 must not see T1's property, got %v", err)
	}
	if _, err := g2.Delete(ctx, sq.Eq{"id": p.ID}); !errors.Is(err, tenancy.ErrEntityNotInTenant) {
		t.Fatalf("expected ErrEntityNotInTenant, got %v", err)
	}
}

func TestTable_UniqueViolationIsConflict(t *testing.T) {
	db := setupTables(t)
	ctx := context.Background()
	email := "dup-" + uuid.NewString()[:8] + "@example.com"
	rec := database.Record{"email": email, "name": "Dup", "password_hash": "x", "role": user.RoleAdmin}

	if _, err := db.Users.Create(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Users.Create(ctx, rec); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestTable_ForeignKeyIsValidation(t *testing.T) {
	db := setupTables(t)
	data := propertyData("Orphan")
	data["tenant_id"] = "does-not-exist"
	if _, err := db.Properties.Create(context.Background(), data); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTable_RejectsUnknownColumnsAndOrder(t *testing.T) {
	db := setupTables(t)
	ctx := context.Background()
	if _, err := db.Tenants.Create(ctx, database.Record{"name": "x", "bogus": 1}); err == nil {
		t.Fatal("expected unknown column error")
	}
	if _, err := db.Tenants.FindMany(ctx, database.Query{OrderBy: []string{"name; DROP TABLE tenants"}}); err == nil {
		t.Fatal("expected invalid order error")
	}
}

func TestTxRunner_RollsBack(t *testing.T) {
	db := setupTables(t)
	ctx := context.Background()
	domainName := "tx-" + uuid.NewString()[:8]
	boom := errors.New("boom")

	err := db.Tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := db.Tenants.Create(ctx, database.Record{"name": "Tx", "domain": domainName}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := db.Tenants.FindUnique(ctx, sq.Eq{"domain": domainName}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}
}
