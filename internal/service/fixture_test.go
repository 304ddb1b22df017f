package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Strob0t/PropDesk/internal/adapter/memory"
	"github.com/Strob0t/PropDesk/internal/config"
	"github.com/Strob0t/PropDesk/internal/domain/building"
	"github.com/Strob0t/PropDesk/internal/domain/property"
	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/port/database"
	"github.com/Strob0t/PropDesk/internal/port/messagequeue"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

type published struct {
	subject string
	data    []byte
}

// fakeQueue records published messages.
type fakeQueue struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

var _ messagequeue.Queue = (*fakeQueue)(nil)

func (q *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, published{subject: subject, data: data})
	return nil
}

func (q *fakeQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}
func (q *fakeQueue) Drain() error      { return nil }
func (q *fakeQueue) Close() error      { return nil }
func (q *fakeQueue) IsConnected() bool { return true }

func (q *fakeQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.msgs))
	for i, m := range q.msgs {
		out[i] = m.subject
	}
	return out
}

// fakeCache records invalidated tenant ids.
type fakeCache struct {
	evicted []string
}

func (c *fakeCache) Invalidate(_ context.Context, t *tenant.Tenant) {
	c.evicted = append(c.evicted, t.ID)
}

type fixture struct {
	tables database.Tables
	deps   *Deps
	queue  *fakeQueue
	auth   *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tables := memory.NewTables()
	q := &fakeQueue{}
	log := slog.New(slog.DiscardHandler)
	audit := NewAuditService(tables.AuditLogs, q, log)
	deps := &Deps{
		Tables:    tables,
		Validator: tenancy.NewValidator(log, audit),
		Audit:     audit,
		Gateway:   []tenancy.GatewayOption{tenancy.WithStrictMode(true)},
	}
	ctx := context.Background()
	for _, r := range []database.Record{
		{"id": "T1", "name": "One", "domain": "one.example.com"},
		{"id": "T2", "name": "Two", "domain": "two"},
	} {
		_, err := tables.Tenants.Create(ctx, r)
		require.NoError(t, err)
	}
	auth := NewAuthService(tables.Users, &config.Auth{
		JWTSecret:         "test-secret-key-must-be-long-enough",
		AccessTokenExpiry: 15 * time.Minute,
		BcryptCost:        4,
		Issuer:            "propdesk",
	})
	return &fixture{tables: tables, deps: deps, queue: q, auth: auth}
}

// as returns a request context for a principal. A non-empty resolved
// tenant is recorded as the resolver's outcome.
func as(role user.Role, home, resolved string) context.Context {
	p := &user.Principal{ID: "u-" + string(role), Role: role}
	if home != "" {
		p.TenantID = &home
	}
	rc := tenancy.NewRequestContext(p)
	if resolved != "" {
		rc.Resolved(&tenant.Tenant{ID: resolved, IsActive: true})
	}
	return tenancy.WithRequestContext(context.Background(), rc)
}

func manager(tenantID string) context.Context { return as(user.RoleManager, tenantID, "") }

func admin() context.Context { return as(user.RoleAdmin, "", "") }

func (f *fixture) building(t *testing.T, ctx context.Context, name string) *building.Building {
	t.Helper()
	b, err := NewBuildingService(f.deps).Create(ctx, &building.CreateRequest{
		Name: name, Address: "1 Kordon", City: "Izmir", District: "Alsancak", TotalUnits: 8,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) property(t *testing.T, ctx context.Context, title string) *property.Property {
	t.Helper()
	p, err := NewPropertyService(f.deps).Create(ctx, &property.CreateRequest{
		Title: title, Type: property.TypeApartment, Address: "1 Kordon", City: "Izmir",
		District: "Alsancak", TotalArea: 90,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) renter(t *testing.T, tenantID, email string) *user.User {
	t.Helper()
	u, err := f.tables.Users.Create(context.Background(), database.Record{
		"tenant_id": tenantID, "email": email, "name": "Renter", "password_hash": "x", "role": user.RoleTenant,
	})
	require.NoError(t, err)
	return u
}
