package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

func newUser(email string, role user.Role) *user.CreateRequest {
	return &user.CreateRequest{Email: email, Name: "Name " + email, Password: "correct-horse", Role: role}
}

func TestUserService_Create(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps, f.auth)

	u, err := svc.Create(manager("T1"), newUser("Clerk@One.Example.com", user.RoleAccountant))
	require.NoError(t, err)
	assert.Equal(t, "clerk@one.example.com", u.Email)
	assert.Equal(t, "T1", u.OwningTenant())
	assert.NotEqual(t, "correct-horse", u.PasswordHash)
	assert.True(t, u.IsActive)

	_, err = svc.Create(manager("T2"), newUser("clerk@one.example.com", user.RoleTenant))
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Create(manager("T1"), newUser("boss@one.example.com", user.RoleAdmin))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Create(manager("T1"), &user.CreateRequest{Email: "bad", Name: "x", Password: "correct-horse", Role: user.RoleTenant})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_AdminCreate(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps, f.auth)

	root, err := svc.Create(admin(), newUser("root@example.com", user.RoleAdmin))
	require.NoError(t, err)
	assert.Nil(t, root.TenantID, "administrators may have no tenant")

	_, err = svc.Create(admin(), newUser("floating@example.com", user.RoleManager))
	assert.ErrorIs(t, err, tenancy.ErrTenantRequired)

	req := newUser("placed@example.com", user.RoleManager)
	req.TenantID = strPtr("T2")
	placed, err := svc.Create(admin(), req)
	require.NoError(t, err)
	assert.Equal(t, "T2", placed.OwningTenant())

	req = newUser("ghost@example.com", user.RoleManager)
	req.TenantID = strPtr("T9")
	_, err = svc.Create(admin(), req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	req = newUser("ignored@example.com", user.RoleManager)
	req.TenantID = strPtr("T2")
	u, err := svc.Create(manager("T1"), req)
	require.NoError(t, err)
	assert.Equal(t, "T1", u.OwningTenant(), "payload tenant is ignored for non-admins")
}

func TestUserService_ListAndIsolation(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps, f.auth)
	alice := f.renter(t, "T1", "alice@one.example.com")
	f.renter(t, "T1", "bob@one.example.com")
	carol := f.renter(t, "T2", "carol@two.example.com")

	got, err := svc.List(manager("T1"), user.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.List(manager("T1"), user.ListFilter{Search: "ALICE"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, alice.ID, got[0].ID)

	got, err = svc.List(manager("T1"), user.ListFilter{Role: user.RoleManager})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.Get(manager("T1"), carol.ID)
	assert.ErrorIs(t, err, tenancy.ErrAccessDenied)
	_, err = svc.Update(manager("T1"), carol.ID, &user.UpdateRequest{Name: strPtr("Mallory")})
	assert.ErrorIs(t, err, tenancy.ErrAccessDenied)
}

func TestUserService_Update(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps, f.auth)
	u := f.renter(t, "T1", "renter@one.example.com")

	admRole := user.RoleAdmin
	_, err := svc.Update(manager("T1"), u.ID, &user.UpdateRequest{Role: &admRole})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	inactive := false
	got, err := svc.Update(manager("T1"), u.ID, &user.UpdateRequest{
		Name: strPtr("Renamed"), IsActive: &inactive, Password: strPtr("new-password"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.False(t, got.IsActive)
	assert.NotEqual(t, u.PasswordHash, got.PasswordHash)

	_, err = svc.Update(manager("T1"), u.ID, &user.UpdateRequest{Password: strPtr("short")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_Delete(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps, f.auth)
	u := f.renter(t, "T1", "renter@one.example.com")
	self := as(user.RoleManager, "T1", "")

	assert.ErrorIs(t, svc.Delete(self, "u-MANAGER"), domain.ErrValidation)
	assert.ErrorIs(t, svc.Delete(manager("T2"), u.ID), tenancy.ErrAccessDenied)

	require.NoError(t, svc.Delete(self, u.ID))
	_, err := svc.Get(self, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
