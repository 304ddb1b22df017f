// Package user defines the user domain model for authentication and authorization.
package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Role represents the authorization level of a user.
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RolePropertyOwner Role = "PROPERTY_OWNER"
	RoleManager       Role = "MANAGER"
	RoleAccountant    Role = "ACCOUNTANT"
	RoleTenant        Role = "TENANT"
)

// ValidRoles is the set of all valid user roles.
var ValidRoles = map[Role]bool{
	RoleAdmin:         true,
	RolePropertyOwner: true,
	RoleManager:       true,
	RoleAccountant:    true,
	RoleTenant:        true,
}

// ParseRole converts s to a Role, accepting any letter case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !ValidRoles[r] {
		return "", errors.New("invalid role: must be ADMIN, PROPERTY_OWNER, MANAGER, ACCOUNTANT, or TENANT")
	}
	return r, nil
}

// Principal is the authenticated caller of a request. It is built from a
// verified access token and never persisted.
type Principal struct {
	ID       string  `json:"id"`
	Role     Role    `json:"role"`
	TenantID *string `json:"tenant_id,omitempty"`
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// HomeTenant returns the principal's home tenant id or "" when it has none.
func (p *Principal) HomeTenant() string {
	if p == nil || p.TenantID == nil {
		return ""
	}
	return *p.TenantID
}

// User represents a registered user. Administrators may have no tenant.
type User struct {
	ID           string    `json:"id" db:"id"`
	TenantID     *string   `json:"tenant_id,omitempty" db:"tenant_id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"` // never serialized
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// OwningTenant returns the tenant that owns the user record.
func (u User) OwningTenant() string {
	if u.TenantID == nil {
		return ""
	}
	return *u.TenantID
}

// Principal returns the request identity for u.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role, TenantID: u.TenantID}
}

// CreateRequest is the input for registering a new user.
type CreateRequest struct {
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Password string  `json:"password"` //nolint:gosec // request field, not a hardcoded secret
	Role     Role    `json:"role"`
	TenantID *string `json:"tenant_id,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	role, err := ParseRole(string(r.Role))
	if err != nil {
		return err
	}
	r.Role = role
	r.Email = strings.ToLower(r.Email)
	return nil
}

// UpdateRequest is the input for updating an existing user.
type UpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Role     *Role   `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Password *string `json:"password,omitempty"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks the optional fields of an UpdateRequest.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return errors.New("name must not be empty")
	}
	if r.Role != nil {
		role, err := ParseRole(string(*r.Role))
		if err != nil {
			return err
		}
		r.Role = &role
	}
	if r.Password != nil && len(*r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// ListFilter narrows a user listing.
type ListFilter struct {
	Search string
	Role   Role
	Limit  uint64
	Offset uint64
}

// LoginRequest is the input for user authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that the LoginRequest has all required fields.
func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// LoginResponse is returned after successful authentication.
type LoginResponse struct {
	AccessToken string `json:"access_token"` //nolint:gosec // response field, not a hardcoded secret
	ExpiresIn   int    `json:"expires_in"`   // seconds until access token expires
	User        User   `json:"user"`
}
