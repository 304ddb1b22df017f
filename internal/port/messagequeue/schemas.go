package messagequeue

import (
	"strings"
	"time"
)

// AuditEventPayload is the schema for audit.> messages.
type AuditEventPayload struct {
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	TenantID   string    `json:"tenant_id,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	At         time.Time `json:"at"`
}

// CrossTenantAccessPayload is the schema for security.cross_tenant messages.
type CrossTenantAccessPayload struct {
	PrincipalID     string    `json:"principal_id"`
	PrincipalRole   string    `json:"principal_role"`
	PrincipalTenant string    `json:"principal_tenant,omitempty"`
	TargetTenant    string    `json:"target_tenant"`
	RequestID       string    `json:"request_id,omitempty"`
	At              time.Time `json:"at"`
}

// TenantInvalidatedPayload is the schema for tenants.invalidated messages.
type TenantInvalidatedPayload struct {
	TenantID string  `json:"tenant_id"`
	Domain   *string `json:"domain,omitempty"`
}

// subjectToken lowercases s and replaces characters NATS treats specially.
func subjectToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, strings.ToLower(s))
}
