// Package audit defines audit log entries for mutations and security events.
package audit

import "time"

// Action names recorded in the audit log.
const (
	ActionCreate      = "CREATE"
	ActionUpdate      = "UPDATE"
	ActionDelete      = "DELETE"
	ActionDeactivate  = "DEACTIVATE"
	ActionTerminate   = "TERMINATE"
	ActionCancel      = "CANCEL"
	ActionCrossTenant = "CROSS_TENANT_ACCESS"
)

// Entry is one row of the audit log. TenantID is nil for system-level actions.
type Entry struct {
	ID         string    `json:"id" db:"id"`
	TenantID   *string   `json:"tenant_id,omitempty" db:"tenant_id"`
	UserID     *string   `json:"user_id,omitempty" db:"user_id"`
	Action     string    `json:"action" db:"action"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	EntityID   string    `json:"entity_id" db:"entity_id"`
	OldValues  *string   `json:"old_values,omitempty" db:"old_values"`
	NewValues  *string   `json:"new_values,omitempty" db:"new_values"`
	IPAddress  *string   `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string   `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// OwningTenant returns the tenant that owns the entry.
func (e Entry) OwningTenant() string {
	if e.TenantID == nil {
		return ""
	}
	return *e.TenantID
}

// Event is the message published for every recorded entry.
type Event struct {
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	TenantID   string    `json:"tenant_id,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	At         time.Time `json:"at"`
}

// ListFilter narrows an audit log listing.
type ListFilter struct {
	Action     string
	EntityType string
	EntityID   string
	UserID     string
	Limit      uint64
	Offset     uint64
}
