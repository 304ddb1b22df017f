package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	var check func() error
	switch {
	case strings.HasPrefix(subject, SubjectAudit+"."):
		var p AuditEventPayload
		check = func() error {
			if err := json.Unmarshal(data, &p); err != nil {
				return err
			}
			if p.Action == "" || p.EntityType == "" {
				return fmt.Errorf("action and entity_type are required")
			}
			return nil
		}
	case subject == SubjectCrossTenantAccess:
		var p CrossTenantAccessPayload
		check = func() error {
			if err := json.Unmarshal(data, &p); err != nil {
				return err
			}
			if p.PrincipalID == "" || p.TargetTenant == "" {
				return fmt.Errorf("principal_id and target_tenant are required")
			}
			return nil
		}
	case subject == SubjectTenantInvalidated:
		var p TenantInvalidatedPayload
		check = func() error {
			if err := json.Unmarshal(data, &p); err != nil {
				return err
			}
			if p.TenantID == "" {
				return fmt.Errorf("tenant_id is required")
			}
			return nil
		}
	default:
		return nil
	}

	if err := check(); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
