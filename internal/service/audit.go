package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Strob0t/PropDesk/internal/domain/audit"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/logger"
	"github.com/Strob0t/PropDesk/internal/port/database"
	"github.com/Strob0t/PropDesk/internal/port/messagequeue"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

// AuditService writes the audit log and publishes one event per entry.
// Failures are logged and never fail the mutation being audited.
type AuditService struct {
	logs  database.Repository[audit.Entry]
	queue messagequeue.Queue
	log   *slog.Logger
	now   func() time.Time
}

var _ tenancy.AccessRecorder = (*AuditService)(nil)

// NewAuditService creates an AuditService. queue may be nil.
func NewAuditService(logs database.Repository[audit.Entry], queue messagequeue.Queue, log *slog.Logger) *AuditService {
	if log == nil {
		log = slog.Default()
	}
	return &AuditService{
		logs:  logs,
		queue: queue,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type clientKey struct{}

type clientInfo struct {
	ip, userAgent string
}

// WithClient stores the caller's address and user agent for audit entries.
func WithClient(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, clientInfo{ip: ip, userAgent: userAgent})
}

// Record writes an audit entry for a mutation of entityType/entityID inside
// tenantID ("" for system-level actions) and publishes it.
func (s *AuditService) Record(ctx context.Context, action, entityType, entityID, tenantID string, oldValues, newValues any) {
	if s == nil {
		return
	}
	p := principal(ctx)
	data := database.Record{
		"action":      action,
		"entity_type": entityType,
		"entity_id":   entityID,
		"user_id":     nullable(principalID(p)),
		"old_values":  marshal(oldValues),
		"new_values":  marshal(newValues),
	}
	if ci, ok := ctx.Value(clientKey{}).(clientInfo); ok {
		data["ip_address"] = nullable(ci.ip)
		data["user_agent"] = nullable(ci.userAgent)
	}
	s.write(ctx, tenantID, data)

	s.publish(ctx, messagequeue.AuditSubject(entityType, action), messagequeue.AuditEventPayload{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		TenantID:   tenantID,
		UserID:     principalID(p),
		At:         s.now(),
	})
}

// RecordCrossTenantAccess records an administrator acting inside a tenant
// other than its home tenant.
func (s *AuditService) RecordCrossTenantAccess(ctx context.Context, p *user.Principal, targetTenant string) {
	s.write(ctx, targetTenant, database.Record{
		"action":      audit.ActionCrossTenant,
		"entity_type": "tenant",
		"entity_id":   targetTenant,
		"user_id":     nullable(p.ID),
	})
	s.publish(ctx, messagequeue.SubjectCrossTenantAccess, messagequeue.CrossTenantAccessPayload{
		PrincipalID:     p.ID,
		PrincipalRole:   string(p.Role),
		PrincipalTenant: p.HomeTenant(),
		TargetTenant:    targetTenant,
		RequestID:       logger.RequestID(ctx),
		At:              s.now(),
	})
}

func (s *AuditService) write(ctx context.Context, tenantID string, data database.Record) {
	g := tenancy.Unscoped(s.logs, "audit_log")
	if tenantID != "" {
		var err error
		if g, err = tenancy.Scoped(s.logs, "audit_log", tenantID); err != nil {
			return
		}
	}
	if _, err := g.Create(ctx, data); err != nil {
		s.log.ErrorContext(ctx, "audit log write failed", "action", data["action"], "entity_type", data["entity_type"], "error", err)
	}
}

func (s *AuditService) publish(ctx context.Context, subject string, payload any) {
	if s.queue == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.ErrorContext(ctx, "audit event encode failed", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, body); err != nil {
		s.log.WarnContext(ctx, "audit event publish failed", "subject", subject, "error", err)
	}
}

// List returns audit entries of the request's tenant, newest first.
// Administrators without a tenant see every entry.
func (s *AuditService) List(ctx context.Context, f audit.ListFilter) ([]audit.Entry, error) {
	g, err := tenancy.ForRequest(ctx, s.logs, "audit_log")
	if err != nil {
		return nil, err
	}
	where := sq.And{}
	for _, kv := range [][2]string{
		{"action", f.Action},
		{"entity_type", f.EntityType},
		{"entity_id", f.EntityID},
		{"user_id", f.UserID},
	} {
		if kv[1] != "" {
			where = append(where, sq.Eq{kv[0]: kv[1]})
		}
	}
	limit, offset := page(f.Limit, f.Offset)
	return g.FindMany(ctx, database.Query{
		Where:   where,
		OrderBy: []string{"created_at DESC"},
		Limit:   limit,
		Offset:  offset,
	})
}

func marshal(v any) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func principalID(p *user.Principal) string {
	if p == nil {
		return ""
	}
	return p.ID
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
