// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects published by PropDesk.
const (
	// SubjectAudit prefixes audit.{entity}.{action} events, one per mutation.
	SubjectAudit = "audit"

	// SubjectCrossTenantAccess carries administrative cross-tenant access events.
	SubjectCrossTenantAccess = "security.cross_tenant"

	// SubjectTenantInvalidated tells every instance to evict a tenant from
	// its directory cache.
	SubjectTenantInvalidated = "tenants.invalidated"
)

// StreamSubjects are captured by the PropDesk JetStream stream.
var StreamSubjects = []string{"audit.>", "security.>", "tenants.>"}

// AuditSubject returns the subject for an audit event, e.g. "audit.property.create".
func AuditSubject(entityType, action string) string {
	return SubjectAudit + "." + subjectToken(entityType) + "." + subjectToken(action)
}
