package tenancy

import (
	"context"
	"sync"

	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/domain/user"
)

// Stage is the position of a request in the tenant pipeline.
type Stage int

const (
	StageUnresolved Stage = iota
	StageTenantResolved
	StageAccessChecked
	StageHandling
	StageComplete
	StageError
)

func (s Stage) String() string {
	switch s {
	case StageUnresolved:
		return "UNRESOLVED"
	case StageTenantResolved:
		return "TENANT_RESOLVED"
	case StageAccessChecked:
		return "ACCESS_CHECKED"
	case StageHandling:
		return "HANDLING"
	case StageComplete:
		return "COMPLETE"
	case StageError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// RequestContext is the per-request tenant state. It is created when the
// pipeline starts and must not be shared between requests.
type RequestContext struct {
	Principal *user.Principal
	Tenant    *tenant.Tenant

	stage Stage
	err   error

	mu      sync.Mutex
	crossed map[string]bool
}

// NewRequestContext starts a pipeline for principal, which may be nil on public routes.
func NewRequestContext(p *user.Principal) *RequestContext {
	return &RequestContext{Principal: p, stage: StageUnresolved}
}

// Stage returns the current pipeline stage.
func (rc *RequestContext) Stage() Stage { return rc.stage }

// Err returns the error that moved the pipeline to StageError, if any.
func (rc *RequestContext) Err() error { return rc.err }

// Advance moves the pipeline one step forward. It reports false, leaving
// the stage unchanged, when next is not the immediate successor.
func (rc *RequestContext) Advance(next Stage) bool {
	if rc.stage >= StageComplete || next != rc.stage+1 || next > StageComplete {
		return false
	}
	rc.stage = next
	return true
}

// Fail moves the pipeline to StageError from any non-terminal stage.
func (rc *RequestContext) Fail(err error) {
	if rc.stage >= StageComplete {
		return
	}
	rc.stage = StageError
	rc.err = err
}

// Resolved records the resolver outcome and advances to StageTenantResolved.
func (rc *RequestContext) Resolved(t *tenant.Tenant) {
	rc.Tenant = t
	rc.Advance(StageTenantResolved)
}

// firstCrossing reports whether this is the first administrative crossing
// into target during the request.
func (rc *RequestContext) firstCrossing(target string) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.crossed[target] {
		return false
	}
	if rc.crossed == nil {
		rc.crossed = make(map[string]bool)
	}
	rc.crossed[target] = true
	return true
}

// TenantID returns the id of the resolved tenant or "".
func (rc *RequestContext) TenantID() string {
	if rc == nil || rc.Tenant == nil {
		return ""
	}
	return rc.Tenant.ID
}

// EffectiveTenantID is the tenant a request operates in: the resolved
// tenant, falling back to the principal's home tenant.
func (rc *RequestContext) EffectiveTenantID() string {
	if id := rc.TenantID(); id != "" {
		return id
	}
	if rc == nil {
		return ""
	}
	return rc.Principal.HomeTenant()
}

type requestContextKey struct{}

// WithRequestContext stores rc in ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext returns the request's tenant state, or nil outside the pipeline.
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc
}
