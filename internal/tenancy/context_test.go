package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/domain/user"
)

func TestRequestContext_HappyPath(t *testing.T) {
	rc := NewRequestContext(&user.Principal{ID: "u", Role: user.RoleManager, TenantID: sp("T1")})
	assert.Equal(t, StageUnresolved, rc.Stage())

	rc.Resolved(&tenant.Tenant{ID: "T1"})
	assert.Equal(t, StageTenantResolved, rc.Stage())
	assert.True(t, rc.Advance(StageAccessChecked))
	assert.True(t, rc.Advance(StageHandling))
	assert.True(t, rc.Advance(StageComplete))
	assert.Equal(t, "COMPLETE", rc.Stage().String())
	assert.NoError(t, rc.Err())
}

func TestRequestContext_NoSkipping(t *testing.T) {
	rc := NewRequestContext(nil)
	assert.False(t, rc.Advance(StageHandling))
	assert.False(t, rc.Advance(StageUnresolved))
	assert.Equal(t, StageUnresolved, rc.Stage())
}

func TestRequestContext_FailFromAnyStage(t *testing.T) {
	boom := errors.New("boom")
	for _, steps := range []int{0, 1, 2, 3} {
		rc := NewRequestContext(nil)
		for s := 1; s <= steps; s++ {
			rc.Advance(Stage(s))
		}
		rc.Fail(boom)
		assert.Equal(t, StageError, rc.Stage())
		assert.ErrorIs(t, rc.Err(), boom)
		assert.False(t, rc.Advance(StageComplete), "ERROR is terminal")
	}
}

func TestRequestContext_CompleteIsTerminal(t *testing.T) {
	rc := NewRequestContext(nil)
	for s := StageTenantResolved; s <= StageComplete; s++ {
		rc.Advance(s)
	}
	rc.Fail(errors.New("late"))
	assert.Equal(t, StageComplete, rc.Stage())
	assert.NoError(t, rc.Err())
}

func TestRequestContext_EffectiveTenant(t *testing.T) {
	rc := NewRequestContext(&user.Principal{Role: user.RoleManager, TenantID: sp("T1")})
	assert.Equal(t, "T1", rc.EffectiveTenantID())
	assert.Empty(t, rc.TenantID())

	rc.Resolved(&tenant.Tenant{ID: "T2"})
	assert.Equal(t, "T2", rc.EffectiveTenantID())

	var nilRC *RequestContext
	assert.Empty(t, nilRC.EffectiveTenantID())
	assert.Empty(t, NewRequestContext(nil).EffectiveTenantID())
}

func TestFromContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	rc := NewRequestContext(nil)
	assert.Same(t, rc, FromContext(WithRequestContext(context.Background(), rc)))
}
