package rbac

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/estateguard/estate/internal/credential"
)

func tokenFor(payload string) string {
	return "Bearer h." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".s"
}

type recordedDecision struct {
	resource, action string
	allowed          bool
}

type decisionLog struct{ entries []recordedDecision }

func (d *decisionLog) ObserveAuthz(resource, action string, allowed bool) {
	d.entries = append(d.entries, recordedDecision{resource, action, allowed})
}

func newTestGate(repo *mockRepo, opts credential.Options) (*Gate, *decisionLog) {
	log := &decisionLog{}
	return NewGate(credential.NewParser(opts), NewService(repo, nil, nil), nil, log), log
}

func TestGateReadOnlyRoleCannotUpdate(t *testing.T) {
	repo := newMockRepo()
	repo.seedRole("r-owner", "owner")
	repo.seedPermission(Permission{RoleID: "r-owner", Resource: "/billing", Read: true})
	gate, _ := newTestGate(repo, credential.Options{})
	tok := tokenFor(`{"role":"owner"}`)

	assert.False(t, gate.Authorize(context.Background(), tok, Can("/billing", ActionUpdate)))
	assert.True(t, gate.Authorize(context.Background(), tok, Can("/billing", ActionRead)))
}

func TestGateSuperAdminBypassesStore(t *testing.T) {
	gate, _ := newTestGate(newMockRepo(), credential.Options{})
	for _, tok := range []string{tokenFor(`{"role":"SuperAdmin"}`), tokenFor(`{"role":["superadmin","guard"]}`)} {
		assert.True(t, gate.Authorize(context.Background(), tok, Can("/anything", ActionDelete)))
	}
}

func TestGateDeniesMalformedAndMissing(t *testing.T) {
	gate, log := newTestGate(newMockRepo(), credential.Options{})
	for _, tok := range []string{"", "Bearer abc", tokenFor(`{"role":`), tokenFor(`{}`), tokenFor(`{"role":""}`)} {
		assert.False(t, gate.Authorize(context.Background(), tok, Can("/users", ActionRead)), tok)
	}
	for _, d := range log.entries {
		assert.False(t, d.allowed)
	}
	assert.Len(t, log.entries, 5)
}

func TestGateSentinel(t *testing.T) {
	off, _ := newTestGate(newMockRepo(), credential.Options{})
	assert.False(t, off.Authorize(context.Background(), "Bearer mock-access-token", Can("/users", ActionUpdate)))

	on, _ := newTestGate(newMockRepo(), credential.Options{AllowSentinel: true})
	assert.True(t, on.Authorize(context.Background(), "Bearer mock-access-token", Can("/users", ActionUpdate)))
}

func TestGateUnknownRoleAndMissingEntry(t *testing.T) {
	repo := newMockRepo()
	repo.seedRole("r-guard", "guard")
	gate, _ := newTestGate(repo, credential.Options{})

	assert.False(t, gate.Authorize(context.Background(), tokenFor(`{"role":"tenant"}`), Can("/checkpoints", ActionRead)))
	assert.False(t, gate.Authorize(context.Background(), tokenFor(`{"role":"guard"}`), Can("/checkpoints", ActionRead)))
}

func TestGateCaseInsensitiveRoleLookup(t *testing.T) {
	repo := newMockRepo()
	repo.seedRole("r-guard", "Guard")
	repo.seedPermission(Permission{RoleID: "r-guard", Resource: "/checkpoints", Read: true})
	gate, _ := newTestGate(repo, credential.Options{})

	assert.True(t, gate.Authorize(context.Background(), tokenFor(`{"role":"GUARD"}`), Can("/checkpoints", ActionRead)))
}

func TestGateBypassAndFallback(t *testing.T) {
	repo := newMockRepo()
	repo.seedRole("r-guard", "guard")
	repo.seedRole("r-owner", "owner")
	repo.seedPermission(Permission{RoleID: "r-guard", Resource: "homestay-checkins", Read: true})
	repo.seedPermission(Permission{RoleID: "r-owner", Resource: "/check-in-logs", Read: false})
	repo.seedPermission(Permission{RoleID: "r-owner", Resource: "homestay-checkins", Read: true})
	gate, _ := newTestGate(repo, credential.Options{})

	rule := Rule{
		Resource:          "/check-in-logs",
		Action:            ActionRead,
		BypassRoles:       []string{"admin"},
		FallbackResources: []string{"homestay-checkins"},
	}
	assert.True(t, gate.Authorize(context.Background(), tokenFor(`{"role":"Admin"}`), rule))
	assert.True(t, gate.Authorize(context.Background(), tokenFor(`{"role":"guard"}`), rule))
	// exact entry wins over the fallback
	assert.False(t, gate.Authorize(context.Background(), tokenFor(`{"role":"owner"}`), rule))
	// bypass is per rule
	assert.False(t, gate.Authorize(context.Background(), tokenFor(`{"role":"admin"}`), Can("/check-in-logs", ActionUpdate)))
}

func TestGateStoreErrorsDeny(t *testing.T) {
	repo := newMockRepo()
	repo.seedRole("r-owner", "owner")
	gate, _ := newTestGate(repo, credential.Options{})

	repo.roleErr = errBoom
	assert.False(t, gate.Authorize(context.Background(), tokenFor(`{"role":"owner"}`), Can("/billing", ActionRead)))

	repo.roleErr = nil
	repo.permErr = errBoom
	assert.False(t, gate.Authorize(context.Background(), tokenFor(`{"role":"owner"}`), Can("/billing", ActionRead)))
}

func TestGateObservesDecisions(t *testing.T) {
	gate, log := newTestGate(newMockRepo(), credential.Options{})
	gate.Authorize(context.Background(), tokenFor(`{"role":"superadmin"}`), Can("/users", ActionRead))
	assert.Equal(t, []recordedDecision{{"/users", "read", true}}, log.entries)
}
