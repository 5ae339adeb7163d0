package rbac

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estateguard/estate/internal/shared"
)

func sortedResources(perms []Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.Resource)
	}
	sort.Strings(out)
	return out
}

func TestGetRoleCaseInsensitive(t *testing.T) {
	repo := newMockRepo()
	repo.seedRole("r1", "Owner")
	svc := NewService(repo, nil, nil)

	role, err := svc.GetRole(context.Background(), "owner")
	require.NoError(t, err)
	assert.Equal(t, "r1", role.ID)

	_, err = svc.GetRole(context.Background(), "OWNER ")
	require.NoError(t, err)

	_, err = svc.GetRole(context.Background(), "tenant")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateRoleStrict(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, sequentialIDs(), nil)

	role, err := svc.CreateRole(context.Background(), " guard ", "gate staff", nil)
	require.NoError(t, err)
	assert.Equal(t, "guard", role.Name)
	assert.Equal(t, "role-1", role.ID)

	_, err = svc.CreateRole(context.Background(), "GUARD", "", nil)
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = svc.CreateRole(context.Background(), "  ", "", nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestEnsureRoleGetOrCreate(t *testing.T) {
	repo := newMockRepo()
	existing := repo.seedRole("r1", "admin")
	svc := NewService(repo, sequentialIDs(), nil)

	role, err := svc.EnsureRole(context.Background(), "Admin")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, role.ID)

	created, err := svc.EnsureRole(context.Background(), "owner")
	require.NoError(t, err)
	assert.Equal(t, "role-1", created.ID)
	assert.Len(t, repo.roles, 2)
}

func TestReplacePermissionsIsIdempotent(t *testing.T) {
	repo := newMockRepo()
	repo.seedRole("r1", "owner")
	repo.seedPermission(Permission{RoleID: "r1", Resource: "/stale", Read: true})
	svc := NewService(repo, nil, nil)

	entries := []Permission{
		{Resource: "/billing", Read: true},
		{Resource: "", Read: true},
		{Resource: "/users", Read: true, Update: true},
	}
	ctx := context.Background()
	require.NoError(t, svc.ReplacePermissions(ctx, "r1", entries))
	first, err := svc.ListPermissions(ctx, "r1")
	require.NoError(t, err)

	require.NoError(t, svc.ReplacePermissions(ctx, "r1", entries))
	second, err := svc.ListPermissions(ctx, "r1")
	require.NoError(t, err)

	assert.Equal(t, []string{"/billing", "/users"}, sortedResources(first))
	assert.ElementsMatch(t, first, second)
}

func TestReplacePermissionsLastEntryWins(t *testing.T) {
	repo := newMockRepo()
	repo.seedRole("r1", "owner")
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.ReplacePermissions(context.Background(), "r1", []Permission{
		{Resource: "/billing", Read: true, Update: true},
		{Resource: "/billing", Read: true},
	}))
	p, err := svc.Permission(context.Background(), "r1", "/billing")
	require.NoError(t, err)
	assert.True(t, p.Read)
	assert.False(t, p.Update)
}

func TestReplacePermissionsRollsBackOnFailure(t *testing.T) {
	repo := newMockRepo()
	repo.seedRole("r1", "owner")
	repo.seedPermission(Permission{RoleID: "r1", Resource: "/billing", Read: true})
	repo.insertErr = errBoom
	svc := NewService(repo, nil, nil)

	err := svc.ReplacePermissions(context.Background(), "r1", []Permission{{Resource: "/users", Read: true}})
	assert.ErrorIs(t, err, errBoom)

	repo.insertErr = nil
	perms, err := svc.ListPermissions(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/billing"}, sortedResources(perms))
}

func TestPermissionsForUnknownRoleIsEmpty(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	perms, err := svc.PermissionsForRole(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, perms)
	assert.NotNil(t, perms)
}

func TestSavePermissionsCreatesRole(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, sequentialIDs(), nil)

	role, err := svc.SavePermissions(context.Background(), "guard", []Permission{{Resource: "/checkpoints", Read: true}})
	require.NoError(t, err)
	perms, err := svc.PermissionsForRole(context.Background(), "GUARD")
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, role.ID, perms[0].RoleID)
}

func TestNormalizeRole(t *testing.T) {
	assert.True(t, SameRole("SuperAdmin", "superadmin"))
	assert.True(t, SameRole(" Guard", "guard "))
	assert.False(t, SameRole("owner", "admin"))
	// lower() keeps ß distinct from SS; folding would merge them.
	assert.False(t, SameRole("Straße", "STRASSE"))
	assert.Equal(t, "straße", NormalizeRole("STRAßE"))
}
