package rbac

import (
	"context"
	"errors"
	"sync"

	"github.com/estateguard/estate/internal/shared"
)

type mockRepo struct {
	mu    sync.Mutex
	roles map[string]Role
	perms map[string]map[string]Permission

	roleErr   error
	permErr   error
	insertErr error
	deleteErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{roles: map[string]Role{}, perms: map[string]map[string]Permission{}}
}

func (m *mockRepo) seedRole(id, name string) Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := Role{ID: id, Name: name}
	m.roles[id] = r
	return r
}

func (m *mockRepo) seedPermission(p Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.perms[p.RoleID] == nil {
		m.perms[p.RoleID] = map[string]Permission{}
	}
	m.perms[p.RoleID][p.Resource] = p
}

func (m *mockRepo) RoleByName(_ context.Context, name string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roleErr != nil {
		return Role{}, m.roleErr
	}
	for _, r := range m.roles {
		if SameRole(r.Name, name) {
			return r, nil
		}
	}
	return Role{}, shared.ErrNotFound
}

func (m *mockRepo) RoleByID(_ context.Context, id string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return r, nil
}

func (m *mockRepo) InsertRole(_ context.Context, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, r := range m.roles {
		if SameRole(r.Name, role.Name) {
			return shared.ErrDuplicate
		}
	}
	m.roles[role.ID] = role
	return nil
}

func (m *mockRepo) Permission(_ context.Context, roleID, resource string) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.permErr != nil {
		return Permission{}, m.permErr
	}
	p, ok := m.perms[roleID][resource]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) ListPermissions(_ context.Context, roleID string) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.permErr != nil {
		return nil, m.permErr
	}
	var out []Permission
	for _, p := range m.perms[roleID] {
		out = append(out, p)
	}
	return out, nil
}

// WithTx stages writes and applies them only when fn succeeds.
func (m *mockRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &mockTx{parent: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, roleID := range tx.deleted {
		delete(m.perms, roleID)
	}
	for _, p := range tx.inserted {
		if m.perms[p.RoleID] == nil {
			m.perms[p.RoleID] = map[string]Permission{}
		}
		m.perms[p.RoleID][p.Resource] = p
	}
	return nil
}

type mockTx struct {
	parent   *mockRepo
	deleted  []string
	inserted []Permission
}

func (t *mockTx) DeletePermissions(_ context.Context, roleID string) error {
	if t.parent.deleteErr != nil {
		return t.parent.deleteErr
	}
	t.deleted = append(t.deleted, roleID)
	return nil
}

func (t *mockTx) InsertPermission(_ context.Context, p Permission) error {
	if t.parent.insertErr != nil {
		return t.parent.insertErr
	}
	t.inserted = append(t.inserted, p)
	return nil
}

var errBoom = errors.New("boom")

func sequentialIDs() shared.IDGenerator {
	n := 0
	return func() string {
		n++
		return "role-" + string(rune('0'+n))
	}
}
