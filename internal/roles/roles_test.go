package roles

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estateguard/estate/internal/credential"
	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/shared"
)

// memStore backs both RepositoryPort and PermissionStore.
type memStore struct {
	mu    sync.Mutex
	roles map[string]Role
	perms map[string][]rbac.Permission
	seq   int
}

func newMemStore() *memStore {
	return &memStore{roles: map[string]Role{}, perms: map[string][]rbac.Permission{}}
}

func (m *memStore) taken(name, except string) bool {
	for id, r := range m.roles {
		if id != except && rbac.SameRole(r.Name, name) {
			return true
		}
	}
	return false
}

func (m *memStore) CreateRole(_ context.Context, name, description string, startPage *string) (rbac.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(name, "") {
		return rbac.Role{}, shared.ErrDuplicate
	}
	m.seq++
	role := rbac.Role{ID: "role-" + string(rune('0'+m.seq)), Name: name, Description: description, StartPage: startPage}
	m.roles[role.ID] = role
	return role, nil
}

func (m *memStore) RoleByID(_ context.Context, id string) (rbac.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return rbac.Role{}, shared.ErrNotFound
	}
	return r, nil
}

func (m *memStore) ListPermissions(_ context.Context, roleID string) ([]rbac.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perms[roleID], nil
}

func (m *memStore) ListRoles(_ context.Context) ([]Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdateRole(_ context.Context, id string, in Input, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return shared.ErrNotFound
	}
	if m.taken(in.Name, id) {
		return shared.ErrDuplicate
	}
	r.Name, r.Description, r.StartPage, r.UpdatedAt = in.Name, in.Description, in.StartPage, at
	m.roles[id] = r
	return nil
}

func newTestRouter(store *memStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := rbac.NewGate(credential.NewParser(credential.Options{AllowSentinel: true}), nil, logger, nil)
	h := NewHandler(logger, NewService(store, store, nil), rbac.Middleware{Gate: gate, Logger: logger})
	r := chi.NewRouter()
	r.Route("/api/roles", h.MountRoutes)
	return r
}

func send(srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+credential.DefaultSentinelToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestCreateRoleIsStrict(t *testing.T) {
	store := newMemStore()
	srv := newTestRouter(store)

	rec := send(srv, http.MethodPost, "/api/roles", `{"name":" Manager ","description":"estate office"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Manager"`)

	rec = send(srv, http.MethodPost, "/api/roles", `{"name":"manager"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = send(srv, http.MethodPost, "/api/roles", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_name"}`, rec.Body.String())
}

func TestCreateRoleRequiresPermission(t *testing.T) {
	srv := newTestRouter(newMemStore())

	req := httptest.NewRequest(http.MethodPost, "/api/roles", strings.NewReader(`{"name":"x"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetRoleDetail(t *testing.T) {
	store := newMemStore()
	role, err := store.CreateRole(context.Background(), "guard", "", nil)
	require.NoError(t, err)
	store.perms[role.ID] = []rbac.Permission{{RoleID: role.ID, Resource: "/checkpoints", Read: true}}
	srv := newTestRouter(store)

	rec := send(srv, http.MethodGet, "/api/roles/"+role.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"resource":"/checkpoints"`)
	assert.Contains(t, rec.Body.String(), `"can_read":true`)
	assert.Contains(t, rec.Body.String(), `"can_create":false`)

	rec = send(srv, http.MethodGet, "/api/roles/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found"}`, rec.Body.String())
}

func TestUpdateRoleInPlace(t *testing.T) {
	store := newMemStore()
	role, _ := store.CreateRole(context.Background(), "guard", "", nil)
	_, _ = store.CreateRole(context.Background(), "owner", "", nil)
	srv := newTestRouter(store)

	rec := send(srv, http.MethodPut, "/api/roles/"+role.ID, `{"name":"Security","description":"night shift","start_page":"/check-in"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Security", store.roles[role.ID].Name)
	require.NotNil(t, store.roles[role.ID].StartPage)
	assert.Equal(t, "/check-in", *store.roles[role.ID].StartPage)

	assert.Equal(t, http.StatusConflict, send(srv, http.MethodPut, "/api/roles/"+role.ID, `{"name":"OWNER"}`).Code)
	assert.Equal(t, http.StatusNotFound, send(srv, http.MethodPut, "/api/roles/nope", `{"name":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(srv, http.MethodPut, "/api/roles/"+role.ID, `{"name":""}`).Code)
}

func TestListRolesOrderedByName(t *testing.T) {
	store := newMemStore()
	_, _ = store.CreateRole(context.Background(), "owner", "", nil)
	_, _ = store.CreateRole(context.Background(), "admin", "", nil)
	srv := newTestRouter(store)

	rec := send(srv, http.MethodGet, "/api/roles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, `"admin"`), strings.Index(body, `"owner"`))
}
