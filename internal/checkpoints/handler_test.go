package checkpoints

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estateguard/estate/internal/credential"
	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/shared"
)

const authHeader = "Bearer " + credential.DefaultSentinelToken

func newTestServer(repo *mockRepo) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := rbac.NewGate(credential.NewParser(credential.Options{AllowSentinel: true}), nil, logger, nil)
	h := NewHandler(logger, newTestService(repo), rbac.Middleware{Gate: gate, Logger: logger})
	r := chi.NewRouter()
	r.Route("/api/checkpoints", h.MountRoutes)
	return r
}

func do(srv http.Handler, method, target, body string, authed bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestListRequiresPermission(t *testing.T) {
	srv := newTestServer(newMockRepo(Checkpoint{ID: "1", Name: "Gate"}))
	rec := do(srv, http.MethodGet, "/api/checkpoints", "", false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListEmptyIsNoContent(t *testing.T) {
	srv := newTestServer(newMockRepo())
	rec := do(srv, http.MethodGet, "/api/checkpoints", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListClampsPageSize(t *testing.T) {
	srv := newTestServer(newMockRepo(Checkpoint{ID: "1", Name: "Gate"}))
	rec := do(srv, http.MethodGet, "/api/checkpoints?pageSize=500", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var page shared.Page[Checkpoint]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 100, page.PageSize)
	assert.Equal(t, 1, page.Total)
}

func TestCreateValidation(t *testing.T) {
	srv := newTestServer(newMockRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/checkpoints", strings.NewReader(`{}`))
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_content_type"}`, rec.Body.String())

	rec = do(srv, http.MethodPost, "/api/checkpoints", `{"name":"Gate","latitude":95,"longitude":0}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_payload"}`, rec.Body.String())

	rec = do(srv, http.MethodPost, "/api/checkpoints", `{"name":"Gate","longitude":0}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUpdateDelete(t *testing.T) {
	repo := newMockRepo()
	srv := newTestServer(repo)

	rec := do(srv, http.MethodPost, "/api/checkpoints", `{"name":"North Gate","latitude":0,"longitude":0}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, repo.items, "cp-new")

	rec = do(srv, http.MethodPut, "/api/checkpoints/cp-new", `{"name":"South Gate","latitude":1,"longitude":2}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "South Gate", repo.items["cp-new"].Name)

	rec = do(srv, http.MethodDelete, "/api/checkpoints/cp-new", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(srv, http.MethodDelete, "/api/checkpoints/cp-new", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found"}`, rec.Body.String())
}
