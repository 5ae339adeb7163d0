package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estateguard/estate/internal/credential"
)

func okHandler(t *testing.T, wantClaims bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := credential.FromContext(r.Context())
		assert.Equal(t, wantClaims, ok)
		w.WriteHeader(http.StatusOK)
	})
}

func ownerGate() *Gate {
	repo := newMockRepo()
	repo.seedRole("r-owner", "owner")
	repo.seedPermission(Permission{RoleID: "r-owner", Resource: "/billing", Read: true})
	repo.seedPermission(Permission{RoleID: "r-owner", Resource: "/settings", Read: true})
	gate, _ := newTestGate(repo, credential.Options{})
	return gate
}

func TestRequireForbidsWithoutPermission(t *testing.T) {
	mw := Middleware{Gate: ownerGate()}

	cases := []struct {
		name   string
		header string
		rule   Rule
		status int
	}{
		{"missing header", "", Can("/billing", ActionRead), http.StatusForbidden},
		{"malformed", "Bearer nope", Can("/billing", ActionRead), http.StatusForbidden},
		{"lacks update", tokenFor(`{"role":"owner"}`), Can("/billing", ActionUpdate), http.StatusForbidden},
		{"has read", tokenFor(`{"role":"owner"}`), Can("/billing", ActionRead), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/billing/payments", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			mw.Require(tc.rule)(okHandler(t, true)).ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())
			}
		})
	}
}

func TestRequireAnyAcceptsEitherRule(t *testing.T) {
	mw := Middleware{Gate: ownerGate()}
	req := httptest.NewRequest(http.MethodPost, "/api/billing/settings", nil)
	req.Header.Set("Authorization", tokenFor(`{"role":"owner"}`))
	rec := httptest.NewRecorder()

	mw.RequireAny(Can("/settings", ActionUpdate), Can("/settings", ActionRead))(okHandler(t, true)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireCredential(t *testing.T) {
	mw := Middleware{Gate: ownerGate()}

	rec := httptest.NewRecorder()
	mw.RequireCredential(okHandler(t, true)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check-in", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/check-in", nil)
	req.Header.Set("Authorization", tokenFor(`{"role":"guard","sub":"u1"}`))
	rec = httptest.NewRecorder()
	mw.RequireCredential(okHandler(t, true)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
