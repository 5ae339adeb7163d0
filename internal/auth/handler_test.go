package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/estateguard/estate/internal/auth"
	"github.com/estateguard/estate/internal/credential"
	"github.com/estateguard/estate/internal/shared"
	_ "github.com/estateguard/estate/testing"
)

const secret = "test-secret"

type stubRepo struct {
	user      *auth.User
	username  string
	err       error
	insertErr error
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) Insert(ctx context.Context, u auth.User, username string, at time.Time) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.user, s.username = &u, username
	return nil
}

func (s *stubRepo) SetPassword(ctx context.Context, id, hash string, at time.Time) error {
	if s.user == nil || s.user.ID != id {
		return shared.ErrNotFound
	}
	s.user.PasswordHash = hash
	return nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newRouter(repo auth.Repository) http.Handler {
	clock := &shared.FixedClock{T: time.Now().UTC()}
	issuer := credential.NewIssuer([]byte(secret), time.Hour, clock)
	h := auth.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), auth.NewService(repo, issuer, func() string { return "u-new" }, clock))
	r := chi.NewRouter()
	r.Route("/api/auth", h.MountRoutes)
	return r
}

func signIn(srv http.Handler, contentType, body string) *httptest.ResponseRecorder {
	return post(srv, "/api/auth/sign-in", contentType, body)
}

func post(srv http.Handler, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)
	return res
}

func TestSignInIssuesVerifiableToken(t *testing.T) {
	srv := newRouter(&stubRepo{user: &auth.User{ID: "u-7", Email: "guard@estate.test", Role: "guard", Status: "active", PasswordHash: hashed(t, "correctpass")}})

	res := signIn(srv, "application/json", `{"email":"Guard@estate.test","password":"correctpass"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var session auth.Session
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &session))
	assert.Equal(t, []string{"guard"}, session.User.Role)
	assert.Equal(t, "u-7", session.User.ID)
	assert.NotZero(t, session.User.Exp)

	parser := credential.NewParser(credential.Options{VerifySignature: true, Secret: []byte(secret)})
	claims, err := parser.Parse("Bearer " + session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "guard", claims.Role)
	assert.Equal(t, "u-7", claims.Subject)
}

func TestSignInInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: "u-1", Email: "user@test.local", PasswordHash: hashed(t, "correctpass")}}
	srv := newRouter(repo)

	res := signIn(srv, "application/json", `{"email":"user@test.local","password":"wrongpass"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"error":"invalid_credentials"}`, res.Body.String())

	res = signIn(srv, "application/json", `{"email":"nobody@test.local","password":"correctpass"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	repo.user.Status = "suspended"
	res = signIn(srv, "application/json", `{"email":"user@test.local","password":"correctpass"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestSignInRejectsMalformedRequests(t *testing.T) {
	srv := newRouter(&stubRepo{})

	res := signIn(srv, "text/plain", `{"email":"a@b.c","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.JSONEq(t, `{"error":"invalid_content_type"}`, res.Body.String())

	res = signIn(srv, "application/json", `{"email":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.JSONEq(t, `{"error":"invalid_credentials"}`, res.Body.String())
}

func TestSignInStorageFailureIsGeneric(t *testing.T) {
	srv := newRouter(&stubRepo{err: errors.New("dial tcp: refused")})

	res := signIn(srv, "application/json", `{"email":"a@b.c","password":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.NotContains(t, res.Body.String(), "refused")
}

func TestSignUpCreatesOwnerAndSignsIn(t *testing.T) {
	repo := &stubRepo{}
	srv := newRouter(repo)

	res := post(srv, "/api/auth/sign-up", "application/json", `{"email":"new.owner@estate.test","password":"longenough"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var session auth.Session
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &session))
	assert.Equal(t, "u-new", session.User.ID)
	assert.Equal(t, []string{"owner"}, session.User.Role)
	require.NotNil(t, repo.user)
	assert.Equal(t, "new.owner", repo.username)
	assert.Equal(t, "active", repo.user.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.user.PasswordHash), []byte("longenough")))

	res = signIn(srv, "application/json", `{"email":"new.owner@estate.test","password":"longenough"}`)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestSignUpRejections(t *testing.T) {
	existing := &auth.User{ID: "u-1", Email: "taken@estate.test", PasswordHash: hashed(t, "whatever1")}
	srv := newRouter(&stubRepo{user: existing})

	res := post(srv, "/api/auth/sign-up", "application/json", `{"email":"TAKEN@estate.test","password":"longenough"}`)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.JSONEq(t, `{"error":"email_taken"}`, res.Body.String())

	res = post(srv, "/api/auth/sign-up", "application/json", `{"email":"a@estate.test","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.JSONEq(t, `{"error":"invalid_input"}`, res.Body.String())

	res = post(srv, "/api/auth/sign-up", "text/plain", `{}`)
	assert.JSONEq(t, `{"error":"invalid_content_type"}`, res.Body.String())

	failing := newRouter(&stubRepo{insertErr: errors.New("disk full")})
	res = post(failing, "/api/auth/sign-up", "application/json", `{"email":"b@estate.test","password":"longenough"}`)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.JSONEq(t, `{"error":"signup_failed"}`, res.Body.String())
}

func TestChangePassword(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: "u-1", Email: "guard@estate.test", Status: "active", PasswordHash: hashed(t, "oldpassword")}}
	srv := newRouter(repo)

	cases := []struct {
		body string
		code int
		want string
	}{
		{`{"email":"guard@estate.test","currentPassword":"oldpassword","newPassword":"short"}`, http.StatusBadRequest, `{"error":"invalid_input"}`},
		{`{"email":"nobody@estate.test","currentPassword":"x","newPassword":"newpassword"}`, http.StatusNotFound, `{"error":"user_not_found"}`},
		{`{"email":"guard@estate.test","newPassword":"newpassword"}`, http.StatusBadRequest, `{"error":"current_password_required"}`},
		{`{"email":"guard@estate.test","currentPassword":"guess","newPassword":"newpassword"}`, http.StatusBadRequest, `{"error":"invalid_current_password"}`},
	}
	for _, tc := range cases {
		res := post(srv, "/api/auth/change-password", "application/json", tc.body)
		assert.Equal(t, tc.code, res.Code, tc.body)
		assert.JSONEq(t, tc.want, res.Body.String(), tc.body)
	}

	res := post(srv, "/api/auth/change-password", "application/json", `{"email":"guard@estate.test","currentPassword":"oldpassword","newPassword":"newpassword"}`)
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"success":true}`, res.Body.String())

	assert.Equal(t, http.StatusUnauthorized, signIn(srv, "application/json", `{"email":"guard@estate.test","password":"oldpassword"}`).Code)
	assert.Equal(t, http.StatusOK, signIn(srv, "application/json", `{"email":"guard@estate.test","password":"newpassword"}`).Code)
}

func TestChangePasswordWithoutStoredHash(t *testing.T) {
	srv := newRouter(&stubRepo{user: &auth.User{ID: "u-2", Email: "legacy@estate.test"}})
	res := post(srv, "/api/auth/change-password", "application/json", `{"email":"legacy@estate.test","currentPassword":"anything","newPassword":"newpassword"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.JSONEq(t, `{"error":"invalid_current_password"}`, res.Body.String())
}
