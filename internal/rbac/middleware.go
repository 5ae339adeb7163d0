package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/estateguard/estate/internal/credential"
	"github.com/estateguard/estate/internal/platform/httpx"
)

// Middleware wires authorization gates into HTTP handlers.
type Middleware struct {
	Gate   *Gate
	Logger *slog.Logger
}

// Require allows the request only when the credential satisfies rule.
func (m Middleware) Require(rule Rule) func(http.Handler) http.Handler {
	return m.RequireAny(rule)
}

// RequireAny allows the request when at least one rule is satisfied.
// An absent or undecodable credential is forbidden, not unauthenticated.
func (m Middleware) RequireAny(rules ...Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(rules) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := m.Gate.Parse(r.Header.Get("Authorization"))
			if err != nil {
				if !errors.Is(err, credential.ErrMissing) && m.Logger != nil {
					m.Logger.Warn("rbac credential rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				for _, rule := range rules {
					m.Gate.observe(rule, false)
				}
				httpx.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			for _, rule := range rules {
				if m.Gate.AuthorizeClaims(r.Context(), claims, rule) {
					next.ServeHTTP(w, r.WithContext(credential.NewContext(r.Context(), claims)))
					return
				}
			}
			httpx.Error(w, http.StatusForbidden, "forbidden")
		})
	}
}

// RequireCredential rejects requests without a decodable credential with
// 401. No permission is checked.
func (m Middleware) RequireCredential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.Gate.Parse(r.Header.Get("Authorization"))
		if err != nil {
			httpx.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(credential.NewContext(r.Context(), claims)))
	})
}
