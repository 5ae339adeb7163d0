// Package credential turns bearer strings into role claims.
//
// Two token shapes are recognised: a configured sentinel literal that is
// always authorised, and a three-part dot token whose middle segment is a
// base64url JSON object carrying a "role" claim. By default the middle
// segment is decoded without checking the signature; enabling verification
// switches to HS256 validation with the same claim shape.
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissing is returned for an empty credential.
	ErrMissing = errors.New("credential: missing")
	// ErrMalformed is returned when the token cannot be decoded.
	ErrMalformed = errors.New("credential: malformed")
)

// Claims is what the rest of the service learns from a credential.
type Claims struct {
	// Role is the first role claim, empty when the token carries none.
	Role    string
	Roles   []string
	Subject string
	Email   string
	// Sentinel marks the configured always-authorised token.
	Sentinel bool
}

// RoleClaim accepts either "role": "guard" or "role": ["guard", ...].
type RoleClaim []string

// UnmarshalJSON implements json.Unmarshaler.
func (r *RoleClaim) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = RoleClaim{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("credential: role claim: %w", err)
	}
	*r = many
	return nil
}

// First returns the first role or "".
func (r RoleClaim) First() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// tokenClaims is the signed shape, validated by jwt on the verified path.
type tokenClaims struct {
	jwt.RegisteredClaims
	Role   RoleClaim `json:"role,omitempty"`
	UserID any       `json:"userId,omitempty"`
	Email  string    `json:"email,omitempty"`
}

func (c tokenClaims) toClaims() Claims {
	return newClaims(c.Role, c.Subject, c.UserID, c.Email)
}

// looseClaims is the unverified shape. Only role has to decode; the other
// claims are read when they happen to be strings or numbers.
type looseClaims struct {
	Role   RoleClaim `json:"role"`
	Sub    any       `json:"sub"`
	UserID any       `json:"userId"`
	Email  any       `json:"email"`
}

func (c looseClaims) toClaims() Claims {
	return newClaims(c.Role, scalar(c.Sub), c.UserID, scalar(c.Email))
}

func newClaims(role RoleClaim, subject string, userID any, email string) Claims {
	if subject == "" {
		subject = scalar(userID)
	}
	if subject == "" {
		subject = email
	}
	return Claims{
		Role:    strings.TrimSpace(role.First()),
		Roles:   []string(role),
		Subject: subject,
		Email:   email,
	}
}

// scalar renders JSON strings and numbers; anything else is "".
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

type claimsContextKey struct{}

// NewContext stores claims in ctx.
func NewContext(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, c)
}

// FromContext extracts claims stored by NewContext.
func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(Claims)
	return c, ok
}
