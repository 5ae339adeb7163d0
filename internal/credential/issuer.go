package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/estateguard/estate/internal/shared"
)

// Issuer signs HS256 access tokens handed out at sign-in.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  shared.Clock
}

// NewIssuer builds an Issuer.
func NewIssuer(secret []byte, ttl time.Duration, clock shared.Clock) *Issuer {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Issuer{secret: secret, ttl: ttl, clock: clock}
}

// Issue returns a signed token and its expiry.
func (i *Issuer) Issue(subject, email string, roles []string) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, errors.New("credential: issuer secret not configured")
	}
	now := i.clock.Now()
	expires := now.Add(i.ttl)
	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role:  RoleClaim(roles),
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("credential: sign: %w", err)
	}
	return signed, expires, nil
}
