package credential

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSentinelToken is the literal the admin UI's offline mode sends.
const DefaultSentinelToken = "mock-access-token"

const bearerScheme = "bearer"

// Options configures a Parser.
type Options struct {
	// AllowSentinel enables the always-authorised sentinel token.
	AllowSentinel bool
	SentinelToken string
	// VerifySignature requires a valid HS256 signature made with Secret.
	VerifySignature bool
	Secret          []byte
}

// Parser extracts claims from bearer credentials.
type Parser struct {
	opts Options
}

// NewParser builds a Parser.
func NewParser(opts Options) *Parser {
	if opts.SentinelToken == "" {
		opts.SentinelToken = DefaultSentinelToken
	}
	return &Parser{opts: opts}
}

// Parse decodes an Authorization header value or bare token.
func (p *Parser) Parse(header string) (Claims, error) {
	token := strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, bearerScheme) {
		token = strings.TrimSpace(rest)
	} else if strings.EqualFold(token, bearerScheme) {
		// net/http trims header values, so "Bearer " arrives bare.
		token = ""
	}
	if token == "" {
		return Claims{}, ErrMissing
	}
	if p.opts.AllowSentinel && token == p.opts.SentinelToken {
		return Claims{Sentinel: true}, nil
	}
	if p.opts.VerifySignature {
		return p.verify(token)
	}
	return decodeUnverified(token)
}

func (p *Parser) verify(token string) (Claims, error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return p.opts.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return tc.toClaims(), nil
}

func decodeUnverified(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}
	payload, err := decodeSegment(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	var lc looseClaims
	if err := json.Unmarshal(payload, &lc); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return lc.toClaims(), nil
}

// decodeSegment accepts url-safe and standard alphabets, padded or not.
func decodeSegment(seg string) ([]byte, error) {
	seg = strings.TrimRight(seg, "=")
	if seg == "" {
		return nil, errors.New("empty segment")
	}
	if b, err := base64.RawURLEncoding.DecodeString(seg); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(seg)
}
