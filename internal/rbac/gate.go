package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/estateguard/estate/internal/credential"
	"github.com/estateguard/estate/internal/shared"
)

// PermissionSource resolves roles and their entries for the gate.
type PermissionSource interface {
	GetRole(ctx context.Context, name string) (Role, error)
	Permission(ctx context.Context, roleID, resource string) (Permission, error)
}

// DecisionObserver receives every authorization outcome.
type DecisionObserver interface {
	ObserveAuthz(resource, action string, allowed bool)
}

// Gate decides whether a credential may perform an action on a resource.
type Gate struct {
	parser   *credential.Parser
	source   PermissionSource
	logger   *slog.Logger
	observer DecisionObserver
}

// NewGate constructs a Gate. observer may be nil.
func NewGate(parser *credential.Parser, source PermissionSource, logger *slog.Logger, observer DecisionObserver) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{parser: parser, source: source, logger: logger, observer: observer}
}

// Parse decodes a credential with the gate's parser.
func (g *Gate) Parse(header string) (credential.Claims, error) {
	return g.parser.Parse(header)
}

// Authorize reports whether header grants rule. Every failure is a deny.
func (g *Gate) Authorize(ctx context.Context, header string, rule Rule) bool {
	claims, err := g.parser.Parse(header)
	if err != nil {
		if !errors.Is(err, credential.ErrMissing) {
			g.logger.Warn("authz credential rejected", slog.String("resource", rule.Resource), slog.Any("error", err))
		}
		g.observe(rule, false)
		return false
	}
	return g.AuthorizeClaims(ctx, claims, rule)
}

// AuthorizeClaims evaluates rule against already parsed claims.
func (g *Gate) AuthorizeClaims(ctx context.Context, claims credential.Claims, rule Rule) bool {
	allowed := g.decide(ctx, claims, rule)
	g.observe(rule, allowed)
	return allowed
}

func (g *Gate) decide(ctx context.Context, claims credential.Claims, rule Rule) bool {
	if claims.Sentinel {
		return true
	}
	if claims.Role == "" {
		return false
	}
	if SameRole(claims.Role, SuperRole) {
		return true
	}
	for _, bypass := range rule.BypassRoles {
		if SameRole(claims.Role, bypass) {
			return true
		}
	}

	role, err := g.source.GetRole(ctx, claims.Role)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			g.logger.Warn("authz role lookup", slog.String("role", claims.Role), slog.Any("error", err))
		}
		return false
	}

	for _, resource := range append([]string{rule.Resource}, rule.FallbackResources...) {
		perm, err := g.source.Permission(ctx, role.ID, resource)
		if errors.Is(err, shared.ErrNotFound) {
			continue
		}
		if err != nil {
			g.logger.Warn("authz permission lookup",
				slog.String("role", claims.Role), slog.String("resource", resource), slog.Any("error", err))
			return false
		}
		return perm.Allows(rule.Action)
	}
	return false
}

func (g *Gate) observe(rule Rule, allowed bool) {
	if g.observer != nil {
		g.observer.ObserveAuthz(rule.Resource, string(rule.Action), allowed)
	}
}
