package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/estateguard/estate/internal/shared"
)

// RepositoryPort is the storage contract the service depends on.
type RepositoryPort interface {
	RoleByName(ctx context.Context, name string) (Role, error)
	RoleByID(ctx context.Context, id string) (Role, error)
	InsertRole(ctx context.Context, role Role) error
	Permission(ctx context.Context, roleID, resource string) (Permission, error)
	ListPermissions(ctx context.Context, roleID string) ([]Permission, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Service is the permission store: roles and their per-resource flags.
type Service struct {
	repo  RepositoryPort
	ids   shared.IDGenerator
	clock shared.Clock
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, ids shared.IDGenerator, clock shared.Clock) *Service {
	if ids == nil {
		ids = shared.NewID
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, ids: ids, clock: clock}
}

// GetRole fetches a role by case-insensitive name.
func (s *Service) GetRole(ctx context.Context, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, shared.ErrNotFound
	}
	return s.repo.RoleByName(ctx, name)
}

// RoleByID fetches a role by id.
func (s *Service) RoleByID(ctx context.Context, id string) (Role, error) {
	return s.repo.RoleByID(ctx, id)
}

// CreateRole inserts a new role. Duplicate names return shared.ErrDuplicate.
func (s *Service) CreateRole(ctx context.Context, name, description string, startPage *string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("rbac: role name required: %w", shared.ErrValidation)
	}
	now := s.clock.Now()
	role := Role{
		ID:          s.ids(),
		Name:        name,
		Description: strings.TrimSpace(description),
		StartPage:   startPage,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertRole(ctx, role); err != nil {
		return Role{}, err
	}
	return role, nil
}

// EnsureRole returns the named role, creating it when absent.
func (s *Service) EnsureRole(ctx context.Context, name string) (Role, error) {
	role, err := s.GetRole(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Role{}, err
	}
	role, err = s.CreateRole(ctx, name, "", nil)
	if errors.Is(err, shared.ErrDuplicate) {
		// created concurrently
		return s.GetRole(ctx, name)
	}
	return role, err
}

// ReplacePermissions swaps the whole permission set of a role in one
// transaction. Entries with an empty resource are skipped and a repeated
// resource keeps its last entry.
func (s *Service) ReplacePermissions(ctx context.Context, roleID string, entries []Permission) error {
	clean := dedupe(entries)
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeletePermissions(ctx, roleID); err != nil {
			return err
		}
		for _, p := range clean {
			p.RoleID = roleID
			if err := tx.InsertPermission(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// SavePermissions ensures the role exists then replaces its permissions.
func (s *Service) SavePermissions(ctx context.Context, roleName string, entries []Permission) (Role, error) {
	role, err := s.EnsureRole(ctx, roleName)
	if err != nil {
		return Role{}, err
	}
	if err := s.ReplacePermissions(ctx, role.ID, entries); err != nil {
		return Role{}, err
	}
	return role, nil
}

// ListPermissions returns a role's entries.
func (s *Service) ListPermissions(ctx context.Context, roleID string) ([]Permission, error) {
	return s.repo.ListPermissions(ctx, roleID)
}

// PermissionsForRole lists entries by role name. An unknown role has none.
func (s *Service) PermissionsForRole(ctx context.Context, roleName string) ([]Permission, error) {
	role, err := s.GetRole(ctx, roleName)
	if errors.Is(err, shared.ErrNotFound) {
		return []Permission{}, nil
	}
	if err != nil {
		return nil, err
	}
	perms, err := s.repo.ListPermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []Permission{}
	}
	return perms, nil
}

// Permission fetches one entry.
func (s *Service) Permission(ctx context.Context, roleID, resource string) (Permission, error) {
	return s.repo.Permission(ctx, roleID, resource)
}

func dedupe(entries []Permission) []Permission {
	index := make(map[string]int, len(entries))
	out := make([]Permission, 0, len(entries))
	for _, p := range entries {
		p.Resource = strings.TrimSpace(p.Resource)
		if p.Resource == "" {
			continue
		}
		if i, ok := index[p.Resource]; ok {
			out[i] = p
			continue
		}
		index[p.Resource] = len(out)
		out = append(out, p)
	}
	return out
}
