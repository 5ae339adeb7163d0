package roles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/shared"
)

// ErrInvalidName is returned for a blank role name.
var ErrInvalidName = fmt.Errorf("roles: name required: %w", shared.ErrValidation)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, id string, in Input, at time.Time) error
}

// PermissionStore is the slice of rbac.Service used for role administration.
type PermissionStore interface {
	CreateRole(ctx context.Context, name, description string, startPage *string) (rbac.Role, error)
	RoleByID(ctx context.Context, id string) (rbac.Role, error)
	ListPermissions(ctx context.Context, roleID string) ([]rbac.Permission, error)
}

// Service handles role business logic.
type Service struct {
	repo  RepositoryPort
	store PermissionStore
	clock shared.Clock
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, store PermissionStore, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, store: store, clock: clock}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// CreateRole strictly inserts a role; a taken name is shared.ErrDuplicate.
func (s *Service) CreateRole(ctx context.Context, in Input) (Role, error) {
	in = clean(in)
	if in.Name == "" {
		return Role{}, ErrInvalidName
	}
	return s.store.CreateRole(ctx, in.Name, in.Description, in.StartPage)
}

// Detail loads a role with its permissions.
func (s *Service) Detail(ctx context.Context, id string) (Detail, error) {
	role, err := s.store.RoleByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	perms, err := s.store.ListPermissions(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	rows := make([]PermissionRow, 0, len(perms))
	for _, p := range perms {
		rows = append(rows, PermissionRow{Resource: p.Resource, CanCreate: p.Create, CanRead: p.Read, CanUpdate: p.Update, CanDelete: p.Delete})
	}
	return Detail{Role: role, Permissions: rows}, nil
}

// UpdateRole edits a role and returns the stored record.
func (s *Service) UpdateRole(ctx context.Context, id string, in Input) (Role, error) {
	in = clean(in)
	if in.Name == "" {
		return Role{}, ErrInvalidName
	}
	if err := s.repo.UpdateRole(ctx, id, in, s.clock.Now()); err != nil {
		return Role{}, err
	}
	return s.store.RoleByID(ctx, id)
}

func clean(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.StartPage != nil {
		if sp := strings.TrimSpace(*in.StartPage); sp != "" {
			in.StartPage = &sp
		} else {
			in.StartPage = nil
		}
	}
	return in
}
