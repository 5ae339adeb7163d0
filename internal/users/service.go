package users

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/estateguard/estate/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, f ListFilter) ([]User, int, error)
	UpdateRole(ctx context.Context, id, role string, at time.Time) error
	Update(ctx context.Context, id string, p Patch, at time.Time) (User, error)
	ProfileByEmail(ctx context.Context, email string) (Profile, error)
	UpdateProfile(ctx context.Context, email string, p Patch, at time.Time) error
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	clock shared.Clock
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// List returns a page of users. Blank status and role columns read as the
// defaults.
func (s *Service) List(ctx context.Context, f ListFilter) (shared.Page[User], error) {
	rows, total, err := s.repo.List(ctx, f)
	if err != nil {
		return shared.Page[User]{}, err
	}
	for i := range rows {
		if rows[i].Status == "" {
			rows[i].Status = DefaultStatus
		}
		if rows[i].Role == "" {
			rows[i].Role = DefaultRole
		}
	}
	if rows == nil {
		rows = []User{}
	}
	return shared.Page[User]{Page: f.Page, PageSize: f.PageSize, Total: total, Data: rows}, nil
}

// ChangeRole assigns one of AssignableRoles to a user.
func (s *Service) ChangeRole(ctx context.Context, id, role string) error {
	role = strings.TrimSpace(role)
	if !slices.Contains(AssignableRoles, role) {
		return ErrInvalidRole
	}
	return s.repo.UpdateRole(ctx, id, role, s.clock.Now())
}

// UpdateInput is an administrator's edit of an account. Blank fields are left
// unchanged, as are a status or role outside the allowed sets.
type UpdateInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Status      string `json:"status"`
	Role        string `json:"role"`
	Password    string `json:"password"`
}

// Update edits an account. A non-blank password is stored bcrypt-hashed.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	p := Patch{
		Username:    blankNil(in.Username),
		Email:       blankNil(in.Email),
		FirstName:   blankNil(in.FirstName),
		LastName:    blankNil(in.LastName),
		PhoneNumber: blankNil(in.PhoneNumber),
		Status:      oneOf(in.Status, Statuses),
		Role:        oneOf(in.Role, AssignableRoles),
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("users: hash password: %w", err)
		}
		h := string(hash)
		p.PasswordHash = &h
	}
	return s.repo.Update(ctx, id, p, s.clock.Now())
}

// ProfileInput carries the self-service fields; nil leaves a field as is.
type ProfileInput struct {
	Username    *string `json:"username"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	PhoneNumber *string `json:"phoneNumber"`
}

// Profile returns the account registered under email.
func (s *Service) Profile(ctx context.Context, email string) (Profile, error) {
	return s.repo.ProfileByEmail(ctx, strings.TrimSpace(email))
}

// UpdateProfile edits the account registered under email.
func (s *Service) UpdateProfile(ctx context.Context, email string, in ProfileInput) error {
	if in.Username == nil && in.FirstName == nil && in.LastName == nil && in.PhoneNumber == nil {
		return ErrNoFields
	}
	p := Patch{Username: in.Username, FirstName: in.FirstName, LastName: in.LastName, PhoneNumber: in.PhoneNumber}
	return s.repo.UpdateProfile(ctx, strings.TrimSpace(email), p, s.clock.Now())
}

func blankNil(v string) *string {
	if v = strings.TrimSpace(v); v == "" {
		return nil
	}
	return &v
}

func oneOf(v string, allowed []string) *string {
	if !slices.Contains(allowed, v) {
		return nil
	}
	return &v
}
