package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/estateguard/estate/internal/shared"
)

// defaultRole is reported for accounts with no role column set and given to
// accounts created through sign-up.
const defaultRole = "owner"

// MinPasswordLength applies to sign-up and password changes.
const MinPasswordLength = 7

var (
	// ErrInvalidInput rejects a blank email or a short password.
	ErrInvalidInput = fmt.Errorf("auth: invalid input: %w", shared.ErrValidation)
	// ErrCurrentPasswordRequired is returned when a change omits the current password.
	ErrCurrentPasswordRequired = fmt.Errorf("auth: current password required: %w", shared.ErrValidation)
	// ErrWrongCurrentPassword is returned when the current password does not match.
	ErrWrongCurrentPassword = fmt.Errorf("auth: current password mismatch: %w", shared.ErrValidation)
)

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	Issue(subject, email string, roles []string) (string, time.Time, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	issuer TokenIssuer
	ids    shared.IDGenerator
	clock  shared.Clock
}

// NewService constructs a new Service.
func NewService(repo Repository, issuer TokenIssuer, ids shared.IDGenerator, clock shared.Clock) *Service {
	if ids == nil {
		ids = shared.NewID
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, issuer: issuer, ids: ids, clock: clock}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.Active() || user.PasswordHash == "" {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// SignIn authenticates and issues an access token carrying the user's role.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// SignUp creates an active owner account and signs it in. An email that is
// already registered, in any letter case, yields shared.ErrDuplicate.
func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || len(password) < MinPasswordLength {
		return Session{}, ErrInvalidInput
	}
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return Session{}, shared.ErrDuplicate
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("auth: hash password: %w", err)
	}
	user := &User{ID: s.ids(), Email: email, Role: defaultRole, Status: "active", PasswordHash: string(hash)}
	username, _, _ := strings.Cut(email, "@")
	if err := s.repo.Insert(ctx, *user, username, s.clock.Now()); err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// ChangePassword replaces the password after checking the current one.
// Accounts without a stored hash cannot prove the current password and are
// given one by an administrator instead.
func (s *Service) ChangePassword(ctx context.Context, email, current, next string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(next) < MinPasswordLength {
		return ErrInvalidInput
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if current == "" {
		return ErrCurrentPasswordRequired
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrWrongCurrentPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.SetPassword(ctx, user.ID, string(hash), s.clock.Now())
}

func (s *Service) session(user *User) (Session, error) {
	role := user.Role
	if role == "" {
		role = defaultRole
	}
	roles := []string{role}
	token, exp, err := s.issuer.Issue(user.ID, user.Email, roles)
	if err != nil {
		return Session{}, fmt.Errorf("auth: issue token: %w", err)
	}
	return Session{
		User:        SessionUser{ID: user.ID, Email: user.Email, Role: roles, Exp: exp.UnixMilli()},
		AccessToken: token,
	}, nil
}
