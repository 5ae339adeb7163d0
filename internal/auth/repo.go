package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/estateguard/estate/internal/platform/db"
	"github.com/estateguard/estate/internal/shared"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Insert(ctx context.Context, u User, username string, at time.Time) error
	SetPassword(ctx context.Context, id, hash string, at time.Time) error
}

// PGRepository implements Repository on the users table.
type PGRepository struct {
	conn db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{conn: conn}
}

// FindByEmail fetches a user by email, case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.conn.QueryRow(ctx, `SELECT id, email, role, status, password_hash FROM users WHERE lower(email) = lower($1)`, email).
		Scan(&u.ID, &u.Email, &u.Role, &u.Status, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	return &u, nil
}

// Insert creates an account. A taken email yields shared.ErrDuplicate.
func (r *PGRepository) Insert(ctx context.Context, u User, username string, at time.Time) error {
	_, err := r.conn.Exec(ctx, `INSERT INTO users (id, username, email, status, role, password_hash, password_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $7)`, u.ID, username, u.Email, u.Status, u.Role, u.PasswordHash, at)
	if db.IsUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("auth: insert user: %w", err)
	}
	return nil
}

// SetPassword replaces the password hash.
func (r *PGRepository) SetPassword(ctx context.Context, id, hash string, at time.Time) error {
	tag, err := r.conn.Exec(ctx, `UPDATE users SET password_hash = $2, password_updated_at = $3, updated_at = $3 WHERE id = $1`, id, hash, at)
	if err != nil {
		return fmt.Errorf("auth: set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
