package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/estateguard/estate/internal/platform/db"
	"github.com/estateguard/estate/internal/shared"
)

// Schema creates the users table.
var Schema = db.Schema{
	Name: "users",
	Statements: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			role TEXT NOT NULL DEFAULT 'owner',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS users_updated_at_idx ON users (updated_at DESC)`,
	},
	Patches: []string{
		`ALTER TABLE users ADD COLUMN password_updated_at TIMESTAMPTZ`,
	},
}

const userColumns = `id, username, email, first_name, last_name, phone_number, status, role, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

// List returns one page of users, most recently updated first, with the
// total match count.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]User, int, error) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Username != "" {
		p := next("%" + f.Username + "%")
		where = append(where, fmt.Sprintf("(username ILIKE %[1]s OR first_name ILIKE %[1]s OR last_name ILIKE %[1]s OR email ILIKE %[1]s)", p))
	}
	if len(f.Statuses) > 0 {
		where = append(where, "status = ANY("+next(f.Statuses)+")")
	}
	if len(f.Roles) > 0 {
		where = append(where, "role = ANY("+next(f.Roles)+")")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}
	if total == 0 {
		return []User{}, 0, nil
	}

	query := `SELECT ` + userColumns + ` FROM users` + clause + ` ORDER BY updated_at DESC LIMIT ` + next(f.PageSize) + ` OFFSET ` + next(f.Offset())
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	out := make([]User, 0, f.PageSize)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber,
			&u.Status, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("users: scan: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// UpdateRole sets a user's role. Unknown ids yield shared.ErrNotFound.
func (r *Repository) UpdateRole(ctx context.Context, id, role string, at time.Time) error {
	tag, err := r.conn.Exec(ctx, `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`, role, at, id)
	if err != nil {
		return fmt.Errorf("users: update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Update applies p to a user and returns the stored row. A taken email
// yields shared.ErrDuplicate.
func (r *Repository) Update(ctx context.Context, id string, p Patch, at time.Time) (User, error) {
	var u User
	err := r.conn.QueryRow(ctx, `UPDATE users
		SET username = COALESCE($2, username),
			email = COALESCE($3, email),
			first_name = COALESCE($4, first_name),
			last_name = COALESCE($5, last_name),
			phone_number = COALESCE($6, phone_number),
			status = COALESCE($7, status),
			role = COALESCE($8, role),
			password_hash = COALESCE($9, password_hash),
			password_updated_at = CASE WHEN $9::text IS NULL THEN password_updated_at ELSE $10 END,
			updated_at = $10
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.Username, p.Email, p.FirstName, p.LastName, p.PhoneNumber, p.Status, p.Role, p.PasswordHash, at).
		Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber,
			&u.Status, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return User{}, shared.ErrNotFound
	case db.IsUniqueViolation(err):
		return User{}, shared.ErrDuplicate
	case err != nil:
		return User{}, fmt.Errorf("users: update: %w", err)
	}
	return u, nil
}

// ProfileByEmail looks a profile up case-insensitively.
func (r *Repository) ProfileByEmail(ctx context.Context, email string) (Profile, error) {
	var p Profile
	err := r.conn.QueryRow(ctx, `SELECT id, username, email, first_name, last_name, phone_number
		FROM users WHERE lower(email) = lower($1) LIMIT 1`, email).
		Scan(&p.ID, &p.Username, &p.Email, &p.FirstName, &p.LastName, &p.PhoneNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, shared.ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("users: profile: %w", err)
	}
	return p, nil
}

// UpdateProfile applies the self-service fields of p to the account with email.
func (r *Repository) UpdateProfile(ctx context.Context, email string, p Patch, at time.Time) error {
	tag, err := r.conn.Exec(ctx, `UPDATE users
		SET username = COALESCE($2, username),
			first_name = COALESCE($3, first_name),
			last_name = COALESCE($4, last_name),
			phone_number = COALESCE($5, phone_number),
			updated_at = $6
		WHERE lower(email) = lower($1)`,
		email, p.Username, p.FirstName, p.LastName, p.PhoneNumber, at)
	if err != nil {
		return fmt.Errorf("users: update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
