package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estateguard/estate/internal/platform/db"
	"github.com/estateguard/estate/internal/shared"
)

// Schema creates the roles and role_permissions tables.
var Schema = db.Schema{
	Name: "rbac",
	Statements: []string{
		`CREATE TABLE IF NOT EXISTS roles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS roles_name_lower_idx ON roles (lower(name))`,
		`CREATE TABLE IF NOT EXISTS role_permissions (
			role_id TEXT NOT NULL REFERENCES roles(id),
			resource TEXT NOT NULL,
			can_create BOOLEAN NOT NULL DEFAULT false,
			can_read BOOLEAN NOT NULL DEFAULT false,
			can_update BOOLEAN NOT NULL DEFAULT false,
			can_delete BOOLEAN NOT NULL DEFAULT false,
			PRIMARY KEY (role_id, resource)
		)`,
	},
	Patches: []string{
		`ALTER TABLE roles ADD COLUMN start_page TEXT`,
	},
}

const roleColumns = `id, name, description, start_page, created_at, updated_at`

// Repository is the PostgreSQL-backed permission store.
type Repository struct {
	pool *pgxpool.Pool
	q    queries
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: queries{conn: pool}}
}

// TxRepository exposes the statements used inside a permission replace.
type TxRepository interface {
	DeletePermissions(ctx context.Context, roleID string) error
	InsertPermission(ctx context.Context, perm Permission) error
}

// WithTx runs fn inside a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, queries{conn: tx})
	})
}

// RoleByName looks a role up case-insensitively.
func (r *Repository) RoleByName(ctx context.Context, name string) (Role, error) {
	return r.q.RoleByName(ctx, name)
}

// RoleByID fetches a role by id.
func (r *Repository) RoleByID(ctx context.Context, id string) (Role, error) {
	return r.q.RoleByID(ctx, id)
}

// InsertRole inserts a role. A name collision yields shared.ErrDuplicate.
func (r *Repository) InsertRole(ctx context.Context, role Role) error {
	return r.q.InsertRole(ctx, role)
}

// Permission fetches the entry for (roleID, resource).
func (r *Repository) Permission(ctx context.Context, roleID, resource string) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx, `SELECT role_id, resource, can_create, can_read, can_update, can_delete
		FROM role_permissions WHERE role_id = $1 AND resource = $2`, roleID, resource).
		Scan(&p.RoleID, &p.Resource, &p.Create, &p.Read, &p.Update, &p.Delete)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, shared.ErrNotFound
	}
	if err != nil {
		return Permission{}, fmt.Errorf("rbac: permission: %w", err)
	}
	return p, nil
}

// ListPermissions returns every entry of a role ordered by resource.
func (r *Repository) ListPermissions(ctx context.Context, roleID string) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id, resource, can_create, can_read, can_update, can_delete
		FROM role_permissions WHERE role_id = $1 ORDER BY resource`, roleID)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.RoleID, &p.Resource, &p.Create, &p.Read, &p.Update, &p.Delete); err != nil {
			return nil, fmt.Errorf("rbac: scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

type queries struct {
	conn db.DBTX
}

func (q queries) RoleByName(ctx context.Context, name string) (Role, error) {
	row := q.conn.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE lower(name) = lower($1)`, name)
	return scanRole(row)
}

func (q queries) RoleByID(ctx context.Context, id string) (Role, error) {
	row := q.conn.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

func (q queries) InsertRole(ctx context.Context, role Role) error {
	_, err := q.conn.Exec(ctx, `INSERT INTO roles (id, name, description, start_page, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		role.ID, role.Name, role.Description, role.StartPage, role.CreatedAt, role.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("rbac: insert role: %w", err)
	}
	return nil
}

func (q queries) DeletePermissions(ctx context.Context, roleID string) error {
	if _, err := q.conn.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("rbac: delete permissions: %w", err)
	}
	return nil
}

func (q queries) InsertPermission(ctx context.Context, p Permission) error {
	_, err := q.conn.Exec(ctx, `INSERT INTO role_permissions (role_id, resource, can_create, can_read, can_update, can_delete)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (role_id, resource) DO UPDATE SET
			can_create = EXCLUDED.can_create, can_read = EXCLUDED.can_read,
			can_update = EXCLUDED.can_update, can_delete = EXCLUDED.can_delete`,
		p.RoleID, p.Resource, p.Create, p.Read, p.Update, p.Delete)
	if err != nil {
		return fmt.Errorf("rbac: insert permission: %w", err)
	}
	return nil
}

func scanRole(row pgx.Row) (Role, error) {
	var r Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.StartPage, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	if err != nil {
		return Role{}, fmt.Errorf("rbac: scan role: %w", err)
	}
	return r, nil
}
