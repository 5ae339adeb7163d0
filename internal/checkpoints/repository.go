package checkpoints

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/estateguard/estate/internal/platform/db"
	"github.com/estateguard/estate/internal/shared"
)

// Schema creates the checkpoints table.
var Schema = db.Schema{
	Name: "checkpoints",
	Statements: []string{
		`CREATE TABLE IF NOT EXISTS checkpoints (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	Patches: []string{
		`ALTER TABLE checkpoints ADD COLUMN updated_at TIMESTAMPTZ NOT NULL DEFAULT now()`,
	},
}

const columns = `id, name, latitude, longitude, created_at, updated_at`

// Repository persists checkpoints in PostgreSQL.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

// List returns one page of checkpoints ordered by name plus the total count.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Checkpoint, int, error) {
	pattern := "%" + f.Name + "%"
	var total int
	if err := r.conn.QueryRow(ctx, `SELECT count(*) FROM checkpoints WHERE name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("checkpoints: count: %w", err)
	}
	rows, err := r.conn.Query(ctx, `SELECT `+columns+` FROM checkpoints WHERE name ILIKE $1
		ORDER BY name LIMIT $2 OFFSET $3`, pattern, f.PageSize, (f.Page-1)*f.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("checkpoints: list: %w", err)
	}
	items, err := collect(rows)
	return items, total, err
}

// ListAll returns every checkpoint in insertion order.
func (r *Repository) ListAll(ctx context.Context) ([]Checkpoint, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+columns+` FROM checkpoints ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("checkpoints: list all: %w", err)
	}
	return collect(rows)
}

// Get fetches a checkpoint by id.
func (r *Repository) Get(ctx context.Context, id string) (Checkpoint, error) {
	var c Checkpoint
	err := r.conn.QueryRow(ctx, `SELECT `+columns+` FROM checkpoints WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Latitude, &c.Longitude, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Checkpoint{}, shared.ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoints: get: %w", err)
	}
	return c, nil
}

// Insert stores a new checkpoint.
func (r *Repository) Insert(ctx context.Context, c Checkpoint) error {
	_, err := r.conn.Exec(ctx, `INSERT INTO checkpoints (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Latitude, c.Longitude, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("checkpoints: insert: %w", err)
	}
	return nil
}

// Update overwrites the writable fields.
func (r *Repository) Update(ctx context.Context, c Checkpoint) error {
	tag, err := r.conn.Exec(ctx, `UPDATE checkpoints SET name = $2, latitude = $3, longitude = $4, updated_at = $5
		WHERE id = $1`, c.ID, c.Name, c.Latitude, c.Longitude, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("checkpoints: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a checkpoint.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM checkpoints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("checkpoints: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func collect(rows pgx.Rows) ([]Checkpoint, error) {
	defer rows.Close()
	out := []Checkpoint{}
	for rows.Next() {
		var c Checkpoint
		if err := rows.Scan(&c.ID, &c.Name, &c.Latitude, &c.Longitude, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("checkpoints: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("checkpoints: rows: %w", err)
	}
	return out, nil
}
