package homestay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/estateguard/estate/internal/platform/db"
	"github.com/estateguard/estate/internal/shared"
)

// Schema creates the homestay_checkins table.
var Schema = db.Schema{
	Name: "homestay",
	Statements: []string{
		`CREATE TABLE IF NOT EXISTS homestay_checkins (
			id TEXT PRIMARY KEY,
			homestay_id TEXT NOT NULL,
			person_in_charge TEXT NOT NULL,
			guests INTEGER NOT NULL,
			plates_json JSONB NOT NULL DEFAULT '[]',
			arrival TEXT,
			departure TEXT,
			notes TEXT,
			submitted_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS homestay_checkins_homestay_submitted_idx ON homestay_checkins (homestay_id, submitted_at)`,
	},
}

const columns = `id, homestay_id, person_in_charge, guests, plates_json, arrival, departure, notes, submitted_at`

// Repository persists homestay check-ins.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

// Insert stores a new check-in.
func (r *Repository) Insert(ctx context.Context, c Checkin) error {
	plates, err := json.Marshal(c.Plates)
	if err != nil {
		return fmt.Errorf("homestay: encode plates: %w", err)
	}
	_, err = r.conn.Exec(ctx, `INSERT INTO homestay_checkins (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.HomestayID, c.PersonInCharge, c.Guests, plates, c.Arrival, c.Departure, c.Notes, c.SubmittedAt)
	if err != nil {
		return fmt.Errorf("homestay: insert: %w", err)
	}
	return nil
}

// Update rewrites the editable fields.
func (r *Repository) Update(ctx context.Context, id string, d Details) error {
	plates, err := json.Marshal(d.Plates)
	if err != nil {
		return fmt.Errorf("homestay: encode plates: %w", err)
	}
	tag, err := r.conn.Exec(ctx, `UPDATE homestay_checkins
		SET person_in_charge = $2, guests = $3, plates_json = $4, arrival = $5, departure = $6, notes = $7
		WHERE id = $1`, id, d.PersonInCharge, d.Guests, plates, d.Arrival, d.Departure, d.Notes)
	if err != nil {
		return fmt.Errorf("homestay: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns a page ordered newest first plus the total.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Checkin, int, error) {
	where, args := "", []any{}
	if f.HomestayID != "" {
		where = "WHERE homestay_id = $1"
		args = append(args, f.HomestayID)
	}
	var total int
	if err := r.conn.QueryRow(ctx, `SELECT count(*) FROM homestay_checkins `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("homestay: count: %w", err)
	}
	n := len(args)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	rows, err := r.conn.Query(ctx, fmt.Sprintf(`SELECT `+columns+` FROM homestay_checkins %s
		ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d`, where, n+1, n+2), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("homestay: list: %w", err)
	}
	items, err := collect(rows)
	return items, total, err
}

// LatestPerHomestay returns the newest check-in of every homestay.
func (r *Repository) LatestPerHomestay(ctx context.Context) ([]Checkin, error) {
	rows, err := r.conn.Query(ctx, `SELECT DISTINCT ON (homestay_id) `+columns+`
		FROM homestay_checkins ORDER BY homestay_id ASC, submitted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("homestay: latest: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Checkin, error) {
	defer rows.Close()
	out := []Checkin{}
	for rows.Next() {
		var (
			c      Checkin
			plates []byte
		)
		if err := rows.Scan(&c.ID, &c.HomestayID, &c.PersonInCharge, &c.Guests, &plates,
			&c.Arrival, &c.Departure, &c.Notes, &c.SubmittedAt); err != nil {
			return nil, fmt.Errorf("homestay: scan: %w", err)
		}
		c.Plates = decodePlates(plates)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("homestay: rows: %w", err)
	}
	return out, nil
}

// decodePlates falls back to a single raw entry for legacy rows.
func decodePlates(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var plates []string
	if err := json.Unmarshal(raw, &plates); err != nil {
		return []string{string(raw)}
	}
	return plates
}
