package residents

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/estateguard/estate/internal/platform/db"
	"github.com/estateguard/estate/internal/shared"
)

// Schema creates the residents table. House numbers are unique.
var Schema = db.Schema{
	Name: "residents",
	Statements: []string{
		`CREATE TABLE IF NOT EXISTS residents (
			id TEXT PRIMARY KEY,
			house_no TEXT NOT NULL,
			house_type TEXT NOT NULL DEFAULT 'own',
			owners_json JSONB NOT NULL DEFAULT '[]',
			vehicles_json JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS residents_house_no_idx ON residents (house_no)`,
	},
}

const columns = `id, house_no, house_type, owners_json, vehicles_json, created_at, updated_at`

// Repository persists residents in PostgreSQL.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

// List returns one page ordered by house number plus the total count.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Resident, int, error) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if len(f.HouseTypes) > 0 {
		where = append(where, "house_type = ANY("+next(f.HouseTypes)+")")
	}
	if f.Query != "" {
		p := next("%" + f.Query + "%")
		where = append(where, fmt.Sprintf("(house_no ILIKE %[1]s OR owners_json::text ILIKE %[1]s OR vehicles_json::text ILIKE %[1]s)", p))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn.QueryRow(ctx, `SELECT count(*) FROM residents`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("residents: count: %w", err)
	}
	if total == 0 {
		return []Resident{}, 0, nil
	}
	rows, err := r.conn.Query(ctx, `SELECT `+columns+` FROM residents`+clause+
		` ORDER BY house_no LIMIT `+next(f.PageSize)+` OFFSET `+next(f.Offset()), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("residents: list: %w", err)
	}
	items, err := collect(rows)
	return items, total, err
}

// Insert stores a new resident. A taken house number yields shared.ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, res Resident) error {
	owners, vehicles, err := encode(res)
	if err != nil {
		return err
	}
	_, err = r.conn.Exec(ctx, `INSERT INTO residents (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID, res.HouseNo, res.HouseType, owners, vehicles, res.CreatedAt, res.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("residents: insert: %w", err)
	}
	return nil
}

// Update overwrites the writable fields and returns the stored row.
func (r *Repository) Update(ctx context.Context, res Resident) (Resident, error) {
	owners, vehicles, err := encode(res)
	if err != nil {
		return Resident{}, err
	}
	rows, err := r.conn.Query(ctx, `UPDATE residents
		SET house_no = $2, house_type = $3, owners_json = $4, vehicles_json = $5, updated_at = $6
		WHERE id = $1 RETURNING `+columns,
		res.ID, res.HouseNo, res.HouseType, owners, vehicles, res.UpdatedAt)
	if err != nil {
		return Resident{}, fmt.Errorf("residents: update: %w", err)
	}
	items, err := collect(rows)
	if db.IsUniqueViolation(err) {
		return Resident{}, shared.ErrDuplicate
	}
	if err != nil {
		return Resident{}, err
	}
	if len(items) == 0 {
		return Resident{}, shared.ErrNotFound
	}
	return items[0], nil
}

// Delete removes a resident.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM residents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("residents: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func encode(res Resident) ([]byte, []byte, error) {
	owners, err := json.Marshal(nonNil(res.Owners))
	if err != nil {
		return nil, nil, fmt.Errorf("residents: encode owners: %w", err)
	}
	vehicles, err := json.Marshal(nonNil(res.Vehicles))
	if err != nil {
		return nil, nil, fmt.Errorf("residents: encode vehicles: %w", err)
	}
	return owners, vehicles, nil
}

func collect(rows pgx.Rows) ([]Resident, error) {
	defer rows.Close()
	out := []Resident{}
	for rows.Next() {
		var (
			res              Resident
			owners, vehicles []byte
		)
		if err := rows.Scan(&res.ID, &res.HouseNo, &res.HouseType, &owners, &vehicles, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("residents: scan: %w", err)
		}
		// Rows written by hand may hold anything; unreadable lists read as empty.
		if json.Unmarshal(owners, &res.Owners) != nil || res.Owners == nil {
			res.Owners = []Owner{}
		}
		if json.Unmarshal(vehicles, &res.Vehicles) != nil || res.Vehicles == nil {
			res.Vehicles = []Vehicle{}
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("residents: rows: %w", err)
	}
	return out, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
