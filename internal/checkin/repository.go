package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/estateguard/estate/internal/platform/db"
)

// Schema creates the check-in log and settings tables. It references
// checkpoints, so it must run after that schema.
var Schema = db.Schema{
	Name: "checkin",
	Statements: []string{
		`CREATE TABLE IF NOT EXISTS check_in_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			checkpoint_id TEXT NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS check_in_logs_pair_idx ON check_in_logs (user_id, checkpoint_id, timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS check_in_settings (
			id INTEGER PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			radius DOUBLE PRECISION NOT NULL,
			time_window INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
}

const logColumns = `id, user_id, checkpoint_id, latitude, longitude, timestamp`

// Repository persists check-in logs and settings in PostgreSQL.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

// LatestSince implements LogReader.
func (r *Repository) LatestSince(ctx context.Context, userID, checkpointID string, since time.Time) (LogEntry, bool, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+logColumns+` FROM check_in_logs
		WHERE user_id = $1 AND checkpoint_id = $2 AND timestamp > $3
		ORDER BY timestamp DESC LIMIT 1`, userID, checkpointID, since)
	return scanOptional(row)
}

// Latest returns the newest entry for the pair regardless of age.
func (r *Repository) Latest(ctx context.Context, userID, checkpointID string) (LogEntry, bool, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+logColumns+` FROM check_in_logs
		WHERE user_id = $1 AND checkpoint_id = $2
		ORDER BY timestamp DESC LIMIT 1`, userID, checkpointID)
	return scanOptional(row)
}

// InsertLog implements LogWriter.
func (r *Repository) InsertLog(ctx context.Context, e LogEntry) error {
	_, err := r.conn.Exec(ctx, `INSERT INTO check_in_logs (`+logColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.UserID, e.CheckpointID, e.Latitude, e.Longitude, e.Timestamp)
	if err != nil {
		return fmt.Errorf("checkin: insert log: %w", err)
	}
	return nil
}

// ListLogs returns every entry newest first with its checkpoint name.
func (r *Repository) ListLogs(ctx context.Context) ([]LogView, error) {
	rows, err := r.conn.Query(ctx, `SELECT l.id, l.user_id, l.checkpoint_id, l.latitude, l.longitude, l.timestamp, c.name
		FROM check_in_logs l LEFT JOIN checkpoints c ON c.id = l.checkpoint_id
		ORDER BY l.timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("checkin: list logs: %w", err)
	}
	defer rows.Close()
	out := []LogView{}
	for rows.Next() {
		var v LogView
		if err := rows.Scan(&v.ID, &v.UserID, &v.CheckpointID, &v.Latitude, &v.Longitude, &v.Timestamp, &v.CheckpointName); err != nil {
			return nil, fmt.Errorf("checkin: scan log: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetSettings returns the singleton, found=false when it was never saved.
func (r *Repository) GetSettings(ctx context.Context) (Settings, bool, error) {
	var s Settings
	err := r.conn.QueryRow(ctx, `SELECT radius, time_window, updated_at FROM check_in_settings WHERE id = 1`).
		Scan(&s.RadiusMeters, &s.WindowMinutes, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, fmt.Errorf("checkin: get settings: %w", err)
	}
	return s, true, nil
}

// UpsertSettings writes the singleton.
func (r *Repository) UpsertSettings(ctx context.Context, s Settings) error {
	_, err := r.conn.Exec(ctx, `INSERT INTO check_in_settings (id, radius, time_window, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET radius = EXCLUDED.radius, time_window = EXCLUDED.time_window, updated_at = EXCLUDED.updated_at`,
		s.RadiusMeters, s.WindowMinutes, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("checkin: upsert settings: %w", err)
	}
	return nil
}

func scanOptional(row pgx.Row) (LogEntry, bool, error) {
	var e LogEntry
	err := row.Scan(&e.ID, &e.UserID, &e.CheckpointID, &e.Latitude, &e.Longitude, &e.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return LogEntry{}, false, nil
	}
	if err != nil {
		return LogEntry{}, false, fmt.Errorf("checkin: scan log: %w", err)
	}
	return e, true, nil
}
