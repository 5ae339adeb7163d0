package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estateguard/estate/internal/platform/db"
	"github.com/estateguard/estate/internal/shared"
)

// Schema creates the billing tables.
var Schema = db.Schema{
	Name: "billing",
	Statements: []string{
		`CREATE TABLE IF NOT EXISTS billing_settings (
			id TEXT PRIMARY KEY,
			rate DOUBLE PRECISION NOT NULL,
			frequency TEXT NOT NULL,
			qr_key TEXT,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS billing_settings_history (
			id TEXT PRIMARY KEY,
			prev_rate DOUBLE PRECISION,
			prev_frequency TEXT,
			prev_qr_key TEXT,
			prev_start_date TEXT,
			new_rate DOUBLE PRECISION NOT NULL,
			new_frequency TEXT NOT NULL,
			new_qr_key TEXT,
			new_start_date TEXT NOT NULL,
			changed_at TIMESTAMPTZ NOT NULL,
			changed_by TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			house_id TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			receipt_key TEXT NOT NULL,
			payment_date TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS payments_house_date_idx ON payments (house_id, payment_date)`,
	},
	Patches: []string{
		`ALTER TABLE billing_settings ADD COLUMN start_date TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE billing_settings ADD COLUMN bg_key TEXT`,
		`ALTER TABLE billing_settings_history ADD COLUMN prev_bg_key TEXT`,
		`ALTER TABLE billing_settings_history ADD COLUMN new_bg_key TEXT`,
		`ALTER TABLE payments ADD COLUMN reviewed_at TIMESTAMPTZ`,
	},
}

const (
	settingsColumns = `id, rate, frequency, qr_key, bg_key, start_date, updated_at`
	historyColumns  = `id, prev_rate, prev_frequency, prev_qr_key, prev_bg_key, prev_start_date,
		new_rate, new_frequency, new_qr_key, new_bg_key, new_start_date, changed_at, changed_by`
	paymentColumns = `id, house_id, amount, receipt_key, payment_date, status, created_at, updated_at, reviewed_at`
)

// Repository persists billing settings, their history and payments.
type Repository struct {
	pool *pgxpool.Pool
	q    queries
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: queries{conn: pool}}
}

// TxRepository exposes the statements of a settings change.
type TxRepository interface {
	LatestSettings(ctx context.Context) (Settings, error)
	InsertSettings(ctx context.Context, s Settings) error
	InsertHistory(ctx context.Context, h HistoryEntry) error
}

// WithTx runs fn inside a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, queries{conn: tx})
	})
}

// LatestSettings returns the newest settings row or shared.ErrNotFound.
func (r *Repository) LatestSettings(ctx context.Context) (Settings, error) {
	return r.q.LatestSettings(ctx)
}

// ListHistory returns settings changes newest first.
func (r *Repository) ListHistory(ctx context.Context) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+historyColumns+` FROM billing_settings_history ORDER BY changed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("billing: list history: %w", err)
	}
	defer rows.Close()
	out := []HistoryEntry{}
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.PrevRate, &h.PrevFrequency, &h.PrevQRKey, &h.PrevBGKey, &h.PrevStartDate,
			&h.NewRate, &h.NewFrequency, &h.NewQRKey, &h.NewBGKey, &h.NewStartDate, &h.ChangedAt, &h.ChangedBy); err != nil {
			return nil, fmt.Errorf("billing: scan history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListPayments returns payments matching f ordered by payment date, newest first.
func (r *Repository) ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, vals ...any) {
		placeholders := make([]any, len(vals))
		for i := range vals {
			placeholders[i] = len(args) + i + 1
		}
		where = append(where, fmt.Sprintf(cond, placeholders...))
		args = append(args, vals...)
	}
	if f.HouseID != "" {
		add("house_id = $%d", f.HouseID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Start != "" && f.End != "" {
		add("payment_date BETWEEN $%d AND $%d", f.Start, f.End)
	}
	sql := `SELECT ` + paymentColumns + ` FROM payments`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.pool.Query(ctx, sql+" ORDER BY payment_date DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("billing: list payments: %w", err)
	}
	defer rows.Close()
	out := []Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.HouseID, &p.Amount, &p.ReceiptKey, &p.PaymentDate, &p.Status,
			&p.CreatedAt, &p.UpdatedAt, &p.ReviewedAt); err != nil {
			return nil, fmt.Errorf("billing: scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertPayment stores a submitted payment.
func (r *Repository) InsertPayment(ctx context.Context, p Payment) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO payments (`+paymentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.HouseID, p.Amount, p.ReceiptKey, p.PaymentDate, p.Status, p.CreatedAt, p.UpdatedAt, p.ReviewedAt)
	if err != nil {
		return fmt.Errorf("billing: insert payment: %w", err)
	}
	return nil
}

// ReviewPayment sets the review status of a payment.
func (r *Repository) ReviewPayment(ctx context.Context, id, status string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payments SET status = $2, updated_at = $3, reviewed_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("billing: review payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type queries struct {
	conn db.DBTX
}

func (q queries) LatestSettings(ctx context.Context) (Settings, error) {
	var s Settings
	err := q.conn.QueryRow(ctx, `SELECT `+settingsColumns+` FROM billing_settings ORDER BY updated_at DESC LIMIT 1`).
		Scan(&s.ID, &s.Rate, &s.Frequency, &s.QRKey, &s.BGKey, &s.StartDate, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, shared.ErrNotFound
	}
	if err != nil {
		return Settings{}, fmt.Errorf("billing: latest settings: %w", err)
	}
	return s, nil
}

func (q queries) InsertSettings(ctx context.Context, s Settings) error {
	_, err := q.conn.Exec(ctx, `INSERT INTO billing_settings (`+settingsColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.Rate, s.Frequency, s.QRKey, s.BGKey, s.StartDate, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("billing: insert settings: %w", err)
	}
	return nil
}

func (q queries) InsertHistory(ctx context.Context, h HistoryEntry) error {
	_, err := q.conn.Exec(ctx, `INSERT INTO billing_settings_history (`+historyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		h.ID, h.PrevRate, h.PrevFrequency, h.PrevQRKey, h.PrevBGKey, h.PrevStartDate,
		h.NewRate, h.NewFrequency, h.NewQRKey, h.NewBGKey, h.NewStartDate, h.ChangedAt, h.ChangedBy)
	if err != nil {
		return fmt.Errorf("billing: insert history: %w", err)
	}
	return nil
}
