package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation = "23505"
	codeDuplicateColumn = "42701"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsDuplicateColumn reports whether err is a PostgreSQL duplicate_column,
// raised by ALTER TABLE ADD COLUMN when the column already exists.
func IsDuplicateColumn(err error) bool {
	return hasCode(err, codeDuplicateColumn)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
