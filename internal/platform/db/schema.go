package db

import (
	"context"
	"fmt"
	"log/slog"
)

// Schema describes the tables a repository needs. Statements must be
// idempotent (CREATE ... IF NOT EXISTS). Patches are ALTER TABLE ADD COLUMN
// statements applied optimistically: a duplicate_column failure means the
// column is already there and is ignored.
type Schema struct {
	Name       string
	Statements []string
	Patches    []string
}

// EnsureSchema applies every schema in order.
func EnsureSchema(ctx context.Context, conn DBTX, logger *slog.Logger, schemas ...Schema) error {
	for _, s := range schemas {
		for _, stmt := range s.Statements {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("platform/db: schema %s: %w", s.Name, err)
			}
		}
		for _, patch := range s.Patches {
			if _, err := conn.Exec(ctx, patch); err != nil {
				if IsDuplicateColumn(err) {
					continue
				}
				if logger != nil {
					logger.Warn("schema patch skipped", slog.String("schema", s.Name), slog.Any("error", err))
				}
			}
		}
	}
	return nil
}
