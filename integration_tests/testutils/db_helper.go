package testutils

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CleanupDatabase truncates the ledger and, when river's schema exists, its job table.
func CleanupDatabase(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, "TRUNCATE TABLE submissions"); err != nil {
		return fmt.Errorf("failed to truncate submissions: %w", err)
	}

	var hasRiver bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass('public.river_job') IS NOT NULL").Scan(&hasRiver); err != nil {
		return fmt.Errorf("failed to look up river_job: %w", err)
	}
	if hasRiver {
		if _, err := db.ExecContext(ctx, "DELETE FROM river_job"); err != nil {
			return fmt.Errorf("failed to clean river jobs: %w", err)
		}
	}
	return nil
}
