package scoreboardmigrations

import (
	"context"
	"fmt"

	scoreboarddb "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating submissions table...")

		if _, err := db.NewCreateTable().Model((*scoreboarddb.Submission)(nil)).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create submissions table: %w", err)
		}

		fmt.Println("Submissions table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping submissions table...")

		if _, err := db.NewDropTable().Model((*scoreboarddb.Submission)(nil)).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop submissions table: %w", err)
		}

		fmt.Println("Submissions table dropped successfully!")
		return nil
	})
}
