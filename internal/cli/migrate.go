package cli

import (
	"context"
	"log/slog"
	"os"

	"gift-quiz-service/internal/config"
	"gift-quiz-service/internal/infra/postgres"
	"gift-quiz-service/internal/logging"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level))
	return postgres.Migrate(ctx, cfg.Postgres.URL)
}
