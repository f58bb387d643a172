package cli

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/logger"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Apply pending database migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)

			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			level := cfg.SlogLevel()
			if rootOpts.Verbose {
				level = slog.LevelDebug
			}

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "open database", err)
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db, logger.New(os.Stderr, level, cfg.App.Env)); err != nil {
				return WrapExitError(ExitCommandError, "migrate", err)
			}
			return out.Success(map[string]string{"database": cfg.Database.Name}, "migrations applied")
		},
	}
}
