package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphabot-ai/storyx/internal/store"
)

func newMigrateCommand(a *app) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			db, err := store.Open(a.cfg.DatabaseDriver, dsn(a.cfg))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if down {
				err = db.MigrateDown()
			} else {
				err = db.Migrate()
			}
			if err != nil {
				return err
			}

			version, dirty, err := db.SchemaVersion()
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}

			a.logger.Info("migrations applied", "version", version, "dirty", dirty, "down", down)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration instead")
	return cmd
}
