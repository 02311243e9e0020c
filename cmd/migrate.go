package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikedoall/home-data-hub/internal/store"
)

var migrateSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		zap.L().Info("migrations applied", zap.String("driver", cfg.Store.Driver))

		if migrateSeed {
			n, err := store.Seed(ctx, st)
			if err != nil {
				return err
			}
			zap.L().Info("seed complete", zap.Int("inserted", n))
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", false, "insert sample properties after migrating")
	rootCmd.AddCommand(migrateCmd)
}
