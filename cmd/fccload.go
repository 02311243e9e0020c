package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikedoall/home-data-hub/internal/fccload"
	"github.com/mikedoall/home-data-hub/internal/store"
)

var fccloadBatchSize int

var fccloadCmd = &cobra.Command{
	Use:   "fccload <csv-file>",
	Short: "Import an FCC availability CSV into the local mirror",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pg, ok := st.(*store.PostgresStore)
		if !ok {
			return eris.New("fccload requires the postgres store driver")
		}
		if err := pg.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		defer f.Close() //nolint:errcheck

		batchSize := fccloadBatchSize
		if batchSize == 0 {
			batchSize = cfg.FCC.BatchSize
		}

		loader := fccload.NewLoader(pg.Pool(), batchSize)
		stats, err := loader.Load(ctx, f)
		if err != nil {
			return err
		}

		zap.L().Info("import finished",
			zap.String("file", args[0]),
			zap.Int64("providers", stats.Providers),
			zap.Int64("availability", stats.Availability),
			zap.Int("skipped", stats.Skipped),
		)
		return nil
	},
}

func init() {
	fccloadCmd.Flags().IntVar(&fccloadBatchSize, "batch-size", 0, "rows per upsert batch (default from config)")
	rootCmd.AddCommand(fccloadCmd)
}
