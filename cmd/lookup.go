package main

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mikedoall/home-data-hub/internal/model"
)

var (
	lookupLat         float64
	lookupLng         float64
	lookupCSV         string
	lookupConcurrency int
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [address]",
	Short: "Resolve broadband availability for an address or coordinates",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if lookupCSV != "" {
			return runBatchLookup(cmd, env)
		}

		var result *model.BroadbandResult
		switch {
		case len(args) == 1:
			result, err = env.Resolver.ResolveAddress(ctx, args[0])
		case cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng"):
			result, err = env.Resolver.ResolveCoordinates(ctx, lookupLat, lookupLng)
		default:
			return eris.New("an address argument or --lat/--lng flags are required")
		}
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), result)
	},
}

// batchResult pairs one CSV address with its resolution outcome.
type batchResult struct {
	Address string                 `json:"address"`
	Result  *model.BroadbandResult `json:"result,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// runBatchLookup resolves every address in the first column of the CSV
// concurrently. Individual failures never abort the batch.
func runBatchLookup(cmd *cobra.Command, env *pipelineEnv) error {
	ctx := cmd.Context()

	f, err := os.Open(lookupCSV)
	if err != nil {
		return eris.Wrapf(err, "open %s", lookupCSV)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var addresses []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return eris.Wrap(err, "read csv")
		}
		if len(record) > 0 && record[0] != "" && record[0] != "address" {
			addresses = append(addresses, record[0])
		}
	}
	zap.L().Info("batch lookup starting",
		zap.Int("addresses", len(addresses)),
		zap.Int("concurrency", lookupConcurrency),
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)

	results := make([]batchResult, len(addresses))
	var failed atomic.Int64
	var mu sync.Mutex

	for i, address := range addresses {
		g.Go(func() error {
			result, err := env.Resolver.ResolveAddress(gCtx, address)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed.Add(1)
				results[i] = batchResult{Address: address, Error: err.Error()}
				zap.L().Warn("batch lookup failed",
					zap.String("address", address),
					zap.Error(err),
				)
				return nil // don't abort batch on individual failure
			}
			results[i] = batchResult{Address: address, Result: result}
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("batch lookup complete",
		zap.Int("total", len(addresses)),
		zap.Int64("failed", failed.Load()),
	)
	return printJSON(cmd.OutOrStdout(), results)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}

func init() {
	lookupCmd.Flags().Float64Var(&lookupLat, "lat", 0, "latitude (with --lng, bypasses geocoding)")
	lookupCmd.Flags().Float64Var(&lookupLng, "lng", 0, "longitude (with --lat, bypasses geocoding)")
	lookupCmd.Flags().StringVar(&lookupCSV, "csv", "", "CSV file with addresses in the first column")
	lookupCmd.Flags().IntVar(&lookupConcurrency, "concurrency", 4, "concurrent lookups for --csv mode")
	rootCmd.AddCommand(lookupCmd)
}
