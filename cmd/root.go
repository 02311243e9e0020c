package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikedoall/home-data-hub/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "homehub",
	Short: "Broadband availability resolution for home addresses",
	Long:  "Resolves FCC broadband availability for addresses and coordinates: geocoding, census block lookup, a multi-source provider ladder with caching, and an HTTP API over a property store.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
