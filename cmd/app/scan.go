package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"DipScan/internal/di"
	"DipScan/pkg/config"
)

type scanFlags struct {
	top            int
	workers        int
	provider       string
	strictHorizons bool
}

var scanOpts scanFlags

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the universe once and write the reports",
	Long: `Scan fetches every asset of the universe, ranks them by average dip
probability, writes the CSV, JSON and trajectory reports and prints the top-n.

Examples:
  dipscan scan
  dipscan scan --config configs/config.yaml --top 10
  dipscan scan --provider coingecko --strict-horizons`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntVar(&scanOpts.top, "top", 0, "Number of top assets to report (config when 0)")
	scanCmd.Flags().IntVar(&scanOpts.workers, "workers", 0, "Concurrent asset fetches (config when 0)")
	scanCmd.Flags().StringVar(&scanOpts.provider, "provider", "", "Price source: yahoo, coingecko, alpaca or clickhouse")
	scanCmd.Flags().BoolVar(&scanOpts.strictHorizons, "strict-horizons", false, "Leave horizons longer than the history undefined")
}

func (f scanFlags) apply(cfg *config.Config) {
	if f.top > 0 {
		cfg.Scan.TopN = f.top
	}
	if f.workers > 0 {
		cfg.Scan.Workers = f.workers
	}
	if f.provider != "" {
		cfg.Provider.Type = f.provider
	}
	if f.strictHorizons {
		cfg.Dip.HorizonMode = config.HorizonModeStrict
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(scanOpts.apply)
	if err != nil {
		return err
	}

	scanner, cleanup, err := di.InitializeScanner(cfg)
	if err != nil {
		return fmt.Errorf("scanner initialization failed: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := scanner.Scan(ctx)
	if report == nil {
		return err
	}
	if err != nil {
		return fmt.Errorf("scan %s finished with output errors: %w", report.RunID, err)
	}
	return nil
}
