package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"DipScan/pkg/config"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "dipscan",
	Short: "Crypto dip-probability scanner",
	Long: `dipscan fetches daily closes for a universe of crypto assets, estimates how
often each asset dipped below its own rolling volatility over several horizons,
and ranks the assets by that dip probability.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the dipscan version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "dipscan", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (built-in defaults when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and environment, then applies CLI overrides.
func loadConfig(apply func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
