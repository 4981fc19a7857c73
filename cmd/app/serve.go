package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"DipScan/internal/di"
	"DipScan/pkg/config"
)

var (
	servePort     int
	serveInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API with optional periodic rescans",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (config when 0)")
	serveCmd.Flags().DurationVar(&serveInterval, "scan-interval", -1, "Rescan period such as 1h, 0 disables (config when unset)")
}

func applyServeFlags(c *config.Config) {
	if servePort > 0 {
		c.Server.Port = servePort
	}
	if serveInterval >= 0 {
		c.Server.ScanInterval = serveInterval
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(applyServeFlags)
	if err != nil {
		return err
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	return app.Run(cmd.Context())
}
