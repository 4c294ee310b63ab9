package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/longnd/fixturewatch/internal/control"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one scrape cycle for every configured league and exit",
	Run:   runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	app, err := control.NewApp(*cfg)
	if err != nil {
		slog.Error("Failed to initialize fixturewatch", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	failed := false
	for _, p := range app.Pipelines() {
		if _, err := p.Run(ctx); err != nil {
			slog.Error("Scrape run failed", "error", err)
			failed = true
		}
	}

	if err := app.Stop(ctx); err != nil {
		slog.Warn("Error during shutdown", "error", err)
	}
	if failed {
		os.Exit(1)
	}
}
