package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/longnd/fixturewatch/internal/core/config"
	"github.com/longnd/fixturewatch/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest snapshot and failed-row counts per league",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	query := `
		SELECT DISTINCT ON (s.league)
			s.league, s.season, s.rows_total, s.rows_valid, s.quality_score, s.scraped_at,
			(SELECT COUNT(*) FROM failed_rows f WHERE f.league = s.league AND f.status = 'pending') AS pending
		FROM snapshots s
		ORDER BY s.league, s.scraped_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		slog.Error("Failed to query snapshots", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = rows.Close()
	}()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "LEAGUE\tSEASON\tROWS\tVALID\tQUALITY\tPENDING\tSCRAPED")

	for rows.Next() {
		var league, season string
		var total, valid, pending int
		var quality float64
		var scrapedAt time.Time
		if err := rows.Scan(&league, &season, &total, &valid, &quality, &scrapedAt, &pending); err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.1f%%\t%d\t%s\n",
			league, season, total, valid, quality, pending, scrapedAt.Format(time.RFC3339))
	}
	_ = w.Flush()
}
