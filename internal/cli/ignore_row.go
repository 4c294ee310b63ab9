package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/longnd/fixturewatch/internal/core/config"
	"github.com/longnd/fixturewatch/internal/infra/storage/postgres"
)

var ignoreRowCmd = &cobra.Command{
	Use:   "ignore-row [row_id]",
	Short: "Mark a failed row as ignored so the replay worker skips it",
	Args:  cobra.ExactArgs(1),
	Run:   runIgnoreRow,
}

func init() {
	rootCmd.AddCommand(ignoreRowCmd)
}

func runIgnoreRow(cmd *cobra.Command, args []string) {
	rowID := args[0]

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

	// Direct SQL is cleaner than a repo for a one-off operator override.
	res, err := db.ExecContext(ctx,
		"UPDATE failed_rows SET status = 'ignored' WHERE id = $1 AND status = 'pending'", rowID)
	if err != nil {
		slog.Error("Failed to ignore row", "error", err)
		os.Exit(1)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		fmt.Printf("No pending row with id %s\n", rowID)
		os.Exit(1)
	}
	fmt.Printf("Row %s marked ignored\n", rowID)
}
