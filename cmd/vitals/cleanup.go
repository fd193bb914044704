// ABOUTME: CLI command running the retention sweep synchronously.
// ABOUTME: Supports a one-off window override without touching config.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/spf13/cobra"
)

var cleanupWindow int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete daily files older than the retention window",
	Long: `Run the retention sweep once, synchronously. Files dated strictly
before today minus the window are deleted; emptied month and year
directories are removed. A window of 0 does nothing.

Examples:
  vitals cleanup                # use retention_days from config
  vitals cleanup --window 90    # one-off 90-day horizon`,
	RunE: func(cmd *cobra.Command, args []string) error {
		window := cfg.RetentionDays
		if cmd.Flags().Changed("window") {
			window = cleanupWindow
		}
		if window <= 0 {
			fmt.Println("retention window is 0, nothing to do")
			return nil
		}

		sweeper := storage.NewSweeper(cfg.GetDataDir(), window, cfg.MaxCleanupFailures, logger)
		res, err := sweeper.Cleanup()
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}

		color.Green("✓ Cleanup done")
		fmt.Printf("  %d file(s) deleted (window %d days)\n", res.DeletedFiles, window)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupWindow, "window", 0, "retention window in days (overrides config)")
	rootCmd.AddCommand(cleanupCmd)
}
