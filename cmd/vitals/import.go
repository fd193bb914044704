// ABOUTME: CLI command for importing exporter batch payloads.
// ABOUTME: Local stand-in for the HTTP ingestion handler.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/ingest"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json|->",
	Short: "Import an exporter batch payload",
	Long: `Import a JSON batch payload of metrics, workouts, and routes, as
produced by a health auto-export app. Pass - to read from stdin.

Records already stored are detected by content fingerprint and skipped;
revised readings for a known timestamp/source replace the stored copy.

Payload shape:

  {
    "metrics":  [{"name": "weight", "units": "kg", "data": [...]}],
    "workouts": [{"id": "...", "name": "run", "start": "..."}],
    "routes":   [{"workout_id": "...", "points": [...]}]
  }`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}

		payload, err := ingest.ParsePayload(data)
		if err != nil {
			return err
		}

		svc, err := openService()
		if err != nil {
			return err
		}

		res, err := svc.Save(payload)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		color.Green("✓ Imported")
		fmt.Printf("  %d new, %d updated, %d duplicates skipped\n",
			res.Saved, res.Updated, res.Duplicates)
		for _, e := range res.Errors {
			color.Red("  ! %s", e)
		}
		if !res.Ok() {
			return fmt.Errorf("%d day(s) failed to save", len(res.Errors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
