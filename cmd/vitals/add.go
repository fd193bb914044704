// ABOUTME: CLI command for adding health metric readings.
// ABOUTME: Handles single quantities and the blood pressure special case.
package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/mdstore"
	"github.com/harperreed/vitals/internal/models"
	"github.com/spf13/cobra"
)

var (
	addAt     string
	addSource string
	addUnits  string
)

var addCmd = &cobra.Command{
	Use:     "add <type> <value> [value2]",
	Aliases: []string{"a"},
	Short:   "Add a health metric reading",
	Long: `Add a health metric reading. For blood pressure, provide both systolic
and diastolic values.

The reading runs through the full pipeline: duplicates are skipped, a
note is rendered, and the daily cache file is updated.

Examples:
  vitals add weight 82.5
  vitals add hrv 48 --at "2024-12-14 07:00"
  vitals add bp 120 80
  vitals add steps 10423 --source "phone"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		metricType := args[0]

		recordedAt := time.Now().UTC()
		if addAt != "" {
			t, err := mdstore.ParseTime(addAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", addAt)
			}
			recordedAt = t
		}

		var reading *models.Reading
		if metricType == "bp" {
			if len(args) < 3 {
				return fmt.Errorf("blood pressure requires two values: systolic and diastolic")
			}
			sys, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid systolic value: %s", args[1])
			}
			dia, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid diastolic value: %s", args[2])
			}
			reading = models.NewBloodPressure(recordedAt, sys, dia)
			metricType = reading.Type
		} else {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value: %s", args[1])
			}
			reading = models.NewQuantity(metricType, recordedAt, value, addUnits)
		}

		if addSource != "" {
			reading.WithSource(addSource)
		}

		svc, err := openService()
		if err != nil {
			return err
		}

		res, err := svc.SaveMetrics([]models.MetricSeries{{
			Name:     metricType,
			Units:    reading.Units,
			Readings: []models.Reading{*reading},
		}})
		if err != nil {
			return fmt.Errorf("failed to save metric: %w", err)
		}

		switch {
		case res.Saved > 0:
			color.Green("✓ Added %s", metricType)
		case res.Updated > 0:
			color.Green("✓ Updated %s", metricType)
		default:
			color.Yellow("– Skipped %s (duplicate)", metricType)
		}
		fmt.Printf("  %s\n", color.New(color.Faint).Sprint(reading.Day()))

		for _, e := range res.Errors {
			color.Red("  ! %s", e)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addAt, "at", "", "timestamp (YYYY-MM-DD HH:MM)")
	addCmd.Flags().StringVar(&addSource, "source", "", "originating device or app")
	addCmd.Flags().StringVar(&addUnits, "units", "", "units for the value")
	rootCmd.AddCommand(addCmd)
}
