// ABOUTME: CLI command listing every date with stored data.
// ABOUTME: Walks the year/month layout of both data directories.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/spf13/cobra"
)

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List dates with stored data",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		metricDays, err := store.ListDays(storage.KindMetrics)
		if err != nil {
			return fmt.Errorf("failed to list metric days: %w", err)
		}
		workoutDays, err := store.ListDays(storage.KindWorkouts)
		if err != nil {
			return fmt.Errorf("failed to list workout days: %w", err)
		}

		if len(metricDays) == 0 && len(workoutDays) == 0 {
			fmt.Println("no data stored")
			return nil
		}

		hasWorkout := make(map[string]bool, len(workoutDays))
		for _, day := range workoutDays {
			hasWorkout[day] = true
		}

		seen := make(map[string]bool, len(metricDays))
		for _, day := range metricDays {
			seen[day] = true
			marker := ""
			if hasWorkout[day] {
				marker = color.MagentaString(" +workouts")
			}
			fmt.Printf("%s%s\n", day, marker)
		}
		for _, day := range workoutDays {
			if !seen[day] {
				fmt.Printf("%s%s\n", day, color.MagentaString(" workouts only"))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(datesCmd)
}
