// ABOUTME: CLI commands for recording workout sessions.
// ABOUTME: Workouts upsert by external id through the ingest pipeline.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/harperreed/vitals/internal/mdstore"
	"github.com/harperreed/vitals/internal/models"
	"github.com/spf13/cobra"
)

var (
	workoutID       string
	workoutAt       string
	workoutDuration float64
	workoutDistance float64
	workoutEnergy   float64
	workoutSource   string
)

var workoutCmd = &cobra.Command{
	Use:     "workout",
	Aliases: []string{"w"},
	Short:   "Manage workout sessions",
}

var workoutAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Record a workout session",
	Long: `Record a workout session. Re-running with the same --id replaces the
stored session instead of duplicating it.

Examples:
  vitals workout add run --duration 30 --distance 5.2
  vitals workout add lift --at "2024-12-14 18:00"
  vitals workout add cycle --id strava-12345 --energy 650`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		startedAt := time.Now().UTC()
		if workoutAt != "" {
			t, err := mdstore.ParseTime(workoutAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", workoutAt)
			}
			startedAt = t
		}

		id := workoutID
		if id == "" {
			id = uuid.NewString()
		}

		w := models.NewWorkout(id, name, startedAt)
		if workoutDuration > 0 {
			w.WithDuration(workoutDuration)
			w.WithEndedAt(startedAt.Add(time.Duration(workoutDuration * float64(time.Minute))))
		}
		if workoutDistance > 0 {
			w.WithDistance(workoutDistance, "km")
		}
		if workoutEnergy > 0 {
			w.WithEnergy(workoutEnergy, "kcal")
		}
		if workoutSource != "" {
			w.WithSource(workoutSource)
		}

		svc, err := openService()
		if err != nil {
			return err
		}

		res, err := svc.SaveWorkouts([]models.Workout{*w}, nil)
		if err != nil {
			return fmt.Errorf("failed to save workout: %w", err)
		}

		switch {
		case res.Saved > 0:
			color.Green("✓ Added %s workout", name)
		case res.Updated > 0:
			color.Green("✓ Updated %s workout", name)
		default:
			color.Yellow("– Skipped %s workout (duplicate)", name)
		}
		fmt.Printf("  %s %s\n",
			color.New(color.Faint).Sprint(id),
			w.Day())

		for _, e := range res.Errors {
			color.Red("  ! %s", e)
		}
		return nil
	},
}

func init() {
	workoutAddCmd.Flags().StringVar(&workoutID, "id", "", "external workout id (default: random)")
	workoutAddCmd.Flags().StringVar(&workoutAt, "at", "", "start timestamp (YYYY-MM-DD HH:MM)")
	workoutAddCmd.Flags().Float64Var(&workoutDuration, "duration", 0, "duration in minutes")
	workoutAddCmd.Flags().Float64Var(&workoutDistance, "distance", 0, "distance in km")
	workoutAddCmd.Flags().Float64Var(&workoutEnergy, "energy", 0, "energy in kcal")
	workoutAddCmd.Flags().StringVar(&workoutSource, "source", "", "originating device or app")
	workoutCmd.AddCommand(workoutAddCmd)
	rootCmd.AddCommand(workoutCmd)
}
