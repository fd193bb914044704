// ABOUTME: CLI command for viewing one day's cached documents.
// ABOUTME: Renders a readable summary or raw JSON with --json.
package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <date>",
	Short: "Show stored data for one date",
	Long: `Show the cached metrics and workouts for one date (YYYY-MM-DD).

Examples:
  vitals show 2024-12-14
  vitals show 2024-12-14 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day := args[0]
		if _, err := time.Parse(storage.DayFormat, day); err != nil {
			return fmt.Errorf("invalid date %q, want YYYY-MM-DD", day)
		}

		store, err := openStore()
		if err != nil {
			return err
		}

		metrics, err := store.LoadMetricsDay(day)
		if err != nil {
			return fmt.Errorf("failed to load metrics: %w", err)
		}
		workouts, err := store.LoadWorkoutsDay(day)
		if err != nil {
			return fmt.Errorf("failed to load workouts: %w", err)
		}

		if showJSON {
			out := map[string]any{"metrics": metrics, "workouts": workouts}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		color.New(color.Bold).Printf("%s\n", day)

		if len(metrics.Metrics) == 0 && len(workouts.Workouts) == 0 {
			fmt.Println("  no data")
			return nil
		}

		types := make([]string, 0, len(metrics.Metrics))
		for typ := range metrics.Metrics {
			types = append(types, typ)
		}
		sort.Strings(types)
		for _, typ := range types {
			readings := metrics.Metrics[typ]
			fmt.Printf("  %s (%d)\n", color.CyanString(typ), len(readings))
			for _, r := range readings {
				line := "    " + r.Date.UTC().Format("15:04")
				switch {
				case r.Qty != nil:
					line += fmt.Sprintf("  %g %s", *r.Qty, r.Units)
				case r.Systolic != nil && r.Diastolic != nil:
					line += fmt.Sprintf("  %g/%g %s", *r.Systolic, *r.Diastolic, r.Units)
				case r.Avg != nil:
					line += fmt.Sprintf("  avg %g %s", *r.Avg, r.Units)
				case r.Asleep != nil:
					line += fmt.Sprintf("  %g h asleep", *r.Asleep)
				}
				if r.Source != "" {
					line += "  " + color.New(color.Faint).Sprint(r.Source)
				}
				fmt.Println(line)
			}
		}

		ids := make([]string, 0, len(workouts.Workouts))
		for id := range workouts.Workouts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			w := workouts.Workouts[id]
			line := fmt.Sprintf("  %s  %s", color.MagentaString(w.Name), w.StartedAt.UTC().Format("15:04"))
			if w.Duration != nil {
				line += fmt.Sprintf("  %gmin", *w.Duration)
			}
			if w.Distance != nil {
				line += fmt.Sprintf("  %g %s", w.Distance.Qty, w.Distance.Units)
			}
			fmt.Println(line)
		}

		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print raw JSON documents")
	rootCmd.AddCommand(showCmd)
}
