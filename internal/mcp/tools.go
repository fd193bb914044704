// ABOUTME: MCP tool implementations for the vitals datastore.
// ABOUTME: Record batches, query daily documents, run retention cleanup.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/vitals/internal/mdstore"
	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// record_metrics
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_metrics",
		Description: "Record a batch of health metric readings (deduplicated)",
	}, s.handleRecordMetrics)

	// record_workout
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_workout",
		Description: "Record a workout session (upserted by id)",
	}, s.handleRecordWorkout)

	// get_day
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_day",
		Description: "Get the stored metrics or workouts document for one date",
	}, s.handleGetDay)

	// list_days
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_days",
		Description: "List all dates with stored data",
	}, s.handleListDays)

	// run_cleanup
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "run_cleanup",
		Description: "Run the retention sweep now, deleting files past the horizon",
	}, s.handleRunCleanup)
}

// Tool input/output types

type readingInput struct {
	Date       string   `json:"date" jsonschema:"description=Reading timestamp (ISO 8601),required"`
	Qty        *float64 `json:"qty,omitempty" jsonschema:"description=Scalar value for quantity metrics"`
	Systolic   *float64 `json:"systolic,omitempty" jsonschema:"description=Systolic value for blood pressure"`
	Diastolic  *float64 `json:"diastolic,omitempty" jsonschema:"description=Diastolic value for blood pressure"`
	Min        *float64 `json:"min,omitempty" jsonschema:"description=Minimum heart rate"`
	Max        *float64 `json:"max,omitempty" jsonschema:"description=Maximum heart rate"`
	Avg        *float64 `json:"avg,omitempty" jsonschema:"description=Average heart rate"`
	SleepStart string   `json:"sleep_start,omitempty" jsonschema:"description=Sleep session start (ISO 8601)"`
	SleepEnd   string   `json:"sleep_end,omitempty" jsonschema:"description=Sleep session end (ISO 8601)"`
	Asleep     *float64 `json:"asleep,omitempty" jsonschema:"description=Hours asleep"`
	InBed      *float64 `json:"in_bed,omitempty" jsonschema:"description=Hours in bed"`
	Source     string   `json:"source,omitempty" jsonschema:"description=Originating device or app"`
}

type seriesInput struct {
	Name  string         `json:"name" jsonschema:"description=Metric type name (weight, steps, heart_rate, ...),required"`
	Units string         `json:"units,omitempty" jsonschema:"description=Units for the series"`
	Data  []readingInput `json:"data" jsonschema:"description=Readings in the series,required"`
}

type recordMetricsInput struct {
	Metrics []seriesInput `json:"metrics" jsonschema:"description=Metric series to record,required"`
}

type saveOutput struct {
	Saved      int      `json:"saved"`
	Updated    int      `json:"updated"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors,omitempty"`
	Message    string   `json:"message"`
}

type recordWorkoutInput struct {
	ID              string  `json:"id" jsonschema:"description=External workout id,required"`
	Name            string  `json:"name" jsonschema:"description=Workout name (run, lift, cycle, ...),required"`
	Start           string  `json:"start" jsonschema:"description=Start timestamp (ISO 8601),required"`
	End             string  `json:"end,omitempty" jsonschema:"description=End timestamp (ISO 8601)"`
	DurationMinutes float64 `json:"duration_minutes,omitempty" jsonschema:"description=Duration in minutes"`
	Source          string  `json:"source,omitempty" jsonschema:"description=Originating device or app"`
}

type getDayInput struct {
	Date string `json:"date" jsonschema:"description=Date (YYYY-MM-DD),required"`
	Kind string `json:"kind,omitempty" jsonschema:"description=Document kind: metrics (default) or workouts"`
}

type listDaysInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"description=Document kind: metrics (default) or workouts"`
}

type listDaysOutput struct {
	Kind string   `json:"kind"`
	Days []string `json:"days"`
}

type runCleanupInput struct{}

type cleanupOutput struct {
	DeletedFiles int    `json:"deleted_files"`
	Message      string `json:"message"`
}

// Tool handlers

func (s *Server) handleRecordMetrics(ctx context.Context, req *mcp.CallToolRequest, input recordMetricsInput) (*mcp.CallToolResult, saveOutput, error) {
	series, err := seriesFromInput(input.Metrics)
	if err != nil {
		return nil, saveOutput{}, err
	}

	res, err := s.svc.SaveMetrics(series)
	if err != nil {
		return nil, saveOutput{}, fmt.Errorf("failed to record metrics: %w", err)
	}

	return nil, saveOutput{
		Saved:      res.Saved,
		Updated:    res.Updated,
		Duplicates: res.Duplicates,
		Errors:     res.Errors,
		Message:    fmt.Sprintf("Recorded %d new, %d updated, %d duplicates skipped", res.Saved, res.Updated, res.Duplicates),
	}, nil
}

func seriesFromInput(inputs []seriesInput) ([]models.MetricSeries, error) {
	var series []models.MetricSeries
	for _, in := range inputs {
		ms := models.MetricSeries{Name: in.Name, Units: in.Units}
		for _, ri := range in.Data {
			date, err := mdstore.ParseTime(ri.Date)
			if err != nil {
				return nil, fmt.Errorf("invalid date %q: %w", ri.Date, err)
			}

			var r *models.Reading
			switch {
			case ri.SleepStart != "" && ri.SleepEnd != "":
				start, err := mdstore.ParseTime(ri.SleepStart)
				if err != nil {
					return nil, fmt.Errorf("invalid sleep_start %q: %w", ri.SleepStart, err)
				}
				end, err := mdstore.ParseTime(ri.SleepEnd)
				if err != nil {
					return nil, fmt.Errorf("invalid sleep_end %q: %w", ri.SleepEnd, err)
				}
				var asleep, inBed float64
				if ri.Asleep != nil {
					asleep = *ri.Asleep
				}
				if ri.InBed != nil {
					inBed = *ri.InBed
				}
				r = models.NewSleep(start, end, asleep, inBed)
			case ri.Systolic != nil && ri.Diastolic != nil:
				r = models.NewBloodPressure(date, *ri.Systolic, *ri.Diastolic)
			case ri.Min != nil && ri.Max != nil && ri.Avg != nil:
				r = models.NewHeartRate(date, *ri.Min, *ri.Max, *ri.Avg)
			case ri.Qty != nil:
				r = models.NewQuantity(in.Name, date, *ri.Qty, in.Units)
			default:
				return nil, fmt.Errorf("reading at %s carries no value", ri.Date)
			}
			if ri.Source != "" {
				r.WithSource(ri.Source)
			}
			ms.Readings = append(ms.Readings, *r)
		}
		series = append(series, ms)
	}
	return series, nil
}

func (s *Server) handleRecordWorkout(ctx context.Context, req *mcp.CallToolRequest, input recordWorkoutInput) (*mcp.CallToolResult, saveOutput, error) {
	start, err := mdstore.ParseTime(input.Start)
	if err != nil {
		return nil, saveOutput{}, fmt.Errorf("invalid start %q: %w", input.Start, err)
	}

	w := models.NewWorkout(input.ID, input.Name, start)
	if input.End != "" {
		end, err := mdstore.ParseTime(input.End)
		if err != nil {
			return nil, saveOutput{}, fmt.Errorf("invalid end %q: %w", input.End, err)
		}
		w.WithEndedAt(end)
	}
	if input.DurationMinutes > 0 {
		w.WithDuration(input.DurationMinutes)
	}
	if input.Source != "" {
		w.WithSource(input.Source)
	}

	res, err := s.svc.SaveWorkouts([]models.Workout{*w}, nil)
	if err != nil {
		return nil, saveOutput{}, fmt.Errorf("failed to record workout: %w", err)
	}

	return nil, saveOutput{
		Saved:      res.Saved,
		Updated:    res.Updated,
		Duplicates: res.Duplicates,
		Errors:     res.Errors,
		Message:    fmt.Sprintf("Recorded workout %s (%d new, %d updated)", input.Name, res.Saved, res.Updated),
	}, nil
}

func (s *Server) handleGetDay(ctx context.Context, req *mcp.CallToolRequest, input getDayInput) (*mcp.CallToolResult, any, error) {
	if _, err := time.Parse(storage.DayFormat, input.Date); err != nil {
		return nil, nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", input.Date)
	}

	switch input.Kind {
	case "", "metrics":
		doc, err := s.store.LoadMetricsDay(input.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load day: %w", err)
		}
		return nil, doc, nil
	case "workouts":
		doc, err := s.store.LoadWorkoutsDay(input.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load day: %w", err)
		}
		return nil, doc, nil
	default:
		return nil, nil, fmt.Errorf("unknown kind: %s", input.Kind)
	}
}

func (s *Server) handleListDays(ctx context.Context, req *mcp.CallToolRequest, input listDaysInput) (*mcp.CallToolResult, listDaysOutput, error) {
	kind := storage.KindMetrics
	if input.Kind == "workouts" {
		kind = storage.KindWorkouts
	} else if input.Kind != "" && input.Kind != "metrics" {
		return nil, listDaysOutput{}, fmt.Errorf("unknown kind: %s", input.Kind)
	}

	days, err := s.store.ListDays(kind)
	if err != nil {
		return nil, listDaysOutput{}, fmt.Errorf("failed to list days: %w", err)
	}

	return nil, listDaysOutput{Kind: string(kind), Days: days}, nil
}

func (s *Server) handleRunCleanup(ctx context.Context, req *mcp.CallToolRequest, input runCleanupInput) (*mcp.CallToolResult, cleanupOutput, error) {
	res, err := s.store.Sweeper().Cleanup()
	if err != nil {
		return nil, cleanupOutput{}, fmt.Errorf("cleanup failed: %w", err)
	}

	return nil, cleanupOutput{
		DeletedFiles: res.DeletedFiles,
		Message:      fmt.Sprintf("Deleted %d files", res.DeletedFiles),
	}, nil
}
