// ABOUTME: MCP resource implementations for the vitals datastore.
// ABOUTME: Provides vitals://today and vitals://days resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/vitals/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// vitals://today - Today's cached metrics and workouts
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "vitals://today",
		Name:        "Today's Data",
		Description: "All metrics and workouts stored for today",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	// vitals://days - All dates with stored data
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "vitals://days",
		Name:        "Stored Days",
		Description: "Every date with cached metrics or workouts",
		MIMEType:    "application/json",
	}, s.handleDaysResource)
}

// Resource handlers

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	today := time.Now().UTC().Format(storage.DayFormat)

	metrics, err := s.store.LoadMetricsDay(today)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}
	workouts, err := s.store.LoadWorkoutsDay(today)
	if err != nil {
		return nil, fmt.Errorf("failed to load workouts: %w", err)
	}

	result := map[string]interface{}{
		"date":     today,
		"metrics":  metrics.Metrics,
		"workouts": workouts.Workouts,
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      "vitals://today",
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleDaysResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	metricDays, err := s.store.ListDays(storage.KindMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to list metric days: %w", err)
	}
	workoutDays, err := s.store.ListDays(storage.KindWorkouts)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout days: %w", err)
	}

	result := map[string]interface{}{
		"metrics":  metricDays,
		"workouts": workoutDays,
		"counts": map[string]int{
			"metrics":  len(metricDays),
			"workouts": len(workoutDays),
		},
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      "vitals://days",
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
