// ABOUTME: Wire payload accepted from upstream exporters.
// ABOUTME: Mirrors the auto-export JSON shape: metrics, workouts, routes.
package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/harperreed/vitals/internal/models"
)

// Payload is one ingest request body as delivered by an exporter app,
// already schema-validated upstream.
type Payload struct {
	Metrics  []models.MetricSeries `json:"metrics,omitempty"`
	Workouts []models.Workout      `json:"workouts,omitempty"`
	Routes   []models.Route        `json:"routes,omitempty"`
}

// ParsePayload decodes a JSON payload.
func ParsePayload(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	return &p, nil
}

// Save runs the full payload through the service and merges the results.
func (s *Service) Save(p *Payload) (*Result, error) {
	res := &Result{}

	if len(p.Metrics) > 0 {
		mr, err := s.SaveMetrics(p.Metrics)
		if err != nil {
			return nil, err
		}
		res.Saved += mr.Saved
		res.Updated += mr.Updated
		res.Duplicates += mr.Duplicates
		res.Errors = append(res.Errors, mr.Errors...)
	}

	if len(p.Workouts) > 0 {
		wr, err := s.SaveWorkouts(p.Workouts, p.Routes)
		if err != nil {
			return nil, err
		}
		res.Saved += wr.Saved
		res.Updated += wr.Updated
		res.Duplicates += wr.Duplicates
		res.Errors = append(res.Errors, wr.Errors...)
	}

	return res, nil
}
