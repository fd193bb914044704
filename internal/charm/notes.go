// ABOUTME: Charm KV implementation of the downstream note store contract.
// ABOUTME: JSON values under note: keys derived from record identity.
package charm

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/vitals/internal/dedup"
	"github.com/harperreed/vitals/internal/ingest"
	"github.com/harperreed/vitals/internal/models"
)

const (
	MetricNotePrefix  = "note:metric:"
	WorkoutNotePrefix = "note:workout:"
)

var _ ingest.DocStore = (*Client)(nil)

// noteID derives a stable 8-hex-char id from a record's identity key, so
// a re-ingested record overwrites the same KV entry.
func noteID(identity string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(identity)).String()[:8]
}

func metricNoteKey(r models.Reading) string {
	return fmt.Sprintf("%s%s:%s:%s", MetricNotePrefix, r.Day(), r.Type, noteID(dedup.IdentityKey(r)))
}

func workoutNoteKey(w models.Workout) string {
	return fmt.Sprintf("%s%s:%s", WorkoutNotePrefix, w.Day(), noteID(dedup.WorkoutIdentity(w)))
}

// SaveMetrics mirrors readings into the KV store. Saved vs updated is
// decided by prior key existence.
func (c *Client) SaveMetrics(byType map[string][]models.Reading) (ingest.DocResult, error) {
	var res ingest.DocResult
	for _, readings := range byType {
		for _, r := range readings {
			key := metricNoteKey(r)
			existed, err := c.exists(key)
			if err != nil {
				return res, fmt.Errorf("check metric note: %w", err)
			}

			data, err := json.Marshal(r)
			if err != nil {
				return res, fmt.Errorf("marshal metric note: %w", err)
			}
			if err := c.set(key, data); err != nil {
				return res, fmt.Errorf("write metric note: %w", err)
			}

			if existed {
				res.Updated++
			} else {
				res.Saved++
			}
		}
	}
	return res, nil
}

// SaveWorkouts mirrors workouts into the KV store.
func (c *Client) SaveWorkouts(workouts []models.Workout) (ingest.DocResult, error) {
	var res ingest.DocResult
	for _, w := range workouts {
		key := workoutNoteKey(w)
		existed, err := c.exists(key)
		if err != nil {
			return res, fmt.Errorf("check workout note: %w", err)
		}

		data, err := json.Marshal(w)
		if err != nil {
			return res, fmt.Errorf("marshal workout note: %w", err)
		}
		if err := c.set(key, data); err != nil {
			return res, fmt.Errorf("write workout note: %w", err)
		}

		if existed {
			res.Updated++
		} else {
			res.Saved++
		}
	}
	return res, nil
}
