// ABOUTME: Lock-guarded read-merge-write of daily metric documents.
// ABOUTME: Appends new readings, replaces in place on identity key match.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/harperreed/vitals/internal/dedup"
	"github.com/harperreed/vitals/internal/models"
)

// SaveMetrics merges batches of readings into their daily files. Days are
// processed sequentially in sorted order so one call never holds more
// than one lock; per-day failures are collected, not thrown.
func (s *Store) SaveMetrics(byDay map[string][]models.Reading) *SaveResult {
	res := &SaveResult{}

	for _, day := range sortedDays(byDay) {
		readings := byDay[day]
		if len(readings) == 0 {
			continue
		}

		dayT, err := parseDay(day)
		if err != nil {
			res.addError(day, err)
			continue
		}
		path := PathFor(s.baseDir, KindMetrics, dayT)

		counts, err := WithLock(s.locker, path, func() (mergeCounts, error) {
			doc, err := ReadJSONFile(path, NewMetricsDay(day))
			if err != nil {
				return mergeCounts{}, err
			}
			if doc.Metrics == nil {
				doc.Metrics = make(map[string][]models.Reading)
			}

			c := mergeReadings(&doc, readings)
			if c.saved == 0 && c.updated == 0 {
				return c, nil
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return mergeCounts{}, fmt.Errorf("marshal %s: %w", day, err)
			}
			return c, AtomicWrite(path, data)
		})
		if err != nil {
			res.addError(day, err)
			continue
		}
		res.Saved += counts.saved
		res.Updated += counts.updated
	}

	if !res.Ok() {
		s.logger.Warn("metrics save finished with errors", "errors", len(res.Errors))
	}
	return res
}

// mergeReadings folds incoming readings into the document. Identity keys
// are re-checked here, under the lock, to close the race where two
// concurrent batches both passed upstream dedup with a revision of the
// same record.
func mergeReadings(doc *MetricsDay, incoming []models.Reading) mergeCounts {
	var c mergeCounts
	for _, r := range incoming {
		list := doc.Metrics[r.Type]
		key := dedup.IdentityKey(r)

		idx := -1
		for i := range list {
			if dedup.IdentityKey(list[i]) == key {
				idx = i
				break
			}
		}

		if idx >= 0 {
			if dedup.Fingerprint(list[idx]) == dedup.Fingerprint(r) {
				// Identical content already stored; a concurrent batch won.
				continue
			}
			list[idx] = r
			c.updated++
		} else {
			list = append(list, r)
			c.saved++
		}
		doc.Metrics[r.Type] = list
	}
	return c
}
