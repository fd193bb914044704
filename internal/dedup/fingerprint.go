// ABOUTME: Content fingerprints and identity keys for dedup decisions.
// ABOUTME: Fingerprints catch exact duplicates; identity keys drive upserts.
package dedup

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/harperreed/vitals/internal/models"
)

// timeFormat is the canonical form every datetime is normalized to before
// fingerprinting, so equal instants always stringify identically.
const timeFormat = "2006-01-02T15:04:05.000Z"

func canonicalTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Fingerprint returns a deterministic, order-independent string derived
// from a reading's full content. Equal fingerprints imply content-identical
// readings. Quantity readings take a fast path that builds the string
// directly; composite shapes go through canonical JSON, relying on Go's
// recursive map-key sorting during marshaling.
func Fingerprint(r models.Reading) string {
	if r.Shape == models.ShapeQuantity && r.Qty != nil {
		meta := ""
		if len(r.Metadata) > 0 {
			data, err := json.Marshal(r.Metadata)
			if err == nil {
				meta = string(data)
			}
		}
		return canonicalTime(r.Date) + "|" + r.Source + "|" + formatNum(*r.Qty) + "|" + r.Units + "|" + meta
	}
	return canonicalJSON(normalizeReading(r))
}

// normalizeReading flattens a reading into a map with canonical datetime
// strings, dropping unset fields so structurally-equal readings normalize
// identically regardless of how they were built.
func normalizeReading(r models.Reading) map[string]any {
	m := map[string]any{
		"shape": string(r.Shape),
		"type":  r.Type,
		"date":  canonicalTime(r.Date),
	}
	if r.Source != "" {
		m["source"] = r.Source
	}
	if r.Units != "" {
		m["units"] = r.Units
	}
	putNum := func(key string, v *float64) {
		if v != nil {
			m[key] = formatNum(*v)
		}
	}
	putNum("qty", r.Qty)
	putNum("systolic", r.Systolic)
	putNum("diastolic", r.Diastolic)
	putNum("min", r.Min)
	putNum("max", r.Max)
	putNum("avg", r.Avg)
	putNum("asleep", r.Asleep)
	putNum("in_bed", r.InBed)
	if r.SleepStart != nil {
		m["sleep_start"] = canonicalTime(*r.SleepStart)
	}
	if r.SleepEnd != nil {
		m["sleep_end"] = canonicalTime(*r.SleepEnd)
	}
	if len(r.Metadata) > 0 {
		m["metadata"] = r.Metadata
	}
	return m
}

func canonicalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// WorkoutFingerprint returns the content fingerprint of a workout.
func WorkoutFingerprint(w models.Workout) string {
	m := map[string]any{
		"id":    w.ID,
		"name":  w.Name,
		"start": canonicalTime(w.StartedAt),
	}
	if w.EndedAt != nil {
		m["end"] = canonicalTime(*w.EndedAt)
	}
	if w.Source != "" {
		m["source"] = w.Source
	}
	if w.Duration != nil {
		m["duration"] = formatNum(*w.Duration)
	}
	if w.Distance != nil {
		m["distance"] = formatNum(w.Distance.Qty) + " " + w.Distance.Units
	}
	if w.Energy != nil {
		m["energy"] = formatNum(w.Energy.Qty) + " " + w.Energy.Units
	}
	if len(w.Metadata) > 0 {
		m["metadata"] = w.Metadata
	}
	return canonicalJSON(m)
}

// IdentityKey returns the coarse key deciding upsert-vs-append semantics.
// It deliberately excludes the measured value, so a revised reading for
// the same timestamp, source, and type replaces the stored one. Sleep
// sessions key on session start instead of the attributed date.
func IdentityKey(r models.Reading) string {
	if r.Shape == models.ShapeSleep && r.SleepStart != nil {
		return canonicalTime(*r.SleepStart) + "|" + r.Source
	}
	return canonicalTime(r.Date) + "|" + r.Source + "|" + r.Type
}

// WorkoutIdentity returns the upsert key for a workout: its external id.
func WorkoutIdentity(w models.Workout) string {
	return w.ID
}

// FingerprintSet builds a lookup set over the fingerprints of readings.
func FingerprintSet(readings []models.Reading) map[string]struct{} {
	set := make(map[string]struct{}, len(readings))
	for _, r := range readings {
		set[Fingerprint(r)] = struct{}{}
	}
	return set
}

// WorkoutFingerprintSet builds a lookup set over workout fingerprints.
func WorkoutFingerprintSet(workouts []models.Workout) map[string]struct{} {
	set := make(map[string]struct{}, len(workouts))
	for _, w := range workouts {
		set[WorkoutFingerprint(w)] = struct{}{}
	}
	return set
}
