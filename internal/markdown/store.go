// ABOUTME: Markdown note store rendering readings and workouts to files.
// ABOUTME: Note ids derive from identity keys so upserts overwrite in place.
package markdown

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/vitals/internal/dedup"
	"github.com/harperreed/vitals/internal/ingest"
	"github.com/harperreed/vitals/internal/mdstore"
	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
)

// NoteStore renders health data as human-readable markdown files with
// YAML frontmatter under notesDir.
// Layout: <notesDir>/metrics/YYYY/MM/YYYY-MM-DD-<type>-<id8>.md and
// <notesDir>/workouts/YYYY/MM/YYYY-MM-DD-<slug>-<id8>.md.
type NoteStore struct {
	notesDir string
	logger   *log.Logger
}

var _ ingest.DocStore = (*NoteStore)(nil)

// NewNoteStore creates a markdown note store rooted at notesDir.
func NewNoteStore(notesDir string, logger *log.Logger) (*NoteStore, error) {
	if err := mdstore.EnsureDir(notesDir); err != nil {
		return nil, fmt.Errorf("create notes directory: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &NoteStore{notesDir: notesDir, logger: logger}, nil
}

// noteID derives a stable 8-hex-char id from a record's identity key, so
// an upserted record lands on the same file it wrote before.
func noteID(identity string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(identity)).String()[:8]
}

func (s *NoteStore) readingNotePath(r models.Reading) string {
	day, _ := time.ParseInLocation("2006-01-02", r.Day(), time.UTC)
	return filepath.Join(
		s.notesDir, "metrics",
		day.Format("2006"), day.Format("01"),
		fmt.Sprintf("%s-%s-%s.md", r.Day(), mdstore.Slugify(r.Type), noteID(dedup.IdentityKey(r))),
	)
}

func (s *NoteStore) workoutNotePath(w models.Workout) string {
	day, _ := time.ParseInLocation("2006-01-02", w.Day(), time.UTC)
	return filepath.Join(
		s.notesDir, "workouts",
		day.Format("2006"), day.Format("01"),
		fmt.Sprintf("%s-%s-%s.md", w.Day(), mdstore.Slugify(w.Name), noteID(dedup.WorkoutIdentity(w))),
	)
}

// readingFrontmatter is the YAML header of a metric note.
type readingFrontmatter struct {
	Shape      string   `yaml:"shape"`
	Type       string   `yaml:"type"`
	Date       string   `yaml:"date"`
	Source     string   `yaml:"source,omitempty"`
	Units      string   `yaml:"units,omitempty"`
	Qty        *float64 `yaml:"qty,omitempty"`
	Systolic   *float64 `yaml:"systolic,omitempty"`
	Diastolic  *float64 `yaml:"diastolic,omitempty"`
	Min        *float64 `yaml:"min,omitempty"`
	Max        *float64 `yaml:"max,omitempty"`
	Avg        *float64 `yaml:"avg,omitempty"`
	SleepStart string   `yaml:"sleep_start,omitempty"`
	SleepEnd   string   `yaml:"sleep_end,omitempty"`
	Asleep     *float64 `yaml:"asleep,omitempty"`
	InBed      *float64 `yaml:"in_bed,omitempty"`
}

// workoutFrontmatter is the YAML header of a workout note.
type workoutFrontmatter struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Start    string   `yaml:"start"`
	End      string   `yaml:"end,omitempty"`
	Source   string   `yaml:"source,omitempty"`
	Duration *float64 `yaml:"duration_minutes,omitempty"`
	Distance string   `yaml:"distance,omitempty"`
	Energy   string   `yaml:"energy,omitempty"`
}

func readingToFrontmatter(r models.Reading) readingFrontmatter {
	fm := readingFrontmatter{
		Shape:     string(r.Shape),
		Type:      r.Type,
		Date:      mdstore.FormatTime(r.Date.UTC()),
		Source:    r.Source,
		Units:     r.Units,
		Qty:       r.Qty,
		Systolic:  r.Systolic,
		Diastolic: r.Diastolic,
		Min:       r.Min,
		Max:       r.Max,
		Avg:       r.Avg,
		Asleep:    r.Asleep,
		InBed:     r.InBed,
	}
	if r.SleepStart != nil {
		fm.SleepStart = mdstore.FormatTime(r.SleepStart.UTC())
	}
	if r.SleepEnd != nil {
		fm.SleepEnd = mdstore.FormatTime(r.SleepEnd.UTC())
	}
	return fm
}

func workoutToFrontmatter(w models.Workout) workoutFrontmatter {
	fm := workoutFrontmatter{
		ID:       w.ID,
		Name:     w.Name,
		Start:    mdstore.FormatTime(w.StartedAt.UTC()),
		Source:   w.Source,
		Duration: w.Duration,
	}
	if w.EndedAt != nil {
		fm.End = mdstore.FormatTime(w.EndedAt.UTC())
	}
	if w.Distance != nil {
		fm.Distance = fmt.Sprintf("%g %s", w.Distance.Qty, w.Distance.Units)
	}
	if w.Energy != nil {
		fm.Energy = fmt.Sprintf("%g %s", w.Energy.Qty, w.Energy.Units)
	}
	return fm
}

// metadataBody renders extra metadata as a bullet list in the note body.
func metadataBody(md map[string]any) string {
	if len(md) == 0 {
		return ""
	}
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	body := "\n"
	for _, k := range keys {
		body += fmt.Sprintf("- %s: %v\n", k, md[k])
	}
	return body
}

func (s *NoteStore) writeNote(path string, fm any, body string) (saved bool, err error) {
	existed := false
	if _, statErr := os.Stat(path); statErr == nil {
		existed = true
	} else if !os.IsNotExist(statErr) {
		return false, fmt.Errorf("stat note: %w", statErr)
	}

	content, err := mdstore.RenderFrontmatter(fm, body)
	if err != nil {
		return false, err
	}
	if err := storage.AtomicWrite(path, []byte(content)); err != nil {
		return false, err
	}
	return !existed, nil
}

// SaveMetrics writes one note per reading, grouped by type.
func (s *NoteStore) SaveMetrics(byType map[string][]models.Reading) (ingest.DocResult, error) {
	var res ingest.DocResult
	for _, readings := range byType {
		for _, r := range readings {
			saved, err := s.writeNote(s.readingNotePath(r), readingToFrontmatter(r), metadataBody(r.Metadata))
			if err != nil {
				return res, fmt.Errorf("write metric note: %w", err)
			}
			if saved {
				res.Saved++
			} else {
				res.Updated++
			}
		}
	}
	return res, nil
}

// SaveWorkouts writes one note per workout.
func (s *NoteStore) SaveWorkouts(workouts []models.Workout) (ingest.DocResult, error) {
	var res ingest.DocResult
	for _, w := range workouts {
		saved, err := s.writeNote(s.workoutNotePath(w), workoutToFrontmatter(w), metadataBody(w.Metadata))
		if err != nil {
			return res, fmt.Errorf("write workout note: %w", err)
		}
		if saved {
			res.Saved++
		} else {
			res.Updated++
		}
	}
	return res, nil
}
