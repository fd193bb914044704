// ABOUTME: Atomic file write primitive and JSON file reading helper.
// ABOUTME: Temp-file-plus-rename so readers never observe partial writes.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// AtomicWrite writes data to path via a uniquely-named temporary file in
// the same directory followed by a rename. Rename on the same filesystem
// is atomic, so a crash mid-write leaves at worst an orphaned temp file
// and never a torn data file.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp := fmt.Sprintf("%s.tmp.%d.%s", path, time.Now().UnixMilli(), uuid.NewString()[:8])
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadJSONFile parses the JSON document at path. A missing file returns
// def; any other read or parse failure propagates rather than being
// silently treated as "missing".
func ReadJSONFile[T any](path string, def T) (T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return def, nil
		}
		return def, fmt.Errorf("read %s: %w", path, err)
	}

	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return def, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
