// ABOUTME: Helpers for markdown files with YAML frontmatter.
// ABOUTME: Frontmatter render/parse, slugs, directories, and timestamps.
package mdstore

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// TimeFormat is the timestamp layout used inside frontmatter.
const TimeFormat = time.RFC3339

// EnsureDir creates a directory (and parents) if it does not exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0750)
}

// Slugify lowercases s and replaces runs of non-alphanumeric characters
// with single hyphens, suitable for file names.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// RenderFrontmatter serializes fm as YAML between --- delimiters and
// appends the body.
func RenderFrontmatter(fm any, body string) (string, error) {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	return frontmatterDelim + "\n" + string(data) + frontmatterDelim + "\n" + body, nil
}

// ParseFrontmatter splits a markdown document into its YAML frontmatter
// and body. Returns an empty YAML string when there is no frontmatter.
func ParseFrontmatter(content string) (yamlStr, body string) {
	if !strings.HasPrefix(content, frontmatterDelim+"\n") {
		return "", content
	}
	rest := content[len(frontmatterDelim)+1:]
	idx := strings.Index(rest, "\n"+frontmatterDelim)
	if idx < 0 {
		return "", content
	}
	yamlStr = rest[:idx+1]
	body = rest[idx+1+len(frontmatterDelim):]
	body = strings.TrimPrefix(body, "\n")
	return yamlStr, body
}

// FormatTime renders a timestamp for frontmatter.
func FormatTime(t time.Time) string {
	return t.Format(TimeFormat)
}

// ParseTime parses a frontmatter or user-supplied timestamp, accepting a
// few common layouts.
func ParseTime(s string) (time.Time, error) {
	formats := []string{
		TimeFormat,
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %q", s)
}
