// Package plex names download folders the way Plex expects movies:
// "Title (Year)". Organized downloads land in such a folder under the
// configured download path.
package plex

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// MovieNaming contains the movie fields used for naming
type MovieNaming struct {
	Title string
	Year  int
}

var (
	// / \ : * ? " < > | and control characters
	unsafeChars = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]`)
	spaceRun    = regexp.MustCompile(`\s+`)
)

// FolderName returns "Title (Year)", or just the title without a year.
// An unusable title falls back to "Unknown".
func FolderName(m MovieNaming) string {
	title := SanitizeFilename(m.Title)
	if title == "" {
		title = "Unknown"
	}
	if m.Year > 0 {
		return fmt.Sprintf("%s (%d)", title, m.Year)
	}
	return title
}

// MovieDir returns the download directory for a movie under base
func MovieDir(base string, m MovieNaming) string {
	return filepath.Join(base, FolderName(m))
}

// SanitizeFilename removes characters that are invalid in file names on
// common filesystems and trims leading/trailing dots and spaces
func SanitizeFilename(name string) string {
	// "Mission: Impossible" reads better as "Mission - Impossible"
	name = strings.ReplaceAll(name, ": ", " - ")
	name = unsafeChars.ReplaceAllString(name, "")
	name = spaceRun.ReplaceAllString(name, " ")
	return strings.Trim(name, " .")
}
