// Package format turns index fields into launcher display strings:
// rating tiers, runtimes, sizes and per-quality torrent selection.
package format

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/litescript/ls-movie-launcher/internal/scraper"
)

// Tier is a rating bucket
type Tier int

const (
	TierUnrated Tier = iota
	TierPoor
	TierAverage
	TierGood
	TierGreat
	TierExcellent
)

// tierTable is checked top to bottom; lower bounds are inclusive
var tierTable = []struct {
	min  float64
	tier Tier
}{
	{8.5, TierExcellent},
	{7.0, TierGreat},
	{6.0, TierGood},
	{4.0, TierAverage},
}

// RatingTier buckets a 0-10 rating
func RatingTier(rating float64) Tier {
	for _, row := range tierTable {
		if rating >= row.min {
			return row.tier
		}
	}
	if rating > 0 {
		return TierPoor
	}
	return TierUnrated
}

// String returns the lower-case tier name
func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGreat:
		return "great"
	case TierGood:
		return "good"
	case TierAverage:
		return "average"
	case TierPoor:
		return "poor"
	default:
		return "unrated"
	}
}

// Icon returns the star string shown before a title
func (t Tier) Icon() string {
	switch t {
	case TierExcellent:
		return "⭐⭐⭐⭐⭐"
	case TierGreat:
		return "⭐⭐⭐⭐"
	case TierGood:
		return "⭐⭐⭐"
	case TierAverage:
		return "⭐⭐"
	case TierPoor:
		return "⭐"
	default:
		return "❓"
	}
}

// Runtime formats minutes as "2h 5m" or "45m"
func Runtime(minutes int) string {
	h, m := minutes/60, minutes%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// Size returns the index's size string, or a humanized byte count when
// the index left it blank
func Size(t scraper.Torrent) string {
	if t.Size != "" {
		return t.Size
	}
	if t.SizeBytes > 0 {
		return humanize.Bytes(t.SizeBytes)
	}
	return "Unknown"
}

// QualityGroup is the torrent chosen for one quality label
type QualityGroup struct {
	Quality string
	Torrent scraper.Torrent
}

// GroupByQuality groups torrents by exact quality label in first-seen order.
// Each group exposes the member with the most seeds; on a tie the earlier
// one is kept, so with no seed data the first member wins.
func GroupByQuality(torrents []scraper.Torrent) []QualityGroup {
	var groups []QualityGroup
	index := make(map[string]int)

	for _, t := range torrents {
		q := t.Quality
		if q == "" {
			q = "Unknown"
		}

		i, ok := index[q]
		if !ok {
			index[q] = len(groups)
			groups = append(groups, QualityGroup{Quality: q, Torrent: t})
			continue
		}

		if t.Seeds > groups[i].Torrent.Seeds {
			groups[i].Torrent = t
		}
	}

	return groups
}

// Subtext builds the "⭐ 8.7/10 • ⏱️ 2h 16m • 🎭 Action, Sci-Fi" line.
// When no part applies the summary is shown instead.
func Subtext(m scraper.Movie) string {
	var parts []string
	if m.Rating > 0 {
		parts = append(parts, fmt.Sprintf("⭐ %s/10", trimFloat(m.Rating)))
	}
	if m.Runtime > 0 {
		parts = append(parts, "⏱️ "+Runtime(m.Runtime))
	}
	if len(m.Genres) > 0 {
		parts = append(parts, "🎭 "+strings.Join(m.Genres, ", "))
	}

	if len(parts) > 0 {
		return strings.Join(parts, " • ")
	}

	summary := m.Summary
	if summary == "" {
		summary = "No summary available"
	}
	return Truncate(summary, 80) + "..."
}

// Title builds "⭐⭐⭐⭐ The Matrix (1999)"
func Title(m scraper.Movie) string {
	title := m.Title
	if title == "" {
		title = "Unknown Title"
	}
	year := "Unknown"
	if m.Year > 0 {
		year = fmt.Sprintf("%d", m.Year)
	}
	return fmt.Sprintf("%s %s (%s)", RatingTier(m.Rating).Icon(), title, year)
}

// Info is the text placed on the clipboard for a movie
func Info(m scraper.Movie) string {
	summary := m.Summary
	if summary == "" {
		summary = "No summary available"
	}
	return fmt.Sprintf("%s (%d) - %s/10\n%s", m.Title, m.Year, trimFloat(m.Rating), summary)
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// trimFloat prints 8.0 as "8" and 8.5 as "8.5"
func trimFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
