package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/litescript/ls-movie-launcher/internal/theme"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
)

// gradientTitle renders text with a left-to-right blend from the palette
// highlight to its text colour
func gradientTitle(text string, p theme.Palette) string {
	from, err1 := colorful.Hex(p.Highlight)
	to, err2 := colorful.Hex(p.Text)
	if err1 != nil || err2 != nil {
		return lipgloss.NewStyle().Bold(true).Render(text)
	}

	runes := []rune(text)
	var b strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		c := from.BlendLuv(to, t).Clamped()
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Bold(true).Render(string(r)))
	}
	return b.String()
}

// truncate cuts s to a display width of max cells, with an ellipsis
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	return runewidth.Truncate(s, max, "…")
}

// spread places left and right on one line of the given width
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// window returns the [start, end) range of n rows of which at most size
// fit, keeping cursor visible
func window(n, cursor, size int) (int, int) {
	if size <= 0 || n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}
