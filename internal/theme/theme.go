// Package theme derives launcher colours from the user's terminal
// configuration. Omarchy, Alacritty, Kitty and Foot configs are read in that
// order; MOVIE_LAUNCHER_* environment variables override the result.
package theme

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the colour scheme of the launcher
type Palette struct {
	Background string
	Text       string
	Dim        string // subtext, hints
	Highlight  string // prompt, connected VPN
	Selection  string // selected row background
	Danger     string
}

// DefaultPalette returns the fallback amber-on-dark scheme
func DefaultPalette() Palette {
	return Palette{
		Background: "#0a0a0a",
		Text:       "#d4a017",
		Dim:        "#6b6b4f",
		Highlight:  "#8bc34a",
		Selection:  "#1a1a14",
		Danger:     "#ff6b6b",
	}
}

// Styles are the lipgloss styles rendered by the launcher
type Styles struct {
	Prompt         lipgloss.Style
	Input          lipgloss.Style
	Item           lipgloss.Style
	ItemSelected   lipgloss.Style
	Subtext        lipgloss.Style
	Action         lipgloss.Style
	ActionSelected lipgloss.Style
	Status         lipgloss.Style
	Key            lipgloss.Style
	Danger         lipgloss.Style
	VPNUp          lipgloss.Style
	VPNDown        lipgloss.Style
	Frame          lipgloss.Style
}

// NewStyles builds styles from p
func NewStyles(p Palette) Styles {
	fg := lipgloss.Color(p.Text)
	dim := lipgloss.Color(p.Dim)
	hi := lipgloss.Color(p.Highlight)
	danger := lipgloss.Color(p.Danger)

	return Styles{
		Prompt: lipgloss.NewStyle().Foreground(hi).Bold(true),
		Input:  lipgloss.NewStyle().Foreground(fg),
		Item:   lipgloss.NewStyle().Foreground(fg).PaddingLeft(2),
		ItemSelected: lipgloss.NewStyle().
			Foreground(fg).
			Background(lipgloss.Color(p.Selection)).
			Bold(true).
			PaddingLeft(1).
			BorderStyle(lipgloss.ThickBorder()).
			BorderLeft(true).
			BorderForeground(hi),
		Subtext: lipgloss.NewStyle().Foreground(dim).PaddingLeft(4),
		Action:  lipgloss.NewStyle().Foreground(dim).PaddingLeft(6),
		ActionSelected: lipgloss.NewStyle().
			Foreground(fg).
			Bold(true).
			PaddingLeft(4),
		Status:  lipgloss.NewStyle().Foreground(dim).Padding(0, 1),
		Key:     lipgloss.NewStyle().Foreground(fg).Bold(true),
		Danger:  lipgloss.NewStyle().Foreground(danger),
		VPNUp:   lipgloss.NewStyle().Foreground(hi),
		VPNDown: lipgloss.NewStyle().Foreground(danger),
		Frame: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(dim).
			Padding(0, 1),
	}
}

// Theme holds the active palette. It is safe for concurrent use; the file
// watcher reloads it while the UI reads it.
type Theme struct {
	home   string
	getenv func(string) string

	mu      sync.RWMutex
	palette Palette
	styles  Styles
}

// New detects the palette for the current user
func New() *Theme {
	home, _ := os.UserHomeDir()
	return NewFor(home, os.Getenv)
}

// NewFor detects the palette from the configs under home, with overrides
// looked up through getenv
func NewFor(home string, getenv func(string) string) *Theme {
	t := &Theme{home: home, getenv: getenv}
	t.Reload()
	return t
}

// Reload re-reads terminal configs and rebuilds styles
func (t *Theme) Reload() {
	p := Detect(t.home, t.getenv)
	s := NewStyles(p)

	t.mu.Lock()
	t.palette, t.styles = p, s
	t.mu.Unlock()
}

// Palette returns the active palette
func (t *Theme) Palette() Palette {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.palette
}

// Styles returns the active styles
func (t *Theme) Styles() Styles {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.styles
}
