package theme

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/ini.v1"
)

// source is one terminal config location, relative to the home directory
type source struct {
	name  string
	paths []string
	parse func(path string) (Palette, bool)
}

var sources = []source{
	{"omarchy", []string{".config/omarchy/current/theme/alacritty.toml"}, parseAlacritty},
	{"alacritty", []string{".config/alacritty/alacritty.toml", ".alacritty.toml"}, parseAlacritty},
	{"kitty", []string{".config/kitty/kitty.conf"}, parseKitty},
	{"foot", []string{".config/foot/foot.ini"}, parseFoot},
}

// envOverrides maps MOVIE_LAUNCHER_* variables to palette fields
var envOverrides = []struct {
	key string
	set func(*Palette, string)
}{
	{"MOVIE_LAUNCHER_BG", func(p *Palette, v string) { p.Background = v }},
	{"MOVIE_LAUNCHER_FG", func(p *Palette, v string) { p.Text = v }},
	{"MOVIE_LAUNCHER_DIM", func(p *Palette, v string) { p.Dim = v }},
	{"MOVIE_LAUNCHER_ACCENT", func(p *Palette, v string) { p.Highlight = v }},
}

// Detect returns the palette of the first terminal config found under home,
// or the default one, with environment overrides applied
func Detect(home string, getenv func(string) string) Palette {
	p := DefaultPalette()
	if home != "" {
		if found, ok := detectFrom(home); ok {
			p = found
		}
	}

	if getenv != nil {
		for _, o := range envOverrides {
			if v := getenv(o.key); v != "" {
				o.set(&p, normalizeHex(v))
			}
		}
	}
	return p
}

func detectFrom(home string) (Palette, bool) {
	for _, src := range sources {
		for _, rel := range src.paths {
			if p, ok := src.parse(filepath.Join(home, filepath.FromSlash(rel))); ok {
				return p, true
			}
		}
	}
	return Palette{}, false
}

// watchDirs returns the config directories worth watching under home
func watchDirs(home string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, src := range sources {
		for _, rel := range src.paths {
			dir := filepath.Dir(filepath.Join(home, filepath.FromSlash(rel)))
			if dir == home || seen[dir] {
				continue
			}
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// fromTerminal fills a palette from terminal background, foreground and
// optional selection colours
func fromTerminal(bg, fg, sel string) Palette {
	p := DefaultPalette()
	p.Background = normalizeHex(bg)
	p.Text = normalizeHex(fg)
	p.Dim = scale(p.Text, 0.5)
	if sel != "" {
		p.Selection = normalizeHex(sel)
	} else {
		p.Selection = mix(p.Background, p.Text, 0.15)
	}
	return p
}

type alacrittyColors struct {
	Colors struct {
		Primary struct {
			Background string `toml:"background"`
			Foreground string `toml:"foreground"`
		} `toml:"primary"`
		Selection struct {
			Background string `toml:"background"`
		} `toml:"selection"`
	} `toml:"colors"`
}

func parseAlacritty(path string) (Palette, bool) {
	var cfg alacrittyColors
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Palette{}, false
	}

	c := cfg.Colors
	if c.Primary.Background == "" || c.Primary.Foreground == "" {
		return Palette{}, false
	}
	return fromTerminal(c.Primary.Background, c.Primary.Foreground, c.Selection.Background), true
}

// parseKitty reads "key value" lines; kitty.conf is neither ini nor toml
func parseKitty(path string) (Palette, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, false
	}

	var bg, fg, sel string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "background":
			bg = fields[1]
		case "foreground":
			fg = fields[1]
		case "selection_background":
			sel = fields[1]
		}
	}

	if bg == "" && fg == "" {
		return Palette{}, false
	}
	def := DefaultPalette()
	if bg == "" {
		bg = def.Background
	}
	if fg == "" {
		fg = def.Text
	}
	return fromTerminal(bg, fg, sel), true
}

func parseFoot(path string) (Palette, bool) {
	cfg, err := ini.Load(path)
	if err != nil {
		return Palette{}, false
	}

	colors := cfg.Section("colors")
	bg := colors.Key("background").String()
	fg := colors.Key("foreground").String()
	if bg == "" || fg == "" {
		return Palette{}, false
	}
	return fromTerminal(bg, fg, colors.Key("selection-background").String()), true
}

// normalizeHex turns "0xRRGGBB", "RRGGBB" and "#RGB" into "#rrggbb".
// Unparseable input is returned trimmed.
func normalizeHex(s string) string {
	s = strings.TrimSpace(s)
	h := s
	if strings.HasPrefix(h, "0x") || strings.HasPrefix(h, "0X") {
		h = h[2:]
	}
	if !strings.HasPrefix(h, "#") {
		h = "#" + h
	}

	c, err := colorful.Hex(h)
	if err != nil {
		return s
	}
	return c.Hex()
}

// scale multiplies each channel of hex by f
func scale(hex string, f float64) string {
	c, err := colorful.Hex(normalizeHex(hex))
	if err != nil {
		return hex
	}
	return colorful.Color{R: c.R * f, G: c.G * f, B: c.B * f}.Clamped().Hex()
}

// mix blends a toward b by t in RGB space
func mix(a, b string, t float64) string {
	ca, err := colorful.Hex(normalizeHex(a))
	if err != nil {
		return a
	}
	cb, err := colorful.Hex(normalizeHex(b))
	if err != nil {
		return a
	}
	return ca.BlendRgb(cb, t).Clamped().Hex()
}
