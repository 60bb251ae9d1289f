// Package config handles application configuration via a JSON file.
// Configuration is stored at ~/.config/movie-launcher/config.json and includes
// search options, the download directory, tracker list, torrent client
// and VPN settings. A default file is written on first run.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Torrent client backends for the download action
const (
	ClientWebTorrent  = "webtorrent"
	ClientQBittorrent = "qbittorrent"
)

// Search sources
const (
	SourceAPI = "api"
	SourceWeb = "web"
)

// DefaultTrackers are appended to every magnet link unless custom_trackers is set
var DefaultTrackers = []string{
	"udp://open.demonii.com:1337/announce",
	"udp://tracker.openbittorrent.com:80",
	"udp://tracker.coppersurfer.tk:6969",
	"udp://glotorrents.pw:6969/announce",
	"udp://tracker.opentrackr.org:1337/announce",
	"udp://torrent.gresille.org:80/announce",
	"udp://p4p.arenabg.com:1337",
	"udp://tracker.leechers-paradise.org:6969",
}

// Config holds application configuration
type Config struct {
	TMDBAPIKey        string   `json:"tmdb_api_key"`
	DownloadPath      string   `json:"download_path"`
	SearchLimit       int      `json:"search_limit"`
	OrderBy           string   `json:"order_by"`
	SortDirection     string   `json:"sort_direction"`
	AutoVPN           bool     `json:"auto_vpn"`
	CustomTrackers    []string `json:"custom_trackers"`
	Source            string   `json:"source"`
	TorrentClient     string   `json:"torrent_client"`
	WebTorrentPath    string   `json:"webtorrent_path"`
	PlayerFlag        string   `json:"player_flag"`
	OrganizeDownloads bool     `json:"organize_downloads"`

	QBittorrent QBittorrentConfig `json:"qbittorrent"`
	VPN         VPNConfig         `json:"vpn"`
	Log         LogConfig         `json:"log"`
}

// QBittorrentConfig holds qBittorrent Web API settings
type QBittorrentConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Category string `json:"category"`
	// StartPaused adds torrents in the paused state
	StartPaused bool `json:"start_paused"`
}

// VPNConfig holds the VPN CLI commands
type VPNConfig struct {
	ConnectCommand []string `json:"connect_command"`
	StatusCommand  []string `json:"status_command"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

// LogConfig controls the rotating log file
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"max_size"` // megabytes
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

// Default returns the default configuration
func Default() Config {
	home, _ := os.UserHomeDir()

	return Config{
		TMDBAPIKey:     "",
		DownloadPath:   filepath.Join(home, "Downloads", "Movies"),
		SearchLimit:    5,
		OrderBy:        "rating",
		SortDirection:  "desc",
		AutoVPN:        false,
		CustomTrackers: append([]string(nil), DefaultTrackers...),
		Source:         SourceAPI,
		TorrentClient:  ClientWebTorrent,
		WebTorrentPath: "webtorrent",
		PlayerFlag:     "--vlc",
		QBittorrent: QBittorrentConfig{
			Host:     "localhost",
			Port:     8080,
			Username: "admin",
			Password: "adminadmin",
			Category: "movies",
		},
		VPN: VPNConfig{
			ConnectCommand: []string{"mullvad", "connect", "--wait"},
			StatusCommand:  []string{"mullvad", "status"},
			TimeoutSeconds: 30,
		},
		Log: LogConfig{
			File:       filepath.Join(home, ".local", "state", "movie-launcher", "movie-launcher.log"),
			Level:      "info",
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// ConfigPath returns the path to the config file.
// MOVIE_LAUNCHER_CONFIG overrides the default location.
func ConfigPath() string {
	if p := os.Getenv("MOVIE_LAUNCHER_CONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "movie-launcher", "config.json")
}

// Load reads config from the default path. See LoadFrom.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path. A missing file is created with the
// defaults. On read or parse failure the defaults are returned alongside
// the error so callers can log it and carry on.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := SaveTo(path, cfg); err != nil {
			return cfg, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	loaded := cfg
	if err := json.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// An empty tracker list means "use the built-in ones"
	if len(loaded.CustomTrackers) == 0 {
		loaded.CustomTrackers = append([]string(nil), DefaultTrackers...)
	}
	if loaded.SearchLimit <= 0 {
		loaded.SearchLimit = cfg.SearchLimit
	}

	return loaded, nil
}

// Save writes config to the default path
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes config to path, creating the directory if needed
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0644)
}

// EnsureDownloadDir creates the download directory if it doesn't exist
func EnsureDownloadDir(cfg Config) error {
	return os.MkdirAll(cfg.DownloadPath, 0755)
}

// Trackers returns the tracker list used for magnet links
func (c Config) Trackers() []string {
	if len(c.CustomTrackers) == 0 {
		return DefaultTrackers
	}
	return c.CustomTrackers
}
