// Movie launcher is a terminal launcher for searching the YTS movie index.
// Results can be streamed or downloaded through webtorrent (or queued in
// qBittorrent), opened on IMDb/YTS, or copied to the clipboard.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/litescript/ls-movie-launcher/internal/config"
	"github.com/litescript/ls-movie-launcher/internal/launch"
	"github.com/litescript/ls-movie-launcher/internal/logging"
	"github.com/litescript/ls-movie-launcher/internal/movies"
	"github.com/litescript/ls-movie-launcher/internal/plugin"
	"github.com/litescript/ls-movie-launcher/internal/qbit"
	"github.com/litescript/ls-movie-launcher/internal/theme"
	"github.com/litescript/ls-movie-launcher/internal/tui"
	"github.com/litescript/ls-movie-launcher/internal/version"
	"github.com/litescript/ls-movie-launcher/internal/vpn"
)

func main() {
	configPath := config.ConfigPath()

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v":
			fmt.Printf("movie-launcher v%s\n", version.Version)
			os.Exit(0)
		case "--config", "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		}
	}

	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}

	log, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to open log file: %v\n", err)
	}
	defer logCloser.Close()

	log.Info("starting", "version", version.Version, "config", configPath, "source", cfg.Source, "client", cfg.TorrentClient)

	if err := config.EnsureDownloadDir(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create download dir: %v\n", err)
	}

	connector := vpn.NewConnector(
		cfg.VPN.ConnectCommand,
		cfg.VPN.StatusCommand,
		time.Duration(cfg.VPN.TimeoutSeconds)*time.Second,
		log,
	)

	registry := plugin.NewRegistry()
	registry.Register(movies.New(cfg, configPath, movies.WithLogger(log), movies.WithVPN(connector)))
	defer registry.Finalize()

	webtorrent := launch.NewWebTorrent(cfg.WebTorrentPath, cfg.PlayerFlag, log)
	var downloader plugin.Downloader = webtorrent
	if cfg.TorrentClient == config.ClientQBittorrent {
		q := cfg.QBittorrent
		client := qbit.NewClient(q.Host, q.Port, q.Username, q.Password)
		defer client.Close()
		backend := qbit.NewBackend(client, qbit.AddOptions{Category: q.Category, Paused: q.StartPaused}, log)
		if v, err := backend.Ping(context.Background()); err != nil {
			log.Warn("qBittorrent unreachable, downloads will fail until it is up", "error", err)
		} else {
			log.Info("connected to qBittorrent", "version", v)
		}
		downloader = backend
	}
	dispatcher := plugin.NewDispatcher(webtorrent, downloader, launch.NewDesktop(log), log)

	var vpnStatus tui.VPN
	if len(cfg.VPN.StatusCommand) > 0 {
		vpnStatus = connector
	}

	th := theme.New()
	model := tui.NewModel(tui.Deps{
		Registry:   registry,
		Dispatcher: dispatcher,
		Theme:      th,
		VPN:        vpnStatus,
		Updater:    version.NewChecker(),
		Log:        log,
		Input:      movies.Trigger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	watcher, err := theme.Watch(th, func() { p.Send(tui.ThemeChangedMsg{}) })
	if err != nil {
		log.Warn("theme watcher unavailable", "error", err)
	} else {
		log.Debug("watching theme configs", "dirs", watcher.Dirs())
		defer watcher.Stop()
	}

	if _, err := p.Run(); err != nil {
		return err
	}
	log.Info("exiting")
	return nil
}
