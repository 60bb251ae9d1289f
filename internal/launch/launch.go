// Package launch starts external programs for the launcher: the torrent
// client for streaming and downloading, and the desktop opener for links.
// Launches are fire-and-forget: output is discarded and exit status ignored.
package launch

import (
	"context"
	"log/slog"
	"os"
	"os/exec"

	"github.com/atotto/clipboard"
	"github.com/litescript/ls-movie-launcher/internal/logging"
	"github.com/pkg/browser"
)

// Starter starts a prepared command without waiting for it
type Starter func(cmd *exec.Cmd) error

// StartDetached starts cmd with no stdio and reaps it in the background
func StartDetached(cmd *exec.Cmd) error {
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}

	// Reap the child; its exit status is ignored
	go func() { _ = cmd.Wait() }()
	return nil
}

// WebTorrent drives the webtorrent CLI
type WebTorrent struct {
	bin        string
	playerFlag string
	start      Starter
	log        *slog.Logger
}

// NewWebTorrent creates a launcher for the webtorrent binary at bin.
// playerFlag selects the media player for streaming, e.g. "--vlc".
func NewWebTorrent(bin, playerFlag string, log *slog.Logger) *WebTorrent {
	if bin == "" {
		bin = "webtorrent"
	}
	if playerFlag == "" {
		playerFlag = "--vlc"
	}
	log = logging.OrDiscard(log)
	return &WebTorrent{
		bin:        bin,
		playerFlag: playerFlag,
		start:      StartDetached,
		log:        log,
	}
}

// WithStarter replaces how commands are started (tests)
func (w *WebTorrent) WithStarter(s Starter) *WebTorrent {
	w.start = s
	return w
}

// StreamArgs returns the argument list for streaming into a player
func (w *WebTorrent) StreamArgs(magnetURI, outDir string) []string {
	return []string{magnetURI, "--quiet", w.playerFlag, "--out", outDir}
}

// DownloadArgs returns the argument list for a plain download
func (w *WebTorrent) DownloadArgs(magnetURI, outDir string) []string {
	return []string{"download", magnetURI, "--quiet", "--out", outDir}
}

// Stream starts playback of magnetURI. Failures are logged, not returned.
func (w *WebTorrent) Stream(ctx context.Context, magnetURI, outDir string) {
	w.log.Info("starting movie stream", "dir", outDir)
	w.run(w.StreamArgs(magnetURI, outDir), outDir, "stream")
}

// Download starts a background download of magnetURI into outDir.
// Failures are logged, not returned.
func (w *WebTorrent) Download(ctx context.Context, magnetURI, outDir string) {
	w.log.Info("starting movie download", "dir", outDir)
	w.run(w.DownloadArgs(magnetURI, outDir), outDir, "download")
}

func (w *WebTorrent) run(args []string, outDir, what string) {
	EnsureDir(outDir, w.log)

	// Not bound to a context: the client must outlive the request
	cmd := exec.Command(w.bin, args...)
	if err := w.start(cmd); err != nil {
		w.log.Warn("failed to start "+what, "bin", w.bin, "error", err)
		return
	}
	w.log.Info(what+" started", "bin", w.bin)
}

// EnsureDir creates dir if missing. Errors are logged and swallowed.
func EnsureDir(dir string, log *slog.Logger) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warn("failed to create download directory", "dir", dir, "error", err)
	}
}

// Desktop opens URLs and writes the clipboard
type Desktop struct {
	open  func(url string) error
	write func(text string) error
	log   *slog.Logger
}

// NewDesktop returns the system URL opener and clipboard
func NewDesktop(log *slog.Logger) *Desktop {
	// xdg-open output must not reach the TUI
	browser.Stdout = nil
	browser.Stderr = nil

	return newDesktop(browser.OpenURL, clipboard.WriteAll, log)
}

func newDesktop(open, write func(string) error, log *slog.Logger) *Desktop {
	return &Desktop{open: open, write: write, log: logging.OrDiscard(log)}
}

// OpenURL opens url in the default handler
func (d *Desktop) OpenURL(url string) {
	if err := d.open(url); err != nil {
		d.log.Warn("failed to open url", "url", url, "error", err)
	}
}

// CopyText places text on the clipboard
func (d *Desktop) CopyText(text string) {
	if err := d.write(text); err != nil {
		d.log.Warn("failed to copy to clipboard", "error", err)
	}
}
