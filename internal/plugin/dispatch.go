package plugin

import (
	"context"
	"log/slog"

	"github.com/litescript/ls-movie-launcher/internal/logging"
)

// Streamer plays a magnet in a media player
type Streamer interface {
	Stream(ctx context.Context, magnetURI, outDir string)
}

// Downloader fetches a magnet into a directory
type Downloader interface {
	Download(ctx context.Context, magnetURI, outDir string)
}

// Desktop opens links and writes the clipboard
type Desktop interface {
	OpenURL(url string)
	CopyText(text string)
}

// Dispatcher executes action commands. Every backend is fire-and-forget,
// so Run never reports failure to the caller.
type Dispatcher struct {
	streamer   Streamer
	downloader Downloader
	desktop    Desktop
	log        *slog.Logger
}

// NewDispatcher wires the backends used by Run
func NewDispatcher(s Streamer, d Downloader, desk Desktop, log *slog.Logger) *Dispatcher {
	log = logging.OrDiscard(log)
	return &Dispatcher{streamer: s, downloader: d, desktop: desk, log: log}
}

// Run executes cmd
func (d *Dispatcher) Run(ctx context.Context, cmd Command) {
	d.log.Debug("running action", "kind", cmd.Kind.String())

	switch cmd.Kind {
	case CommandStream:
		d.streamer.Stream(ctx, cmd.Arg, cmd.Dir)
	case CommandDownload:
		d.downloader.Download(ctx, cmd.Arg, cmd.Dir)
	case CommandOpenURL:
		d.desktop.OpenURL(cmd.Arg)
	case CommandCopyText:
		d.desktop.CopyText(cmd.Arg)
	default:
		d.log.Warn("ignoring unknown action", "kind", int(cmd.Kind))
	}
}
