// Package vpn connects a VPN through its command-line client before
// searches and reports connection status for the status bar.
// The defaults target the Mullvad CLI; any client with a blocking
// connect command and a textual status command works.
package vpn

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/litescript/ls-movie-launcher/internal/logging"
)

// ErrNoCommand is returned when no command is configured
var ErrNoCommand = errors.New("no VPN command configured")

// Status represents VPN connection state
type Status struct {
	Connected bool
	Relay     string
	Location  string
	Error     error
}

// Runner executes a command and returns its combined output
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Connector runs the VPN CLI
type Connector struct {
	connectCmd []string
	statusCmd  []string
	timeout    time.Duration
	run        Runner
	log        *slog.Logger
}

// NewConnector creates a connector. timeout bounds the connect command.
func NewConnector(connectCmd, statusCmd []string, timeout time.Duration, log *slog.Logger) *Connector {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	log = logging.OrDiscard(log)
	return &Connector{
		connectCmd: connectCmd,
		statusCmd:  statusCmd,
		timeout:    timeout,
		run:        execRunner,
		log:        log,
	}
}

// WithRunner replaces command execution (tests)
func (c *Connector) WithRunner(r Runner) *Connector {
	c.run = r
	return c
}

// Connect runs the connect command and waits up to the timeout
func (c *Connector) Connect(ctx context.Context) error {
	if len(c.connectCmd) == 0 {
		return ErrNoCommand
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.run(ctx, c.connectCmd[0], c.connectCmd[1:]...)
	return err
}

// EnsureConnected is the best-effort hook called before a search.
// Failures are logged and never block the caller beyond the timeout.
func (c *Connector) EnsureConnected(ctx context.Context) {
	c.log.Info("connecting to VPN", "command", strings.Join(c.connectCmd, " "))
	if err := c.Connect(ctx); err != nil {
		c.log.Warn("failed to connect VPN", "error", err)
	}
}

// Check runs the status command and parses output
func (c *Connector) Check(ctx context.Context) Status {
	if len(c.statusCmd) == 0 {
		return Status{Error: ErrNoCommand}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := c.run(ctx, c.statusCmd[0], c.statusCmd[1:]...)
	if err != nil {
		return Status{Connected: false, Error: err}
	}

	return parseStatus(string(output))
}

// parseStatus reads mullvad status output, e.g.
//
//	Connected to se-got-wg-001 in Gothenburg, Sweden
//	Connected
//	    Relay:    se-got-wg-001
//	    Visible location: Sweden, Gothenburg. IPv4: 185.213.154.68
//	Disconnected
func parseStatus(output string) Status {
	s := Status{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "disconnected"), strings.HasPrefix(lower, "connecting"):
			s.Connected = false
		case strings.HasPrefix(lower, "connected"):
			s.Connected = true
			// Older one-line format
			if rest, ok := strings.CutPrefix(line[len("connected"):], " to "); ok {
				relay, loc, _ := strings.Cut(rest, " in ")
				s.Relay = strings.TrimSpace(relay)
				s.Location = strings.TrimSpace(loc)
			}
		case strings.HasPrefix(lower, "relay:"):
			s.Relay = strings.TrimSpace(line[len("relay:"):])
		case strings.HasPrefix(lower, "visible location:"):
			loc := strings.TrimSpace(line[len("visible location:"):])
			if i := strings.Index(loc, ". IPv"); i != -1 {
				loc = loc[:i]
			}
			s.Location = loc
		}
	}

	return s
}

// StatusString returns a short status string for display
func (s Status) StatusString() string {
	if s.Connected {
		if s.Location != "" {
			return "VPN: " + s.Location
		}
		if s.Relay != "" {
			return "VPN: " + s.Relay
		}
		return "VPN: Connected"
	}
	return "VPN: Disconnected"
}
