// Package tui implements a terminal launcher host using Bubble Tea.
// Input is routed to query handlers by trigger; the selected item's
// actions run through the plugin dispatcher.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/litescript/ls-movie-launcher/internal/logging"
	"github.com/litescript/ls-movie-launcher/internal/plugin"
	"github.com/litescript/ls-movie-launcher/internal/theme"
	"github.com/litescript/ls-movie-launcher/internal/version"
	"github.com/litescript/ls-movie-launcher/internal/vpn"
)

const (
	// queryDelay is how long typing must pause before a query runs
	queryDelay = 300 * time.Millisecond

	// queryTimeout bounds one handler call
	queryTimeout = 60 * time.Second
)

// VPN is the status bar's view of the VPN client
type VPN interface {
	Check(ctx context.Context) vpn.Status
	Connect(ctx context.Context) error
}

// Updater checks for newer releases
type Updater interface {
	Check(ctx context.Context) version.UpdateInfo
}

// Deps are the services the launcher drives
type Deps struct {
	Registry   *plugin.Registry
	Dispatcher *plugin.Dispatcher
	Theme      *theme.Theme
	VPN        VPN     // optional
	Updater    Updater // optional
	Log        *slog.Logger
	Input      string // initial input, e.g. "movie "
}

// Model is the launcher state
type Model struct {
	deps Deps

	input   textinput.Model
	spinner spinner.Model

	items        []plugin.Item
	cursor       int
	actionCursor int

	// seq identifies the latest input; results of older queries are dropped
	seq       int
	searching bool

	status        string
	vpnStatus     vpn.Status
	vpnChecked    bool
	vpnConnecting bool

	width  int
	height int
}

// Messages
type queryMsg struct {
	seq int
}

type resultsMsg struct {
	seq   int
	items []plugin.Item
}

type actionDoneMsg struct {
	label string
}

type vpnStatusMsg struct {
	status vpn.Status
}

type vpnConnectMsg struct {
	err error
}

type updateCheckMsg struct {
	info version.UpdateInfo
}

// ThemeChangedMsg asks the model to redraw after a theme reload
type ThemeChangedMsg struct{}

// NewModel creates the launcher
func NewModel(deps Deps) Model {
	deps.Log = logging.OrDiscard(deps.Log)
	if deps.Theme == nil {
		deps.Theme = theme.New()
	}

	ti := textinput.New()
	ti.Prompt = "❯ "
	ti.Placeholder = "movie <title>"
	ti.CharLimit = 256
	ti.Width = 60
	ti.SetValue(deps.Input)
	ti.CursorEnd()
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		deps:    deps,
		input:   ti,
		spinner: sp,
	}
	m.applyTheme()
	return m
}

func (m *Model) applyTheme() {
	s := m.deps.Theme.Styles()
	m.input.PromptStyle = s.Prompt
	m.input.TextStyle = s.Input
	m.input.PlaceholderStyle = s.Subtext.UnsetPadding()
	m.spinner.Style = s.Prompt
}

// Init runs the first query and the initial VPN check
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.runQuery(m.seq, m.input.Value())}
	if m.deps.VPN != nil {
		cmds = append(cmds, m.checkVPNStatus())
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 6

	case spinner.TickMsg:
		if m.searching || m.vpnConnecting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case queryMsg:
		if msg.seq != m.seq {
			break
		}
		m.searching = true
		cmds = append(cmds, m.runQuery(msg.seq, m.input.Value()), m.spinner.Tick)

	case resultsMsg:
		if msg.seq != m.seq {
			m.deps.Log.Debug("dropping stale results", "seq", msg.seq, "current", m.seq)
			break
		}
		m.searching = false
		m.items = msg.items
		m.cursor = 0
		m.actionCursor = 0

	case actionDoneMsg:
		m.status = msg.label

	case vpnStatusMsg:
		m.vpnStatus = msg.status
		wasChecked := m.vpnChecked
		m.vpnChecked = true
		if wasChecked {
			m.status = m.vpnStatus.StatusString()
		}

	case vpnConnectMsg:
		m.vpnConnecting = false
		if msg.err != nil {
			m.status = fmt.Sprintf("VPN connection failed: %v", msg.err)
		} else {
			m.status = "VPN connecting... checking status"
			cmds = append(cmds, m.checkVPNStatus())
		}

	case updateCheckMsg:
		switch {
		case msg.info.Error != nil:
			m.status = fmt.Sprintf("Update check failed: %v", msg.info.Error)
		case msg.info.UpdateAvailable:
			m.status = fmt.Sprintf("Update available: v%s -> v%s (run: %s)",
				msg.info.CurrentVersion, msg.info.LatestVersion, version.InstallCommand())
		default:
			m.status = fmt.Sprintf("You're on the latest version (v%s)", msg.info.CurrentVersion)
		}

	case ThemeChangedMsg:
		m.applyTheme()
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
			m.actionCursor = 0
		}
		return m, nil

	case "down", "ctrl+n":
		if m.cursor < len(m.items)-1 {
			m.cursor++
			m.actionCursor = 0
		}
		return m, nil

	case "tab":
		if n := len(m.selectedActions()); n > 0 {
			m.actionCursor = (m.actionCursor + 1) % n
		}
		return m, nil

	case "shift+tab":
		if n := len(m.selectedActions()); n > 0 {
			m.actionCursor = (m.actionCursor + n - 1) % n
		}
		return m, nil

	case "enter":
		return m.activate()

	case "ctrl+v":
		if m.deps.VPN == nil || m.vpnConnecting {
			return m, nil
		}
		m.vpnConnecting = true
		m.status = "Connecting to VPN..."
		return m, tea.Batch(m.connectVPN(), m.spinner.Tick)

	case "ctrl+r":
		if m.deps.Updater == nil {
			return m, nil
		}
		m.status = "Checking for updates..."
		return m, m.checkForUpdate()
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == prev {
		return m, cmd
	}

	m.seq++
	seq := m.seq
	debounce := tea.Tick(queryDelay, func(time.Time) tea.Msg { return queryMsg{seq: seq} })
	return m, tea.Batch(cmd, debounce)
}

// activate runs the selected action. Trigger hints fill the input instead.
func (m Model) activate() (tea.Model, tea.Cmd) {
	item, ok := m.selectedItem()
	if !ok {
		return m, nil
	}

	if trigger, isHint := strings.CutPrefix(item.ID, hintPrefix); isHint {
		m.input.SetValue(trigger)
		m.input.CursorEnd()
		m.seq++
		return m, m.runQuery(m.seq, trigger)
	}

	actions := item.Actions
	if len(actions) == 0 {
		return m, nil
	}
	action := actions[m.actionCursor%len(actions)]
	m.status = "Running: " + action.Label
	return m, m.runAction(action)
}

func (m Model) selectedItem() (plugin.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return plugin.Item{}, false
	}
	return m.items[m.cursor], true
}

func (m Model) selectedActions() []plugin.Action {
	item, _ := m.selectedItem()
	return item.Actions
}

const hintPrefix = "trigger:"

// runQuery routes input to the matching handler. Without a match every
// registered trigger is offered as a hint.
func (m Model) runQuery(seq int, input string) tea.Cmd {
	reg := m.deps.Registry
	log := m.deps.Log

	return func() tea.Msg {
		h, rest, ok := reg.Match(input)
		if !ok {
			return resultsMsg{seq: seq, items: triggerHints(reg)}
		}

		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		start := time.Now()
		q := plugin.NewQuery(rest)
		h.HandleTriggerQuery(ctx, q)
		items := q.Items()
		log.Debug("query handled", "trigger", h.DefaultTrigger(), "query", rest, "items", len(items), "took", time.Since(start))

		return resultsMsg{seq: seq, items: items}
	}
}

func triggerHints(reg *plugin.Registry) []plugin.Item {
	var items []plugin.Item
	for _, trigger := range reg.Triggers() {
		h, _, _ := reg.Match(trigger)
		items = append(items, plugin.Item{
			ID:      hintPrefix + trigger,
			Text:    strings.TrimSpace(trigger),
			Subtext: h.Synopsis(""),
		})
	}
	return items
}

func (m Model) runAction(action plugin.Action) tea.Cmd {
	d := m.deps.Dispatcher
	return func() tea.Msg {
		d.Run(context.Background(), action.Command)
		return actionDoneMsg{label: "Started: " + action.Label}
	}
}

func (m Model) checkVPNStatus() tea.Cmd {
	v := m.deps.VPN
	return func() tea.Msg {
		return vpnStatusMsg{status: v.Check(context.Background())}
	}
}

func (m Model) connectVPN() tea.Cmd {
	v := m.deps.VPN
	return func() tea.Msg {
		return vpnConnectMsg{err: v.Connect(context.Background())}
	}
}

func (m Model) checkForUpdate() tea.Cmd {
	u := m.deps.Updater
	return func() tea.Msg {
		return updateCheckMsg{info: u.Check(context.Background())}
	}
}

// View renders the launcher
func (m Model) View() string {
	styles := m.deps.Theme.Styles()
	width := m.width
	if width == 0 {
		width = 80
	}

	var b strings.Builder

	title := gradientTitle("movie launcher", m.deps.Theme.Palette())
	b.WriteString(spread(" "+title, styles.Status.Render("v"+version.Version), width))
	b.WriteString("\n\n")

	input := m.input.View()
	if m.searching {
		input += " " + m.spinner.View()
	}
	b.WriteString(" " + input)
	b.WriteString("\n\n")

	b.WriteString(m.renderItems(styles, width))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar(styles, width))

	return b.String()
}

func (m Model) renderItems(styles theme.Styles, width int) string {
	if len(m.items) == 0 {
		return styles.Subtext.Render("No results") + "\n"
	}

	// title, subtext and a blank line per item plus the expanded actions
	rows := 8
	if m.height > 0 {
		rows = (m.height - 8 - len(m.selectedActions())) / 3
		if rows < 1 {
			rows = 1
		}
	}
	start, end := window(len(m.items), m.cursor, rows)

	var b strings.Builder
	for i := start; i < end; i++ {
		item := m.items[i]
		text := truncate(item.Text, width-4)

		if i != m.cursor {
			b.WriteString(styles.Item.Render(text) + "\n")
			if item.Subtext != "" {
				b.WriteString(styles.Subtext.Render(truncate(item.Subtext, width-6)) + "\n")
			}
			continue
		}

		b.WriteString(styles.ItemSelected.Render(text) + "\n")
		if item.Subtext != "" {
			b.WriteString(styles.Subtext.Render(truncate(item.Subtext, width-6)) + "\n")
		}
		for j, a := range item.Actions {
			if j == m.actionCursor {
				b.WriteString(styles.ActionSelected.Render("▸ "+truncate(a.Label, width-8)) + "\n")
			} else {
				b.WriteString(styles.Action.Render(truncate(a.Label, width-8)) + "\n")
			}
		}
	}
	return b.String()
}

func (m Model) renderStatusBar(styles theme.Styles, width int) string {
	var vpnStr string
	switch {
	case m.deps.VPN == nil:
	case m.vpnConnecting:
		vpnStr = m.spinner.View() + styles.Status.Render("VPN")
	case m.vpnStatus.Connected:
		vpnStr = styles.VPNUp.Render("● " + m.vpnStatus.StatusString())
	case m.vpnChecked:
		vpnStr = styles.VPNDown.Render("○ " + m.vpnStatus.StatusString())
	}

	status := styles.Status.Render(truncate(m.status, width/2))
	line1 := spread(status, vpnStr, width-1)

	keys := []string{"[enter]Run", "[tab]Action", "[↑↓]Select"}
	if m.deps.VPN != nil {
		keys = append(keys, "[ctrl+v]VPN")
	}
	if m.deps.Updater != nil {
		keys = append(keys, "[ctrl+r]Update")
	}
	keys = append(keys, "[esc]Quit")
	line2 := styles.Status.Render(strings.Join(keys, " "))

	return line1 + "\n" + line2
}
