package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/litescript/ls-movie-launcher/internal/plugin"
	"github.com/litescript/ls-movie-launcher/internal/theme"
	"github.com/litescript/ls-movie-launcher/internal/version"
	"github.com/litescript/ls-movie-launcher/internal/vpn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoHandler struct{}

func (echoHandler) DefaultTrigger() string      { return "movie " }
func (echoHandler) Synopsis(string) string      { return "Movie Search: movie <movie title>" }
func (echoHandler) SupportsFuzzyMatching() bool { return false }
func (echoHandler) Finalize()                   {}

func (echoHandler) HandleTriggerQuery(ctx context.Context, q plugin.Query) {
	q.Add(plugin.Item{
		ID:   "movie_1",
		Text: "⭐⭐⭐ " + q.String(),
		Actions: []plugin.Action{
			{ID: "stream_720p", Label: "🎥 Stream 720p", Command: plugin.Stream("magnet:?a", "/m")},
			{ID: "copy_info", Label: "📋 Copy Movie Info", Command: plugin.CopyText("info")},
		},
	})
}

type recorder struct {
	calls []string
}

func (r *recorder) Stream(ctx context.Context, uri, dir string)   { r.calls = append(r.calls, "stream "+uri) }
func (r *recorder) Download(ctx context.Context, uri, dir string) { r.calls = append(r.calls, "download "+uri) }
func (r *recorder) OpenURL(url string)                            { r.calls = append(r.calls, "open "+url) }
func (r *recorder) CopyText(text string)                          { r.calls = append(r.calls, "copy "+text) }

type fakeVPN struct {
	connectErr error
	status     vpn.Status
}

func (v *fakeVPN) Check(ctx context.Context) vpn.Status { return v.status }
func (v *fakeVPN) Connect(ctx context.Context) error    { return v.connectErr }

type fakeUpdater struct {
	info version.UpdateInfo
}

func (u fakeUpdater) Check(ctx context.Context) version.UpdateInfo { return u.info }

func newTestModel(t *testing.T, input string) (Model, *recorder) {
	t.Helper()
	reg := plugin.NewRegistry()
	reg.Register(echoHandler{})
	rec := &recorder{}

	m := NewModel(Deps{
		Registry:   reg,
		Dispatcher: plugin.NewDispatcher(rec, rec, rec, nil),
		Theme:      theme.NewFor(t.TempDir(), nil),
		Input:      input,
	})
	return m, rec
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestRunQueryRoutesToHandler(t *testing.T) {
	m, _ := newTestModel(t, "movie heat")

	msg := m.runQuery(m.seq, m.input.Value())()
	res, ok := msg.(resultsMsg)
	require.True(t, ok)
	require.Len(t, res.items, 1)
	assert.Equal(t, "⭐⭐⭐ heat", res.items[0].Text)
}

func TestRunQueryWithoutTriggerOffersHints(t *testing.T) {
	m, _ := newTestModel(t, "")

	res := m.runQuery(0, "mov")().(resultsMsg)
	require.Len(t, res.items, 1)
	assert.Equal(t, "trigger:movie ", res.items[0].ID)
	assert.Equal(t, "Movie Search: movie <movie title>", res.items[0].Subtext)

	m, _ = update(t, m, res)
	next, cmd := m.activate()
	assert.Equal(t, "movie ", next.(Model).input.Value())
	require.NotNil(t, cmd)

	res = cmd().(resultsMsg)
	require.Len(t, res.items, 1)
	assert.Equal(t, "⭐⭐⭐ ", res.items[0].Text)
}

func TestTypingBumpsSequence(t *testing.T) {
	m, _ := newTestModel(t, "movie ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, "movie x", m.input.Value())
	assert.Equal(t, 1, m.seq)
	assert.NotNil(t, cmd)

	// a debounce tick from before the keystroke is ignored
	m2, _ := update(t, m, queryMsg{seq: 0})
	assert.False(t, m2.searching)

	m3, cmd := update(t, m, queryMsg{seq: 1})
	assert.True(t, m3.searching)
	assert.NotNil(t, cmd)
}

func TestStaleResultsDropped(t *testing.T) {
	m, _ := newTestModel(t, "movie ")
	m.seq = 3

	m, _ = update(t, m, resultsMsg{seq: 2, items: []plugin.Item{{ID: "old"}}})
	assert.Empty(t, m.items)

	m, _ = update(t, m, resultsMsg{seq: 3, items: []plugin.Item{{ID: "new"}}})
	require.Len(t, m.items, 1)
	assert.Equal(t, "new", m.items[0].ID)
}

func TestEnterRunsSelectedAction(t *testing.T) {
	m, rec := newTestModel(t, "movie heat")
	m, _ = update(t, m, m.runQuery(m.seq, m.input.Value())())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.actionCursor)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	done := cmd()
	assert.Equal(t, []string{"copy info"}, rec.calls)

	m, _ = update(t, m, done)
	assert.Equal(t, "Started: 📋 Copy Movie Info", m.status)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 0, m.actionCursor)
}

func TestVPNConnectFlow(t *testing.T) {
	m, _ := newTestModel(t, "movie ")
	v := &fakeVPN{status: vpn.Status{Connected: true, Relay: "se-got-wg-001"}}
	m.deps.VPN = v

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlV})
	assert.True(t, m.vpnConnecting)

	m, cmd := update(t, m, vpnConnectMsg{})
	assert.False(t, m.vpnConnecting)
	require.NotNil(t, cmd)

	m, _ = update(t, m, vpnStatusMsg{status: v.status})
	m, _ = update(t, m, vpnStatusMsg{status: v.status})
	assert.Equal(t, "VPN: se-got-wg-001", m.status)

	m, _ = update(t, m, vpnConnectMsg{err: errors.New("timeout")})
	assert.Equal(t, "VPN connection failed: timeout", m.status)
}

func TestUpdateCheckStatus(t *testing.T) {
	m, _ := newTestModel(t, "movie ")
	m.deps.Updater = fakeUpdater{info: version.UpdateInfo{CurrentVersion: "2.0.0", LatestVersion: "2.1.0", UpdateAvailable: true}}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	assert.Contains(t, m.status, "Update available: v2.0.0 -> v2.1.0")
}

func TestViewShowsItemsAndActions(t *testing.T) {
	m, _ := newTestModel(t, "movie heat")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, m.runQuery(m.seq, m.input.Value())())

	out := m.View()
	assert.Contains(t, out, "heat")
	assert.Contains(t, out, "Stream 720p")
	assert.Contains(t, out, "[esc]Quit")
}

func TestWindow(t *testing.T) {
	s, e := window(3, 0, 10)
	assert.Equal(t, []int{0, 3}, []int{s, e})

	s, e = window(20, 15, 5)
	assert.Equal(t, []int{13, 18}, []int{s, e})

	s, e = window(20, 19, 5)
	assert.Equal(t, []int{15, 20}, []int{s, e})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "", truncate("abc", 0))
}
