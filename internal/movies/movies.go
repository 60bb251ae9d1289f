// Package movies implements the "movie " launcher plugin: it searches the
// movie index, caches results for five minutes and turns each movie into an
// item with stream, download and info actions.
package movies

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/litescript/ls-movie-launcher/internal/cache"
	"github.com/litescript/ls-movie-launcher/internal/config"
	"github.com/litescript/ls-movie-launcher/internal/format"
	"github.com/litescript/ls-movie-launcher/internal/logging"
	"github.com/litescript/ls-movie-launcher/internal/magnet"
	"github.com/litescript/ls-movie-launcher/internal/plex"
	"github.com/litescript/ls-movie-launcher/internal/plugin"
	"github.com/litescript/ls-movie-launcher/internal/scraper"
	"github.com/litescript/ls-movie-launcher/internal/vpn"
	"golang.org/x/sync/singleflight"
)

// Trigger activates the plugin
const Trigger = "movie "

// MinQueryLength is the shortest term that reaches the network
const MinQueryLength = 2

// searchTimeout bounds one shared index search, VPN hook included
const searchTimeout = 60 * time.Second

// LegalInfoURL is linked from the trailing notice item
const LegalInfoURL = "https://en.wikipedia.org/wiki/Legal_issues_with_BitTorrent"

// VPN is the pre-search hook
type VPN interface {
	EnsureConnected(ctx context.Context)
}

// Plugin is the movie query handler
type Plugin struct {
	cfg        config.Config
	configPath string
	source     scraper.Scraper
	vpn        VPN
	results    *cache.Cache[[]scraper.Movie]
	inflight   singleflight.Group
	log        *slog.Logger

	searchTimeout time.Duration
}

// Option configures a Plugin
type Option func(*Plugin)

// WithScraper replaces the index source
func WithScraper(s scraper.Scraper) Option {
	return func(p *Plugin) { p.source = s }
}

// WithVPN replaces the VPN hook used when auto_vpn is set
func WithVPN(v VPN) Option {
	return func(p *Plugin) { p.vpn = v }
}

// WithLogger sets the logger; the default discards everything
func WithLogger(l *slog.Logger) Option {
	return func(p *Plugin) {
		if l != nil {
			p.log = l
		}
	}
}

// WithCacheClock sets the time source of the result cache (tests)
func WithCacheClock(now func() time.Time) Option {
	return func(p *Plugin) {
		p.results = cache.New[[]scraper.Movie](cache.DefaultTTL, cache.WithClock(now))
	}
}

var _ plugin.Handler = (*Plugin)(nil)

// New creates the plugin from cfg. configPath is linked from the help item.
func New(cfg config.Config, configPath string, opts ...Option) *Plugin {
	p := &Plugin{
		cfg:        cfg,
		configPath: configPath,
		results:    cache.New[[]scraper.Movie](cache.DefaultTTL),
		log:        logging.Discard(),

		searchTimeout: searchTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	params := scraper.SearchParams{
		Limit:   cfg.SearchLimit,
		OrderBy: cfg.OrderBy,
		SortBy:  cfg.SortDirection,
	}
	if p.source == nil {
		if cfg.Source == config.SourceWeb {
			p.source = scraper.NewWebScraper(scraper.DefaultSiteURL, params, p.log)
		} else {
			p.source = scraper.NewAPIScraper(scraper.DefaultAPIURL, params, p.log)
		}
	}
	if p.vpn == nil && cfg.AutoVPN {
		p.vpn = vpn.NewConnector(
			cfg.VPN.ConnectCommand,
			cfg.VPN.StatusCommand,
			time.Duration(cfg.VPN.TimeoutSeconds)*time.Second,
			p.log,
		)
	}

	return p
}

// DefaultTrigger returns "movie "
func (p *Plugin) DefaultTrigger() string {
	return Trigger
}

// Synopsis returns the usage hint
func (p *Plugin) Synopsis(query string) string {
	return "Movie Search: movie <movie title>"
}

// SupportsFuzzyMatching is false; results come straight from the index
func (p *Plugin) SupportsFuzzyMatching() bool {
	return false
}

// Finalize releases the HTTP connections of the source
func (p *Plugin) Finalize() {
	if c, ok := p.source.(interface{ Close() }); ok {
		c.Close()
	}
}

// HandleTriggerQuery answers one query
func (p *Plugin) HandleTriggerQuery(ctx context.Context, q plugin.Query) {
	term := strings.TrimSpace(q.String())

	if term == "" {
		q.Add(p.helpItem())
		return
	}

	if utf8.RuneCountInString(term) < MinQueryLength {
		q.Add(plugin.Item{
			ID:      "movie_short",
			Text:    "Search term too short",
			Subtext: fmt.Sprintf("Please enter at least %d characters", MinQueryLength),
			Icons:   []string{"dialog-warning"},
		})
		return
	}

	key := strings.ToLower(term)
	if movies, ok := p.results.Get(key); ok {
		p.log.Debug("cache hit", "query", key)
		p.addResults(q, movies)
		return
	}

	movies, err := p.search(ctx, key, term)
	if err != nil {
		p.log.Warn("movie search failed", "query", term, "error", err)
		q.Add(plugin.Item{
			ID:      "movie_error",
			Text:    "Search failed",
			Subtext: fmt.Sprintf("Error: %s...", format.Truncate(err.Error(), 50)),
			Icons:   []string{"dialog-error"},
			Actions: []plugin.Action{{
				ID:      "search_web",
				Label:   "Open YTS website",
				Command: plugin.OpenURL(scraper.DefaultSiteURL),
			}},
		})
		return
	}

	if len(movies) == 0 {
		q.Add(plugin.Item{
			ID:      "movie_no_results",
			Text:    "No movies found",
			Subtext: fmt.Sprintf("No movies found matching '%s'", term),
			Icons:   []string{"dialog-information"},
			Actions: []plugin.Action{{
				ID:      "search_web",
				Label:   "Search on YTS website",
				Command: plugin.OpenURL(scraper.BrowseURL(term)),
			}},
		})
		return
	}

	p.addResults(q, movies)
}

// search runs one index query per key at a time; concurrent callers for
// the same key share the result. The shared search outlives any one
// caller's context and is bounded by searchTimeout instead.
func (p *Plugin) search(ctx context.Context, key, term string) ([]scraper.Movie, error) {
	ch := p.inflight.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.searchTimeout)
		defer cancel()

		if p.cfg.AutoVPN && p.vpn != nil {
			p.vpn.EnsureConnected(ctx)
		}

		movies, err := p.source.Search(ctx, term)
		if err != nil {
			return nil, err
		}

		if len(movies) > 0 {
			p.results.Put(key, movies)
		}
		p.log.Debug("search results", "source", p.source.Name(), "query", term, "movies", len(movies), "cached", p.results.Len())
		return movies, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]scraper.Movie), nil
	}
}

func (p *Plugin) helpItem() plugin.Item {
	return plugin.Item{
		ID:      "movie_help",
		Text:    "Movie Search & Stream",
		Subtext: "Enter a movie title to search for torrents",
		Icons:   []string{"xdg:video-x-generic"},
		Actions: []plugin.Action{{
			ID:      "open_config",
			Label:   "Open Configuration File",
			Command: plugin.OpenURL("file://" + p.configPath),
		}},
	}
}

func (p *Plugin) addResults(q plugin.Query, movies []scraper.Movie) {
	for _, m := range movies {
		q.Add(p.movieItem(m))
	}

	q.Add(plugin.Item{
		ID:      "legal_warning",
		Text:    "⚠️ Legal Notice",
		Subtext: "Ensure you have legal rights to access downloaded content",
		Icons:   []string{"dialog-warning"},
		Actions: []plugin.Action{{
			ID:      "legal_info",
			Label:   "Legal Information",
			Command: plugin.OpenURL(LegalInfoURL),
		}},
	})
}

func (p *Plugin) movieItem(m scraper.Movie) plugin.Item {
	title := m.Title
	if title == "" {
		title = "Unknown Title"
	}

	var actions []plugin.Action
	dir := p.outputDir(m)
	for _, g := range format.GroupByQuality(m.Torrents) {
		if g.Torrent.Hash == "" {
			continue
		}
		uri := magnet.Build(g.Torrent.Hash, title, p.cfg.Trackers())
		size := format.Size(g.Torrent)

		actions = append(actions,
			plugin.Action{
				ID:      "stream_" + g.Quality,
				Label:   fmt.Sprintf("🎥 Stream %s (%s)", g.Quality, size),
				Command: plugin.Stream(uri, dir),
			},
			plugin.Action{
				ID:      "download_" + g.Quality,
				Label:   fmt.Sprintf("📥 Download %s (%s)", g.Quality, size),
				Command: plugin.Download(uri, dir),
			},
		)
	}

	if m.IMDBCode != "" {
		actions = append(actions, plugin.Action{
			ID:      "open_imdb",
			Label:   "🌐 Open on IMDb",
			Command: plugin.OpenURL(scraper.IMDBURL(m.IMDBCode)),
		})
	}

	actions = append(actions,
		plugin.Action{
			ID:      "open_yts",
			Label:   "🌐 Open on YTS",
			Command: plugin.OpenURL(scraper.MoviePageURL(m.Slug)),
		},
		plugin.Action{
			ID:      "copy_info",
			Label:   "📋 Copy Movie Info",
			Command: plugin.CopyText(format.Info(m)),
		},
	)

	return plugin.Item{
		ID:      fmt.Sprintf("movie_%d", m.ID),
		Text:    format.Title(m),
		Subtext: format.Subtext(m),
		Icons:   []string{"video-x-generic", "applications-multimedia"},
		Actions: actions,
	}
}

func (p *Plugin) outputDir(m scraper.Movie) string {
	if !p.cfg.OrganizeDownloads {
		return p.cfg.DownloadPath
	}
	return plex.MovieDir(p.cfg.DownloadPath, plex.MovieNaming{Title: m.Title, Year: m.Year})
}
