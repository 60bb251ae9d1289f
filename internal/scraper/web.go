package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/litescript/ls-movie-launcher/internal/logging"
	"github.com/litescript/ls-movie-launcher/internal/magnet"
	"golang.org/x/time/rate"
)

// pageInterval spaces out page fetches; a search loads one page per movie
const pageInterval = 250 * time.Millisecond

// WebScraper reads the YTS website when the JSON API is unreachable.
// The browse page gives titles, years, ratings and genres; each movie
// page is then fetched for its torrents.
type WebScraper struct {
	siteURL string
	params  SearchParams
	client  *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewWebScraper creates an HTML scraper for the site at siteURL
func NewWebScraper(siteURL string, params SearchParams, log *slog.Logger) *WebScraper {
	return &WebScraper{
		siteURL: strings.TrimRight(siteURL, "/"),
		params:  params,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(pageInterval), 2),
		log:     logging.OrDiscard(log),
	}
}

// Name returns the source name
func (s *WebScraper) Name() string {
	return "YTS Web"
}

// Search scrapes the browse page, then each movie page up to the limit
func (s *WebScraper) Search(ctx context.Context, query string) ([]Movie, error) {
	order := s.params.OrderBy
	if order == "" {
		order = "rating"
	}
	// /browse-movies/{term}/{quality}/{genre}/{rating}/{order}/{year}/{language}
	// The site has no direction segment; every order is descending.
	browseURL := fmt.Sprintf("%s/browse-movies/%s/all/all/0/%s/0/all",
		s.siteURL, url.PathEscape(query), url.PathEscape(order))

	doc, err := s.fetch(ctx, browseURL)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	type card struct {
		movie Movie
		link  string
	}

	var cards []card
	doc.Find("div.browse-movie-wrap").EachWithBreak(func(i int, wrap *goquery.Selection) bool {
		if s.params.Limit > 0 && len(cards) >= s.params.Limit {
			return false
		}

		link, _ := wrap.Find("a.browse-movie-link").Attr("href")
		title := strings.TrimSpace(wrap.Find("a.browse-movie-title").Text())
		if link == "" || title == "" {
			return true
		}

		m := Movie{
			Title:  title,
			Slug:   slugFromURL(link),
			Year:   atoi(wrap.Find("div.browse-movie-year").Text()),
			Rating: parseRating(wrap.Find("h4.rating").Text()),
		}
		wrap.Find("figcaption h4").Not(".rating").Each(func(_ int, g *goquery.Selection) {
			if genre := strings.TrimSpace(g.Text()); genre != "" {
				m.Genres = append(m.Genres, genre)
			}
		})

		cards = append(cards, card{movie: m, link: s.absolute(link)})
		return true
	})

	movies := make([]Movie, 0, len(cards))
	for _, c := range cards {
		m := c.movie
		if err := s.fillDetails(ctx, c.link, &m); err != nil {
			// Cancelled or timed out; the remaining pages were never loaded
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("search interrupted: %w", ctxErr)
			}
			// Keep the movie; it just won't offer stream/download actions
			s.log.Warn("failed to load movie page", "url", c.link, "error", err)
		}
		movies = append(movies, m)
	}

	return movies, nil
}

// Close drops idle keep-alive connections
func (s *WebScraper) Close() {
	s.client.CloseIdleConnections()
}

// fillDetails reads id, IMDb code, synopsis, runtime and torrents from a movie page
func (s *WebScraper) fillDetails(ctx context.Context, pageURL string, m *Movie) error {
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return err
	}

	if id, ok := doc.Find("#movie-info").Attr("data-movie-id"); ok {
		m.ID = atoi(id)
	}

	doc.Find("a[href*='imdb.com/title/']").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if code := imdbCode.FindString(href); code != "" {
			m.IMDBCode = code
			return false
		}
		return true
	})

	m.Summary = strings.TrimSpace(doc.Find("#synopsis p").First().Text())
	m.Runtime = parseRuntime(doc.Find("#movie-tech-specs").Text())

	doc.Find("div.modal-torrent").Each(func(_ int, t *goquery.Selection) {
		href, _ := t.Find("a.magnet-download").Attr("href")
		mag, err := magnet.Parse(href)
		if err != nil {
			return
		}

		tor := Torrent{
			Quality: strings.TrimSpace(t.Find(".modal-quality span").First().Text()),
			Hash:    mag.Hash,
		}
		specs := t.Find("p.quality-size")
		if specs.Length() > 1 {
			tor.Type = strings.ToLower(strings.TrimSpace(specs.First().Text()))
		}
		if specs.Length() > 0 {
			tor.Size = strings.TrimSpace(specs.Last().Text())
		}
		m.Torrents = append(m.Torrents, tor)
	})

	return nil
}

func (s *WebScraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to load page: HTTP %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func (s *WebScraper) absolute(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return s.siteURL + "/" + strings.TrimLeft(link, "/")
}

var (
	imdbCode    = regexp.MustCompile(`tt\d+`)
	hoursRegex  = regexp.MustCompile(`(\d+)\s*hr`)
	minuteRegex = regexp.MustCompile(`(\d+)\s*min`)
)

// parseRating reads "7.4 / 10"
func parseRating(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	r, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return r
}

// parseRuntime reads "2 hr 16 min" into minutes
func parseRuntime(text string) int {
	total := 0
	if m := hoursRegex.FindStringSubmatch(text); m != nil {
		total += atoi(m[1]) * 60
	}
	if m := minuteRegex.FindStringSubmatch(text); m != nil {
		total += atoi(m[1])
	}
	return total
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
