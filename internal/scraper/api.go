package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/litescript/ls-movie-launcher/internal/logging"
	"github.com/tidwall/gjson"
	"moul.io/http2curl"
)

// APIScraper queries the YTS list_movies endpoint
type APIScraper struct {
	baseURL string
	params  SearchParams
	client  *http.Client
	log     *slog.Logger
}

// NewAPIScraper creates a client for the JSON API at baseURL
func NewAPIScraper(baseURL string, params SearchParams, log *slog.Logger) *APIScraper {
	return &APIScraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		params:  params,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: logging.OrDiscard(log),
	}
}

// Name returns the source name
func (s *APIScraper) Name() string {
	return "YTS API"
}

// Search sends one GET and parses the envelope.
// A missing "ok" status or movie list means no results, not an error.
func (s *APIScraper) Search(ctx context.Context, query string) ([]Movie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL(query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	if s.log.Enabled(ctx, slog.LevelDebug) {
		if command, err := http2curl.GetCurlCommand(req); err == nil {
			s.log.Debug("search request", "curl", command.String())
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search request failed: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	movies, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}

	s.log.Debug("search finished", "query", query, "movies", len(movies))
	return movies, nil
}

// Close drops idle keep-alive connections
func (s *APIScraper) Close() {
	s.client.CloseIdleConnections()
}

func (s *APIScraper) searchURL(query string) string {
	v := url.Values{}
	v.Set("query_term", query)
	v.Set("limit", strconv.Itoa(s.params.Limit))
	v.Set("order_by", s.params.OrderBy)
	v.Set("sort_by", s.params.SortBy)
	return s.baseURL + "/list_movies.json?" + v.Encode()
}

func parseEnvelope(body []byte) ([]Movie, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to parse response: invalid JSON")
	}

	if gjson.GetBytes(body, "status").String() != "ok" {
		return nil, nil
	}

	list := gjson.GetBytes(body, "data.movies")
	if !list.IsArray() {
		return nil, nil
	}

	var movies []Movie
	if err := json.Unmarshal([]byte(list.Raw), &movies); err != nil {
		return nil, fmt.Errorf("failed to parse movies: %w", err)
	}

	return movies, nil
}
