// Package scraper provides the movie index sources used by the launcher.
// It defines the Scraper interface and the Movie/Torrent model returned by
// the YTS JSON API client (APIScraper) and the HTML fallback (WebScraper).
package scraper

import (
	"context"
	"net/url"
	"strings"
)

// Site locations
const (
	DefaultSiteURL = "https://yts.mx"
	DefaultAPIURL  = DefaultSiteURL + "/api/v2"
)

// UserAgent identifies the launcher to the index
const UserAgent = "movie-launcher/2.0"

// Movie represents one search result
type Movie struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Year     int       `json:"year"`
	Rating   float64   `json:"rating"`
	Runtime  int       `json:"runtime"` // minutes
	Genres   []string  `json:"genres"`
	Summary  string    `json:"summary"`
	Slug     string    `json:"slug"`
	IMDBCode string    `json:"imdb_code"`
	Torrents []Torrent `json:"torrents"`
}

// Torrent is one release of a movie
type Torrent struct {
	Quality   string `json:"quality"`
	Type      string `json:"type"`
	Hash      string `json:"hash"`
	Size      string `json:"size"`
	SizeBytes uint64 `json:"size_bytes"`
	Seeds     int    `json:"seeds"`
	Peers     int    `json:"peers"`
}

// SearchParams are the list options sent with every query
type SearchParams struct {
	Limit   int
	OrderBy string
	SortBy  string
}

// Scraper interface for movie index sources
type Scraper interface {
	// Name returns the source name
	Name() string

	// Search queries for movies matching a free-text term
	Search(ctx context.Context, query string) ([]Movie, error)
}

// MoviePageURL returns the index page for a movie slug
func MoviePageURL(slug string) string {
	return DefaultSiteURL + "/movies/" + slug
}

// BrowseURL returns the website search page for a term
func BrowseURL(term string) string {
	return DefaultSiteURL + "/browse-movies/" + url.QueryEscape(term)
}

// IMDBURL returns the IMDb title page for a code like tt0133093
func IMDBURL(code string) string {
	return "https://www.imdb.com/title/" + code
}

// slugFromURL returns the last path segment of a movie link
func slugFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := strings.TrimRight(u.Path, "/")
	if i := strings.LastIndex(p, "/"); i != -1 {
		return p[i+1:]
	}
	return p
}
