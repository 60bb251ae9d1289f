package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listMoviesOK = `{
  "status": "ok",
  "status_message": "Query was successful",
  "data": {
    "movie_count": 1,
    "limit": 5,
    "page_number": 1,
    "movies": [
      {
        "id": 1556,
        "imdb_code": "tt0133093",
        "title": "The Matrix",
        "slug": "the-matrix-1999",
        "year": 1999,
        "rating": 8.7,
        "runtime": 136,
        "genres": ["Action", "Sci-Fi"],
        "summary": "A hacker learns the truth.",
        "torrents": [
          {"quality": "720p", "type": "bluray", "hash": "AAA", "size": "700.36 MB", "size_bytes": 734375526, "seeds": 100, "peers": 5},
          {"quality": "1080p", "type": "bluray", "hash": "BBB", "size": "1.40 GB", "size_bytes": 1503238554, "seeds": 250, "peers": 12}
        ]
      }
    ]
  }
}`

func TestAPIScraperSearch(t *testing.T) {
	var gotQuery map[string]string
	var gotAccept string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list_movies.json", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"query_term": q.Get("query_term"),
			"limit":      q.Get("limit"),
			"order_by":   q.Get("order_by"),
			"sort_by":    q.Get("sort_by"),
		}
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(listMoviesOK))
	}))
	defer srv.Close()

	s := NewAPIScraper(srv.URL+"/", SearchParams{Limit: 5, OrderBy: "rating", SortBy: "desc"}, nil)
	movies, err := s.Search(context.Background(), "the matrix")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"query_term": "the matrix",
		"limit":      "5",
		"order_by":   "rating",
		"sort_by":    "desc",
	}, gotQuery)
	assert.Equal(t, "application/json", gotAccept)

	require.Len(t, movies, 1)
	m := movies[0]
	assert.Equal(t, 1556, m.ID)
	assert.Equal(t, "The Matrix", m.Title)
	assert.Equal(t, 1999, m.Year)
	assert.InDelta(t, 8.7, m.Rating, 0.001)
	assert.Equal(t, 136, m.Runtime)
	assert.Equal(t, []string{"Action", "Sci-Fi"}, m.Genres)
	assert.Equal(t, "tt0133093", m.IMDBCode)
	assert.Equal(t, "the-matrix-1999", m.Slug)
	require.Len(t, m.Torrents, 2)
	assert.Equal(t, Torrent{Quality: "1080p", Type: "bluray", Hash: "BBB", Size: "1.40 GB", SizeBytes: 1503238554, Seeds: 250, Peers: 12}, m.Torrents[1])
}

func TestAPIScraperEmptyEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no movies key", `{"status":"ok","data":{"movie_count":0,"limit":5}}`},
		{"no data", `{"status":"ok"}`},
		{"status error", `{"status":"error","status_message":"bad","data":{"movies":[{"title":"x"}]}}`},
		{"no status", `{"data":{"movies":[{"title":"x"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			movies, err := NewAPIScraper(srv.URL, SearchParams{Limit: 5}, nil).Search(context.Background(), "xx")
			assert.NoError(t, err)
			assert.Empty(t, movies)
		})
	}
}

func TestAPIScraperErrors(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewAPIScraper(srv.URL, SearchParams{}, nil).Search(context.Background(), "xx")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 502")
	})

	t.Run("invalid json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		}))
		defer srv.Close()

		_, err := NewAPIScraper(srv.URL, SearchParams{}, nil).Search(context.Background(), "xx")
		assert.Error(t, err)
	})

	t.Run("transport", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewAPIScraper(url, SearchParams{}, nil).Search(context.Background(), "xx")
		assert.Error(t, err)
	})
}

func TestURLHelpers(t *testing.T) {
	assert.Equal(t, "https://yts.mx/browse-movies/the+matrix", BrowseURL("the matrix"))
	assert.Equal(t, "https://yts.mx/movies/the-matrix-1999", MoviePageURL("the-matrix-1999"))
	assert.Equal(t, "https://www.imdb.com/title/tt0133093", IMDBURL("tt0133093"))
	assert.Equal(t, "the-matrix-1999", slugFromURL("https://yts.mx/movies/the-matrix-1999/"))
}

func TestAPIScraperAcceptsAny2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		_, _ = w.Write([]byte(listMoviesOK))
	}))
	defer srv.Close()

	movies, err := NewAPIScraper(srv.URL, SearchParams{}, nil).Search(context.Background(), "matrix")
	require.NoError(t, err)
	assert.Len(t, movies, 1)
}
