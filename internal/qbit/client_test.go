package qbit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQbit struct {
	mu       sync.Mutex
	logins   int
	added    []map[string]string
	expireAt int // reject the Nth add with 403 (1-based), 0 = never
	adds     int
}

func (f *fakeQbit) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.logins++
		f.mu.Unlock()
		if r.Form.Get("username") != "admin" || r.Form.Get("password") != "secret" {
			_, _ = w.Write([]byte("Fails."))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte("Ok."))
	})
	mux.HandleFunc("/api/v2/torrents/add", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.adds++
		if f.adds == f.expireAt {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if c, err := r.Cookie("SID"); err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f.added = append(f.added, map[string]string{
			"urls":     r.FormValue("urls"),
			"savepath": r.FormValue("savepath"),
			"category": r.FormValue("category"),
			"paused":   r.FormValue("paused"),
		})
		_, _ = w.Write([]byte("Ok."))
	})
	mux.HandleFunc("/api/v2/app/version", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("v4.6.2"))
	})
	return mux
}

func TestAddMagnet(t *testing.T) {
	fake := &fakeQbit{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewClientURL(srv.URL, "admin", "secret")
	err := c.AddMagnet(context.Background(), "magnet:?xt=urn:btih:AAA", AddOptions{SavePath: "/films", Category: "movies"})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.logins)
	require.Len(t, fake.added, 1)
	assert.Equal(t, map[string]string{
		"urls":     "magnet:?xt=urn:btih:AAA",
		"savepath": "/films",
		"category": "movies",
		"paused":   "",
	}, fake.added[0])
}

func TestAddMagnetRelogsOnForbidden(t *testing.T) {
	fake := &fakeQbit{expireAt: 2}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewClientURL(srv.URL, "admin", "secret")
	require.NoError(t, c.AddMagnet(context.Background(), "magnet:?xt=urn:btih:A", AddOptions{}))
	require.NoError(t, c.AddMagnet(context.Background(), "magnet:?xt=urn:btih:B", AddOptions{}))

	assert.Equal(t, 2, fake.logins)
	require.Len(t, fake.added, 2)
	assert.Equal(t, "magnet:?xt=urn:btih:B", fake.added[1]["urls"])
}

func TestLoginFailure(t *testing.T) {
	fake := &fakeQbit{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewClientURL(srv.URL, "admin", "wrong")
	err := c.AddMagnet(context.Background(), "magnet:?xt=urn:btih:A", AddOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
	assert.Empty(t, fake.added)
}

func TestVersion(t *testing.T) {
	fake := &fakeQbit{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	v, err := NewClientURL(srv.URL, "admin", "secret").Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v4.6.2", v)
}

func TestBackendSwallowsErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	b := NewBackend(NewClientURL(url, "admin", "secret"), AddOptions{Category: "movies"}, nil)
	assert.NotPanics(t, func() {
		b.Download(context.Background(), "magnet:?xt=urn:btih:A", "/films")
	})
}

func TestBackendDownloadAppliesDefaults(t *testing.T) {
	fake := &fakeQbit{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	b := NewBackend(NewClientURL(srv.URL, "admin", "secret"), AddOptions{Category: "movies", Paused: true}, nil)
	b.Download(context.Background(), "magnet:?xt=urn:btih:AAA", "/films/The Matrix (1999)")

	require.Len(t, fake.added, 1)
	assert.Equal(t, map[string]string{
		"urls":     "magnet:?xt=urn:btih:AAA",
		"savepath": "/films/The Matrix (1999)",
		"category": "movies",
		"paused":   "true",
	}, fake.added[0])
}

func TestBackendPing(t *testing.T) {
	fake := &fakeQbit{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	v, err := NewBackend(NewClientURL(srv.URL, "admin", "secret"), AddOptions{}, nil).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v4.6.2", v)

	srv.Close()
	_, err = NewBackend(NewClientURL(srv.URL, "admin", "secret"), AddOptions{}, nil).Ping(context.Background())
	assert.Error(t, err)
}
