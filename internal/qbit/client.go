// Package qbit provides a client for the qBittorrent Web API.
// The launcher uses it as an alternative download backend: magnets are
// handed to a running qBittorrent instead of a webtorrent process.
package qbit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/litescript/ls-movie-launcher/internal/logging"
)

// ErrForbidden is returned when the session cookie is rejected
var ErrForbidden = errors.New("qBittorrent rejected the session")

// Client interfaces with qBittorrent Web API
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client

	mu       sync.Mutex
	loggedIn bool
}

// AddOptions are the optional fields of torrents/add
type AddOptions struct {
	SavePath string
	Category string
	Paused   bool
}

// NewClient creates a new qBittorrent API client
func NewClient(host string, port int, username, password string) *Client {
	return NewClientURL(fmt.Sprintf("http://%s:%d", host, port), username, password)
}

// NewClientURL creates a client for a full base URL such as http://nas:8080
func NewClientURL(baseURL, username, password string) *Client {
	jar, _ := cookiejar.New(nil)

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// Login authenticates with the qBittorrent API
func (c *Client) Login(ctx context.Context) error {
	data := url.Values{}
	data.Set("username", c.username)
	data.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/auth/login", strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// qBittorrent's CSRF check wants a Referer matching the host
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to qBittorrent: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "Ok." {
		return fmt.Errorf("login failed: %s", strings.TrimSpace(string(body)))
	}

	c.mu.Lock()
	c.loggedIn = true
	c.mu.Unlock()
	return nil
}

// Version returns the qBittorrent application version
func (c *Client) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/app/version", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, req, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return strings.TrimSpace(string(body)), nil
}

// AddMagnet adds a torrent via magnet link
func (c *Client) AddMagnet(ctx context.Context, magnetURI string, opts AddOptions) error {
	build := func() (*http.Request, error) {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)

		_ = writer.WriteField("urls", magnetURI)
		if opts.SavePath != "" {
			_ = writer.WriteField("savepath", opts.SavePath)
		}
		if opts.Category != "" {
			_ = writer.WriteField("category", opts.Category)
		}
		if opts.Paused {
			_ = writer.WriteField("paused", "true")
		}
		writer.Close()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/torrents/add", &body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	}

	req, err := build()
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, req, build)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(respBody)) == "Fails." {
		return fmt.Errorf("failed to add torrent: qBittorrent refused the link")
	}

	return nil
}

// Close drops idle keep-alive connections
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// do logs in when needed and retries once with a fresh session on 403.
// rebuild recreates the request body for the retry; nil means the
// request has no body.
func (c *Client) do(ctx context.Context, req *http.Request, rebuild func() (*http.Request, error)) (*http.Response, error) {
	c.mu.Lock()
	loggedIn := c.loggedIn
	c.mu.Unlock()

	if !loggedIn {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		return nil, fmt.Errorf("qBittorrent returned HTTP %d", resp.StatusCode)
	}

	// Session expired
	if err := c.Login(ctx); err != nil {
		return nil, err
	}
	retry := req.Clone(ctx)
	if rebuild != nil {
		if retry, err = rebuild(); err != nil {
			return nil, err
		}
	}
	resp, err = c.httpClient.Do(retry)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, ErrForbidden
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("qBittorrent returned HTTP %d", resp.StatusCode)
	}
	return resp, nil
}

// Backend adapts Client to the launcher's download action
type Backend struct {
	client   *Client
	defaults AddOptions
	log      *slog.Logger
}

// NewBackend wraps client. defaults supply the category and paused state;
// the save path comes from each download.
func NewBackend(client *Client, defaults AddOptions, log *slog.Logger) *Backend {
	return &Backend{client: client, defaults: defaults, log: logging.OrDiscard(log)}
}

// Ping logs in and returns the qBittorrent version
func (b *Backend) Ping(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return b.client.Version(ctx)
}

// Download hands magnetURI to qBittorrent. Failures are logged, not returned.
func (b *Backend) Download(ctx context.Context, magnetURI, outDir string) {
	b.log.Info("adding torrent to qBittorrent", "dir", outDir)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := b.defaults
	opts.SavePath = outDir
	err := b.client.AddMagnet(ctx, magnetURI, opts)
	if err != nil {
		b.log.Warn("failed to add torrent to qBittorrent", "error", err)
		return
	}
	b.log.Info("download queued in qBittorrent")
}
