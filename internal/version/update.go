package version

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// GitHubAPI is the default API root
const GitHubAPI = "https://api.github.com"

// UpdateInfo contains information about available updates.
type UpdateInfo struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
	Error           error
}

// Checker asks GitHub for the newest release
type Checker struct {
	apiURL  string
	repo    string
	current string
	client  *http.Client
}

// NewChecker creates a checker for Repo at Version
func NewChecker() *Checker {
	return NewCheckerFor(GitHubAPI, Repo, Version)
}

// NewCheckerFor creates a checker against apiURL
func NewCheckerFor(apiURL, repo, current string) *Checker {
	return &Checker{
		apiURL:  strings.TrimRight(apiURL, "/"),
		repo:    repo,
		current: current,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Check returns the latest published version. Releases are tried first,
// then tags for repos that never cut a release.
func (c *Checker) Check(ctx context.Context) UpdateInfo {
	info := UpdateInfo{CurrentVersion: c.current}

	body, status, err := c.get(ctx, "/repos/"+c.repo+"/releases/latest")
	if err != nil {
		info.Error = err
		return info
	}

	var tag string
	if status == http.StatusOK {
		tag = gjson.GetBytes(body, "tag_name").String()
	} else {
		body, status, err = c.get(ctx, "/repos/"+c.repo+"/tags")
		if err != nil {
			info.Error = err
			return info
		}
		if status != http.StatusOK {
			info.Error = fmt.Errorf("failed to check for updates: status %d", status)
			return info
		}
		// Tags are returned newest first
		tag = gjson.GetBytes(body, "0.name").String()
	}

	if tag == "" {
		info.LatestVersion = info.CurrentVersion
		return info
	}

	info.LatestVersion = normalizeVersion(tag)
	info.UpdateAvailable = isNewerVersion(info.LatestVersion, info.CurrentVersion)
	return info
}

func (c *Checker) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check for updates: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read update response: %w", err)
	}
	if resp.StatusCode == http.StatusOK && !gjson.ValidBytes(body) {
		return nil, 0, fmt.Errorf("failed to parse update response")
	}
	return body, resp.StatusCode, nil
}

// normalizeVersion strips the "v" prefix if present.
func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// isNewerVersion compares dotted numeric versions. Pre-release suffixes
// ("2.1.0-rc1") are ignored.
func isNewerVersion(latest, current string) bool {
	l, c := versionParts(latest), versionParts(current)

	for i := 0; i < len(l) && i < len(c); i++ {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return len(l) > len(c)
}

func versionParts(v string) []int {
	if i := strings.IndexAny(v, "-+"); i != -1 {
		v = v[:i]
	}
	fields := strings.Split(v, ".")
	parts := make([]int, len(fields))
	for i, f := range fields {
		parts[i], _ = strconv.Atoi(f)
	}
	return parts
}

// InstallCommand returns the command to update the application.
func InstallCommand() string {
	return "go install github.com/" + Repo + "/cmd/movie-launcher@latest"
}
