// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "2.0.0"

// Repo is the GitHub repository releases are published to
const Repo = "litescript/ls-movie-launcher"

// Milestones:
// 1.0.0 - launcher plugin: API search, cache, webtorrent stream/download
// 1.1.0 - auto VPN, custom trackers
// 2.0.0 - terminal launcher host, web source, qBittorrent backend
