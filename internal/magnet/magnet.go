// Package magnet builds and parses magnet URIs.
package magnet

import (
	"fmt"
	"net/url"
	"strings"
)

// Magnet holds the parts of a magnet link we care about
type Magnet struct {
	Hash        string
	DisplayName string
	Trackers    []string
}

// Build assembles a magnet URI from an info-hash, display name and trackers.
// Trackers are appended in the given order.
func Build(hash, displayName string, trackers []string) string {
	var b strings.Builder
	b.WriteString("magnet:?xt=urn:btih:")
	b.WriteString(hash)
	b.WriteString("&dn=")
	b.WriteString(escape(displayName))

	for _, tr := range trackers {
		b.WriteString("&tr=")
		b.WriteString(escape(tr))
	}

	return b.String()
}

// escape percent-encodes everything outside the unreserved set, with
// spaces as %20 rather than "+"
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// String renders m back into a URI
func (m Magnet) String() string {
	return Build(m.Hash, m.DisplayName, m.Trackers)
}

// Parse extracts hash, display name and trackers from a magnet link.
// The hash is returned without the urn:btih: prefix.
func Parse(link string) (Magnet, error) {
	u, err := url.Parse(link)
	if err != nil {
		return Magnet{}, fmt.Errorf("failed to parse magnet link: %w", err)
	}
	if u.Scheme != "magnet" {
		return Magnet{}, fmt.Errorf("invalid scheme for magnet: %s", u.Scheme)
	}

	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return Magnet{}, fmt.Errorf("failed to parse magnet query: %w", err)
	}

	var m Magnet
	for _, xt := range q["xt"] {
		if h, ok := strings.CutPrefix(xt, "urn:btih:"); ok {
			if m.Hash != "" && !strings.EqualFold(m.Hash, h) {
				return Magnet{}, fmt.Errorf("different hashes found: %s and %s", m.Hash, h)
			}
			m.Hash = h
		}
	}
	if m.Hash == "" {
		return Magnet{}, fmt.Errorf("no hash (xt) found in magnet link")
	}

	m.DisplayName = q.Get("dn")

	seen := make(map[string]bool)
	for _, tr := range q["tr"] {
		if seen[tr] {
			continue
		}
		seen[tr] = true
		m.Trackers = append(m.Trackers, tr)
	}

	return m, nil
}
