// Package plugin defines the contract between a launcher host and its
// query handlers. A handler is registered under a trigger string; the host
// routes matching input to it and renders the items it adds. Actions carry
// plain Command values that the host executes through a Dispatcher.
package plugin

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Handler is implemented by query plugins
type Handler interface {
	// DefaultTrigger is the prefix that activates the handler, e.g. "movie "
	DefaultTrigger() string

	// Synopsis is the usage hint shown while the query is empty
	Synopsis(query string) string

	// SupportsFuzzyMatching reports whether the host may fuzzy-match items
	SupportsFuzzyMatching() bool

	// HandleTriggerQuery adds result items to q
	HandleTriggerQuery(ctx context.Context, q Query)

	// Finalize releases resources when the handler is unloaded
	Finalize()
}

// Query is one user query as seen by a handler
type Query interface {
	// String returns the text after the trigger
	String() string

	// Add appends a result item
	Add(item Item)
}

// Item is one result row
type Item struct {
	ID      string
	Text    string
	Subtext string
	Icons   []string
	Actions []Action
}

// Action is a user-invocable entry on an item
type Action struct {
	ID      string
	Label   string
	Command Command
}

// CommandKind identifies what a Command does
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandStream
	CommandDownload
	CommandOpenURL
	CommandCopyText
)

// String returns the kind name
func (k CommandKind) String() string {
	switch k {
	case CommandStream:
		return "stream"
	case CommandDownload:
		return "download"
	case CommandOpenURL:
		return "open_url"
	case CommandCopyText:
		return "copy_text"
	default:
		return "none"
	}
}

// Command is the value an action carries. Arg is the magnet URI for
// stream/download, the URL for open_url and the text for copy_text.
// Dir is the output directory for stream/download.
type Command struct {
	Kind CommandKind
	Arg  string
	Dir  string
}

// Stream returns a command that plays magnetURI from dir
func Stream(magnetURI, dir string) Command {
	return Command{Kind: CommandStream, Arg: magnetURI, Dir: dir}
}

// Download returns a command that downloads magnetURI into dir
func Download(magnetURI, dir string) Command {
	return Command{Kind: CommandDownload, Arg: magnetURI, Dir: dir}
}

// OpenURL returns a command that opens url
func OpenURL(url string) Command {
	return Command{Kind: CommandOpenURL, Arg: url}
}

// CopyText returns a command that copies text to the clipboard
func CopyText(text string) Command {
	return Command{Kind: CommandCopyText, Arg: text}
}

// ResultQuery is a Query that collects items in memory.
// It is safe for concurrent Add calls.
type ResultQuery struct {
	text  string
	mu    sync.Mutex
	items []Item
}

// NewQuery creates a query for text (without the trigger)
func NewQuery(text string) *ResultQuery {
	return &ResultQuery{text: text}
}

// String returns the query text
func (q *ResultQuery) String() string {
	return q.text
}

// Add appends an item
func (q *ResultQuery) Add(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// Items returns a copy of the collected items
func (q *ResultQuery) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Item(nil), q.items...)
}

// Registry routes input to handlers by trigger
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h under its default trigger, replacing any previous one
func (r *Registry) Register(h Handler) {
	r.handlers[h.DefaultTrigger()] = h
}

// Match returns the handler whose trigger prefixes input and the remaining
// query text. The longest trigger wins.
func (r *Registry) Match(input string) (Handler, string, bool) {
	var best string
	for trigger := range r.handlers {
		if strings.HasPrefix(input, trigger) && len(trigger) > len(best) {
			best = trigger
		}
	}
	if best == "" {
		return nil, "", false
	}
	return r.handlers[best], strings.TrimPrefix(input, best), true
}

// Triggers returns registered triggers sorted alphabetically
func (r *Registry) Triggers() []string {
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Finalize calls Finalize on every handler
func (r *Registry) Finalize() {
	for _, h := range r.handlers {
		h.Finalize()
	}
}
