package core

import (
	"context"

	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/shorten"
)

// ShortenService is the backend the TUI and CLI drive. The local
// implementation runs in-process; the remote one talks to `snip serve`.
type ShortenService interface {
	// Shorten normalizes raw, shortens it with provider and records the
	// result in history.
	Shorten(ctx context.Context, raw string, provider shorten.ProviderID, slug string) (Result, error)

	// History returns the log newest first.
	History() ([]history.Entry, error)

	// RemoveHistory deletes the entry at index. Out of range is a no-op.
	RemoveHistory(index int) error

	// ClearHistory empties the log.
	ClearHistory() error

	// ExportCSV returns the log as CSV, or nil when it is empty.
	ExportCSV() ([]byte, error)

	// Resolve looks up a local slug.
	Resolve(slug string) (shorten.Resolution, error)
}

// Result is a successful shortening. Warning is set when the short URL
// was produced but could not be recorded in history.
type Result struct {
	LongURL  string             `json:"long_url"`
	ShortURL string             `json:"short_url"`
	Provider shorten.ProviderID `json:"provider"`
	Warning  string             `json:"warning,omitempty"`
}
