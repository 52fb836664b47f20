// Package shorten turns long URLs into short ones, either through a
// remote shortening API or through locally stored slug mappings.
package shorten

import (
	"context"
	"fmt"
	"strings"
)

// ProviderID identifies a shortening backend.
type ProviderID string

const (
	TinyURL  ProviderID = "tinyurl"
	CleanURI ProviderID = "cleanuri"
	Shrtco   ProviderID = "shrtco"
	IsGd     ProviderID = "isgd"
	Local    ProviderID = "local"
)

var providerLabels = map[ProviderID]string{
	TinyURL:  "TinyURL",
	CleanURI: "CleanURI",
	Shrtco:   "shrtco.de",
	IsGd:     "is.gd",
	Local:    "Local",
}

// AllProviders returns every provider in display order.
func AllProviders() []ProviderID {
	return []ProviderID{TinyURL, CleanURI, Shrtco, IsGd, Local}
}

// ParseProviderID accepts an id ("isgd") or a display label ("is.gd"),
// case-insensitively.
func ParseProviderID(s string) (ProviderID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, id := range AllProviders() {
		if s == string(id) || s == strings.ToLower(id.Label()) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

// Label is the human readable provider name.
func (p ProviderID) Label() string {
	if l, ok := providerLabels[p]; ok {
		return l
	}
	return string(p)
}

// IsRemote reports whether the provider needs a network request.
func (p ProviderID) IsRemote() bool {
	switch p {
	case TinyURL, CleanURI, Shrtco, IsGd:
		return true
	}
	return false
}

func (p ProviderID) Valid() bool {
	_, ok := providerLabels[p]
	return ok
}

// Options carries per-request parameters. Slug is only used by the
// local provider.
type Options struct {
	Slug string
}

// Provider shortens an already normalized URL.
type Provider interface {
	ID() ProviderID
	Shorten(ctx context.Context, longURL string, opts Options) (string, error)
}
