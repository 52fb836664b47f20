package core

import (
	"context"
	"errors"
	"net/url"

	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/source"
	"github.com/snip-cli/snip/internal/utils"
)

// ErrLocalDisabled is returned by Resolve when no local provider is wired.
var ErrLocalDisabled = errors.New("local provider not configured")

// LocalShortenService implements ShortenService in-process.
type LocalShortenService struct {
	dispatcher *shorten.Dispatcher
	history    *history.Store
	local      *shorten.LocalProvider

	// base resolves path-only inputs such as "/docs"
	base *url.URL
}

func NewLocalShortenService(d *shorten.Dispatcher, h *history.Store, local *shorten.LocalProvider, base *url.URL) *LocalShortenService {
	return &LocalShortenService{dispatcher: d, history: h, local: local, base: base}
}

// Base is the URL path-only input is resolved against, or nil.
func (s *LocalShortenService) Base() *url.URL { return s.base }

func (s *LocalShortenService) Shorten(ctx context.Context, raw string, provider shorten.ProviderID, slug string) (Result, error) {
	longURL, err := source.NormalizeWithBase(raw, s.base)
	if err != nil {
		return Result{}, err
	}

	short, err := s.dispatcher.Shorten(ctx, longURL, provider, shorten.Options{Slug: slug})
	if err != nil {
		return Result{}, err
	}

	res := Result{LongURL: longURL, ShortURL: short, Provider: provider}
	if _, err := s.history.Record(longURL, short, provider); err != nil {
		utils.Debug("history: record failed: %v", err)
		res.Warning = "Short link created, but it could not be saved to history."
	}
	return res, nil
}

func (s *LocalShortenService) History() ([]history.Entry, error) {
	return s.history.List()
}

func (s *LocalShortenService) RemoveHistory(index int) error {
	return s.history.Remove(index)
}

func (s *LocalShortenService) ClearHistory() error {
	return s.history.Clear()
}

func (s *LocalShortenService) ExportCSV() ([]byte, error) {
	return s.history.ExportCSV()
}

func (s *LocalShortenService) Resolve(slug string) (shorten.Resolution, error) {
	if s.local == nil {
		return shorten.Resolution{}, ErrLocalDisabled
	}
	return s.local.ResolveSlug(slug), nil
}
