package shorten

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jxskiss/base62"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/snip-cli/snip/internal/source"
	"github.com/snip-cli/snip/internal/storage"
	"github.com/snip-cli/snip/internal/utils"
)

// SlugsKey is the storage key of the slug -> URL mapping.
const SlugsKey = "snip_slugs"

// RedirectParam is the query parameter carrying a local slug.
const RedirectParam = "go"

// Slug generation styles.
const (
	SlugRandom    = "random"
	SlugComposite = "composite"
)

const (
	slugAlphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	defaultSlugLen   = 7
	defaultMaxSlug   = 64
	compositeRandLen = 3
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// SlugStore persists slug mappings under SlugsKey. Last write wins.
type SlugStore struct {
	kv storage.Store
}

func NewSlugStore(kv storage.Store) *SlugStore {
	return &SlugStore{kv: kv}
}

// decodeSlugs parses stored mappings, dropping entries that are not a
// valid slug pointing at an http(s) URL.
func decodeSlugs(raw string) map[string]string {
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	var stored map[string]string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		utils.Debug("slugs: discarding unreadable mapping: %v", err)
		return out
	}
	for slug, target := range stored {
		if slugPattern.MatchString(slug) && source.IsHTTPURL(target) {
			out[slug] = target
		}
	}
	return out
}

// Put stores slug -> longURL, replacing any previous mapping.
func (s *SlugStore) Put(slug, longURL string) error {
	return s.kv.Update(SlugsKey, func(current string, _ bool) (string, error) {
		m := decodeSlugs(current)
		m[slug] = longURL
		data, err := json.Marshal(m)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
}

// Lookup returns the URL mapped to slug.
func (s *SlugStore) Lookup(slug string) (string, bool, error) {
	m, err := s.All()
	if err != nil {
		return "", false, err
	}
	target, ok := m[slug]
	return target, ok, nil
}

// All returns every valid mapping.
func (s *SlugStore) All() (map[string]string, error) {
	raw, _, err := s.kv.Get(SlugsKey)
	if err != nil {
		return nil, err
	}
	return decodeSlugs(raw), nil
}

// LocalConfig configures the local provider.
type LocalConfig struct {
	BaseURL   string
	Style     string
	Length    int
	MaxLength int
}

// LocalProvider maps slugs to URLs without any network access. Short
// URLs point back at BaseURL with ?go=<slug>.
type LocalProvider struct {
	slugs     *SlugStore
	base      *url.URL
	style     string
	length    int
	maxLength int
	now       func() time.Time

	// last composite time component handed out; strictly increasing
	mu       sync.Mutex
	lastTick int64
}

func NewLocalProvider(slugs *SlugStore, cfg LocalConfig) (*LocalProvider, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid local base URL %q", cfg.BaseURL)
	}
	base.RawQuery = ""
	base.Fragment = ""
	base.RawFragment = ""
	if base.Path == "" {
		base.Path = "/"
	}

	p := &LocalProvider{
		slugs:     slugs,
		base:      base,
		style:     cfg.Style,
		length:    cfg.Length,
		maxLength: cfg.MaxLength,
		now:       time.Now,
	}
	if p.style == "" {
		p.style = SlugRandom
	}
	if p.maxLength <= 0 {
		p.maxLength = defaultMaxSlug
	}
	if p.length <= 0 || p.length > p.maxLength {
		p.length = min(defaultSlugLen, p.maxLength)
	}
	return p, nil
}

func (p *LocalProvider) ID() ProviderID {
	return Local
}

// Slugs exposes the underlying mapping store.
func (p *LocalProvider) Slugs() *SlugStore {
	return p.slugs
}

// ValidateSlug checks the allowed alphabet and length.
func (p *LocalProvider) ValidateSlug(slug string) error {
	if slug == "" || len(slug) > p.maxLength || !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q (use 1-%d of A-Z a-z 0-9 _ -)", ErrInvalidSlug, slug, p.maxLength)
	}
	return nil
}

// GenerateSlug returns a fresh slug. No collision check is made.
func (p *LocalProvider) GenerateSlug() (string, error) {
	switch p.style {
	case SlugComposite:
		suffix, err := gonanoid.Generate(slugAlphabet, compositeRandLen)
		if err != nil {
			return "", err
		}
		return string(base62.FormatInt(p.nextTick())) + suffix, nil
	default:
		return gonanoid.Generate(slugAlphabet, p.length)
	}
}

// nextTick returns the current Unix millisecond, bumped past the previous
// value so two composite slugs from this process never share a prefix.
func (p *LocalProvider) nextTick() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	tick := p.now().UnixMilli()
	if tick <= p.lastTick {
		tick = p.lastTick + 1
	}
	p.lastTick = tick
	return tick
}

// ShortURL builds the redirect URL for slug.
func (p *LocalProvider) ShortURL(slug string) string {
	u := *p.base
	u.RawQuery = url.Values{RedirectParam: {slug}}.Encode()
	return u.String()
}

func (p *LocalProvider) Shorten(ctx context.Context, longURL string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	slug := strings.TrimSpace(opts.Slug)
	if slug != "" {
		if err := p.ValidateSlug(slug); err != nil {
			return "", err
		}
	} else {
		var err error
		if slug, err = p.GenerateSlug(); err != nil {
			return "", fmt.Errorf("generate slug: %w", err)
		}
	}

	if err := p.slugs.Put(slug, longURL); err != nil {
		return "", fmt.Errorf("save slug %q: %w", slug, err)
	}
	utils.Debug("local: %s -> %s", slug, longURL)
	return p.ShortURL(slug), nil
}

// ResolveState is the outcome of checking a page URL for a redirect slug.
type ResolveState int

const (
	NoParam ResolveState = iota
	Hit
	Miss
)

func (s ResolveState) String() string {
	switch s {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	default:
		return "none"
	}
}

// Resolution is terminal: a Hit carries the redirect target, a Miss the
// slug that was not found.
type Resolution struct {
	State  ResolveState
	Slug   string
	Target string
}

// Resolve inspects pageURL for ?go=<slug>.
func (p *LocalProvider) Resolve(pageURL string) Resolution {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Resolution{State: NoParam}
	}
	slug := u.Query().Get(RedirectParam)
	if slug == "" {
		return Resolution{State: NoParam}
	}
	return p.ResolveSlug(slug)
}

// ResolveSlug looks up slug directly.
func (p *LocalProvider) ResolveSlug(slug string) Resolution {
	target, ok, err := p.slugs.Lookup(slug)
	if err != nil {
		utils.Debug("local: lookup %q failed: %v", slug, err)
		return Resolution{State: Miss, Slug: slug}
	}
	if !ok {
		return Resolution{State: Miss, Slug: slug}
	}
	return Resolution{State: Hit, Slug: slug, Target: target}
}
