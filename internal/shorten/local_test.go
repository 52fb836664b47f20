package shorten

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snip-cli/snip/internal/storage"
)

func newTestLocal(t *testing.T, cfg LocalConfig) (*LocalProvider, *storage.MemoryStore) {
	t.Helper()
	kv := storage.NewMemoryStore()
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://127.0.0.1:1700/app?x=1#frag"
	}
	p, err := NewLocalProvider(NewSlugStore(kv), cfg)
	require.NoError(t, err)
	return p, kv
}

func TestLocal_ShortenWithSlug(t *testing.T) {
	p, _ := newTestLocal(t, LocalConfig{})

	short, err := p.Shorten(context.Background(), "https://example.com/x", Options{Slug: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1700/app?go=abc123", short)

	target, ok, err := p.Slugs().Lookup("abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/x", target)
}

func TestLocal_LastWriteWins(t *testing.T) {
	p, _ := newTestLocal(t, LocalConfig{})
	ctx := context.Background()

	_, err := p.Shorten(ctx, "https://one.example/", Options{Slug: "dup"})
	require.NoError(t, err)
	_, err = p.Shorten(ctx, "https://two.example/", Options{Slug: "dup"})
	require.NoError(t, err)

	res := p.ResolveSlug("dup")
	assert.Equal(t, Hit, res.State)
	assert.Equal(t, "https://two.example/", res.Target)
}

func TestLocal_InvalidSlug(t *testing.T) {
	p, kv := newTestLocal(t, LocalConfig{MaxLength: 8})

	for _, slug := range []string{"has space", "slash/slug", "ünï", "toolongslug", "a.b"} {
		_, err := p.Shorten(context.Background(), "https://example.com/", Options{Slug: slug})
		assert.ErrorIs(t, err, ErrInvalidSlug, slug)
	}
	_, ok, _ := kv.Get(SlugsKey)
	assert.False(t, ok, "nothing persisted for rejected slugs")

	assert.NoError(t, p.ValidateSlug("a-b_C9"))
}

func TestLocal_InvalidSlugThroughDispatcher(t *testing.T) {
	p, _ := newTestLocal(t, LocalConfig{})
	d := NewDispatcher(Config{Local: p})

	_, err := d.Shorten(context.Background(), "https://example.com/", Local, Options{Slug: "bad slug"})
	var serr *ShortenError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, Local, serr.Provider)
	assert.ErrorIs(t, err, ErrInvalidSlug)
}

func TestLocal_GeneratedSlugsDoNotCollide(t *testing.T) {
	p, _ := newTestLocal(t, LocalConfig{})

	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		slug, err := p.GenerateSlug()
		require.NoError(t, err)
		require.Len(t, slug, defaultSlugLen)
		require.NoError(t, p.ValidateSlug(slug))
		require.False(t, seen[slug], "collision on %s", slug)
		seen[slug] = true
	}
}

func TestLocal_CompositeSlugs(t *testing.T) {
	p, _ := newTestLocal(t, LocalConfig{Style: SlugComposite})

	// Real clock: most of these land in the same millisecond.
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		slug, err := p.GenerateSlug()
		require.NoError(t, err)
		require.NoError(t, p.ValidateSlug(slug))
		require.False(t, seen[slug])
		seen[slug] = true
	}
}

func TestLocal_CompositeSlugsFrozenClock(t *testing.T) {
	p, _ := newTestLocal(t, LocalConfig{Style: SlugComposite})
	frozen := time.UnixMilli(1_700_000_000_000)
	p.now = func() time.Time { return frozen }

	seen := make(map[string]bool)
	for i := 0; i < 5000; i++ {
		slug, err := p.GenerateSlug()
		require.NoError(t, err)
		require.False(t, seen[slug], "collision on %s", slug)
		seen[slug] = true
	}
}

func TestLocal_ShortenGeneratesSlug(t *testing.T) {
	p, _ := newTestLocal(t, LocalConfig{Length: 5})

	short, err := p.Shorten(context.Background(), "https://example.com/", Options{})
	require.NoError(t, err)

	u, err := url.Parse(short)
	require.NoError(t, err)
	slug := u.Query().Get(RedirectParam)
	assert.Len(t, slug, 5)
	assert.Equal(t, Hit, p.Resolve(short).State)
}

func TestLocal_Resolve(t *testing.T) {
	p, kv := newTestLocal(t, LocalConfig{})
	require.NoError(t, storage.SetJSON(kv, SlugsKey, map[string]string{"abc123": "https://example.com/x"}))

	res := p.Resolve("http://127.0.0.1:1700/?go=abc123")
	assert.Equal(t, Hit, res.State)
	assert.Equal(t, "https://example.com/x", res.Target)

	res = p.Resolve("http://127.0.0.1:1700/?go=unknown")
	assert.Equal(t, Miss, res.State)
	assert.Equal(t, "unknown", res.Slug)
	assert.Empty(t, res.Target)

	assert.Equal(t, NoParam, p.Resolve("http://127.0.0.1:1700/").State)
	assert.Equal(t, NoParam, p.Resolve("http://127.0.0.1:1700/?go=").State)
	assert.Equal(t, "hit", Hit.String())
}

func TestSlugStore_DropsInvalidStoredEntries(t *testing.T) {
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(SlugsKey, `{"ok":"https://example.com/","bad slug":"https://x.example/","js":"javascript:alert(1)"}`))

	all, err := NewSlugStore(kv).All()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ok": "https://example.com/"}, all)

	require.NoError(t, kv.Set(SlugsKey, `not json`))
	all, err = NewSlugStore(kv).All()
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, NewSlugStore(kv).Put("fresh", "https://fresh.example/"))
	raw, _, _ := kv.Get(SlugsKey)
	assert.True(t, strings.Contains(raw, "fresh"))
}

func TestNewLocalProvider_RejectsBadBase(t *testing.T) {
	_, err := NewLocalProvider(NewSlugStore(storage.NewMemoryStore()), LocalConfig{BaseURL: "not-a-url"})
	assert.Error(t, err)
}
