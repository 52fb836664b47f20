package core

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/source"
	"github.com/snip-cli/snip/internal/storage"
	"github.com/snip-cli/snip/internal/testutil"
)

// brokenStore fails every write.
type brokenStore struct{ storage.MemoryStore }

func (b *brokenStore) Set(string, string) error { return storage.ErrUnavailable }
func (b *brokenStore) Update(string, storage.UpdateFunc) error {
	return storage.ErrUnavailable
}

func newTestService(t *testing.T, srv *testutil.ProviderServer, kv storage.Store) *LocalShortenService {
	t.Helper()
	slugs := shorten.NewSlugStore(kv)
	local, err := shorten.NewLocalProvider(slugs, shorten.LocalConfig{BaseURL: "http://127.0.0.1:1700/"})
	require.NoError(t, err)

	d := shorten.NewDispatcher(shorten.Config{
		Client:    srv.Client(),
		Endpoints: srv.Endpoints(),
		Local:     local,
	})
	return NewLocalShortenService(d, history.NewStore(kv, 200), local, nil)
}

func TestLocalService_ShortenIsGdRecordsHistory(t *testing.T) {
	srv := testutil.NewProviderServer(t, "https://is.gd/xyz", http.StatusOK)
	svc := newTestService(t, srv, storage.NewMemoryStore())

	res, err := svc.Shorten(context.Background(), "example.com/page", shorten.IsGd, "")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Calls())
	assert.Equal(t, "https://example.com/page", res.LongURL)
	assert.Equal(t, "https://is.gd/xyz", res.ShortURL)
	assert.Empty(t, res.Warning)

	entries, err := svc.History()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.com/page", entries[0].LongURL)
	assert.Equal(t, "https://is.gd/xyz", entries[0].ShortURL)
	assert.Equal(t, shorten.IsGd, entries[0].Provider)
}

func TestLocalService_InvalidInputSkipsNetwork(t *testing.T) {
	srv := testutil.NewProviderServer(t, "https://is.gd/xyz", http.StatusOK)
	svc := newTestService(t, srv, storage.NewMemoryStore())

	for _, raw := range []string{"", "   ", "ftp://example.com/file", "javascript:alert(1)"} {
		_, err := svc.Shorten(context.Background(), raw, shorten.IsGd, "")
		var ne *source.NormalizeError
		assert.ErrorAs(t, err, &ne, "input %q", raw)
	}
	assert.Equal(t, 0, srv.Calls())

	entries, err := svc.History()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalService_ProviderFailureSkipsHistory(t *testing.T) {
	srv := testutil.NewProviderServer(t, "Error: invalid url", http.StatusOK)
	svc := newTestService(t, srv, storage.NewMemoryStore())

	_, err := svc.Shorten(context.Background(), "https://example.com", shorten.IsGd, "")
	var serr *shorten.ShortenError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, shorten.IsGd, serr.Provider)
	assert.ErrorIs(t, err, shorten.ErrMalformedResponse)

	entries, err := svc.History()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalService_HistoryFailureIsWarning(t *testing.T) {
	srv := testutil.NewProviderServer(t, "https://tinyurl.com/abc", http.StatusOK)
	svc := newTestService(t, srv, &brokenStore{})

	res, err := svc.Shorten(context.Background(), "https://example.com", shorten.TinyURL, "")
	require.NoError(t, err)
	assert.Equal(t, "https://tinyurl.com/abc", res.ShortURL)
	assert.NotEmpty(t, res.Warning)
}

func TestLocalService_LocalSlugAndResolve(t *testing.T) {
	srv := testutil.NewProviderServer(t, "", http.StatusOK)
	svc := newTestService(t, srv, storage.NewMemoryStore())

	res, err := svc.Shorten(context.Background(), "https://example.com/x", shorten.Local, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 0, srv.Calls())
	assert.Equal(t, "http://127.0.0.1:1700/?go=abc123", res.ShortURL)

	r, err := svc.Resolve("abc123")
	require.NoError(t, err)
	assert.Equal(t, shorten.Hit, r.State)
	assert.Equal(t, "https://example.com/x", r.Target)

	r, err = svc.Resolve("unknown")
	require.NoError(t, err)
	assert.Equal(t, shorten.Miss, r.State)
	assert.Empty(t, r.Target)
}

func TestLocalService_InvalidSlug(t *testing.T) {
	srv := testutil.NewProviderServer(t, "", http.StatusOK)
	svc := newTestService(t, srv, storage.NewMemoryStore())

	_, err := svc.Shorten(context.Background(), "https://example.com/x", shorten.Local, "bad slug!")
	assert.ErrorIs(t, err, shorten.ErrInvalidSlug)
}

func TestLocalService_PathResolvesAgainstBase(t *testing.T) {
	srv := testutil.NewProviderServer(t, "https://is.gd/doc", http.StatusOK)
	svc := newTestService(t, srv, storage.NewMemoryStore())
	svc.base, _ = url.Parse("https://docs.example.com/guide/")

	res, err := svc.Shorten(context.Background(), "/docs", shorten.IsGd, "")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com/docs", res.LongURL)
}

func TestLocalService_ResolveWithoutLocal(t *testing.T) {
	svc := &LocalShortenService{}
	_, err := svc.Resolve("abc")
	assert.True(t, errors.Is(err, ErrLocalDisabled))
}

func TestLocalService_RemoveClearExport(t *testing.T) {
	srv := testutil.NewProviderServer(t, "https://is.gd/xyz", http.StatusOK)
	svc := newTestService(t, srv, storage.NewMemoryStore())

	data, err := svc.ExportCSV()
	require.NoError(t, err)
	assert.Nil(t, data)

	for _, u := range []string{"https://a.example", "https://b.example", "https://c.example"} {
		_, err := svc.Shorten(context.Background(), u, shorten.IsGd, "")
		require.NoError(t, err)
	}

	require.NoError(t, svc.RemoveHistory(0))
	entries, err := svc.History()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://b.example/", entries[0].LongURL)

	data, err = svc.ExportCSV()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"https://a.example/"`)

	require.NoError(t, svc.ClearHistory())
	entries, err = svc.History()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
