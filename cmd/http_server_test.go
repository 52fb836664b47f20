package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/snip-cli/snip/internal/config"
	"github.com/snip-cli/snip/internal/core"
	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/shorten"
)

const testToken = "secret-token"

func newTestRouter(t *testing.T) (http.Handler, *APIHandler, *appState) {
	t.Helper()
	app, err := newAppState(config.DefaultSettings(), filepath.Join(t.TempDir(), "snip.db"))
	require.NoError(t, err)
	t.Cleanup(app.Close)

	h := NewAPIHandler(app.service, app.local, 1700)
	return newRouter(h, testToken, zap.NewNop()), h, app
}

func do(t *testing.T, router http.Handler, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","port":1700}`, rec.Body.String())
}

func TestAPIRequiresToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/history", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodOptions, "/api/history", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestShortenAndHistoryRoutes(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/history.csv", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/shorten", `{"url":"https://example.com/x","provider":"local","slug":"abc123"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res core.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "http://127.0.0.1:1700/?go=abc123", res.ShortURL)
	assert.Equal(t, shorten.Local, res.Provider)

	rec = do(t, router, http.MethodGet, "/api/history", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.com/x", entries[0].LongURL)

	rec = do(t, router, http.MethodGet, "/api/history.csv", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), history.ExportFileName)

	rec = do(t, router, http.MethodGet, "/api/resolve/abc123", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"hit","slug":"abc123","target":"https://example.com/x"}`, rec.Body.String())

	rec = do(t, router, http.MethodDelete, "/api/history/0", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodDelete, "/api/history/zero", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, router, http.MethodDelete, "/api/history", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestShortenRouteErrors(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"bad url", `{"url":"ftp://x"}`, http.StatusBadRequest},
		{"bad provider", `{"url":"https://example.com","provider":"bitly"}`, http.StatusBadRequest},
		{"bad slug", `{"url":"https://example.com","provider":"local","slug":"no spaces"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/shorten", tt.body, true)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestRedirect(t *testing.T) {
	router, _, app := newTestRouter(t)
	require.NoError(t, app.local.Slugs().Put("abc123", "https://example.com/x"))

	rec := do(t, router, http.MethodGet, "/?go=abc123", "", false)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/x", rec.Header().Get("Location"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = do(t, router, http.MethodGet, "/?go=unknown", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unknown"`)
	assert.Empty(t, rec.Header().Get("Location"))

	rec = do(t, router, http.MethodGet, "/", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "snip server")
}

func TestProxyForwardsToProvider(t *testing.T) {
	router, h, _ := newTestRouter(t)

	var gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "https://is.gd/xyz")
	}))
	defer upstream.Close()
	h.upstream = func(shorten.ProviderID) string { return upstream.URL }

	rec := do(t, router, http.MethodGet, "/proxy/isgd?format=simple&url=https%3A%2F%2Fexample.com", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://is.gd/xyz", rec.Body.String())
	assert.Equal(t, "format=simple&url=https%3A%2F%2Fexample.com", gotQuery)

	rec = do(t, router, http.MethodGet, "/proxy/tinyurl", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProxySendsNoCORSHeaders(t *testing.T) {
	router, h, _ := newTestRouter(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "https://is.gd/xyz")
	}))
	defer upstream.Close()
	h.upstream = func(shorten.ProviderID) string { return upstream.URL }

	rec := do(t, router, http.MethodGet, "/proxy/isgd?url=https%3A%2F%2Fexample.com", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, router, http.MethodOptions, "/proxy/isgd", "", false)
	assert.NotEqual(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, router, http.MethodGet, "/health", "", false)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/nope", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
