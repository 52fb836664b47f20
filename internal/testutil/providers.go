// Package testutil holds fakes shared by package tests.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/snip-cli/snip/internal/shorten"
)

// ProviderServer stands in for every remote shortening API. Each
// provider is served under /<provider id>.
type ProviderServer struct {
	*httptest.Server

	calls atomic.Int32
	mu    sync.Mutex
	last  *http.Request
}

// NewProviderServer replies to every request with status and body.
func NewProviderServer(t testing.TB, body string, status int) *ProviderServer {
	t.Helper()
	ps := &ProviderServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.calls.Add(1)
		ps.mu.Lock()
		ps.last = r.Clone(r.Context())
		ps.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ps.Close)
	return ps
}

// Calls is the number of requests served so far.
func (ps *ProviderServer) Calls() int {
	return int(ps.calls.Load())
}

// LastPath is the path of the most recent request, or "".
func (ps *ProviderServer) LastPath() string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.last == nil {
		return ""
	}
	return ps.last.URL.Path
}

// Endpoints maps each remote provider to its path on the server.
func (ps *ProviderServer) Endpoints() map[shorten.ProviderID]string {
	out := make(map[shorten.ProviderID]string)
	for _, id := range shorten.AllProviders() {
		if id.IsRemote() {
			out[id] = ps.URL + "/" + string(id)
		}
	}
	return out
}
