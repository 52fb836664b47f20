package shorten

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/h2non/filetype"
	"github.com/vfaronov/httpheader"
)

// maxResponseSize caps how much of a provider response is read.
const maxResponseSize = 64 << 10

type httpProvider struct {
	id         ProviderID
	endpoint   string
	httpClient *http.Client
	userAgent  string
	version    string
	adapter    providerAdapter
}

type providerAdapter struct {
	buildRequest  func(ctx context.Context, endpoint, longURL string) (*http.Request, error)
	parseResponse func([]byte) (string, error)
}

func newHTTPProvider(id ProviderID, endpoint string, client *http.Client, adapter providerAdapter) *httpProvider {
	return &httpProvider{
		id:         id,
		endpoint:   endpoint,
		httpClient: client,
		adapter:    adapter,
	}
}

func (p *httpProvider) ID() ProviderID {
	return p.id
}

func (p *httpProvider) Shorten(ctx context.Context, longURL string, _ Options) (string, error) {
	req, err := p.adapter.buildRequest(ctx, p.endpoint, longURL)
	if err != nil {
		return "", err
	}
	p.setUserAgent(req.Header)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, RetryAfter: httpheader.RetryAfter(resp.Header)}
	}

	if isBinary(resp.Header, body) {
		return "", malformed("binary payload")
	}

	return p.adapter.parseResponse(body)
}

func (p *httpProvider) setUserAgent(h http.Header) {
	if p.userAgent != "" {
		h.Set("User-Agent", p.userAgent)
		return
	}
	version := p.version
	if version == "" {
		version = "dev"
	}
	httpheader.SetUserAgent(h, []httpheader.Product{{Name: "snip", Version: version}})
}

// isBinary reports whether a response is clearly not text.
func isBinary(h http.Header, body []byte) bool {
	mtype, _ := httpheader.ContentType(h)
	switch {
	case mtype == "application/octet-stream",
		strings.HasPrefix(mtype, "image/"),
		strings.HasPrefix(mtype, "audio/"),
		strings.HasPrefix(mtype, "video/"):
		return true
	}
	kind, err := filetype.Match(body)
	return err == nil && kind != filetype.Unknown
}
