package shorten

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/vfaronov/httpheader"
)

var defaultEndpoints = map[ProviderID]string{
	TinyURL:  "https://tinyurl.com/api-create.php",
	CleanURI: "https://cleanuri.com/api/v1/shorten",
	Shrtco:   "https://api.shrtco.de/v2/shorten",
	IsGd:     "https://is.gd/create.php",
}

// DefaultEndpoint returns the public API endpoint of a remote provider.
func DefaultEndpoint(id ProviderID) string {
	return defaultEndpoints[id]
}

// Proxyable reports whether requests for id may be routed through a proxy.
func Proxyable(id ProviderID) bool {
	return id == CleanURI || id == Shrtco || id == IsGd
}

// ProxyEndpoint returns <proxyBase>/<provider>.
func ProxyEndpoint(proxyBase string, id ProviderID) string {
	return strings.TrimRight(proxyBase, "/") + "/" + string(id)
}

var plainShortURL = regexp.MustCompile(`^https?://\S+$`)

func adapterFor(id ProviderID) (providerAdapter, bool) {
	switch id {
	case TinyURL:
		return providerAdapter{buildRequest: buildTinyURLRequest, parseResponse: parsePlainResponse}, true
	case CleanURI:
		return providerAdapter{buildRequest: buildCleanURIRequest, parseResponse: parseCleanURIResponse}, true
	case Shrtco:
		return providerAdapter{buildRequest: buildShrtcoRequest, parseResponse: parseShrtcoResponse}, true
	case IsGd:
		return providerAdapter{buildRequest: buildIsGdRequest, parseResponse: parsePlainResponse}, true
	}
	return providerAdapter{}, false
}

func getWithQuery(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func buildTinyURLRequest(ctx context.Context, endpoint, longURL string) (*http.Request, error) {
	return getWithQuery(ctx, endpoint, url.Values{"url": {longURL}})
}

func buildIsGdRequest(ctx context.Context, endpoint, longURL string) (*http.Request, error) {
	return getWithQuery(ctx, endpoint, url.Values{"format": {"simple"}, "url": {longURL}})
}

func buildShrtcoRequest(ctx context.Context, endpoint, longURL string) (*http.Request, error) {
	return getWithQuery(ctx, endpoint, url.Values{"url": {longURL}})
}

func buildCleanURIRequest(ctx context.Context, endpoint, longURL string) (*http.Request, error) {
	form := url.Values{"url": {longURL}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpheader.SetContentType(req.Header, "application/x-www-form-urlencoded", nil)
	return req, nil
}

// parsePlainResponse handles providers that answer with the short URL as
// the whole body.
func parsePlainResponse(body []byte) (string, error) {
	short := strings.TrimSpace(string(body))
	if !plainShortURL.MatchString(short) {
		return "", malformed("unexpected body %q", truncateBody(short))
	}
	return short, nil
}

func parseCleanURIResponse(body []byte) (string, error) {
	var payload struct {
		ResultURL string `json:"result_url"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", malformed("invalid JSON: %v", err)
	}
	if payload.Error != "" {
		return "", malformed("provider error: %s", payload.Error)
	}
	if !plainShortURL.MatchString(payload.ResultURL) {
		return "", malformed("missing result_url")
	}
	return payload.ResultURL, nil
}

func parseShrtcoResponse(body []byte) (string, error) {
	var payload struct {
		OK     bool   `json:"ok"`
		Error  string `json:"error"`
		Result struct {
			FullShortLink string `json:"full_short_link"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", malformed("invalid JSON: %v", err)
	}
	if !payload.OK {
		if payload.Error != "" {
			return "", malformed("provider error: %s", payload.Error)
		}
		return "", malformed("ok is false")
	}
	if !plainShortURL.MatchString(payload.Result.FullShortLink) {
		return "", malformed("missing result.full_short_link")
	}
	return payload.Result.FullShortLink, nil
}

func truncateBody(s string) string {
	const max = 80
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
