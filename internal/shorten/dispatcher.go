package shorten

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/snip-cli/snip/internal/utils"
)

// Config wires the dispatcher's providers.
type Config struct {
	// Client is used for every remote request. Defaults to a client
	// with Timeout.
	Client  *http.Client
	Timeout time.Duration

	// UserAgent overrides the default "snip/<Version>" product token.
	UserAgent string
	Version   string

	// ProxyURL, when set, fronts cleanuri, shrtco and isgd.
	ProxyURL string

	// Endpoints overrides provider endpoints, keyed by provider.
	Endpoints map[ProviderID]string

	Local *LocalProvider
}

// Dispatcher routes shorten requests to the selected provider.
type Dispatcher struct {
	providers map[ProviderID]Provider
}

func NewDispatcher(cfg Config) *Dispatcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	d := &Dispatcher{providers: make(map[ProviderID]Provider)}
	for _, id := range AllProviders() {
		adapter, ok := adapterFor(id)
		if !ok {
			continue
		}
		endpoint := DefaultEndpoint(id)
		if cfg.ProxyURL != "" && Proxyable(id) {
			endpoint = ProxyEndpoint(cfg.ProxyURL, id)
		}
		if override, ok := cfg.Endpoints[id]; ok {
			endpoint = override
		}
		p := newHTTPProvider(id, endpoint, client, adapter)
		p.userAgent = cfg.UserAgent
		p.version = cfg.Version
		d.providers[id] = p
	}
	if cfg.Local != nil {
		d.providers[Local] = cfg.Local
	}
	return d
}

// Register adds or replaces a provider.
func (d *Dispatcher) Register(p Provider) {
	d.providers[p.ID()] = p
}

// Providers lists the registered providers in display order.
func (d *Dispatcher) Providers() []ProviderID {
	var ids []ProviderID
	for _, id := range AllProviders() {
		if _, ok := d.providers[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Shorten performs exactly one attempt with the chosen provider.
// Every failure is a *ShortenError.
func (d *Dispatcher) Shorten(ctx context.Context, longURL string, id ProviderID, opts Options) (string, error) {
	p, ok := d.providers[id]
	if !ok {
		return "", &ShortenError{Provider: id, Err: ErrUnknownProvider}
	}

	short, err := p.Shorten(ctx, longURL, opts)
	if err != nil {
		utils.Debug("shorten: %s failed for %s: %v", id, longURL, err)
		var serr *ShortenError
		if errors.As(err, &serr) {
			return "", serr
		}
		return "", &ShortenError{Provider: id, Err: err}
	}

	utils.Debug("shorten: %s %s -> %s", id, longURL, short)
	return short, nil
}
