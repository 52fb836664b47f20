package cmd

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vfaronov/httpheader"
	"go.uber.org/zap"

	"github.com/snip-cli/snip/internal/core"
	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/source"
	"github.com/snip-cli/snip/internal/utils"
)

// maxProxyBody bounds request and response bodies relayed by /proxy.
const maxProxyBody = 64 << 10

// APIHandler handles HTTP API requests
type APIHandler struct {
	service core.ShortenService
	local   *shorten.LocalProvider
	port    int

	// client and upstream serve /proxy/{provider}
	client   *http.Client
	upstream func(shorten.ProviderID) string
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(service core.ShortenService, local *shorten.LocalProvider, port int) *APIHandler {
	return &APIHandler{
		service: service,
		local:   local,
		port:    port,
		client:  &http.Client{Timeout: 30 * time.Second},
		upstream: func(id shorten.ProviderID) string {
			if ep, ok := providerEndpoints[id]; ok {
				return ep
			}
			return shorten.DefaultEndpoint(id)
		},
	}
}

// ShortenRequest is the body of POST /api/shorten
type ShortenRequest struct {
	URL      string `json:"url"`
	Provider string `json:"provider,omitempty"`
	Slug     string `json:"slug,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Debug("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Health check endpoint (Public)
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"port":   h.port,
	})
}

// Redirect resolves /?go=<slug> (Public)
func (h *APIHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	httpheader.SetCacheControl(w.Header(), httpheader.CacheDirectives{NoStore: true})
	httpheader.SetContentType(w.Header(), "text/plain", map[string]string{"charset": "utf-8"})

	if h.local == nil {
		_, _ = io.WriteString(w, "snip server\n")
		return
	}

	res := h.local.Resolve(r.URL.String())
	switch res.State {
	case shorten.Hit:
		utils.Debug("Redirecting %s -> %s", res.Slug, res.Target)
		http.Redirect(w, r, res.Target, http.StatusFound)
	case shorten.Miss:
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprintf(w, "No link found for %q.\n", res.Slug)
	default:
		_, _ = fmt.Fprintf(w, "snip server (version %s)\n", Version)
	}
}

// Shorten endpoint (Protected)
func (h *APIHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req ShortenRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxProxyBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	provider := shorten.TinyURL
	if req.Provider != "" {
		p, err := shorten.ParseProviderID(req.Provider)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		provider = p
	}

	utils.Debug("Received shorten request: URL=%s, Provider=%s", req.URL, provider)

	res, err := h.service.Shorten(r.Context(), req.URL, provider, req.Slug)
	if err != nil {
		writeError(w, statusFor(err), describeError(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var ne *source.NormalizeError
	switch {
	case errors.As(err, &ne),
		errors.Is(err, shorten.ErrInvalidSlug),
		errors.Is(err, shorten.ErrUnknownProvider):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// History endpoint (Protected)
func (h *APIHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.History()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve history: "+err.Error())
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ExportCSV endpoint (Protected)
func (h *APIHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportCSV()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export history: "+err.Error())
		return
	}
	if len(data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpheader.SetContentType(w.Header(), "text/csv", map[string]string{"charset": "utf-8"})
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", history.ExportFileName))
	_, _ = w.Write(data)
}

// RemoveHistory endpoint (Protected)
func (h *APIHandler) RemoveHistory(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	if err := h.service.RemoveHistory(index); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearHistory endpoint (Protected)
func (h *APIHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearHistory(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resolve endpoint (Protected)
func (h *APIHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Resolve(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"state":  res.State.String(),
		"slug":   res.Slug,
		"target": res.Target,
	})
}

// Proxy forwards a provider call unchanged (Public). It lets clients that
// cannot reach cleanuri, shrtco or is.gd directly use this server instead.
func (h *APIHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	id, err := shorten.ParseProviderID(chi.URLParam(r, "provider"))
	if err != nil || !shorten.Proxyable(id) {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}

	target := h.upstream(id)
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, io.LimitReader(r.Body, maxProxyBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	req.Header.Set("User-Agent", r.Header.Get("User-Agent"))

	resp, err := h.client.Do(req)
	if err != nil {
		utils.Debug("Proxy %s failed: %v", id, err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		w.Header().Set("Retry-After", ra)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, io.LimitReader(resp.Body, maxProxyBody))
}

// newRouter wires the public and protected routes.
func newRouter(h *APIHandler, token string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Use(requestLogger(log))

	r.Get("/health", h.Health)
	r.Get("/", h.Redirect)
	r.Get("/proxy/{provider}", h.Proxy)
	r.Post("/proxy/{provider}", h.Proxy)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(token))
		r.Post("/shorten", h.Shorten)
		r.Get("/history", h.History)
		r.Get("/history.csv", h.ExportCSV)
		r.Delete("/history", h.ClearHistory)
		r.Delete("/history/{index}", h.RemoveHistory)
		r.Get("/resolve/{slug}", h.Resolve)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	return r
}

// startHTTPServer serves on ln until ctx is cancelled
func startHTTPServer(ctx context.Context, ln net.Listener, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// corsMiddleware opens the API to browser clients. /proxy is left out so
// web pages cannot spend the user's provider quota through this server.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/proxy/") {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if ok && len(provided) == len(token) && subtle.ConstantTimeCompare([]byte(provided), []byte(token)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusUnauthorized, "Unauthorized")
		})
	}
}

type (
	// responseData holds the status and size of a response for logging
	responseData struct {
		status int
		size   int
	}

	loggingResponseWriter struct {
		http.ResponseWriter
		responseData *responseData
	}
)

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.responseData.status = statusCode
}

// requestLogger logs method, URL, status, size and duration of each request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			data := &responseData{status: http.StatusOK}
			lw := &loggingResponseWriter{ResponseWriter: w, responseData: data}

			next.ServeHTTP(lw, r)

			log.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("url", r.URL.String()),
				zap.Duration("duration", time.Since(start)),
				zap.Int("status", data.status),
				zap.Int("size", data.size),
			)
		})
	}
}
