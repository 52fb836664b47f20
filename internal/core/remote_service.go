package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/snip-cli/snip/internal/history"
	"github.com/snip-cli/snip/internal/shorten"
)

// RemoteError is an error reported by a `snip serve` instance.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

// RemoteShortenService implements ShortenService against a running server.
type RemoteShortenService struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewRemoteShortenService creates a new remote service instance.
func NewRemoteShortenService(baseURL string, token string) *RemoteShortenService {
	return &RemoteShortenService{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *RemoteShortenService) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+s.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		// Limit error body read to 1KB
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := string(bytes.TrimSpace(bodyBytes))
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &RemoteError{Status: resp.StatusCode, Message: msg}
	}

	return resp, nil
}

func (s *RemoteShortenService) Shorten(ctx context.Context, raw string, provider shorten.ProviderID, slug string) (Result, error) {
	req := map[string]string{
		"url":      raw,
		"provider": string(provider),
		"slug":     slug,
	}
	resp, err := s.doRequest(ctx, http.MethodPost, "/api/shorten", req)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (s *RemoteShortenService) History() ([]history.Entry, error) {
	resp, err := s.doRequest(context.Background(), http.MethodGet, "/api/history", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var entries []history.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *RemoteShortenService) RemoveHistory(index int) error {
	resp, err := s.doRequest(context.Background(), http.MethodDelete, "/api/history/"+strconv.Itoa(index), nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (s *RemoteShortenService) ClearHistory() error {
	resp, err := s.doRequest(context.Background(), http.MethodDelete, "/api/history", nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (s *RemoteShortenService) ExportCSV() ([]byte, error) {
	resp, err := s.doRequest(context.Background(), http.MethodGet, "/api/history.csv", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return io.ReadAll(resp.Body)
}

func (s *RemoteShortenService) Resolve(slug string) (shorten.Resolution, error) {
	resp, err := s.doRequest(context.Background(), http.MethodGet, "/api/resolve/"+url.PathEscape(slug), nil)
	if err != nil {
		return shorten.Resolution{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		State  string `json:"state"`
		Slug   string `json:"slug"`
		Target string `json:"target"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return shorten.Resolution{}, err
	}
	res := shorten.Resolution{State: shorten.Miss, Slug: body.Slug, Target: body.Target}
	if body.State == shorten.Hit.String() {
		res.State = shorten.Hit
	}
	return res, nil
}
