package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"modbridge/internal/domain"
)

const defaultTimeout = 30 * time.Second

// HTTPConfig holds settings for the HTTP gateway client
type HTTPConfig struct {
	BaseURL   string
	Timeout   time.Duration
	AuthToken string
}

// HTTPClient talks to a backend exposing the modbridge REST routes
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a gateway client for the given backend
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: backend url is empty", domain.ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("%w: backend url: %v", domain.ErrInvalidConfig, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	transport := &tokenTransport{
		base: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		token: cfg.AuthToken,
	}

	return &HTTPClient{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
	}, nil
}

type tokenTransport struct {
	base  http.RoundTripper
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(req)
}

// StatusError is returned for non-2xx backend responses
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return e.Detail
}

// Unwrap maps well-known statuses onto domain errors
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return domain.ErrValidation
	}
	return nil
}

// Ping checks that the backend is reachable
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// ListMods implements Gateway
func (c *HTTPClient) ListMods(ctx context.Context) ([]domain.Mod, error) {
	var out modList
	if err := c.do(ctx, http.MethodGet, "/mods", nil, &out); err != nil {
		return nil, err
	}
	return out.Mods, nil
}

// AddMod registers a mod with the backend. Not part of Gateway: installing is a backend concern.
func (c *HTTPClient) AddMod(ctx context.Context, title, character string, active bool) (domain.Mod, error) {
	var out domain.Mod
	body := addModBody{Title: title, Character: character, IsActive: active}
	if err := c.do(ctx, http.MethodPost, "/mods", body, &out); err != nil {
		return domain.Mod{}, err
	}
	return out, nil
}

// ToggleModActive implements Gateway
func (c *HTTPClient) ToggleModActive(ctx context.Context, modID string) (bool, error) {
	var out toggleResult
	if err := c.do(ctx, http.MethodPost, "/mods/"+url.PathEscape(modID)+"/toggle", nil, &out); err != nil {
		return false, err
	}
	return out.IsActive, nil
}

// DeleteMod implements Gateway
func (c *HTTPClient) DeleteMod(ctx context.Context, modID string) error {
	return c.do(ctx, http.MethodDelete, "/mods/"+url.PathEscape(modID), nil, nil)
}

// ListPresets implements Gateway
func (c *HTTPClient) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	var out presetList
	if err := c.do(ctx, http.MethodGet, "/presets", nil, &out); err != nil {
		return nil, err
	}
	return out.Presets, nil
}

// CreatePreset implements Gateway
func (c *HTTPClient) CreatePreset(ctx context.Context, name string, modIDs []string) (domain.Preset, error) {
	var out domain.Preset
	body := presetBody{Name: name, ModIDs: nonNil(modIDs)}
	if err := c.do(ctx, http.MethodPost, "/presets", body, &out); err != nil {
		return domain.Preset{}, err
	}
	return out, nil
}

// UpdatePreset implements Gateway
func (c *HTTPClient) UpdatePreset(ctx context.Context, presetID, name string, modIDs []string) error {
	body := presetBody{Name: name, ModIDs: nonNil(modIDs)}
	return c.do(ctx, http.MethodPut, "/presets/"+url.PathEscape(presetID), body, nil)
}

// DeletePreset implements Gateway
func (c *HTTPClient) DeletePreset(ctx context.Context, presetID string) error {
	return c.do(ctx, http.MethodDelete, "/presets/"+url.PathEscape(presetID), nil, nil)
}

// ApplyPreset implements Gateway
func (c *HTTPClient) ApplyPreset(ctx context.Context, presetID string) error {
	return c.do(ctx, http.MethodPost, "/presets/"+url.PathEscape(presetID)+"/apply", nil, nil)
}

// GetStats implements Gateway
func (c *HTTPClient) GetStats(ctx context.Context) (domain.Stats, error) {
	var out domain.Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return domain.Stats{}, err
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeProblem(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeProblem(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return statusErr
	}

	var p problem
	if err := json.Unmarshal(data, &p); err == nil && p.Detail != "" {
		statusErr.Detail = p.Detail
	} else {
		statusErr.Detail = strings.TrimSpace(string(data))
	}
	return statusErr
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
