// Package backend is the HTTP client for the XPLR REST API. Every request
// carries the device's bearer token when one is stored, and any 401 reply
// clears that token.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xplr/session-gateway/internal/api/metrics"
	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 10 << 20
)

// Config holds the backend location.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// ErrUnavailable wraps transport failures talking to the backend.
var ErrUnavailable = errors.New("backend unavailable")

// StatusError is returned for non-2xx replies other than 401.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d", e.Code)
}

// Client implements ports.Backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ ports.Backend = (*Client)(nil)

func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) Register(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return c.authenticate(ctx, "/auth/register", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*ports.AuthResult, error) {
	body, err := json.Marshal(credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	var out ports.AuthResult
	if err := c.call(ctx, nil, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%s: empty token: %w", path, domain.ErrUnauthorized)
	}
	return &out, nil
}

func (c *Client) CurrentUser(ctx context.Context, tokens ports.TokenSource) (*ports.BackendUser, error) {
	var u ports.BackendUser
	if err := c.call(ctx, tokens, http.MethodGet, "/user/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Cards(ctx context.Context, tokens ports.TokenSource) (json.RawMessage, error) {
	return c.raw(ctx, tokens, "/user/cards")
}

func (c *Client) Teams(ctx context.Context, tokens ports.TokenSource) (json.RawMessage, error) {
	return c.raw(ctx, tokens, "/user/teams")
}

func (c *Client) ReferralStats(ctx context.Context, tokens ports.TokenSource) (json.RawMessage, error) {
	return c.raw(ctx, tokens, "/user/referrals")
}

func (c *Client) Grade(ctx context.Context, tokens ports.TokenSource) (json.RawMessage, error) {
	return c.raw(ctx, tokens, "/user/grade")
}

type ratesPayload struct {
	USD json.Number `json:"usd"`
	EUR json.Number `json:"eur"`
}

// Rates accepts both numeric and string-encoded values.
func (c *Client) Rates(ctx context.Context, tokens ports.TokenSource) (domain.Rates, error) {
	var p ratesPayload
	if err := c.call(ctx, tokens, http.MethodGet, "/rates", nil, &p); err != nil {
		return domain.Rates{}, err
	}
	usd, err := p.USD.Float64()
	if err != nil {
		return domain.Rates{}, fmt.Errorf("rates usd: %w", err)
	}
	eur, err := p.EUR.Float64()
	if err != nil {
		return domain.Rates{}, fmt.Errorf("rates eur: %w", err)
	}
	return domain.Rates{USD: usd, EUR: eur}, nil
}

// Forward relays a request and returns the reply whatever its status.
// A 401 still clears the stored token.
func (c *Client) Forward(ctx context.Context, tokens ports.TokenSource, req ports.ForwardRequest) (*ports.ForwardResponse, error) {
	path := req.Path
	if req.RawQuery != "" {
		path += "?" + req.RawQuery
	}
	return c.do(ctx, tokens, req.Method, path, req.Body)
}

func (c *Client) raw(ctx context.Context, tokens ports.TokenSource, path string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.call(ctx, tokens, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, tokens ports.TokenSource, method, path string, body []byte, out any) error {
	resp, err := c.do(ctx, tokens, method, path, body)
	if err != nil {
		return err
	}
	switch {
	case resp.Status == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrUnauthorized)
	case resp.Status < 200 || resp.Status > 299:
		return &StatusError{Code: resp.Status, Body: resp.Body}
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, tokens ports.TokenSource, method, path string, body []byte) (*ports.ForwardResponse, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if tokens != nil {
		if token, ok := tokens.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && tokens != nil {
		c.dropToken(ctx, tokens, path)
	}

	return &ports.ForwardResponse{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: data}, nil
}

func (c *Client) dropToken(ctx context.Context, tokens ports.TokenSource, path string) {
	if _, ok := tokens.Token(ctx); !ok {
		return
	}
	metrics.BackendUnauthorizedTotal.Inc()
	if err := tokens.ClearToken(ctx); err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("failed to clear rejected token")
		return
	}
	c.log.Info().Str("path", path).Msg("backend rejected token, cleared")
}
