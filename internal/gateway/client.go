// Package gateway is the sole module that talks to the hosted backend: a
// relational store and auth service reachable over authenticated HTTPS.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"moneytrack/internal/metrics"
)

// TokenProvider supplies the current access token. An empty token downgrades
// the call to the public anonymous key.
type TokenProvider interface {
	AccessToken() string
}

// StaticToken is a fixed-token provider, mainly for tests and CLI use.
type StaticToken string

func (t StaticToken) AccessToken() string { return string(t) }

type Config struct {
	BaseURL    string
	AnonKey    string
	HTTPClient *http.Client
	Tokens     TokenProvider
}

type Client struct {
	baseURL string
	anonKey string
	httpc   *http.Client
	tokens  TokenProvider
}

// Ensure interface conformance
var (
	_ TransactionReader = (*Client)(nil)
	_ TransactionWriter = (*Client)(nil)
	_ CategoryGateway   = (*Client)(nil)
	_ CreditCardReader  = (*Client)(nil)
	_ Authenticator     = (*Client)(nil)
)

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("missing backend base URL")
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, errors.New("missing backend anon key")
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: base,
		anonKey: cfg.AnonKey,
		httpc:   httpc,
		tokens:  cfg.Tokens,
	}, nil
}

func (c *Client) bearer() string {
	if c.tokens != nil {
		if tok := c.tokens.AccessToken(); tok != "" {
			return tok
		}
	}
	return c.anonKey
}

// rest performs one call against a table resource under /rest/v1. When out is
// non-nil the response body is decoded into it; single asks the backend for a
// bare object instead of an array. Every failure path comes back as a
// classified error, never a panic or an unchecked status.
func (c *Client) rest(ctx context.Context, op, method, table string, query url.Values, body, out any, single bool) error {
	start := time.Now()
	err := c.call(ctx, method, "/rest/v1/"+table, query, body, out, c.bearer(), single)
	metrics.ObserveGateway(op, start, err)
	return err
}

// auth performs one call against the auth service under /auth/v1.
func (c *Client) auth(ctx context.Context, op, method, path string, query url.Values, body, out any, token string) error {
	start := time.Now()
	if token == "" {
		token = c.anonKey
	}
	err := c.call(ctx, method, "/auth/v1/"+path, query, body, out, token, false)
	metrics.ObserveGateway(op, start, err)
	return err
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any, token string, single bool) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	if out != nil && (method == http.MethodPost || method == http.MethodPatch) {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(raw) > 0 {
		// Best effort: the body may not be the structured error shape.
		_ = json.Unmarshal(raw, apiErr)
		if apiErr.Message == "" {
			apiErr.Message = apiErr.AuthDesc
		}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return classify(apiErr)
}
