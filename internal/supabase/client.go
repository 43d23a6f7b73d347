// Package supabase is the hosted backend adapter: the session log and
// payment ledger live in PostgREST tables reached over HTTPS. Two of the
// three deployment variants use it — one with per-request auth (the
// access token is read from the request context) and one with the anon
// key only. The adapter itself is identical; only RequireAuth differs.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"entrenos/internal/auth"
	"entrenos/internal/store"
)

var (
	_ store.SessionStore  = (*Client)(nil)
	_ store.PaymentLedger = (*Client)(nil)
)

// Client talks PostgREST to the hosted tables.
type Client struct {
	baseURL string
	anonKey string
	// requireAuth makes every data call demand a session in context and
	// send its access token, so row-level auth applies per request.
	requireAuth bool
	http        *http.Client
}

func NewClient(baseURL, anonKey string, requireAuth bool) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		anonKey:     anonKey,
		requireAuth: requireAuth,
		http:        &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	s := auth.FromContext(ctx)
	if s.Valid() {
		return s.AccessToken, nil
	}
	if c.requireAuth {
		return "", store.ErrNoSession
	}
	return c.anonKey, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, prefer string) ([]byte, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(out))
	}
	return out, nil
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

func esc(v string) string {
	return url.QueryEscape(v)
}
