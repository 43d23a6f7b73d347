package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"entrenos/internal/store"
)

var (
	// ErrNotAllowed means the email is not on the server-side allow-list.
	// Distinct from transport failure: the check ran and said no.
	ErrNotAllowed = errors.New("email not on the allow-list")

	// ErrBadCode means the one-time code was wrong or expired.
	ErrBadCode = errors.New("invalid or expired code")
)

// Client talks to the hosted backend's auth service (OTP dispatch and
// verification) and to the allow-list tables.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// RequestCode checks the allow-list and, if the email passes, asks the
// auth service to send a one-time code. The allow-list check runs first
// so unauthorized addresses never receive mail.
func (c *Client) RequestCode(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("empty email")
	}

	allowed, err := c.isAllowed(ctx, email)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotAllowed
	}

	body := map[string]any{"email": email, "create_user": true}
	resp, err := c.post(ctx, "/auth/v1/otp", body, "")
	if err != nil {
		return store.Unavailable("send otp", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return store.Unavailable("send otp", fmt.Errorf("status %d", resp.StatusCode))
	}

	slog.InfoContext(ctx, "OTP code dispatched", "email", email)
	return nil
}

// VerifyCode exchanges the emailed code for a session.
func (c *Client) VerifyCode(ctx context.Context, email, code string) (*Session, error) {
	body := map[string]any{
		"email": strings.ToLower(strings.TrimSpace(email)),
		"token": strings.TrimSpace(code),
		"type":  "email",
	}
	resp, err := c.post(ctx, "/auth/v1/verify", body, "")
	if err != nil {
		return nil, store.Unavailable("verify otp", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, ErrBadCode
	default:
		return nil, store.Unavailable("verify otp", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, store.Unavailable("decode verify response", err)
	}
	if out.AccessToken == "" {
		return nil, ErrBadCode
	}

	s, err := sessionFromToken(out.AccessToken, out.RefreshToken)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Session issued", "email", s.Email, "expires_at", s.ExpiresAt)
	return s, nil
}

// SignOut invalidates the session server-side. A transport failure is
// logged, not fatal: the cookie is dropped either way.
func (c *Client) SignOut(ctx context.Context, s *Session) {
	if s == nil {
		return
	}
	resp, err := c.post(ctx, "/auth/v1/logout", nil, s.AccessToken)
	if err != nil {
		slog.WarnContext(ctx, "Sign-out request failed", "error", err)
		return
	}
	resp.Body.Close()
}

// IsAdmin reports whether the session's email is in admin_emails. A
// missing row is (false, nil); only transport failures return an error.
// The two cases must not be conflated.
func (c *Client) IsAdmin(ctx context.Context) (bool, error) {
	s := FromContext(ctx)
	if !s.Valid() || s.Email == "" {
		return false, nil
	}
	raw, err := c.selectRows(ctx, "/rest/v1/admin_emails?select=email&email=eq."+s.Email, s.AccessToken)
	if err != nil {
		return false, store.Unavailable("admin check", err)
	}
	var rows []AllowedEmail
	if err := json.Unmarshal(raw, &rows); err != nil {
		return false, store.Unavailable("decode admin check", err)
	}
	return len(rows) > 0, nil
}

// AllowedEmail is one allow-list entry.
type AllowedEmail struct {
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
}

// ListAllowed returns the allow-list, newest first. Admin only (enforced
// server-side by row-level auth).
func (c *Client) ListAllowed(ctx context.Context) ([]AllowedEmail, error) {
	s := FromContext(ctx)
	raw, err := c.selectRows(ctx, "/rest/v1/allowed_emails?select=email,created_at,created_by&order=created_at.desc", s.token())
	if err != nil {
		return nil, store.Unavailable("list allowed emails", err)
	}
	var out []AllowedEmail
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, store.Unavailable("decode allowed emails", err)
	}
	return out, nil
}

// AddAllowed upserts an email onto the allow-list.
func (c *Client) AddAllowed(ctx context.Context, email string) error {
	s := FromContext(ctx)
	body := AllowedEmail{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedBy: s.email(),
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/rest/v1/allowed_emails", body, s.token())
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates")
	resp, err := c.http.Do(req)
	if err != nil {
		return store.Unavailable("add allowed email", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return store.Unavailable("add allowed email", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// RemoveAllowed deletes an email from the allow-list.
func (c *Client) RemoveAllowed(ctx context.Context, email string) error {
	s := FromContext(ctx)
	path := "/rest/v1/allowed_emails?email=eq." + strings.ToLower(strings.TrimSpace(email))
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil, s.token())
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return store.Unavailable("remove allowed email", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return store.Unavailable("remove allowed email", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// isAllowed calls the server-side is_allowed RPC with the anon key. The
// RPC is the only pre-login read the backend exposes.
func (c *Client) isAllowed(ctx context.Context, email string) (bool, error) {
	resp, err := c.post(ctx, "/rest/v1/rpc/is_allowed", map[string]string{"email_input": email}, "")
	if err != nil {
		return false, store.Unavailable("allow-list check", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, store.Unavailable("allow-list check", fmt.Errorf("status %d", resp.StatusCode))
	}
	var allowed bool
	if err := json.NewDecoder(resp.Body).Decode(&allowed); err != nil {
		return false, store.Unavailable("decode allow-list response", err)
	}
	return allowed, nil
}

func (c *Client) post(ctx context.Context, path string, body any, token string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, body, token)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, token string) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

// selectRows runs a GET returning a JSON array and hands back the raw
// bytes for the caller to decode.
func (c *Client) selectRows(ctx context.Context, path, token string) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *Session) token() string {
	if s.Valid() {
		return s.AccessToken
	}
	return ""
}

func (s *Session) email() string {
	if s != nil {
		return s.Email
	}
	return ""
}
