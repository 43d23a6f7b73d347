package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// cookiePayload is the browser-side representation of a session. Only the
// tokens travel in the cookie; email and expiry are re-derived from the
// access token's claims on every request, so a tampered cookie can at
// worst carry a token the backend will reject.
type cookiePayload struct {
	AccessToken  string `json:"at"`
	RefreshToken string `json:"rt"`
}

// EncodeCookie serializes a session for storage in an HttpOnly cookie.
func EncodeCookie(s *Session) string {
	if s == nil {
		return ""
	}
	b, _ := json.Marshal(cookiePayload{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCookie rebuilds a session from a cookie value, re-reading email
// and expiry from the token claims.
func DecodeCookie(value string) (*Session, error) {
	b, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode session cookie: %w", err)
	}
	var p cookiePayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode session cookie: %w", err)
	}
	if p.AccessToken == "" {
		return nil, fmt.Errorf("decode session cookie: empty token")
	}
	return sessionFromToken(p.AccessToken, p.RefreshToken)
}
