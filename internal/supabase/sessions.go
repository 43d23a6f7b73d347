package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"entrenos/internal/core"
	"entrenos/internal/store"
)

type sessionRow struct {
	ID          int64  `json:"id,omitempty"`
	Client      string `json:"client"`
	TS          string `json:"ts"`
	AmountCents int64  `json:"amount_cents"`
}

// Add implements store.SessionStore.
func (c *Client) Add(ctx context.Context, client string, ts time.Time, amountCents int64) (int64, error) {
	s := core.Session{Client: client, Timestamp: ts, AmountCents: amountCents}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	body := []sessionRow{{
		Client:      core.Normalize(client),
		TS:          ts.Format(core.TimestampLayout),
		AmountCents: amountCents,
	}}
	out, err := c.do(ctx, http.MethodPost, "/rest/v1/sessions", body, "return=representation")
	if err != nil {
		return 0, wrapUnavailable("insert session", err)
	}
	var created []sessionRow
	if err := json.Unmarshal(out, &created); err != nil || len(created) == 0 {
		return 0, store.Unavailable("decode inserted session", err)
	}

	slog.InfoContext(ctx, "Session saved",
		"id", created[0].ID,
		"client", created[0].Client,
		"ts", created[0].TS,
		"amount_cents", amountCents)
	return created[0].ID, nil
}

// Delete implements store.SessionStore. PostgREST deletes zero rows for a
// missing id and still answers 2xx, which is exactly the idempotent no-op
// the contract wants.
func (c *Client) Delete(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/rest/v1/sessions?id=eq.%d", id)
	if _, err := c.do(ctx, http.MethodDelete, path, nil, ""); err != nil {
		return wrapUnavailable("delete session", err)
	}
	return nil
}

// ListBetween implements store.SessionStore via gte/lt filters on the
// textual timestamp, which sorts like the times it encodes.
func (c *Client) ListBetween(ctx context.Context, start, end time.Time) ([]core.Session, error) {
	path := "/rest/v1/sessions?select=id,client,ts,amount_cents" +
		"&ts=gte." + esc(start.Format(core.TimestampLayout)) +
		"&ts=lt." + esc(end.Format(core.TimestampLayout)) +
		"&order=ts.asc"
	out, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, wrapUnavailable("list sessions", err)
	}
	var rows []sessionRow
	if err := json.Unmarshal(out, &rows); err != nil {
		return nil, store.Unavailable("decode sessions", err)
	}

	sessions := make([]core.Session, 0, len(rows))
	for _, r := range rows {
		t, err := time.ParseInLocation(core.TimestampLayout, r.TS, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parse session timestamp %q: %w", r.TS, err)
		}
		sessions = append(sessions, core.Session{
			ID:          r.ID,
			Client:      core.Normalize(r.Client), // legacy rows may be un-normalized
			Timestamp:   t,
			AmountCents: r.AmountCents,
		})
	}
	return sessions, nil
}

// DistinctClients implements store.SessionStore. Normalization collapses
// legacy duplicates after the read.
func (c *Client) DistinctClients(ctx context.Context) ([]string, error) {
	out, err := c.do(ctx, http.MethodGet, "/rest/v1/sessions?select=client", nil, "")
	if err != nil {
		return nil, wrapUnavailable("list clients", err)
	}
	var rows []struct {
		Client string `json:"client"`
	}
	if err := json.Unmarshal(out, &rows); err != nil {
		return nil, store.Unavailable("decode clients", err)
	}

	seen := make(map[string]struct{})
	for _, r := range rows {
		if n := core.Normalize(r.Client); n != "" {
			seen[n] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// wrapUnavailable keeps ErrNoSession distinguishable from transport
// faults.
func wrapUnavailable(op string, err error) error {
	if errors.Is(err, store.ErrNoSession) {
		return err
	}
	return store.Unavailable(op, err)
}
