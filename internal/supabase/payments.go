package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"entrenos/internal/core"
	"entrenos/internal/store"
)

type paymentRow struct {
	Client string  `json:"client"`
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Paid   bool    `json:"paid"`
	PaidOn *string `json:"paid_on"`
}

// Get implements store.PaymentLedger. An empty result set is the unpaid
// default, never an error, and never creates a row.
func (c *Client) Get(ctx context.Context, client string, year, month int) (core.Payment, error) {
	path := fmt.Sprintf(
		"/rest/v1/monthly_payments?select=paid,paid_on&client=eq.%s&year=eq.%d&month=eq.%d",
		esc(core.Normalize(client)), year, month,
	)
	out, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return core.Payment{}, wrapUnavailable("get payment", err)
	}
	var rows []paymentRow
	if err := json.Unmarshal(out, &rows); err != nil {
		return core.Payment{}, store.Unavailable("decode payment", err)
	}
	if len(rows) == 0 {
		return core.Payment{}, nil
	}

	p := core.Payment{Paid: rows[0].Paid}
	if p.Paid && rows[0].PaidOn != nil {
		t, err := time.ParseInLocation("2006-01-02", *rows[0].PaidOn, time.Local)
		if err != nil {
			return core.Payment{}, fmt.Errorf("parse paid_on %q: %w", *rows[0].PaidOn, err)
		}
		p.PaidOn = &t
	}
	return p, nil
}

// Upsert implements store.PaymentLedger. The on_conflict key plus
// merge-duplicates makes the replace atomic on (client, year, month);
// paid=false always stores a null date.
func (c *Client) Upsert(ctx context.Context, client string, year, month int, paid bool, paidOn *time.Time) error {
	key := core.Normalize(client)
	if key == "" {
		return core.ErrEmptyClient
	}
	row := paymentRow{Client: key, Year: year, Month: month, Paid: paid}
	if paid && paidOn != nil {
		d := paidOn.Format("2006-01-02")
		row.PaidOn = &d
	}
	path := "/rest/v1/monthly_payments?on_conflict=client,year,month"
	if _, err := c.do(ctx, http.MethodPost, path, []paymentRow{row}, "resolution=merge-duplicates"); err != nil {
		return wrapUnavailable("upsert payment", err)
	}

	slog.InfoContext(ctx, "Payment status saved",
		"client", key, "year", year, "month", month, "paid", paid)
	return nil
}
