// Package store defines the storage contracts the reporting engine is
// allowed to depend on, regardless of which backend sits behind them.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entrenos/internal/core"
)

// ErrBackendUnavailable wraps any transport or driver failure from a
// storage backend. The engine never retries; callers decide how to surface
// it. Missing rows are never an error.
var ErrBackendUnavailable = errors.New("storage backend unavailable")

// ErrNoSession is returned by auth-gated backends when a data call
// arrives without an authenticated session in its context. It is kept
// distinct from ErrBackendUnavailable: the fix is logging in, not
// waiting out an outage.
var ErrNoSession = errors.New("no authenticated session in context")

// Unavailable tags a backend failure with the failing operation.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrBackendUnavailable, err)
}

// SessionStore is the append-only log of billable classes.
type SessionStore interface {
	// Add validates, normalizes the client, and persists one session,
	// returning the store-assigned id.
	Add(ctx context.Context, client string, ts time.Time, amountCents int64) (int64, error)

	// Delete removes a session by id. Deleting a missing id is a no-op,
	// not an error.
	Delete(ctx context.Context, id int64) error

	// ListBetween returns sessions in the half-open window [start, end),
	// ascending by timestamp. A session stamped exactly at end is
	// excluded; one stamped exactly at start is included.
	ListBetween(ctx context.Context, start, end time.Time) ([]core.Session, error)

	// DistinctClients returns the normalized client names present in the
	// log, sorted ascending for display stability.
	DistinctClients(ctx context.Context) ([]string, error)
}

// PaymentLedger is the sparse paid/unpaid table keyed by
// (client, year, month).
type PaymentLedger interface {
	// Get returns the ledger state for the key. An absent row yields the
	// zero Payment (unpaid, no date) and no error; reads never create
	// rows.
	Get(ctx context.Context, client string, year, month int) (core.Payment, error)

	// Upsert inserts or fully replaces the row for the key. When paid is
	// false the stored date is forced to absent regardless of paidOn: an
	// unpaid month must never carry a stale payment date.
	Upsert(ctx context.Context, client string, year, month int, paid bool, paidOn *time.Time) error
}
