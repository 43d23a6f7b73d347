// Package storage is the local embedded backend: a SQLite file holding
// the session log and the payment ledger.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, no CGO

	"entrenos/internal/core"
	"entrenos/internal/store"
)

// Ensure both ports are implemented.
var (
	_ store.SessionStore  = (*SQLiteRepository)(nil)
	_ store.PaymentLedger = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Add implements store.SessionStore.
func (r *SQLiteRepository) Add(ctx context.Context, client string, ts time.Time, amountCents int64) (int64, error) {
	s := core.Session{Client: client, Timestamp: ts, AmountCents: amountCents}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (client, ts, amount_cents) VALUES (?, ?, ?)",
		core.Normalize(client), ts.Format(core.TimestampLayout), amountCents,
	)
	if err != nil {
		return 0, store.Unavailable("insert session", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, store.Unavailable("session id", err)
	}

	slog.InfoContext(ctx, "Session saved",
		"id", id,
		"client", core.Normalize(client),
		"ts", ts.Format(core.TimestampLayout),
		"amount_cents", amountCents)

	return id, nil
}

// Delete implements store.SessionStore. Missing ids delete zero rows and
// report success.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return store.Unavailable("delete session", err)
	}
	return nil
}

// ListBetween implements store.SessionStore. The textual timestamp form
// sorts like the times it encodes, so the half-open window is two string
// comparisons.
func (r *SQLiteRepository) ListBetween(ctx context.Context, start, end time.Time) ([]core.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, client, ts, amount_cents FROM sessions WHERE ts >= ? AND ts < ? ORDER BY ts ASC",
		start.Format(core.TimestampLayout), end.Format(core.TimestampLayout),
	)
	if err != nil {
		return nil, store.Unavailable("list sessions", err)
	}
	defer rows.Close()

	var out []core.Session
	for rows.Next() {
		var s core.Session
		var ts string
		if err := rows.Scan(&s.ID, &s.Client, &ts, &s.AmountCents); err != nil {
			return nil, store.Unavailable("scan session", err)
		}
		s.Timestamp, err = time.ParseInLocation(core.TimestampLayout, ts, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parse session timestamp %q: %w", ts, err)
		}
		// Legacy rows may predate write-side normalization.
		s.Client = core.Normalize(s.Client)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("iterate sessions", err)
	}
	return out, nil
}

// DistinctClients implements store.SessionStore. Normalization happens
// after the read so legacy un-normalized rows collapse into one name.
func (r *SQLiteRepository) DistinctClients(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT client FROM sessions")
	if err != nil {
		return nil, store.Unavailable("list clients", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, store.Unavailable("scan client", err)
		}
		if n := core.Normalize(c); n != "" {
			seen[n] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("iterate clients", err)
	}
	return sortedKeys(seen), nil
}

// Get implements store.PaymentLedger. An absent row is the zero Payment.
func (r *SQLiteRepository) Get(ctx context.Context, client string, year, month int) (core.Payment, error) {
	var (
		paid   int64
		paidOn sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT paid, paid_on FROM monthly_payments WHERE client = ? AND year = ? AND month = ?",
		core.Normalize(client), year, month,
	).Scan(&paid, &paidOn)
	if err == sql.ErrNoRows {
		return core.Payment{}, nil
	}
	if err != nil {
		return core.Payment{}, store.Unavailable("get payment", err)
	}

	p := core.Payment{Paid: paid != 0}
	if p.Paid && paidOn.Valid {
		t, err := time.ParseInLocation("2006-01-02", paidOn.String, time.Local)
		if err != nil {
			return core.Payment{}, fmt.Errorf("parse paid_on %q: %w", paidOn.String, err)
		}
		p.PaidOn = &t
	}
	return p, nil
}

// Upsert implements store.PaymentLedger. The ON CONFLICT clause makes the
// replace atomic on the natural key; an unpaid row always stores NULL for
// paid_on.
func (r *SQLiteRepository) Upsert(ctx context.Context, client string, year, month int, paid bool, paidOn *time.Time) error {
	key := core.Normalize(client)
	if key == "" {
		return core.ErrEmptyClient
	}
	var paidOnVal any
	if paid && paidOn != nil {
		paidOnVal = paidOn.Format("2006-01-02")
	}
	paidVal := 0
	if paid {
		paidVal = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_payments (client, year, month, paid, paid_on)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(client, year, month)
		DO UPDATE SET paid = excluded.paid, paid_on = excluded.paid_on`,
		key, year, month, paidVal, paidOnVal,
	)
	if err != nil {
		return store.Unavailable("upsert payment", err)
	}

	slog.InfoContext(ctx, "Payment status saved",
		"client", key, "year", year, "month", month, "paid", paid)
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
