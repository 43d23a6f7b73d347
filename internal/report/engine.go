// Package report derives the presentation views from storage: monthly
// rollups, per-client histories, and calendar grids. Every view is
// recomputed from current storage state on each call; nothing is cached.
package report

import (
	"context"
	"fmt"
	"time"

	"entrenos/internal/core"
	"entrenos/internal/store"
)

// The ledger merge works on point lookups against this window; the session
// log is young enough that an explicit all-time range is exact.
var (
	allTimeStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.Local)
	allTimeEnd   = time.Date(2100, 1, 1, 0, 0, 0, 0, time.Local)
)

// Engine joins the session log with the payment ledger. It holds no state
// beyond the two ports.
type Engine struct {
	sessions store.SessionStore
	ledger   store.PaymentLedger
}

func New(sessions store.SessionStore, ledger store.PaymentLedger) *Engine {
	return &Engine{sessions: sessions, ledger: ledger}
}

// MonthReport is the rollup view for one month window.
type MonthReport struct {
	Year         int
	Month        int
	Rows         []core.RollupRow
	TotalClasses int
	TotalCents   int64
}

// MonthSessions lists the month's sessions, ascending by timestamp.
func (e *Engine) MonthSessions(ctx context.Context, year, month int) ([]core.Session, error) {
	start, end := core.MonthRange(year, month)
	sessions, err := e.sessions.ListBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list month sessions: %w", err)
	}
	return sessions, nil
}

// MonthRollup groups the month's sessions by client and attaches each
// client's ledger state for that exact (year, month). Sessions and ledger
// are two separate queries; a client with no ledger row reports Pendiente.
func (e *Engine) MonthRollup(ctx context.Context, year, month int) (MonthReport, error) {
	rep := MonthReport{Year: year, Month: month}
	sessions, err := e.MonthSessions(ctx, year, month)
	if err != nil {
		return rep, err
	}
	rep.Rows = core.GroupByClient(sessions)
	for i := range rep.Rows {
		p, err := e.ledger.Get(ctx, rep.Rows[i].Client, year, month)
		if err != nil {
			return rep, fmt.Errorf("ledger lookup for %s: %w", rep.Rows[i].Client, err)
		}
		rep.Rows[i].Paid = p.Paid
		rep.TotalClasses += rep.Rows[i].Classes
		rep.TotalCents += rep.Rows[i].TotalCents
	}
	return rep, nil
}

// ClientHistory builds the sparse month-by-month series for one client:
// one row per month with at least one session, left-merged with the ledger
// by point lookup. Ledger rows for session-less months are dropped; absent
// ledger rows default to unpaid. Rows sort by (year, month) ascending.
func (e *Engine) ClientHistory(ctx context.Context, client string) ([]core.HistoryRow, error) {
	all, err := e.sessions.ListBetween(ctx, allTimeStart, allTimeEnd)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	key := core.Normalize(client)
	rows := core.GroupByMonth(core.FilterByClient(all, key))
	for i := range rows {
		p, err := e.ledger.Get(ctx, key, rows[i].Year, rows[i].Month)
		if err != nil {
			return nil, fmt.Errorf("ledger lookup for %s %d-%d: %w", key, rows[i].Year, rows[i].Month, err)
		}
		rows[i].Paid = p.Paid
		rows[i].PaidOn = p.PaidOn
	}
	return rows, nil
}

// ClientMonthTotal sums one client's amounts inside a month window.
func (e *Engine) ClientMonthTotal(ctx context.Context, client string, year, month int) (int64, error) {
	sessions, err := e.MonthSessions(ctx, year, month)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, s := range core.FilterByClient(sessions, client) {
		total += s.AmountCents
	}
	return total, nil
}

// Calendar projects the month's sessions onto the Monday-first grid.
func (e *Engine) Calendar(ctx context.Context, year, month int) (core.MonthGrid, error) {
	sessions, err := e.MonthSessions(ctx, year, month)
	if err != nil {
		return core.MonthGrid{}, err
	}
	return core.ProjectMonth(year, month, sessions), nil
}
