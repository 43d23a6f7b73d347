package report

import (
	"context"
	"testing"
	"time"

	"entrenos/internal/core"
)

// fakeStore keeps sessions and ledger rows in memory for engine tests.
type fakeStore struct {
	sessions []core.Session
	ledger   map[string]core.Payment
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{ledger: make(map[string]core.Payment), nextID: 1}
}

func ledgerKey(client string, year, month int) string {
	return client + "|" + time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

func (f *fakeStore) Add(_ context.Context, client string, ts time.Time, amountCents int64) (int64, error) {
	id := f.nextID
	f.nextID++
	f.sessions = append(f.sessions, core.Session{
		ID: id, Client: core.Normalize(client), Timestamp: ts, AmountCents: amountCents,
	})
	return id, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	for i, s := range f.sessions {
		if s.ID == id {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) ListBetween(_ context.Context, start, end time.Time) ([]core.Session, error) {
	var out []core.Session
	for _, s := range f.sessions {
		if !s.Timestamp.Before(start) && s.Timestamp.Before(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) DistinctClients(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, s := range f.sessions {
		if !seen[s.Client] {
			seen[s.Client] = true
			out = append(out, s.Client)
		}
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, client string, year, month int) (core.Payment, error) {
	return f.ledger[ledgerKey(client, year, month)], nil
}

func (f *fakeStore) Upsert(_ context.Context, client string, year, month int, paid bool, paidOn *time.Time) error {
	if !paid {
		paidOn = nil
	}
	f.ledger[ledgerKey(client, year, month)] = core.Payment{Paid: paid, PaidOn: paidOn}
	return nil
}

func seed(t *testing.T, f *fakeStore, client string, ts time.Time, cents int64) {
	t.Helper()
	if _, err := f.Add(context.Background(), client, ts, cents); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestMonthRollup(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	e := New(f, f)

	seed(t, f, "ana lopez", time.Date(2025, 3, 3, 10, 0, 0, 0, time.Local), 3000000)
	seed(t, f, "Ana Lopez", time.Date(2025, 3, 17, 10, 0, 0, 0, time.Local), 3000000)
	seed(t, f, "Carlos Ruiz", time.Date(2025, 3, 5, 9, 0, 0, 0, time.Local), 4500000)
	// Outside the window.
	seed(t, f, "Ana Lopez", time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local), 3000000)

	d := time.Date(2025, 4, 2, 0, 0, 0, 0, time.Local)
	if err := f.Upsert(ctx, "Ana Lopez", 2025, 3, true, &d); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rep, err := e.MonthRollup(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("MonthRollup: %v", err)
	}
	if len(rep.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rep.Rows))
	}
	ana, carlos := rep.Rows[0], rep.Rows[1]
	if ana.Client != "Ana Lopez" || ana.Classes != 2 || ana.TotalCents != 6000000 || !ana.Paid {
		t.Fatalf("unexpected ana row: %+v", ana)
	}
	// No ledger row defaults to pending.
	if carlos.Client != "Carlos Ruiz" || carlos.Paid {
		t.Fatalf("unexpected carlos row: %+v", carlos)
	}
	if rep.TotalClasses != 3 || rep.TotalCents != 10500000 {
		t.Fatalf("totals = %d classes, %d cents", rep.TotalClasses, rep.TotalCents)
	}
}

func TestClientHistory(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	e := New(f, f)

	seed(t, f, "Ana Lopez", time.Date(2024, 12, 20, 10, 0, 0, 0, time.Local), 2500000)
	seed(t, f, "Ana Lopez", time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local), 3000000)
	seed(t, f, "Ana Lopez", time.Date(2025, 3, 24, 10, 0, 0, 0, time.Local), 3000000)
	seed(t, f, "Carlos Ruiz", time.Date(2025, 1, 8, 9, 0, 0, 0, time.Local), 4500000)

	d := time.Date(2025, 1, 5, 0, 0, 0, 0, time.Local)
	if err := f.Upsert(ctx, "Ana Lopez", 2024, 12, true, &d); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Ledger row for a month with no ana sessions: must not surface.
	if err := f.Upsert(ctx, "Ana Lopez", 2025, 2, true, &d); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, err := e.ClientHistory(ctx, "ana  lopez")
	if err != nil {
		t.Fatalf("ClientHistory: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Year != 2024 || rows[0].Month != 12 || !rows[0].Paid || rows[0].PaidOn == nil {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Year != 2025 || rows[1].Month != 3 || rows[1].Paid {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	if rows[1].Classes != 2 || rows[1].TotalCents != 6000000 {
		t.Fatalf("march row not aggregated: %+v", rows[1])
	}
}

func TestClientHistory_NoSessions(t *testing.T) {
	f := newFakeStore()
	e := New(f, f)
	rows, err := e.ClientHistory(context.Background(), "Nadie")
	if err != nil {
		t.Fatalf("ClientHistory: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("got %d rows for unknown client, want 0", len(rows))
	}
}

func TestClientMonthTotal(t *testing.T) {
	f := newFakeStore()
	e := New(f, f)
	seed(t, f, "Ana Lopez", time.Date(2025, 3, 3, 10, 0, 0, 0, time.Local), 3000000)
	seed(t, f, "Ana Lopez", time.Date(2025, 3, 17, 10, 0, 0, 0, time.Local), 3000000)
	seed(t, f, "Carlos Ruiz", time.Date(2025, 3, 5, 9, 0, 0, 0, time.Local), 4500000)

	got, err := e.ClientMonthTotal(context.Background(), "ANA LOPEZ", 2025, 3)
	if err != nil {
		t.Fatalf("ClientMonthTotal: %v", err)
	}
	if got != 6000000 {
		t.Fatalf("ClientMonthTotal = %d, want 6000000", got)
	}
}

func TestCalendar(t *testing.T) {
	f := newFakeStore()
	e := New(f, f)
	seed(t, f, "Ana Lopez", time.Date(2025, 3, 10, 15, 0, 0, 0, time.Local), 3000000)

	grid, err := e.Calendar(context.Background(), 2025, 3)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if grid.Year != 2025 || grid.Month != 3 {
		t.Fatalf("grid for %d-%d", grid.Year, grid.Month)
	}
	if len(grid.Days[10]) != 1 {
		t.Fatalf("day 10 has %d entries, want 1", len(grid.Days[10]))
	}
}
