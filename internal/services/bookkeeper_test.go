package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"entrenos/internal/core"
)

type memBackend struct {
	sessions []core.Session
	ledger   map[string]core.Payment
	nextID   int64
	failAdd  bool
}

func newMemBackend() *memBackend {
	return &memBackend{ledger: make(map[string]core.Payment), nextID: 1}
}

func (m *memBackend) Add(_ context.Context, client string, ts time.Time, amountCents int64) (int64, error) {
	if m.failAdd {
		return 0, errors.New("disk full")
	}
	s := core.Session{Client: client, Timestamp: ts, AmountCents: amountCents}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	s.ID = m.nextID
	s.Client = core.Normalize(client)
	m.nextID++
	m.sessions = append(m.sessions, s)
	return s.ID, nil
}

func (m *memBackend) Delete(_ context.Context, id int64) error {
	for i, s := range m.sessions {
		if s.ID == id {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memBackend) ListBetween(_ context.Context, start, end time.Time) ([]core.Session, error) {
	var out []core.Session
	for _, s := range m.sessions {
		if !s.Timestamp.Before(start) && s.Timestamp.Before(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memBackend) DistinctClients(_ context.Context) ([]string, error) {
	return nil, nil
}

func (m *memBackend) Get(_ context.Context, client string, year, month int) (core.Payment, error) {
	return m.ledger[client], nil
}

func (m *memBackend) Upsert(_ context.Context, client string, year, month int, paid bool, paidOn *time.Time) error {
	if !paid {
		paidOn = nil
	}
	m.ledger[core.Normalize(client)] = core.Payment{Paid: paid, PaidOn: paidOn}
	return nil
}

func TestRecordSession(t *testing.T) {
	m := newMemBackend()
	b := NewBookkeeper(m, nil) // mirroring disabled

	ts := time.Date(2025, 3, 10, 15, 0, 0, 0, time.Local)
	id, err := b.RecordSession(context.Background(), "ana lopez", ts, 3000000)
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if id != 1 || len(m.sessions) != 1 {
		t.Fatalf("id = %d, stored = %d", id, len(m.sessions))
	}
	if m.sessions[0].Client != "Ana Lopez" {
		t.Fatalf("client = %q", m.sessions[0].Client)
	}
}

func TestRecordSession_StoreFailure(t *testing.T) {
	m := newMemBackend()
	m.failAdd = true
	b := NewBookkeeper(m, nil)

	_, err := b.RecordSession(context.Background(), "Ana",
		time.Date(2025, 3, 10, 15, 0, 0, 0, time.Local), 100)
	if err == nil {
		t.Fatalf("store failure swallowed")
	}
}

func TestSetPayment(t *testing.T) {
	m := newMemBackend()
	b := NewBookkeeper(m, nil)
	ctx := context.Background()

	d := time.Date(2025, 4, 2, 0, 0, 0, 0, time.Local)
	if err := b.SetPayment(ctx, "ana lopez", 2025, 3, true, &d); err != nil {
		t.Fatalf("SetPayment: %v", err)
	}
	p := m.ledger["Ana Lopez"]
	if !p.Paid || p.PaidOn == nil {
		t.Fatalf("ledger row = %+v", p)
	}

	if err := b.SetPayment(ctx, "Ana Lopez", 2025, 3, false, &d); err != nil {
		t.Fatalf("SetPayment unpaid: %v", err)
	}
	p = m.ledger["Ana Lopez"]
	if p.Paid || p.PaidOn != nil {
		t.Fatalf("unpaid row kept a date: %+v", p)
	}
}

func TestDeleteSession(t *testing.T) {
	m := newMemBackend()
	b := NewBookkeeper(m, nil)
	ctx := context.Background()

	id, err := b.RecordSession(ctx, "Ana", time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local), 100)
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if err := b.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if err := b.DeleteSession(ctx, id); err != nil {
		t.Fatalf("repeat DeleteSession: %v", err)
	}
	if len(m.sessions) != 0 {
		t.Fatalf("session not removed")
	}
}
