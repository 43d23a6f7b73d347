package worker

import (
	"context"
	"testing"
	"time"

	"entrenos/internal/amqp"
	"entrenos/internal/core"
)

type recordingBackend struct {
	sessions []core.Session
	deleted  []int64
	payments map[string]core.Payment
	nextID   int64
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{payments: make(map[string]core.Payment), nextID: 100}
}

func (r *recordingBackend) Add(_ context.Context, client string, ts time.Time, amountCents int64) (int64, error) {
	id := r.nextID
	r.nextID++
	r.sessions = append(r.sessions, core.Session{
		ID: id, Client: core.Normalize(client), Timestamp: ts, AmountCents: amountCents,
	})
	return id, nil
}

func (r *recordingBackend) Delete(_ context.Context, id int64) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingBackend) ListBetween(_ context.Context, _, _ time.Time) ([]core.Session, error) {
	return r.sessions, nil
}

func (r *recordingBackend) DistinctClients(_ context.Context) ([]string, error) {
	return nil, nil
}

func (r *recordingBackend) Get(_ context.Context, client string, _, _ int) (core.Payment, error) {
	return r.payments[client], nil
}

func (r *recordingBackend) Upsert(_ context.Context, client string, _, _ int, paid bool, paidOn *time.Time) error {
	if !paid {
		paidOn = nil
	}
	r.payments[core.Normalize(client)] = core.Payment{Paid: paid, PaidOn: paidOn}
	return nil
}

func TestHandleEvent_SessionRecorded(t *testing.T) {
	remote := newRecordingBackend()
	w := NewMirrorWorker(remote)

	e := amqp.NewSessionRecorded(7, "Ana Lopez", "2025-03-10 15:00:00", 3000000)
	if err := w.HandleEvent(e); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(remote.sessions) != 1 {
		t.Fatalf("got %d mirrored sessions, want 1", len(remote.sessions))
	}
	s := remote.sessions[0]
	if s.Client != "Ana Lopez" || s.AmountCents != 3000000 {
		t.Fatalf("mirrored session = %+v", s)
	}
	if s.Timestamp.Format(core.TimestampLayout) != "2025-03-10 15:00:00" {
		t.Fatalf("mirrored timestamp = %v", s.Timestamp)
	}
}

func TestHandleEvent_SessionRecorded_BadTimestamp(t *testing.T) {
	w := NewMirrorWorker(newRecordingBackend())
	e := amqp.NewSessionRecorded(7, "Ana", "not-a-time", 100)
	if err := w.HandleEvent(e); err == nil {
		t.Fatalf("bad timestamp accepted")
	}
}

func TestHandleEvent_SessionDeleted(t *testing.T) {
	remote := newRecordingBackend()
	w := NewMirrorWorker(remote)

	if err := w.HandleEvent(amqp.NewSessionDeleted(7)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(remote.deleted) != 1 || remote.deleted[0] != 7 {
		t.Fatalf("deleted = %v", remote.deleted)
	}
}

func TestHandleEvent_PaymentUpserted(t *testing.T) {
	remote := newRecordingBackend()
	w := NewMirrorWorker(remote)

	paidOn := "2025-04-02"
	if err := w.HandleEvent(amqp.NewPaymentUpserted("Ana Lopez", 2025, 3, true, &paidOn)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	p := remote.payments["Ana Lopez"]
	if !p.Paid || p.PaidOn == nil || p.PaidOn.Format("2006-01-02") != "2025-04-02" {
		t.Fatalf("mirrored payment = %+v", p)
	}

	if err := w.HandleEvent(amqp.NewPaymentUpserted("Ana Lopez", 2025, 3, false, &paidOn)); err != nil {
		t.Fatalf("HandleEvent unpaid: %v", err)
	}
	p = remote.payments["Ana Lopez"]
	if p.Paid || p.PaidOn != nil {
		t.Fatalf("unpaid mirror kept a date: %+v", p)
	}
}

func TestHandleEvent_UnknownKind(t *testing.T) {
	w := NewMirrorWorker(newRecordingBackend())
	if err := w.HandleEvent(&amqp.MirrorEvent{Kind: "session_renamed"}); err == nil {
		t.Fatalf("unknown kind accepted")
	}
}
