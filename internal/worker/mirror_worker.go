// Package worker replays mirror events from the queue into the hosted
// backend, keeping a remote copy of a locally-run deployment.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entrenos/internal/amqp"
	"entrenos/internal/backend"
	"entrenos/internal/core"
)

// MirrorWorker applies queued local writes to the remote store.
type MirrorWorker struct {
	remote backend.Backend
}

func NewMirrorWorker(remote backend.Backend) *MirrorWorker {
	return &MirrorWorker{remote: remote}
}

// HandleEvent applies one mirror event. Errors propagate so the consumer
// nacks and requeues.
func (w *MirrorWorker) HandleEvent(e *amqp.MirrorEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch e.Kind {
	case amqp.KindSessionRecorded:
		ts, err := time.ParseInLocation(core.TimestampLayout, e.TS, time.Local)
		if err != nil {
			return fmt.Errorf("parse event timestamp %q: %w", e.TS, err)
		}
		id, err := w.remote.Add(ctx, e.Client, ts, e.AmountCents)
		if err != nil {
			return fmt.Errorf("mirror session: %w", err)
		}
		slog.InfoContext(ctx, "Mirrored session",
			"local_id", e.SessionID, "remote_id", id, "client", e.Client)
		return nil

	case amqp.KindSessionDeleted:
		// Remote ids are assigned independently, so deletion mirrors by
		// the local id only when the remote row carries it. A miss is a
		// no-op by the store contract.
		if err := w.remote.Delete(ctx, e.SessionID); err != nil {
			return fmt.Errorf("mirror deletion: %w", err)
		}
		slog.InfoContext(ctx, "Mirrored session deletion", "id", e.SessionID)
		return nil

	case amqp.KindPaymentUpserted:
		var paidOn *time.Time
		if e.Paid && e.PaidOn != nil {
			t, err := time.ParseInLocation("2006-01-02", *e.PaidOn, time.Local)
			if err != nil {
				return fmt.Errorf("parse paid_on %q: %w", *e.PaidOn, err)
			}
			paidOn = &t
		}
		if err := w.remote.Upsert(ctx, e.Client, e.Year, e.Month, e.Paid, paidOn); err != nil {
			return fmt.Errorf("mirror payment: %w", err)
		}
		slog.InfoContext(ctx, "Mirrored payment",
			"client", e.Client, "year", e.Year, "month", e.Month, "paid", e.Paid)
		return nil

	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
}
