// Package services orchestrates writes: persist to the active backend,
// then publish a mirror event when AMQP is configured. Publish failures
// never fail the local write.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entrenos/internal/amqp"
	"entrenos/internal/backend"
	"entrenos/internal/core"
)

// Bookkeeper is the single write path for sessions and payments.
type Bookkeeper struct {
	store      backend.Backend
	amqpClient *amqp.Client
}

func NewBookkeeper(store backend.Backend, amqpClient *amqp.Client) *Bookkeeper {
	return &Bookkeeper{store: store, amqpClient: amqpClient}
}

// RecordSession validates and persists one class, then mirrors it.
func (b *Bookkeeper) RecordSession(ctx context.Context, client string, ts time.Time, amountCents int64) (int64, error) {
	id, err := b.store.Add(ctx, client, ts, amountCents)
	if err != nil {
		return 0, fmt.Errorf("record session: %w", err)
	}

	b.publish(ctx, amqp.NewSessionRecorded(
		id, core.Normalize(client), ts.Format(core.TimestampLayout), amountCents))
	return id, nil
}

// DeleteSession removes a class by id (no-op for missing ids) and mirrors
// the deletion.
func (b *Bookkeeper) DeleteSession(ctx context.Context, id int64) error {
	if err := b.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	b.publish(ctx, amqp.NewSessionDeleted(id))
	return nil
}

// SetPayment upserts the ledger row and mirrors the new state.
func (b *Bookkeeper) SetPayment(ctx context.Context, client string, year, month int, paid bool, paidOn *time.Time) error {
	if err := b.store.Upsert(ctx, client, year, month, paid, paidOn); err != nil {
		return fmt.Errorf("set payment: %w", err)
	}

	var paidOnStr *string
	if paid && paidOn != nil {
		d := paidOn.Format("2006-01-02")
		paidOnStr = &d
	}
	b.publish(ctx, amqp.NewPaymentUpserted(core.Normalize(client), year, month, paid, paidOnStr))
	return nil
}

func (b *Bookkeeper) publish(ctx context.Context, e *amqp.MirrorEvent) {
	if b.amqpClient == nil {
		return
	}
	if err := b.amqpClient.Publish(ctx, e); err != nil {
		// The local write already succeeded; the periodic worker pass
		// has no backlog to recover here, so just surface the failure.
		slog.ErrorContext(ctx, "Failed to publish mirror event",
			"kind", e.Kind, "error", err)
	}
}

// Close releases the AMQP connection if one was configured.
func (b *Bookkeeper) Close() error {
	if b.amqpClient != nil {
		return b.amqpClient.Close()
	}
	return nil
}
