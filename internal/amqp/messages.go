package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event kinds mirrored from the local database to the hosted backend.
const (
	KindSessionRecorded = "session_recorded"
	KindSessionDeleted  = "session_deleted"
	KindPaymentUpserted = "payment_upserted"
)

// MirrorEvent carries one local write so the worker can replay it against
// the hosted backend. The payload is self-contained: the worker never has
// to read the local database back.
type MirrorEvent struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Session fields
	SessionID   int64  `json:"session_id,omitempty"`
	Client      string `json:"client,omitempty"`
	TS          string `json:"ts,omitempty"` // core.TimestampLayout
	AmountCents int64  `json:"amount_cents,omitempty"`

	// Payment fields
	Year   int     `json:"year,omitempty"`
	Month  int     `json:"month,omitempty"`
	Paid   bool    `json:"paid,omitempty"`
	PaidOn *string `json:"paid_on,omitempty"` // ISO date
}

func NewSessionRecorded(id int64, client, ts string, amountCents int64) *MirrorEvent {
	return &MirrorEvent{
		Kind:        KindSessionRecorded,
		Timestamp:   time.Now(),
		SessionID:   id,
		Client:      client,
		TS:          ts,
		AmountCents: amountCents,
	}
}

func NewSessionDeleted(id int64) *MirrorEvent {
	return &MirrorEvent{Kind: KindSessionDeleted, Timestamp: time.Now(), SessionID: id}
}

func NewPaymentUpserted(client string, year, month int, paid bool, paidOn *string) *MirrorEvent {
	return &MirrorEvent{
		Kind:      KindPaymentUpserted,
		Timestamp: time.Now(),
		Client:    client,
		Year:      year,
		Month:     month,
		Paid:      paid,
		PaidOn:    paidOn,
	}
}

func (e *MirrorEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func MirrorEventFromJSON(data []byte) (*MirrorEvent, error) {
	var e MirrorEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Kind {
	case KindSessionRecorded, KindSessionDeleted, KindPaymentUpserted:
		return &e, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
}
