// Package archive persists completed call outcomes to Postgres so office
// staff can review what the receptionist handled. Write-only and
// best-effort: the state machine never reads from it and never fails a call
// over it.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS frontdesk_calls (
	id            BIGSERIAL PRIMARY KEY,
	call_id       TEXT NOT NULL,
	intent        TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	first_name    TEXT,
	last_name     TEXT,
	email         TEXT,
	phone         TEXT,
	prior_client  BOOLEAN,
	referral      TEXT,
	call_reason   TEXT,
	message_body  TEXT,
	slot_start    TIMESTAMPTZ,
	booking_ref   TEXT,
	booking_error TEXT,
	completed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS frontdesk_calls_call_id_idx ON frontdesk_calls (call_id);
`

// Outcome is one completed call, flattened for the office log.
type Outcome struct {
	CallID       string
	Intent       string
	Outcome      string // "booking" or "message"
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PriorClient  *bool
	Referral     string
	CallReason   string
	MessageBody  string
	SlotStart    *time.Time
	BookingRef   string
	BookingError string
}

type Archive struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Archive{pool: pool}, nil
}

func (a *Archive) Close() {
	a.pool.Close()
}

// SaveOutcome inserts one completed call row.
func (a *Archive) SaveOutcome(ctx context.Context, o Outcome) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO frontdesk_calls (
			call_id, intent, outcome, first_name, last_name, email, phone,
			prior_client, referral, call_reason, message_body, slot_start,
			booking_ref, booking_error
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		o.CallID, o.Intent, o.Outcome, o.FirstName, o.LastName, o.Email,
		o.Phone, o.PriorClient, o.Referral, o.CallReason, o.MessageBody,
		o.SlotStart, o.BookingRef, o.BookingError,
	)
	if err != nil {
		return fmt.Errorf("insert call outcome: %w", err)
	}
	return nil
}
