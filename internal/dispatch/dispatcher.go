// Package dispatch fires the per-call side effects exactly once: the
// calendar booking and the outbound notification event. Both are
// best-effort; a failure is logged, carried in the event payload, and never
// re-opens the state machine.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/frontdesk/internal/archive"
	"github.com/MikeSquared-Agency/frontdesk/internal/calendar"
	"github.com/MikeSquared-Agency/frontdesk/internal/notify"
	"github.com/MikeSquared-Agency/frontdesk/internal/observability"
	"github.com/MikeSquared-Agency/frontdesk/internal/session"
	"github.com/MikeSquared-Agency/frontdesk/internal/slots"
)

// BookingCreator is the calendar side of dispatch.
type BookingCreator interface {
	CreateBooking(ctx context.Context, slot slots.Slot, contact calendar.Contact) (string, error)
}

// Publisher is the notification sink.
type Publisher interface {
	Publish(subject string, data any) error
}

// Archiver persists completed calls. May be absent.
type Archiver interface {
	SaveOutcome(ctx context.Context, o archive.Outcome) error
}

// BookingEvent is published on notify.SubjectBooking. It always fires when
// a booking call completes, even if the calendar write failed — the caller
// has already been told the appointment is set, so downstream reconciles
// from BookingError.
type BookingEvent struct {
	EventID     string `json:"event_id"`
	CallID      string `json:"call_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	PriorClient *bool  `json:"prior_client,omitempty"`
	Referral    string `json:"referral,omitempty"`
	CallReason  string `json:"call_reason"`
	SlotStart   string `json:"slot_start"`
	BookingRef  string `json:"booking_ref,omitempty"`
	BookingErr  string `json:"booking_error,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// MessageEvent is published on notify.SubjectMessage.
type MessageEvent struct {
	EventID   string `json:"event_id"`
	CallID    string `json:"call_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Summary   string `json:"summary"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type Dispatcher struct {
	calendar BookingCreator
	notify   Publisher
	archive  Archiver
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func New(cal BookingCreator, pub Publisher, arc Archiver, metrics *observability.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		calendar: cal,
		notify:   pub,
		archive:  arc,
		metrics:  metrics,
		logger:   logger,
	}
}

// DispatchBooking creates the booking and emits the notification event for
// an appointment-complete call. The caller holds the record lock. The
// one-shot flag is set before any network attempt, so a duplicated terminal
// turn can never fire twice.
func (d *Dispatcher) DispatchBooking(ctx context.Context, rec *session.Record) {
	if rec.BookingDispatched {
		return
	}
	rec.BookingDispatched = true

	status := "ok"
	if rec.SelectedSlot != nil {
		ref, err := d.calendar.CreateBooking(ctx, *rec.SelectedSlot, calendar.Contact{
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			Email:     rec.Email,
			Phone:     rec.Phone,
			Reason:    rec.CallReason,
		})
		if err != nil {
			// The caller already heard a confirmation; the event below
			// carries the true outcome for reconciliation.
			d.logger.Error("booking creation failed", "call_id", rec.CallID, "error", err)
			rec.BookingError = err.Error()
			status = "error"
		} else {
			rec.BookingRef = ref
		}
	} else {
		rec.BookingError = "no slot selected"
		status = "error"
	}

	evt := BookingEvent{
		EventID:     uuid.NewString(),
		CallID:      rec.CallID,
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		Email:       rec.Email,
		Phone:       rec.Phone,
		PriorClient: rec.PriorClient,
		Referral:    rec.Referral,
		CallReason:  rec.CallReason,
		BookingRef:  rec.BookingRef,
		BookingErr:  rec.BookingError,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if rec.SelectedSlot != nil {
		evt.SlotStart = rec.SelectedSlot.Timestamp()
	}
	if err := d.notify.Publish(notify.SubjectBooking, evt); err != nil {
		d.logger.Error("booking notification failed", "call_id", rec.CallID, "error", err)
		status = "error"
	}
	if d.metrics != nil {
		d.metrics.Dispatches.WithLabelValues("booking", status).Inc()
	}

	d.archiveOutcome(ctx, rec, "booking")
}

// DispatchMessage emits the notification event for a message-complete call,
// gated by its own one-shot flag.
func (d *Dispatcher) DispatchMessage(ctx context.Context, rec *session.Record) {
	if rec.MessageDispatched {
		return
	}
	rec.MessageDispatched = true

	evt := MessageEvent{
		EventID:   uuid.NewString(),
		CallID:    rec.CallID,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Email:     rec.Email,
		Phone:     rec.Phone,
		Summary:   messageSummary(rec),
		Message:   rec.MessageBody,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	status := "ok"
	if err := d.notify.Publish(notify.SubjectMessage, evt); err != nil {
		d.logger.Error("message notification failed", "call_id", rec.CallID, "error", err)
		status = "error"
	}
	if d.metrics != nil {
		d.metrics.Dispatches.WithLabelValues("message", status).Inc()
	}

	d.archiveOutcome(ctx, rec, "message")
}

func (d *Dispatcher) archiveOutcome(ctx context.Context, rec *session.Record, outcome string) {
	if d.archive == nil {
		return
	}
	o := archive.Outcome{
		CallID:       rec.CallID,
		Intent:       string(rec.Intent),
		Outcome:      outcome,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		Email:        rec.Email,
		Phone:        rec.Phone,
		PriorClient:  rec.PriorClient,
		Referral:     rec.Referral,
		CallReason:   rec.CallReason,
		MessageBody:  rec.MessageBody,
		BookingRef:   rec.BookingRef,
		BookingError: rec.BookingError,
	}
	if rec.SelectedSlot != nil {
		t := rec.SelectedSlot.Start
		o.SlotStart = &t
	}
	if err := d.archive.SaveOutcome(ctx, o); err != nil {
		d.logger.Error("archive write failed", "call_id", rec.CallID, "error", err)
	}
}

func messageSummary(rec *session.Record) string {
	name := rec.FirstName
	if rec.LastName != "" {
		name += " " + rec.LastName
	}
	if name == "" {
		name = "A caller"
	}
	return name + " left a message; call back at " + rec.Phone
}
