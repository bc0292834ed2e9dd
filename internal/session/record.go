// Package session holds per-call conversation state. One Record exists per
// active call, created on the first turn and discarded after the call ends.
// The Record's shape is the contract surface the controller, dispatcher,
// and archive all read from.
package session

import (
	"sync"
	"time"

	"github.com/MikeSquared-Agency/frontdesk/internal/intent"
	"github.com/MikeSquared-Agency/frontdesk/internal/slots"
)

// State is one step of the per-call state machine. The set is closed; the
// controller switches exhaustively over it.
type State string

// Shared pre-routing states.
const (
	StateGreeting            State = "greeting"
	StateAwaitingIntent      State = "awaiting-intent"
	StateIntentClarification State = "intent-clarification"
	StateInquiry             State = "inquiry"
	StateOfficeHours         State = "office-hours"
	StateCalendarCheck       State = "calendar-check"
	StateOfferSlots          State = "offer-slots"
	StateAskPreferredTime    State = "ask-preferred-time"
	StateMessageFallback     State = "message-fallback-intro"
)

// Appointment branch.
const (
	StateFirstName    State = "appointment-first-name"
	StateLastName     State = "appointment-last-name"
	StatePhone        State = "appointment-phone"
	StateEmail        State = "appointment-email"
	StateEmailConfirm State = "appointment-email-confirm"
	StatePriorClient  State = "appointment-prior-client"
	StateReferral     State = "appointment-referral"
	StateCallReason   State = "appointment-call-reason"
	StateApptConfirm  State = "appointment-confirm"
	StateApptComplete State = "appointment-complete"
)

// Message branch.
const (
	StateMsgFirstName    State = "message-first-name"
	StateMsgLastName     State = "message-last-name"
	StateMsgPhone        State = "message-phone"
	StateMsgEmail        State = "message-email"
	StateMsgEmailConfirm State = "message-email-confirm"
	StateMsgContent      State = "message-content"
	StateMsgConfirm      State = "message-confirm"
	StateMsgComplete     State = "message-complete"
)

// Terminal-only states.
const (
	StateDeclined    State = "declined"
	StateCallbackEnd State = "callback-end"
)

// historyLimit bounds the per-call turn history.
const historyLimit = 20

// Retry tracks extraction failures for one field. The count only selects
// more directive re-prompt wording; it never blocks forward progress.
type Retry struct {
	Failures int
}

func (r *Retry) Bump() { r.Failures++ }

// Exhausted reports whether the caller has missed max attempts and the raw
// utterance should be accepted verbatim.
func (r *Retry) Exhausted(max int) bool { return r.Failures >= max }

// Turn is one history entry.
type Turn struct {
	Speaker string // "caller" or "assistant"
	Text    string
}

// Record is the mutable conversation state for one call. It is mutated only
// by the controller, under the Record's own lock, one turn at a time.
type Record struct {
	sync.Mutex

	CallID string
	State  State
	Intent intent.Intent

	FirstName    string
	LastName     string
	Phone        string
	PendingEmail string // candidate awaiting read-back confirmation
	Email        string // confirmed
	PriorClient  *bool
	Referral     string
	CallReason   string
	MessageBody  string

	OfferedSlots   []slots.Slot
	SelectedSlot   *slots.Slot
	SlotRejections int

	// Availability search window for the next calendar query.
	SearchFrom time.Time
	SearchTo   time.Time

	NameRetry    Retry
	PhoneRetry   Retry
	EmailRetry   Retry
	ReasonRetry  Retry
	PrefRetry    Retry // ask-preferred-time attempts
	ClarifyRetry Retry // yes/no clarifications outside confirm states

	// One-shot dispatch flags. Once true, the corresponding side effect
	// never fires again for this call.
	BookingDispatched bool
	MessageDispatched bool

	// Booking outcome, recorded by the dispatcher for the archive.
	BookingRef   string
	BookingError string

	Ended   bool
	EndedAt time.Time

	History []Turn

	CreatedAt time.Time
}

// AppendTurn records a history entry, keeping only the most recent window.
func (r *Record) AppendTurn(speaker, text string) {
	if text == "" {
		return
	}
	r.History = append(r.History, Turn{Speaker: speaker, Text: text})
	if len(r.History) > historyLimit {
		r.History = r.History[len(r.History)-historyLimit:]
	}
}

// End marks the record terminal. No state transition happens after this.
func (r *Record) End() {
	if r.Ended {
		return
	}
	r.Ended = true
	r.EndedAt = time.Now()
}

// ClearContact wipes every collected field for the current branch. Used when
// the caller rejects the final summary: once they say it is wrong, nothing
// already collected is trusted.
func (r *Record) ClearContact() {
	r.FirstName = ""
	r.LastName = ""
	r.Phone = ""
	r.PendingEmail = ""
	r.Email = ""
	r.PriorClient = nil
	r.Referral = ""
	r.CallReason = ""
	r.MessageBody = ""
	r.NameRetry = Retry{}
	r.PhoneRetry = Retry{}
	r.EmailRetry = Retry{}
	r.ReasonRetry = Retry{}
	r.ClarifyRetry = Retry{}
}
