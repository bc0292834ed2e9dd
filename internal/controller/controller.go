// Package controller is the per-call conversation state machine. Each turn
// it reads the call's record, consumes the caller's utterance, transitions
// state, and returns the next line to speak. All side effects at terminal
// states go through the dispatcher's one-shot gates.
package controller

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/frontdesk/internal/intent"
	"github.com/MikeSquared-Agency/frontdesk/internal/observability"
	"github.com/MikeSquared-Agency/frontdesk/internal/session"
	"github.com/MikeSquared-Agency/frontdesk/internal/slots"
)

const (
	// maxSlotRejections caps the offer loop; past it the call falls back
	// to message-taking.
	maxSlotRejections = 4
	// maxFieldRetries bounds extraction retries before the raw utterance
	// is accepted verbatim: gentle re-ask, directive re-ask, then the
	// third failure accepts what was said.
	maxFieldRetries = 3
	// defaultSearchDays is the availability window when the caller has no
	// stated preference.
	defaultSearchDays = 14
)

// IntentClassifier decides what the caller wants.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string) intent.Intent
}

// AvailabilityLister is the calendar query side.
type AvailabilityLister interface {
	ListAvailability(ctx context.Context, from, to time.Time) ([]slots.Slot, error)
}

// OutcomeDispatcher fires terminal side effects, idempotently.
type OutcomeDispatcher interface {
	DispatchBooking(ctx context.Context, rec *session.Record)
	DispatchMessage(ctx context.Context, rec *session.Record)
}

type Controller struct {
	sessions   *session.Store
	classifier IntentClassifier
	calendar   AvailabilityLister
	dispatcher OutcomeDispatcher
	metrics    *observability.Metrics
	logger     *slog.Logger
	loc        *time.Location

	// now is swappable for tests.
	now func() time.Time
}

func New(sessions *session.Store, classifier IntentClassifier, cal AvailabilityLister,
	dispatcher OutcomeDispatcher, metrics *observability.Metrics,
	loc *time.Location, logger *slog.Logger) *Controller {
	return &Controller{
		sessions:   sessions,
		classifier: classifier,
		calendar:   cal,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		loc:        loc,
		now:        time.Now,
	}
}

// HandleTurn processes one turn of one call: utterance in, line to speak
// out, plus whether to hang up. The record lock makes the whole turn's
// mutation atomic with respect to a duplicated delivery.
func (c *Controller) HandleTurn(ctx context.Context, callID, utterance string) (reply string, end bool) {
	if c.metrics != nil {
		c.metrics.TurnsTotal.Inc()
	}

	rec, created := c.sessions.GetOrCreate(callID)
	if created {
		c.logger.Info("call started", "call_id", callID)
		if c.metrics != nil {
			c.metrics.ActiveCalls.Inc()
		}
	}

	rec.Lock()
	defer rec.Unlock()

	defer func() {
		if r := recover(); r != nil {
			// The sole fatal path: apologize once and end the call.
			c.logger.Error("turn processing panicked", "call_id", callID, "panic", r)
			if !rec.Ended {
				c.finish(rec, session.StateDeclined, "error")
			}
			reply, end = apologyLine, true
		}
	}()

	if rec.Ended {
		// Duplicate delivery after the terminal turn. The one-shot flags
		// already fired; just reconfirm the hang-up.
		return goodbyeLine, true
	}

	utterance = strings.TrimSpace(utterance)
	if utterance != "" {
		rec.AppendTurn("caller", utterance)
	}

	reply = c.step(ctx, rec, utterance)
	rec.AppendTurn("assistant", reply)

	c.logger.Debug("turn processed",
		"call_id", callID, "state", string(rec.State), "ended", rec.Ended)
	return reply, rec.Ended
}

func (c *Controller) step(ctx context.Context, rec *session.Record, utterance string) string {
	switch rec.State {
	case session.StateGreeting:
		return c.handleGreeting(ctx, rec, utterance)
	case session.StateAwaitingIntent, session.StateIntentClarification:
		return c.handleIntentRouting(ctx, rec, utterance)
	case session.StateInquiry:
		return c.handleInquiry(ctx, rec, utterance)
	case session.StateOfficeHours:
		return c.handleOfficeHours(ctx, rec, utterance)
	case session.StateCalendarCheck:
		return c.handleCalendarCheck(ctx, rec)
	case session.StateOfferSlots:
		return c.handleOfferSlots(rec, utterance)
	case session.StateAskPreferredTime:
		return c.handleAskPreferredTime(rec, utterance)
	case session.StateMessageFallback:
		return c.handleMessageFallback(rec, utterance)

	case session.StateFirstName, session.StateLastName, session.StatePhone,
		session.StateEmail, session.StateReferral, session.StateCallReason,
		session.StateMsgFirstName, session.StateMsgLastName, session.StateMsgPhone,
		session.StateMsgEmail, session.StateMsgContent:
		return c.handleCollect(rec, utterance)
	case session.StateEmailConfirm, session.StateMsgEmailConfirm:
		return c.handleEmailConfirm(rec, utterance)
	case session.StatePriorClient:
		return c.handlePriorClient(rec, utterance)
	case session.StateApptConfirm:
		return c.handleApptConfirm(ctx, rec, utterance)
	case session.StateMsgConfirm:
		return c.handleMsgConfirm(ctx, rec, utterance)

	default:
		// Terminal states never transition; a turn landing here after the
		// end flag check is a duplicate.
		return goodbyeLine
	}
}

// handleGreeting speaks the fixed greeting exactly once. A caller who talks
// over the greeting turn gets routed immediately so their words are not
// thrown away.
func (c *Controller) handleGreeting(ctx context.Context, rec *session.Record, utterance string) string {
	rec.State = session.StateAwaitingIntent
	if utterance == "" {
		return greetingLine
	}
	return greetingLine + " " + c.handleIntentRouting(ctx, rec, utterance)
}

func (c *Controller) handleIntentRouting(ctx context.Context, rec *session.Record, utterance string) string {
	if utterance == "" {
		if rec.State == session.StateIntentClarification {
			return clarifyLine
		}
		return howCanIHelpLine
	}

	it := c.classifier.Classify(ctx, utterance)
	return c.routeIntent(rec, it, utterance)
}

func (c *Controller) routeIntent(rec *session.Record, it intent.Intent, utterance string) string {
	switch it {
	case intent.Appointment:
		rec.Intent = intent.Appointment
		return c.startCalendarCheck(rec, utterance)

	case intent.Message:
		rec.Intent = intent.Message
		rec.State = session.StateMsgFirstName
		return msgIntroPrompt

	case intent.Inquiry:
		rec.Intent = intent.Inquiry
		rec.State = session.StateInquiry
		return inquiryLine

	case intent.OfficeHours:
		rec.Intent = intent.OfficeHours
		rec.State = session.StateOfficeHours
		rec.ClarifyRetry = session.Retry{}
		return officeHoursLine

	case intent.Callback:
		rec.Intent = intent.Callback
		return c.finish(rec, session.StateCallbackEnd, "callback") + callbackLine

	default: // unclear
		if rec.State == session.StateIntentClarification {
			// Asked once already; default to the appointment path rather
			// than loop.
			rec.Intent = intent.Appointment
			return c.startCalendarCheck(rec, utterance)
		}
		rec.State = session.StateIntentClarification
		return clarifyLine
	}
}

// startCalendarCheck enters the two-phase calendar state: this turn only
// announces the check, the next turn runs the query. Telephony loops need a
// line to speak before another network call resolves.
func (c *Controller) startCalendarCheck(rec *session.Record, utterance string) string {
	now := c.now()
	if from, to, ok := preferenceWindow(utterance, now, c.loc); ok {
		rec.SearchFrom, rec.SearchTo = from, to
	} else {
		rec.SearchFrom = now
		rec.SearchTo = now.AddDate(0, 0, defaultSearchDays)
	}
	rec.State = session.StateCalendarCheck
	return checkingCalendarLine
}

func (c *Controller) handleCalendarCheck(ctx context.Context, rec *session.Record) string {
	avail, err := c.calendar.ListAvailability(ctx, rec.SearchFrom, rec.SearchTo)
	if err != nil {
		// Never dead-end the caller on a provider failure.
		c.logger.Error("availability query failed", "call_id", rec.CallID, "error", err)
		avail = nil
	}
	if len(avail) == 0 {
		rec.State = session.StateMessageFallback
		return noSlotsLine
	}

	rec.OfferedSlots = avail
	rec.SelectedSlot = nil
	rec.State = session.StateOfferSlots
	return offerSlotLine(avail[0])
}

func (c *Controller) handleOfferSlots(rec *session.Record, utterance string) string {
	resp := slots.ResolveResponse(utterance, rec.OfferedSlots)

	switch resp.Kind {
	case slots.Accept:
		slot := resp.Slot
		rec.SelectedSlot = &slot
		rec.State = session.StateFirstName
		rec.NameRetry = session.Retry{}
		return "Wonderful, I'll hold that time. " + firstNamePrompt

	case slots.TimePreference:
		// The caller named a different time; re-run the check with that
		// window, skipping the explicit ask.
		now := c.now()
		if from, to, ok := preferenceWindow(resp.Preference, now, c.loc); ok {
			rec.SearchFrom, rec.SearchTo = from, to
		} else {
			rec.SearchFrom = now
			rec.SearchTo = now.AddDate(0, 0, defaultSearchDays)
		}
		rec.State = session.StateCalendarCheck
		return checkingCalendarLine

	case slots.Reject:
		rec.SlotRejections++
		if rec.SlotRejections >= maxSlotRejections {
			rec.State = session.StateMessageFallback
			return slotLimitLine
		}
		rec.State = session.StateAskPreferredTime
		rec.PrefRetry = session.Retry{}
		return askPreferredTimeLine

	default: // ambiguous — re-offer the same slot, no penalty
		return offerSlotLine(rec.OfferedSlots[0])
	}
}

func (c *Controller) handleAskPreferredTime(rec *session.Record, utterance string) string {
	now := c.now()
	if from, to, ok := preferenceWindow(utterance, now, c.loc); ok {
		rec.SearchFrom, rec.SearchTo = from, to
		rec.State = session.StateCalendarCheck
		return checkingCalendarLine
	}
	if slots.IsNegative(utterance) {
		rec.State = session.StateMessageFallback
		return messageOfferLine
	}

	rec.PrefRetry.Bump()
	if rec.PrefRetry.Exhausted(maxFieldRetries) {
		// Stop pressing; search the default window instead.
		rec.SearchFrom = now
		rec.SearchTo = now.AddDate(0, 0, defaultSearchDays)
		rec.State = session.StateCalendarCheck
		return checkingCalendarLine
	}
	return askPreferredTimeDirectiveLine
}

func (c *Controller) handleMessageFallback(rec *session.Record, utterance string) string {
	if slots.IsAffirmative(utterance) {
		rec.Intent = intent.Message
		rec.State = session.StateMsgFirstName
		rec.NameRetry = session.Retry{}
		return msgIntroPrompt
	}
	if slots.IsNegative(utterance) {
		return c.finish(rec, session.StateDeclined, "declined") + declinedLine
	}
	return messageOfferLine
}

// handleInquiry is the speak-to-a-person branch. It never routes toward
// booking on its own: an affirmative means message-taking, and anything
// else goes back through intent classification.
func (c *Controller) handleInquiry(ctx context.Context, rec *session.Record, utterance string) string {
	if slots.IsAffirmative(utterance) {
		rec.Intent = intent.Message
		rec.State = session.StateMsgFirstName
		rec.NameRetry = session.Retry{}
		return msgIntroPrompt
	}
	if slots.IsNegative(utterance) {
		return c.finish(rec, session.StateDeclined, "declined") + declinedLine
	}
	if utterance == "" {
		return inquiryLine
	}

	it := c.classifier.Classify(ctx, utterance)
	if it == intent.Unclear || it == intent.Inquiry {
		return inquiryLine
	}
	return c.routeIntent(rec, it, utterance)
}

// handleOfficeHours offered "message or booking"; a bare yes is ambiguous
// between the two, so it re-asks rather than guessing.
func (c *Controller) handleOfficeHours(ctx context.Context, rec *session.Record, utterance string) string {
	if slots.IsNegative(utterance) {
		return c.finish(rec, session.StateDeclined, "declined") + declinedLine
	}
	if slots.IsAffirmative(utterance) || utterance == "" {
		return officeHoursAsk
	}

	it := c.classifier.Classify(ctx, utterance)
	switch it {
	case intent.Appointment, intent.Message, intent.Callback:
		return c.routeIntent(rec, it, utterance)
	}

	rec.ClarifyRetry.Bump()
	if rec.ClarifyRetry.Exhausted(maxFieldRetries) {
		rec.State = session.StateMessageFallback
		return messageOfferLine
	}
	return officeHoursAsk
}

// finish marks the record terminal and records the outcome. Returns an
// empty string so call sites can prepend it to the farewell line.
func (c *Controller) finish(rec *session.Record, terminal session.State, outcome string) string {
	rec.State = terminal
	rec.End()
	c.logger.Info("call ended", "call_id", rec.CallID, "outcome", outcome, "state", string(terminal))
	if c.metrics != nil {
		c.metrics.CallsCompleted.WithLabelValues(outcome).Inc()
		c.metrics.ActiveCalls.Dec()
	}
	return ""
}
