package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/frontdesk/internal/calendar"
	"github.com/MikeSquared-Agency/frontdesk/internal/dispatch"
	"github.com/MikeSquared-Agency/frontdesk/internal/intent"
	"github.com/MikeSquared-Agency/frontdesk/internal/session"
	"github.com/MikeSquared-Agency/frontdesk/internal/slots"
)

type fakeCalendar struct {
	slots     []slots.Slot
	listErr   error
	listCalls int
	bookings  int
	bookErr   error
	panicOn   bool
}

func (f *fakeCalendar) ListAvailability(_ context.Context, _, _ time.Time) ([]slots.Slot, error) {
	if f.panicOn {
		panic("calendar exploded")
	}
	f.listCalls++
	return f.slots, f.listErr
}

func (f *fakeCalendar) CreateBooking(_ context.Context, _ slots.Slot, _ calendar.Contact) (string, error) {
	f.bookings++
	if f.bookErr != nil {
		return "", f.bookErr
	}
	return "bk_1", nil
}

type fakeSink struct {
	subjects []string
}

func (f *fakeSink) Publish(subject string, _ any) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakeSink) count(subject string) int {
	n := 0
	for _, s := range f.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

type harness struct {
	ctrl     *Controller
	sessions *session.Store
	cal      *fakeCalendar
	sink     *fakeSink
}

func newHarness(t *testing.T, cal *fakeCalendar) *harness {
	t.Helper()
	logger := slog.Default()
	sessions := session.NewStore()
	sink := &fakeSink{}
	d := dispatch.New(cal, sink, nil, nil, logger)
	classifier := intent.NewClassifier(nil, logger) // keyword fallback only
	ctrl := New(sessions, classifier, cal, d, nil, time.UTC, logger)
	ctrl.now = func() time.Time {
		return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // a Monday
	}
	return &harness{ctrl: ctrl, sessions: sessions, cal: cal, sink: sink}
}

func availableSlots() []slots.Slot {
	return []slots.Slot{
		{Start: time.Date(2026, 3, 3, 10, 15, 0, 0, time.UTC)},
		{Start: time.Date(2026, 3, 3, 11, 0, 0, 0, time.UTC)},
	}
}

func (h *harness) turn(t *testing.T, callID, utterance string) (string, bool) {
	t.Helper()
	return h.ctrl.HandleTurn(context.Background(), callID, utterance)
}

func (h *harness) state(callID string) session.State {
	return h.sessions.Get(callID).State
}

func TestScenarioABooking(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-a"

	reply, end := h.turn(t, id, "")
	if !strings.Contains(reply, "Thank you for calling") || end {
		t.Fatalf("greeting turn: reply=%q end=%v", reply, end)
	}

	h.turn(t, id, "I'd like to book an appointment")
	if h.state(id) != session.StateCalendarCheck {
		t.Fatalf("state after intent = %v", h.state(id))
	}

	reply, _ = h.turn(t, id, "") // second phase of calendar check
	if !strings.Contains(reply, "Tuesday, March 3 at 10:15 AM") {
		t.Fatalf("offer reply = %q", reply)
	}

	h.turn(t, id, "yes")
	h.turn(t, id, "John")
	h.turn(t, id, "Smith")
	h.turn(t, id, "5551234567")
	h.turn(t, id, "john at gmail dot com")
	reply, _ = h.turn(t, id, "yes") // confirm email
	if h.state(id) != session.StatePriorClient {
		t.Fatalf("state after email confirm = %v (reply %q)", h.state(id), reply)
	}
	h.turn(t, id, "no")     // new client
	h.turn(t, id, "friend") // referral
	reply, _ = h.turn(t, id, "tax help")
	if !strings.Contains(reply, "Did I get all of that right?") {
		t.Fatalf("summary reply = %q", reply)
	}

	reply, end = h.turn(t, id, "yes")
	if !end {
		t.Fatal("terminal turn did not end call")
	}
	if !strings.Contains(reply, "booked for Tuesday, March 3 at 10:15 AM") {
		t.Errorf("confirmation reply = %q", reply)
	}

	rec := h.sessions.Get(id)
	if rec.State != session.StateApptComplete {
		t.Errorf("final state = %v", rec.State)
	}
	if rec.FirstName != "John" || rec.LastName != "Smith" ||
		rec.Phone != "5551234567" || rec.Email != "john@gmail.com" ||
		rec.PriorClient == nil || *rec.PriorClient ||
		rec.Referral != "friend" || rec.CallReason != "tax help" {
		t.Errorf("collected fields = %+v", rec)
	}
	if h.cal.bookings != 1 {
		t.Errorf("bookings = %d, want 1", h.cal.bookings)
	}
	if h.sink.count("frontdesk.call.booking") != 1 {
		t.Errorf("booking events = %d, want 1", h.sink.count("frontdesk.call.booking"))
	}
}

func TestTerminalTurnDuplicateDispatchesOnce(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-dup"

	walkToApptConfirm(t, h, id)

	h.turn(t, id, "yes")
	reply, end := h.turn(t, id, "yes") // transport-level duplicate

	if !end {
		t.Error("duplicate terminal turn did not end")
	}
	if reply == "" {
		t.Error("duplicate terminal turn returned empty reply")
	}
	if h.cal.bookings != 1 {
		t.Errorf("bookings = %d, want 1 after duplicate", h.cal.bookings)
	}
	if h.sink.count("frontdesk.call.booking") != 1 {
		t.Errorf("events = %d, want 1 after duplicate", h.sink.count("frontdesk.call.booking"))
	}
}

func TestScenarioBNoSlotsToMessage(t *testing.T) {
	h := newHarness(t, &fakeCalendar{}) // empty calendar
	const id = "call-b"

	h.turn(t, id, "")
	h.turn(t, id, "I need to schedule a consultation")
	reply, _ := h.turn(t, id, "") // calendar check finds nothing
	if h.state(id) != session.StateMessageFallback {
		t.Fatalf("state after empty calendar = %v", h.state(id))
	}
	if !strings.Contains(reply, "leave a message") {
		t.Fatalf("fallback reply = %q", reply)
	}

	h.turn(t, id, "yes")
	if h.state(id) != session.StateMsgFirstName {
		t.Fatalf("state after accepting fallback = %v", h.state(id))
	}

	h.turn(t, id, "Jane")
	h.turn(t, id, "Doe")
	h.turn(t, id, "5559876543")
	h.turn(t, id, "jane at yahoo dot com")
	h.turn(t, id, "yes")
	h.turn(t, id, "please have someone ring me about my estate plan")
	_, end := h.turn(t, id, "yes")

	if !end {
		t.Fatal("message branch did not terminate")
	}
	rec := h.sessions.Get(id)
	if rec.State != session.StateMsgComplete {
		t.Errorf("final state = %v", rec.State)
	}
	if len(rec.OfferedSlots) != 0 {
		t.Error("offer-slots state was entered on an empty calendar")
	}
	if h.cal.bookings != 0 {
		t.Errorf("bookings = %d, want 0", h.cal.bookings)
	}
	if h.sink.count("frontdesk.call.message") != 1 {
		t.Errorf("message events = %d, want 1", h.sink.count("frontdesk.call.message"))
	}
}

func TestScenarioCInquiryBoundary(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-c"

	h.turn(t, id, "")
	reply, _ := h.turn(t, id, "can I speak to someone")
	if h.state(id) != session.StateInquiry {
		t.Fatalf("state = %v, want inquiry", h.state(id))
	}
	if !strings.Contains(reply, "Monday through Friday") {
		t.Errorf("inquiry reply = %q", reply)
	}
	if strings.Contains(strings.ToLower(reply), "book") {
		t.Errorf("inquiry line mentions booking: %q", reply)
	}

	// "yes" here routes only to message-taking, even though the same word
	// accepts a slot in offer-slots.
	h.turn(t, id, "yes")
	if h.state(id) != session.StateMsgFirstName {
		t.Fatalf("state after yes = %v, want message branch", h.state(id))
	}
	if h.cal.listCalls != 0 {
		t.Errorf("calendar was queried %d times from inquiry branch", h.cal.listCalls)
	}
}

func TestInquiryRebookRoutesThroughClassifier(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-rebook"

	h.turn(t, id, "")
	h.turn(t, id, "I want to talk to a person")
	if h.state(id) != session.StateInquiry {
		t.Fatalf("state = %v", h.state(id))
	}

	// Asking to book from inside the inquiry branch goes back through
	// intent classification, then to the calendar.
	h.turn(t, id, "actually I'd like to book an appointment")
	if h.state(id) != session.StateCalendarCheck {
		t.Fatalf("state = %v, want calendar-check", h.state(id))
	}
}

func TestBoundedRejectionLoop(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-reject"

	h.turn(t, id, "")
	h.turn(t, id, "book an appointment please")
	h.turn(t, id, "") // run calendar check

	for i := 1; i <= maxSlotRejections; i++ {
		reply, _ := h.turn(t, id, "no")
		rec := h.sessions.Get(id)
		if rec.SlotRejections != i {
			t.Fatalf("after rejection %d: counter = %d", i, rec.SlotRejections)
		}
		if i < maxSlotRejections {
			if rec.State != session.StateAskPreferredTime {
				t.Fatalf("after rejection %d: state = %v", i, rec.State)
			}
			h.turn(t, id, "tomorrow") // new preference
			h.turn(t, id, "")         // re-run calendar check
		} else {
			if rec.State != session.StateMessageFallback {
				t.Fatalf("after final rejection: state = %v", rec.State)
			}
			if !strings.Contains(reply, "take a message") {
				t.Errorf("final rejection reply = %q", reply)
			}
		}
	}
}

func TestAmbiguityNeverPenalizes(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-ambig"

	h.turn(t, id, "")
	h.turn(t, id, "I'd like to book an appointment")
	first, _ := h.turn(t, id, "")

	reply, _ := h.turn(t, id, "hmm let me think")
	rec := h.sessions.Get(id)
	if rec.SlotRejections != 0 {
		t.Errorf("ambiguous reply bumped rejections to %d", rec.SlotRejections)
	}
	if rec.State != session.StateOfferSlots {
		t.Errorf("state = %v, want offer-slots", rec.State)
	}
	if reply != first {
		t.Errorf("re-offer = %q, want same offer %q", reply, first)
	}
}

func TestSecondUnclearDefaultsToAppointment(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-unclear"

	h.turn(t, id, "")
	h.turn(t, id, "uh the thing with the stuff")
	if h.state(id) != session.StateIntentClarification {
		t.Fatalf("state = %v, want clarification", h.state(id))
	}
	h.turn(t, id, "you know, the whatsit")
	if h.state(id) != session.StateCalendarCheck {
		t.Fatalf("state after second unclear = %v, want calendar-check", h.state(id))
	}
}

func TestCallbackEndsCall(t *testing.T) {
	h := newHarness(t, &fakeCalendar{})
	const id = "call-cb"

	h.turn(t, id, "")
	reply, end := h.turn(t, id, "just have someone call me back")
	if !end {
		t.Fatal("callback did not end call")
	}
	if !strings.Contains(reply, "call you back") {
		t.Errorf("callback reply = %q", reply)
	}
	if h.state(id) != session.StateCallbackEnd {
		t.Errorf("state = %v", h.state(id))
	}
}

func TestEmailCorrectionMergesAndReconfirms(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-email"

	walkToEmail(t, h, id)
	h.turn(t, id, "john at gmai dot com")
	if h.state(id) != session.StateEmailConfirm {
		t.Fatalf("state = %v", h.state(id))
	}

	reply, _ := h.turn(t, id, "no, it's john at gmail dot com")
	rec := h.sessions.Get(id)
	if rec.PendingEmail != "john@gmail.com" {
		t.Fatalf("pending after correction = %q", rec.PendingEmail)
	}
	if rec.State != session.StateEmailConfirm {
		t.Fatalf("correction did not re-confirm, state = %v", rec.State)
	}
	if !strings.Contains(reply, "gmail dot com") {
		t.Errorf("re-confirm reply = %q", reply)
	}

	h.turn(t, id, "yes")
	if got := h.sessions.Get(id).Email; got != "john@gmail.com" {
		t.Errorf("confirmed email = %q", got)
	}
}

func TestEmailFlatNoRestartsCollection(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-email-no"

	walkToEmail(t, h, id)
	h.turn(t, id, "john at gmail dot com")
	h.turn(t, id, "no")

	rec := h.sessions.Get(id)
	if rec.State != session.StateEmail {
		t.Fatalf("state = %v, want email collection restart", rec.State)
	}
	if rec.PendingEmail != "" {
		t.Errorf("pending not cleared: %q", rec.PendingEmail)
	}
}

func TestSummaryRejectionClearsEverything(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-restart"

	walkToApptConfirm(t, h, id)
	h.turn(t, id, "no")

	rec := h.sessions.Get(id)
	if rec.State != session.StateFirstName {
		t.Fatalf("state = %v, want first-name restart", rec.State)
	}
	if rec.FirstName != "" || rec.Email != "" || rec.Phone != "" {
		t.Error("rejected summary left collected fields")
	}
	if rec.Ended {
		t.Error("call ended on summary rejection")
	}
}

func TestConfirmAmbiguityReasks(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-confirm-ambig"

	walkToApptConfirm(t, h, id)
	_, end := h.turn(t, id, "um I guess maybe")
	if end {
		t.Fatal("ambiguous confirmation ended the call")
	}
	rec := h.sessions.Get(id)
	if rec.State != session.StateApptConfirm {
		t.Errorf("state = %v, want still confirming", rec.State)
	}
	if h.cal.bookings != 0 {
		t.Error("ambiguous confirmation dispatched a booking")
	}
}

func TestFieldRetryEscalatesThenForceAccepts(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-retry"

	h.turn(t, id, "")
	h.turn(t, id, "book an appointment")
	h.turn(t, id, "")
	h.turn(t, id, "yes")
	if h.state(id) != session.StateFirstName {
		t.Fatalf("state = %v", h.state(id))
	}

	// Re-prompt wording escalates across failures: gentle, then directive,
	// then the third answer is accepted verbatim so the call never stalls.
	reply, _ := h.turn(t, id, "I want to come in next week")
	if reply != firstNameReprompt {
		t.Fatalf("first failure reply = %q, want gentle re-ask %q", reply, firstNameReprompt)
	}
	reply, _ = h.turn(t, id, "I want to come in next week")
	if reply != firstNameDirective {
		t.Fatalf("second failure reply = %q, want directive re-ask %q", reply, firstNameDirective)
	}
	if h.state(id) != session.StateFirstName {
		t.Fatalf("state advanced before the retry limit: %v", h.state(id))
	}

	h.turn(t, id, "I want to come in next week")
	rec := h.sessions.Get(id)
	if rec.State != session.StateLastName {
		t.Fatalf("state = %v, want advance after retry limit", rec.State)
	}
	if rec.FirstName != "I want to come in next week" {
		t.Errorf("force-accepted value = %q", rec.FirstName)
	}
}

func TestCalendarFailureFallsBackToMessage(t *testing.T) {
	h := newHarness(t, &fakeCalendar{listErr: errors.New("provider down")})
	const id = "call-calerr"

	h.turn(t, id, "")
	h.turn(t, id, "book an appointment")
	reply, end := h.turn(t, id, "")
	if end {
		t.Fatal("calendar failure ended the call")
	}
	if h.state(id) != session.StateMessageFallback {
		t.Fatalf("state = %v, want message fallback", h.state(id))
	}
	if strings.Contains(strings.ToLower(reply), "error") {
		t.Errorf("caller heard a technical error: %q", reply)
	}
}

func TestPanicYieldsSingleApology(t *testing.T) {
	cal := &fakeCalendar{panicOn: true}
	h := newHarness(t, cal)
	const id = "call-panic"

	h.turn(t, id, "")
	h.turn(t, id, "book an appointment")
	reply, end := h.turn(t, id, "") // calendar check panics
	if !end {
		t.Fatal("fatal path did not end the call")
	}
	if reply != apologyLine {
		t.Errorf("reply = %q, want apology", reply)
	}
	if !h.sessions.Get(id).Ended {
		t.Error("record not marked ended after panic")
	}
}

func TestGreetingSpokenOnceEvenWhenTalkedOver(t *testing.T) {
	h := newHarness(t, &fakeCalendar{slots: availableSlots()})
	const id = "call-talkover"

	reply, _ := h.turn(t, id, "hi I'd like to book an appointment")
	if !strings.Contains(reply, "Thank you for calling") {
		t.Errorf("first reply missing greeting: %q", reply)
	}
	if h.state(id) != session.StateCalendarCheck {
		t.Errorf("state = %v, want calendar-check", h.state(id))
	}

	reply, _ = h.turn(t, id, "")
	if strings.Contains(reply, "Thank you for calling Meridian") {
		t.Errorf("greeting repeated: %q", reply)
	}
}

// walkToEmail drives a call up to the email-collection state.
func walkToEmail(t *testing.T, h *harness, id string) {
	t.Helper()
	h.turn(t, id, "")
	h.turn(t, id, "book an appointment")
	h.turn(t, id, "")
	h.turn(t, id, "yes")
	h.turn(t, id, "John")
	h.turn(t, id, "Smith")
	h.turn(t, id, "5551234567")
	if h.state(id) != session.StateEmail {
		t.Fatalf("walkToEmail ended at %v", h.state(id))
	}
}

// walkToApptConfirm drives a call up to the final summary.
func walkToApptConfirm(t *testing.T, h *harness, id string) {
	t.Helper()
	walkToEmail(t, h, id)
	h.turn(t, id, "john at gmail dot com")
	h.turn(t, id, "yes")
	h.turn(t, id, "no")
	h.turn(t, id, "friend")
	h.turn(t, id, "tax help")
	if h.state(id) != session.StateApptConfirm {
		t.Fatalf("walkToApptConfirm ended at %v", h.state(id))
	}
}
