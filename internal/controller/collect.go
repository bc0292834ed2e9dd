package controller

import (
	"context"
	"strings"

	"github.com/MikeSquared-Agency/frontdesk/internal/extract"
	"github.com/MikeSquared-Agency/frontdesk/internal/session"
	"github.com/MikeSquared-Agency/frontdesk/internal/slots"
)

// captureField runs one data-collection turn: extract, assign, advance. A
// failed extraction keeps the state and escalates the re-prompt wording;
// past the retry bound the raw utterance is accepted verbatim so the call
// always moves forward.
func (c *Controller) captureField(utterance string, retry *session.Retry,
	extractFn func(string) (string, bool), set func(string),
	advance func() string, gentle, directive string) string {

	if utterance == "" {
		retry.Bump()
		if retry.Exhausted(maxFieldRetries) {
			// A dead transcript never traps the call; move on with the
			// field unset.
			return advance()
		}
		return escalate(*retry, gentle, directive)
	}

	if v, ok := extractFn(utterance); ok {
		set(v)
		return advance()
	}

	retry.Bump()
	if retry.Exhausted(maxFieldRetries) {
		set(strings.TrimSpace(utterance))
		return advance()
	}
	return escalate(*retry, gentle, directive)
}

func (c *Controller) handleCollect(rec *session.Record, utterance string) string {
	switch rec.State {

	// Appointment branch.
	case session.StateFirstName:
		return c.captureField(utterance, &rec.NameRetry, extract.Name,
			func(v string) { rec.FirstName = v },
			func() string {
				rec.State = session.StateLastName
				rec.NameRetry = session.Retry{}
				if rec.FirstName == "" {
					return lastNamePrompt
				}
				return "Thanks, " + rec.FirstName + ". " + lastNamePrompt
			},
			firstNameReprompt, firstNameDirective)

	case session.StateLastName:
		return c.captureField(utterance, &rec.NameRetry, extract.Name,
			func(v string) { rec.LastName = v },
			func() string {
				rec.State = session.StatePhone
				rec.PhoneRetry = session.Retry{}
				return phonePrompt
			},
			lastNameReprompt, lastNameDirective)

	case session.StatePhone:
		return c.captureField(utterance, &rec.PhoneRetry, extract.Phone,
			func(v string) { rec.Phone = v },
			func() string {
				rec.State = session.StateEmail
				rec.EmailRetry = session.Retry{}
				return emailPrompt
			},
			phoneReprompt, phoneDirective)

	case session.StateEmail:
		return c.captureField(utterance, &rec.EmailRetry, extract.Email,
			func(v string) { rec.PendingEmail = v },
			func() string { return c.advanceFromEmail(rec, session.StateEmailConfirm) },
			emailReprompt, emailDirective)

	case session.StateReferral:
		return c.captureField(utterance, &rec.ReasonRetry, extract.FreeText,
			func(v string) { rec.Referral = v },
			func() string {
				rec.State = session.StateCallReason
				rec.ReasonRetry = session.Retry{}
				return reasonPrompt
			},
			referralPrompt, referralPrompt)

	case session.StateCallReason:
		return c.captureField(utterance, &rec.ReasonRetry, extract.FreeText,
			func(v string) { rec.CallReason = v },
			func() string {
				rec.State = session.StateApptConfirm
				return apptSummaryLine(rec)
			},
			reasonReprompt, reasonReprompt)

	// Message branch.
	case session.StateMsgFirstName:
		return c.captureField(utterance, &rec.NameRetry, extract.Name,
			func(v string) { rec.FirstName = v },
			func() string {
				rec.State = session.StateMsgLastName
				rec.NameRetry = session.Retry{}
				if rec.FirstName == "" {
					return lastNamePrompt
				}
				return "Thanks, " + rec.FirstName + ". " + lastNamePrompt
			},
			firstNameReprompt, firstNameDirective)

	case session.StateMsgLastName:
		return c.captureField(utterance, &rec.NameRetry, extract.Name,
			func(v string) { rec.LastName = v },
			func() string {
				rec.State = session.StateMsgPhone
				rec.PhoneRetry = session.Retry{}
				return phonePrompt
			},
			lastNameReprompt, lastNameDirective)

	case session.StateMsgPhone:
		return c.captureField(utterance, &rec.PhoneRetry, extract.Phone,
			func(v string) { rec.Phone = v },
			func() string {
				rec.State = session.StateMsgEmail
				rec.EmailRetry = session.Retry{}
				return emailPrompt
			},
			phoneReprompt, phoneDirective)

	case session.StateMsgEmail:
		return c.captureField(utterance, &rec.EmailRetry, extract.Email,
			func(v string) { rec.PendingEmail = v },
			func() string { return c.advanceFromEmail(rec, session.StateMsgEmailConfirm) },
			emailReprompt, emailDirective)

	case session.StateMsgContent:
		return c.captureField(utterance, &rec.ReasonRetry, extract.FreeText,
			func(v string) { rec.MessageBody = v },
			func() string {
				rec.State = session.StateMsgConfirm
				return msgSummaryLine(rec)
			},
			messageContentReprompt, messageContentReprompt)
	}

	return howCanIHelpLine
}

// advanceFromEmail moves to the read-back confirmation, or straight past it
// when there is no candidate to confirm (the transcript gave us nothing).
func (c *Controller) advanceFromEmail(rec *session.Record, confirm session.State) string {
	if rec.PendingEmail == "" {
		return c.afterEmail(rec)
	}
	rec.State = confirm
	return emailConfirmLine(rec.PendingEmail)
}

// afterEmail is the step that follows a confirmed (or abandoned) email for
// the current branch.
func (c *Controller) afterEmail(rec *session.Record) string {
	if rec.State == session.StateMsgEmailConfirm || rec.State == session.StateMsgEmail {
		rec.State = session.StateMsgContent
		rec.ReasonRetry = session.Retry{}
		return messageContentPrompt
	}
	rec.State = session.StatePriorClient
	rec.ClarifyRetry = session.Retry{}
	return priorClientPrompt
}

// handleEmailConfirm is the read-back sub-flow: explicit yes advances,
// explicit no restarts email collection, a partial correction merges into
// the candidate and re-confirms, anything else repeats the read-back.
func (c *Controller) handleEmailConfirm(rec *session.Record, utterance string) string {
	if slots.IsAffirmative(utterance) {
		rec.Email = rec.PendingEmail
		return c.afterEmail(rec)
	}

	// A correction can open with a negative ("no, it's j o n at...");
	// try the merge before treating the reply as a flat no.
	if utterance != "" {
		if merged, ok := extract.MergeEmailCorrection(rec.PendingEmail, utterance); ok {
			rec.PendingEmail = merged
			return emailConfirmLine(merged)
		}
	}

	if slots.IsNegative(utterance) {
		rec.PendingEmail = ""
		rec.EmailRetry = session.Retry{}
		if rec.State == session.StateMsgEmailConfirm {
			rec.State = session.StateMsgEmail
		} else {
			rec.State = session.StateEmail
		}
		return emailRetryPrompt
	}

	// Never guess; read it back again.
	return emailConfirmLine(rec.PendingEmail)
}

func (c *Controller) handlePriorClient(rec *session.Record, utterance string) string {
	if slots.IsAffirmative(utterance) {
		yes := true
		rec.PriorClient = &yes
		// Returning clients skip the referral question.
		rec.State = session.StateCallReason
		rec.ReasonRetry = session.Retry{}
		return reasonPrompt
	}
	if slots.IsNegative(utterance) {
		no := false
		rec.PriorClient = &no
		rec.State = session.StateReferral
		rec.ReasonRetry = session.Retry{}
		return referralPrompt
	}

	rec.ClarifyRetry.Bump()
	if rec.ClarifyRetry.Exhausted(maxFieldRetries) {
		no := false
		rec.PriorClient = &no
		rec.State = session.StateReferral
		rec.ReasonRetry = session.Retry{}
		return referralPrompt
	}
	return priorClientReprompt
}

func (c *Controller) handleApptConfirm(ctx context.Context, rec *session.Record, utterance string) string {
	if slots.IsAffirmative(utterance) {
		line := bookingConfirmedLine(rec)
		c.finish(rec, session.StateApptComplete, "booking")
		c.dispatcher.DispatchBooking(ctx, rec)
		return line
	}
	if slots.IsNegative(utterance) {
		// No partial trust: a rejected summary wipes everything collected.
		rec.ClearContact()
		rec.State = session.StateFirstName
		return startOverLine
	}
	// Ambiguity at final confirmation always re-asks, never assumes.
	return confirmRepromptLine
}

func (c *Controller) handleMsgConfirm(ctx context.Context, rec *session.Record, utterance string) string {
	if slots.IsAffirmative(utterance) {
		line := messageConfirmedLine(rec)
		c.finish(rec, session.StateMsgComplete, "message")
		c.dispatcher.DispatchMessage(ctx, rec)
		return line
	}
	if slots.IsNegative(utterance) {
		rec.ClearContact()
		rec.State = session.StateMsgFirstName
		return startOverLine
	}
	return confirmRepromptLine
}
