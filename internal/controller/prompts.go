package controller

import (
	"fmt"

	"github.com/MikeSquared-Agency/frontdesk/internal/extract"
	"github.com/MikeSquared-Agency/frontdesk/internal/session"
	"github.com/MikeSquared-Agency/frontdesk/internal/slots"
)

// Fixed lines. The greeting is spoken verbatim on the first turn and never
// repeated.
const (
	greetingLine = "Thank you for calling Meridian Advisory Group. This is the automated assistant. How can I help you today?"

	howCanIHelpLine = "How can I help you today?"
	clarifyLine     = "I'm sorry, I didn't quite catch that. Are you calling to book a consultation, or to leave a message for the office?"

	officeHoursInfo = "Our office is open Monday through Friday, nine A M to five P M."

	// Spoken in the inquiry branch. Deliberately never mentions booking.
	inquiryLine = "Everyone is with a client at the moment, but I can help. " + officeHoursInfo + " Would you like to leave a message for the office?"

	officeHoursLine = officeHoursInfo + " Would you like to leave a message, or book a consultation?"
	officeHoursAsk  = "Would you like to leave a message, or book a consultation?"

	callbackLine = "Of course. Someone from the office will call you back as soon as they're free. Thank you for calling, and have a great day."

	checkingCalendarLine = "Let me check the calendar for you. One moment."

	noSlotsLine = "I'm sorry, I don't see any openings in that window. Would you like to leave a message instead, and someone will call you to find a time?"

	slotLimitLine = "I'm having trouble finding a time that works. Let me take a message instead, and someone from the office will call you to sort out a time. Would that be alright?"

	askPreferredTimeLine          = "No problem. What day or time would suit you better?"
	askPreferredTimeDirectiveLine = "A weekday and a time, like Thursday at two P M, works best. When would you like to come in?"

	messageOfferLine = "Alright, I can take a message for the office. Would you like that?"

	declinedLine = "No problem at all. Thank you for calling, and have a great day."

	goodbyeLine = "Thank you for calling. Goodbye."

	apologyLine = "I'm sorry, something went wrong on my end. Please call back in a few minutes. Goodbye."
)

// Field prompts: first ask, gentle re-ask, directive re-ask.
const (
	firstNamePrompt          = "May I have your first name?"
	firstNameReprompt        = "Sorry, I didn't catch that. What's your first name?"
	firstNameDirective       = "Just your first name on its own, please."
	lastNamePrompt           = "And your last name?"
	lastNameReprompt         = "Sorry, what was your last name?"
	lastNameDirective        = "Just your last name on its own, please. Feel free to spell it."
	phonePrompt              = "What's the best phone number to reach you?"
	phoneReprompt            = "Sorry, I didn't get the whole number. Could you say it again?"
	phoneDirective           = "Please say the ten digits one at a time, like five five five, one two three four."
	emailPrompt              = "What's your email address?"
	emailReprompt            = "Sorry, I didn't catch that. Could you say your email address again?"
	emailDirective           = "Try spelling it out letter by letter, saying 'at' and 'dot' where they go."
	emailRetryPrompt         = "No problem, let's try that again. What's your email address?"
	priorClientPrompt        = "Have you worked with our office before?"
	priorClientReprompt      = "Sorry — have you been a client of ours before? Yes or no is fine."
	referralPrompt           = "How did you hear about us?"
	reasonPrompt             = "Briefly, what's the appointment regarding?"
	reasonReprompt           = "Sorry, could you tell me a little about what you'd like help with?"
	messageContentPrompt     = "Go ahead with your message whenever you're ready."
	messageContentReprompt   = "Sorry, I didn't catch the message. Please go ahead."
	msgIntroPrompt           = "Of course, I can take a message. May I have your first name?"
	confirmRepromptLine      = "Sorry — was that all correct? Yes or no is fine."
	startOverLine            = "No problem, let's start over so I get it right. May I have your first name?"
)

func offerSlotLine(s slots.Slot) string {
	return fmt.Sprintf("The earliest opening I have is %s. Does that time work for you?", s.Speakable())
}

func emailConfirmLine(pending string) string {
	return fmt.Sprintf("I have your email as %s. Is that right?", extract.SpellEmail(pending))
}

func bookingConfirmedLine(rec *session.Record) string {
	return fmt.Sprintf("You're all set, %s. Your consultation is booked for %s. We'll send a confirmation to your email. Thank you for calling, and have a great day.",
		rec.FirstName, rec.SelectedSlot.Speakable())
}

func messageConfirmedLine(rec *session.Record) string {
	return fmt.Sprintf("Thanks, %s. I've passed your message along, and someone from the office will get back to you. Have a great day.",
		rec.FirstName)
}

// apptSummaryLine reads the collected appointment details back to the
// caller. Email is spelled, the phone number is spoken digit by digit, and
// the slot is the long-form phrase.
func apptSummaryLine(rec *session.Record) string {
	prior := "you're a new client"
	if rec.PriorClient != nil && *rec.PriorClient {
		prior = "you've worked with us before"
	}
	line := fmt.Sprintf("Let me make sure I have everything. %s %s, phone %s, email %s, %s",
		rec.FirstName, rec.LastName,
		extract.SpeakPhone(rec.Phone), extract.SpellEmail(rec.Email), prior)
	if rec.Referral != "" {
		line += fmt.Sprintf(", referred by %s", rec.Referral)
	}
	line += fmt.Sprintf(", regarding %s, on %s. Did I get all of that right?",
		rec.CallReason, rec.SelectedSlot.Speakable())
	return line
}

func msgSummaryLine(rec *session.Record) string {
	return fmt.Sprintf("Let me read that back. %s %s, phone %s, email %s. Your message: %s. Did I get all of that right?",
		rec.FirstName, rec.LastName,
		extract.SpeakPhone(rec.Phone), extract.SpellEmail(rec.Email), rec.MessageBody)
}

// escalate picks re-prompt wording from the retry count: gentle first,
// directive after that.
func escalate(r session.Retry, gentle, directive string) string {
	if r.Failures <= 1 {
		return gentle
	}
	return directive
}
