// Package intent classifies what a caller wants from the receptionist.
// The primary path asks an LLM oracle constrained to a small label set; a
// deterministic keyword matcher takes over when the oracle is unavailable,
// unsure, or when the call fits one of the categories the oracle cannot
// express.
package intent

import (
	"context"
	"log/slog"
)

// Intent is the classified purpose of a call.
type Intent string

const (
	Appointment Intent = "appointment"
	Message     Intent = "message"
	Inquiry     Intent = "inquiry"
	OfficeHours Intent = "office-hours-question"
	Callback    Intent = "callback"
	Unclear     Intent = "unclear"
)

// confidenceThreshold is the floor below which an oracle answer is
// discarded in favor of the keyword fallback.
const confidenceThreshold = 0.6

// Oracle is the external classifier. Its label vocabulary is a subset of
// the full intent set: appointment, message, speak_to_person, unclear.
type Oracle interface {
	Classify(ctx context.Context, utterance string) (label string, confidence float64, err error)
}

// Classifier adapts the oracle to the full intent vocabulary.
type Classifier struct {
	oracle Oracle
	logger *slog.Logger
	// onFallback is called whenever the keyword matcher decides, for
	// metrics. May be nil.
	onFallback func()
}

func NewClassifier(oracle Oracle, logger *slog.Logger) *Classifier {
	return &Classifier{oracle: oracle, logger: logger}
}

// OnFallback registers a hook invoked each time the keyword fallback is
// used instead of the oracle.
func (c *Classifier) OnFallback(fn func()) {
	c.onFallback = fn
}

// Classify returns the caller's intent. The oracle decides only when it
// answers confidently with a label the keyword matcher does not override;
// the fallback is authoritative for inquiry, office-hours, and callback,
// which the oracle cannot name.
func (c *Classifier) Classify(ctx context.Context, utterance string) Intent {
	fb := matchKeywords(utterance)

	if c.oracle == nil {
		c.fellBack()
		return fb
	}

	label, confidence, err := c.oracle.Classify(ctx, utterance)
	if err != nil {
		c.logger.Warn("intent oracle failed, using keyword fallback", "error", err)
		c.fellBack()
		return fb
	}
	if confidence < confidenceThreshold {
		c.logger.Debug("intent oracle unsure, using keyword fallback",
			"label", label, "confidence", confidence)
		c.fellBack()
		return fb
	}

	// The fallback's extra categories outrank the oracle: a caller asking
	// for office hours often sounds like "unclear" or "message" to the
	// oracle's coarse label set.
	switch fb {
	case Inquiry, OfficeHours, Callback:
		return fb
	}

	switch label {
	case "appointment":
		return Appointment
	case "message":
		return Message
	case "speak_to_person":
		return Inquiry
	case "unclear":
		return fb
	default:
		c.logger.Warn("intent oracle returned unknown label", "label", label)
		c.fellBack()
		return fb
	}
}

func (c *Classifier) fellBack() {
	if c.onFallback != nil {
		c.onFallback()
	}
}
