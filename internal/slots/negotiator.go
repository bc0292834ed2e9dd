package slots

import (
	"regexp"
	"strings"
)

// ResponseKind classifies a caller's reply to an offered slot.
type ResponseKind int

const (
	// Ambiguous means the reply was neither a clear accept, reject, nor a
	// time preference. The caller is never penalized for ambiguity.
	Ambiguous ResponseKind = iota
	// Accept means the caller took one of the offered slots.
	Accept
	// Reject means the caller explicitly turned the offer down.
	Reject
	// TimePreference means the caller named a different time instead.
	TimePreference
)

// Response is the negotiator's reading of a caller utterance.
type Response struct {
	Kind ResponseKind
	// Slot is set when Kind == Accept.
	Slot Slot
	// Preference carries the caller's wording when Kind == TimePreference.
	Preference string
}

// Whole-token vocabularies. Matching whole tokens keeps "nothing" from
// reading as "no" and "yesterday" from reading as "yes".
var affirmativeWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "sure": true,
	"ok": true, "okay": true, "correct": true, "right": true,
	"perfect": true, "fine": true, "absolutely": true, "definitely": true,
	"great": true, "good": true, "works": true, "sounds": true,
}

var negativeWords = map[string]bool{
	"no": true, "nope": true, "nah": true, "not": true, "cant": true,
	"cannot": true, "dont": true, "doesnt": true, "wont": true,
	"nothing": true, "neither": true, "unavailable": true, "busy": true,
}

// ordinalWords map positionally into the offered slot list.
var ordinalWords = map[string]int{
	"first": 0, "second": 1, "third": 2, "fourth": 3,
}

// numberWords are positional only after "option" or "number".
var numberWords = map[string]int{
	"one": 0, "two": 1, "three": 2, "four": 3,
	"1": 0, "2": 1, "3": 2, "4": 3,
}

var timeWords = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"tomorrow": true, "today": true, "morning": true, "afternoon": true,
	"evening": true, "noon": true, "week": true,
}

var clockRe = regexp.MustCompile(`\b\d{1,2}(:\d{2})?\s*(a\.?m\.?|p\.?m\.?|o'?clock)\b`)

// ResolveResponse interprets the caller's reply to a list of offered slots.
// Precedence: ordinal reference, then affirmative (accepts the earliest
// offered slot), then a concrete time expression, then rejection. Negatives
// are checked after time expressions so "no, what about Thursday" reads as
// a preference, not a flat rejection.
func ResolveResponse(utterance string, offered []Slot) Response {
	tokens := tokenize(utterance)
	if len(tokens) == 0 {
		return Response{Kind: Ambiguous}
	}

	if idx, ok := ordinalRef(tokens); ok && idx < len(offered) {
		return Response{Kind: Accept, Slot: offered[idx]}
	}

	var affirmative, negative bool
	for _, tok := range tokens {
		affirmative = affirmative || affirmativeWords[tok]
		negative = negative || negativeWords[tok]
	}

	// An affirmative accepts the earliest offer, but not when the same
	// utterance carries a negative ("no good", "yeah that doesn't work").
	if affirmative && !negative && len(offered) > 0 {
		return Response{Kind: Accept, Slot: offered[0]}
	}

	if hasTimeExpression(utterance, tokens) {
		return Response{Kind: TimePreference, Preference: strings.TrimSpace(utterance)}
	}

	if negative {
		return Response{Kind: Reject}
	}

	return Response{Kind: Ambiguous}
}

// HasTimeExpression reports whether the utterance names a concrete time
// (a weekday, a relative day, or a clock time).
func HasTimeExpression(utterance string) bool {
	return hasTimeExpression(utterance, tokenize(utterance))
}

// IsAffirmative reports whether the utterance contains a whole-token
// affirmative and no negative.
func IsAffirmative(utterance string) bool {
	tokens := tokenize(utterance)
	found := false
	for _, tok := range tokens {
		if negativeWords[tok] {
			return false
		}
		if affirmativeWords[tok] {
			found = true
		}
	}
	return found
}

// IsNegative reports whether the utterance contains a whole-token negative
// and no affirmative.
func IsNegative(utterance string) bool {
	tokens := tokenize(utterance)
	found := false
	for _, tok := range tokens {
		if affirmativeWords[tok] {
			return false
		}
		if negativeWords[tok] {
			found = true
		}
	}
	return found
}

func hasTimeExpression(utterance string, tokens []string) bool {
	for _, tok := range tokens {
		if timeWords[tok] {
			return true
		}
	}
	return clockRe.MatchString(strings.ToLower(utterance))
}

func ordinalRef(tokens []string) (int, bool) {
	for i, tok := range tokens {
		if idx, ok := ordinalWords[tok]; ok {
			return idx, true
		}
		if i > 0 && (tokens[i-1] == "option" || tokens[i-1] == "number") {
			if idx, ok := numberWords[tok]; ok {
				return idx, true
			}
		}
	}
	return 0, false
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	for _, f := range strings.Fields(s) {
		t := strings.Trim(f, ".,!?;:")
		t = strings.ReplaceAll(t, "'", "")
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
