package extract

import "strings"

const (
	// phoneMinUsable is the fewest digits we accept rather than block the
	// call on a partially heard number.
	phoneMinUsable = 7
	// phoneFull is a complete national number.
	phoneFull = 10
)

var spokenDigits = map[string]string{
	"zero": "0", "oh": "0", "one": "1", "two": "2", "three": "3",
	"four": "4", "five": "5", "six": "6", "seven": "7", "eight": "8",
	"nine": "9", "niner": "9",
}

// Phone extracts a phone number from a transcript fragment. Spoken digit
// words are mapped, everything that is not a digit is dropped, and when the
// caller repeated the number only the final statement is kept.
func Phone(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}

	var b strings.Builder
	for _, tok := range strings.Fields(s) {
		if d, ok := spokenDigits[tok]; ok {
			b.WriteString(d)
			continue
		}
		for _, r := range tok {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
	}
	digits := b.String()

	// Callers often restate the number ("555 1234567, that's 555 1234567").
	// Keep the trailing statement instead of the concatenation.
	if len(digits) > phoneFull+1 {
		tail := digits[len(digits)-(phoneFull+1):]
		if tail[0] == '1' {
			digits = tail
		} else {
			digits = digits[len(digits)-phoneFull:]
		}
	} else if len(digits) == phoneFull+1 && digits[0] != '1' {
		digits = digits[1:]
	}

	if len(digits) < phoneMinUsable {
		return "", false
	}
	return digits, true
}

// PhoneComplete reports whether a previously extracted number has a full
// complement of digits (10, or 11 with the long-distance prefix).
func PhoneComplete(digits string) bool {
	if len(digits) == phoneFull {
		return true
	}
	return len(digits) == phoneFull+1 && digits[0] == '1'
}
