package intent

import "regexp"

// keywordRules is the deterministic fallback matcher: an ordered list of
// (pattern, intent) pairs evaluated top to bottom. Order is load-bearing —
// overlapping vocabularies ("can I leave a message after you call me back")
// resolve by precedence: speak-to-person/inquiry, then office hours, then
// appointment, then callback, then message.
var keywordRules = []struct {
	re     *regexp.Regexp
	intent Intent
}{
	{regexp.MustCompile(`(?i)\b(speak|talk)\s+(to|with)\s+(someone|a\s+person|a\s+human|somebody|anyone)\b`), Inquiry},
	{regexp.MustCompile(`(?i)\b(real\s+person|human\s+being|representative|receptionist|operator|transfer\s+me|front\s+desk)\b`), Inquiry},
	{regexp.MustCompile(`(?i)\b(office\s+)?hours?\b`), OfficeHours},
	{regexp.MustCompile(`(?i)\bwhen\s+(are\s+you|do\s+you|is\s+the\s+office)\s+open\b`), OfficeHours},
	{regexp.MustCompile(`(?i)\b(open|close)\s+(today|tomorrow|on)\b`), OfficeHours},
	{regexp.MustCompile(`(?i)\b(appointment|consultation|booking)\b`), Appointment},
	{regexp.MustCompile(`(?i)\b(book|schedule|reschedule)\b`), Appointment},
	{regexp.MustCompile(`(?i)\b(come\s+in|meet\s+with|see\s+someone|availability|available\s+times?|open\s+slots?)\b`), Appointment},
	{regexp.MustCompile(`(?i)\bcall\s+(me\s+)?back\b`), Callback},
	{regexp.MustCompile(`(?i)\b(callback|return\s+my\s+call|reach\s+me\s+later)\b`), Callback},
	{regexp.MustCompile(`(?i)\b(message|voicemail)\b`), Message},
	{regexp.MustCompile(`(?i)\b(leave\s+a\s+note|pass\s+(that|this|it)?\s*along|let\s+(him|her|them)\s+know)\b`), Message},
}

// matchKeywords runs the rule table in order and returns the first hit.
func matchKeywords(utterance string) Intent {
	for _, rule := range keywordRules {
		if rule.re.MatchString(utterance) {
			return rule.intent
		}
	}
	return Unclear
}
