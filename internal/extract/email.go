package extract

import "strings"

var emailFillers = []string{
	"sure, my email is",
	"my email address is",
	"my email is",
	"the email is",
	"email is",
	"no, it's",
	"no,",
	"no",
	"actually,",
	"actually",
	"it is",
	"it's",
	"that's",
	"sure,",
	"sure",
	"yes,",
	"okay,",
	"um,",
	"um",
	"uh,",
	"uh",
}

// spokenTokens maps words a transcriber produces for spelled-out email
// punctuation, the phonetic alphabet, and spoken digits onto the characters
// the caller meant.
var spokenTokens = map[string]string{
	"at":         "@",
	"dot":        ".",
	"period":     ".",
	"point":      ".",
	"underscore": "_",
	"dash":       "-",
	"hyphen":     "-",
	"minus":      "-",
	"plus":       "+",

	"alpha": "a", "bravo": "b", "charlie": "c", "delta": "d",
	"echo": "e", "foxtrot": "f", "golf": "g", "hotel": "h",
	"india": "i", "juliet": "j", "juliett": "j", "kilo": "k",
	"lima": "l", "mike": "m", "november": "n", "oscar": "o",
	"papa": "p", "quebec": "q", "romeo": "r", "sierra": "s",
	"tango": "t", "uniform": "u", "victor": "v", "whiskey": "w",
	"xray": "x", "x-ray": "x", "yankee": "y", "zulu": "z",

	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"niner": "9",
}

// Email extracts an email address candidate from a transcript fragment.
// Validation is deliberately lenient: anything containing "@" is accepted,
// and a missing or mangled domain is left for the confirmation read-back to
// catch, not re-rejected here.
func Email(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	s = stripLeadingFillers(s, emailFillers)

	var b strings.Builder
	for _, tok := range strings.Fields(s) {
		if mapped, ok := spokenTokens[tok]; ok {
			b.WriteString(mapped)
			continue
		}
		// Pauses while spelling show up as stray punctuation glued to
		// single letters ("j.", "o,") or standing alone. Strip them; the
		// meaningful dots arrive as the word "dot".
		t := strings.Trim(tok, ".,!?")
		if t == "" {
			continue
		}
		b.WriteString(t)
	}

	addr := b.String()
	addr = collapseRuns(addr, '@')
	addr = collapseRuns(addr, '.')
	addr = strings.Trim(addr, ".")

	if !strings.Contains(addr, "@") {
		return "", false
	}
	return addr, true
}

// collapseRuns squeezes repeated occurrences of c ("@@", "..") into one.
func collapseRuns(s string, c byte) string {
	var b strings.Builder
	var prev byte
	for i := 0; i < len(s); i++ {
		if s[i] == c && prev == c {
			continue
		}
		b.WriteByte(s[i])
		prev = s[i]
	}
	return b.String()
}

// MergeEmailCorrection folds a partial correction from the caller into a
// pending email candidate. A fragment carrying "@" replaces everything from
// the at-sign on; a bare domain fragment ("gmail dot com") replaces the
// domain; anything else that parses as address-like replaces the candidate
// outright. Returns ok=false when the utterance does not look like a
// correction at all.
func MergeEmailCorrection(pending, utterance string) (string, bool) {
	frag, ok := emailFragment(utterance)
	if !ok {
		return "", false
	}

	if strings.Contains(frag, "@") {
		if strings.HasPrefix(frag, "@") {
			// Caller supplied just the domain half.
			local := pending
			if i := strings.Index(pending, "@"); i >= 0 {
				local = pending[:i]
			}
			return local + frag, true
		}
		return frag, true
	}

	// A dotted fragment with no "@" reads as a domain correction.
	if strings.Contains(frag, ".") {
		local := pending
		if i := strings.Index(pending, "@"); i >= 0 {
			local = pending[:i]
		}
		return local + "@" + frag, true
	}

	// Additional spelled letters extend the local part.
	if i := strings.Index(pending, "@"); i >= 0 {
		return pending[:i] + frag + pending[i:], true
	}
	return pending + frag, true
}

// emailFragment runs the spoken-token normalization over an utterance and
// reports whether the result plausibly belongs to an email address.
func emailFragment(utterance string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(utterance))
	if s == "" {
		return "", false
	}
	s = stripLeadingFillers(s, emailFillers)

	words := strings.Fields(s)
	var b strings.Builder
	mapped := 0
	singles := 0
	for _, tok := range words {
		if m, ok := spokenTokens[tok]; ok {
			b.WriteString(m)
			mapped++
			continue
		}
		t := strings.Trim(tok, ".,!?")
		if t == "" {
			continue
		}
		if len(t) == 1 {
			singles++
		}
		b.WriteString(t)
	}
	frag := collapseRuns(collapseRuns(b.String(), '@'), '.')
	frag = strings.Trim(frag, ".")
	if frag == "" {
		return "", false
	}

	// Heuristic: corrections are short and dominated by spelled letters,
	// mapped punctuation words, or explicit address characters.
	if strings.ContainsAny(frag, "@.") {
		return frag, true
	}
	if len(words) > 0 && (mapped+singles) >= (len(words)+1)/2 {
		return frag, true
	}
	return "", false
}
