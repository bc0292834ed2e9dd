package extract

import "strings"

// spokenDomains are domains common enough to speak as words. Anything else
// gets spelled out so the caller can verify an unusual domain.
var spokenDomains = map[string]bool{
	"gmail.com":      true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"icloud.com":     true,
	"aol.com":        true,
	"protonmail.com": true,
	"proton.me":      true,
	"me.com":         true,
	"live.com":       true,
	"msn.com":        true,
	"comcast.net":    true,
}

// SpellEmail renders an email address for speech synthesis: the username is
// spelled letter by letter, common domains are spoken as whole words
// ("gmail dot com"), and unusual domains are spelled out.
func SpellEmail(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	local, domain := addr, ""
	if i := strings.Index(addr, "@"); i >= 0 {
		local, domain = addr[:i], addr[i+1:]
	}

	var parts []string
	parts = append(parts, spellChars(local))
	if domain != "" {
		parts = append(parts, "at")
		if spokenDomains[domain] {
			parts = append(parts, strings.ReplaceAll(domain, ".", " dot "))
		} else {
			parts = append(parts, spellChars(domain))
		}
	}
	return strings.Join(parts, " ")
}

func spellChars(s string) string {
	var out []string
	for _, r := range s {
		switch r {
		case '.':
			out = append(out, "dot")
		case '_':
			out = append(out, "underscore")
		case '-':
			out = append(out, "dash")
		case '+':
			out = append(out, "plus")
		default:
			out = append(out, string(r))
		}
	}
	return strings.Join(out, " ")
}

// SpeakPhone renders a phone number for speech synthesis digit by digit,
// grouped 3-3-4 (or 1-3-3-4 with a country code) with comma pauses. Never
// rendered as a magnitude.
func SpeakPhone(digits string) string {
	var groups []string
	rest := digits
	if len(rest) == 11 && rest[0] == '1' {
		groups = append(groups, "1")
		rest = rest[1:]
	}
	for len(rest) > 0 {
		n := 3
		if len(rest) == 4 || len(rest) < 3 {
			n = len(rest)
		}
		groups = append(groups, spaceOut(rest[:n]))
		rest = rest[n:]
	}
	return strings.Join(groups, ", ")
}

func spaceOut(s string) string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return strings.Join(out, " ")
}
