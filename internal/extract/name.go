// Package extract turns raw speech transcripts into structured field values.
// Every extractor is pure: it never errors, and reports "could not parse"
// by returning ok=false, which is distinct from an empty value.
package extract

import (
	"strings"
	"unicode"
)

// nameFillers are conversational lead-ins that precede the actual name.
// Matched case-insensitively against the start of the utterance, longest first.
var nameFillers = []string{
	"sure, my name is",
	"yes, my name is",
	"my name is",
	"my first name is",
	"my last name is",
	"the name is",
	"this is",
	"it is",
	"it's",
	"i'm",
	"i am",
	"call me",
	"sure,",
	"sure",
	"yes,",
	"okay,",
	"um,",
	"um",
	"uh,",
	"uh",
	"well,",
}

// sentenceMarkers indicate the caller answered a different question entirely
// ("I would like to book...") rather than stating a name.
var sentenceMarkers = []string{
	"would like",
	"want to",
	"need to",
	"i am calling",
	"calling about",
	"can you",
	"could you",
}

// Name extracts a personal name from a transcript fragment. It strips
// conversational filler, collapses letter-by-letter spelling into a single
// word, and rejects utterances that look like full sentences.
func Name(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if strings.Contains(s, "?") {
		return "", false
	}

	s = stripLeadingFillers(s, nameFillers)
	s = strings.Trim(s, " .,!")
	if s == "" {
		return "", false
	}

	lower := strings.ToLower(s)
	for _, m := range sentenceMarkers {
		if strings.Contains(lower, m) {
			return "", false
		}
	}
	if strings.HasPrefix(lower, "i ") {
		return "", false
	}

	words := strings.Fields(s)
	if spelled, ok := collapseSpelledName(words); ok {
		return spelled, true
	}

	// Bound accidental sentence capture.
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " "), true
}

// collapseSpelledName detects a letter-by-letter spelling ("J. O. H. N.")
// and joins it into one title-cased word.
func collapseSpelledName(words []string) (string, bool) {
	if len(words) < 2 {
		return "", false
	}
	single := 0
	var letters []rune
	for _, w := range words {
		t := strings.Trim(w, ".,-")
		if len([]rune(t)) == 1 && unicode.IsLetter([]rune(t)[0]) {
			single++
			letters = append(letters, []rune(t)[0])
		}
	}
	// Mostly single-character tokens means the caller was spelling.
	if single < 2 || single*2 < len(words) {
		return "", false
	}
	joined := strings.ToLower(string(letters))
	return strings.ToUpper(joined[:1]) + joined[1:], true
}

func stripLeadingFillers(s string, fillers []string) string {
	for {
		stripped := false
		lower := strings.ToLower(s)
		for _, f := range fillers {
			if strings.HasPrefix(lower, f) {
				rest := s[len(f):]
				if rest != "" && rest[0] != ' ' && rest[0] != ',' {
					continue // filler must end at a word boundary
				}
				s = strings.TrimLeft(rest, " ,")
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}
