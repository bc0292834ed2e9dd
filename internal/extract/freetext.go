package extract

import "strings"

// FreeText accepts a transcript fragment verbatim after trimming. Only
// single-character noise is rejected; everything else is the caller's own
// wording and is preserved.
func FreeText(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if len([]rune(s)) < 2 {
		return "", false
	}
	return s, true
}
