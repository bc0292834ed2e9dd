package controller

import (
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// preferenceWindow turns a caller's stated time preference into an
// availability search window. Unparseable preferences report ok=false and
// the caller gets the default window instead.
func preferenceWindow(text string, now time.Time, loc *time.Location) (from, to time.Time, ok bool) {
	lower := strings.ToLower(text)
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '?' || r == '!'
	})

	day, haveDay := dayWindow(tokens, now, loc)
	if haveDay {
		from, to = day, day.AddDate(0, 0, 1)
		if h0, h1, found := partOfDay(tokens); found {
			from = day.Add(time.Duration(h0) * time.Hour)
			to = day.Add(time.Duration(h1) * time.Hour)
		}
		return from, to, true
	}

	if containsToken(tokens, "week") && containsToken(tokens, "next") {
		start := startOfDay(now.AddDate(0, 0, 7), loc)
		return start, start.AddDate(0, 0, 7), true
	}

	// A part of day on its own ("sometime in the afternoon") applies to
	// the next few days.
	if _, _, found := partOfDay(tokens); found {
		start := startOfDay(now, loc)
		return start, start.AddDate(0, 0, 3), true
	}

	return time.Time{}, time.Time{}, false
}

// dayWindow resolves "today", "tomorrow", or a weekday name to the start of
// that day.
func dayWindow(tokens []string, now time.Time, loc *time.Location) (time.Time, bool) {
	for _, tok := range tokens {
		switch tok {
		case "today":
			return startOfDay(now, loc), true
		case "tomorrow":
			return startOfDay(now.AddDate(0, 0, 1), loc), true
		}
		if wd, ok := weekdays[tok]; ok {
			days := (int(wd) - int(now.In(loc).Weekday()) + 7) % 7
			if days == 0 {
				days = 7 // a bare weekday name means the next one, not today
			}
			return startOfDay(now.AddDate(0, 0, days), loc), true
		}
	}
	return time.Time{}, false
}

// partOfDay maps morning/afternoon/evening/noon to an hour range.
func partOfDay(tokens []string) (startHour, endHour int, ok bool) {
	for _, tok := range tokens {
		switch tok {
		case "morning":
			return 8, 12, true
		case "afternoon":
			return 12, 17, true
		case "evening":
			return 17, 20, true
		case "noon":
			return 11, 14, true
		}
	}
	return 0, 0, false
}

func containsToken(tokens []string, want string) bool {
	for _, tok := range tokens {
		if tok == want {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
