// Package slots models bookable appointment times and interprets caller
// responses to offered times. Everything here is pure; no I/O.
package slots

import "time"

// Duration is the fixed length of every consultation slot.
const Duration = 15 * time.Minute

// Slot is a single bookable appointment start time.
type Slot struct {
	Start time.Time
}

// Timestamp is the machine-readable rendering used on the wire.
func (s Slot) Timestamp() string {
	return s.Start.Format(time.RFC3339)
}

// Speakable renders the slot for speech synthesis as a long-form phrase.
// It names only the start time; an end time read over the phone is noise
// the caller has to parse, so it never appears.
func (s Slot) Speakable() string {
	return s.Start.Format("Monday, January 2 at 3:04 PM")
}

// End is the slot's end instant, for calendar bookings only. It is never
// spoken.
func (s Slot) End() time.Time {
	return s.Start.Add(Duration)
}
