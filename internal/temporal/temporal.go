// Package temporal provides calendar-day arithmetic in the fixed reference
// timezone. Every deadline comparison in the engine goes through these helpers;
// comparing naive times directly is a correctness bug.
package temporal

import "time"

// Reference is the fixed timezone all deadline comparisons are normalized to.
// JST has no daylight saving, so a fixed offset is exact.
var Reference = time.FixedZone("JST", 9*60*60)

// InReference returns t expressed in the reference timezone.
func InReference(t time.Time) time.Time {
	return t.In(Reference)
}

// StartOfDay returns midnight of t's calendar day in the reference timezone.
func StartOfDay(t time.Time) time.Time {
	t = InReference(t)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Reference)
}

// DiffDays returns the number of calendar days from b to a in the reference
// timezone. Positive when a is later than b, zero when both fall on the same
// calendar day regardless of clock time.
func DiffDays(a, b time.Time) int {
	da := StartOfDay(a)
	db := StartOfDay(b)
	// Both are reference-zone midnights and the zone has no DST transitions,
	// so the interval is an exact multiple of 24 hours.
	return int(da.Sub(db) / (24 * time.Hour))
}

// IsPastDay reports whether t falls on a calendar day strictly before now in
// the reference timezone.
func IsPastDay(t, now time.Time) bool {
	return DiffDays(now, t) > 0
}
