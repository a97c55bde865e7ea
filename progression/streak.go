package progression

import "time"

// Calendar-day comparisons use UTC throughout. The upstream platform compared
// viewer-local date strings, which is undefined near midnight across
// timezones; a single fixed policy keeps the streak transition deterministic
// no matter where the triggering request came from.

// sameDay reports whether a and b fall on the same UTC calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// dayAfter reports whether b falls on the UTC calendar day immediately after
// a's.
func dayAfter(a, b time.Time) bool {
	next := a.UTC().AddDate(0, 0, 1)
	return sameDay(next, b)
}

// SameActivityDay reports whether the last recorded activity already falls
// on now's UTC calendar day. Zero lastActive means no prior activity.
func SameActivityDay(lastActive, now time.Time) bool {
	return !lastActive.IsZero() && sameDay(lastActive, now)
}

// AdvanceStreak applies the daily-activity state machine:
//
//	same day      -> streak unchanged
//	next day      -> streak+1
//	larger gap or no prior activity -> 1
//
// It returns the new streak and whether it changed. Callers record now as the
// new last-active timestamp on every activity, changed or not.
func AdvanceStreak(lastActive time.Time, streak int, now time.Time) (int, bool) {
	if lastActive.IsZero() || streak <= 0 {
		return 1, true
	}
	if sameDay(lastActive, now) {
		return streak, false
	}
	if dayAfter(lastActive, now) {
		return streak + 1, true
	}
	return 1, streak != 1
}
