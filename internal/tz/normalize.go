// Package tz converts the naive wall-clock values produced by the intent
// parser into absolute UTC instants. Nothing naive crosses this boundary:
// every scheduling path localizes here and works in UTC afterwards.
package tz

import (
	"fmt"
	"math"
	"time"
)

// pastGraceWindow is how far in the past a naive instant may be and still
// get bumped to the next day instead of rejected outright. The upstream
// interpreter often answers "at 9" a minute or two late.
const pastGraceWindow = 2 * time.Minute

// NaiveDateTime is a wall-clock value with no timezone attached.
type NaiveDateTime struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// ParseNaive parses the interpreter's "YYYY-MM-DD" + "HH:MM:SS" pair.
func ParseNaive(dateStr, timeStr string) (NaiveDateTime, error) {
	t, err := time.Parse("2006-01-02 15:04:05", dateStr+" "+timeStr)
	if err != nil {
		// Some models drop the seconds.
		t, err = time.Parse("2006-01-02 15:04", dateStr+" "+timeStr)
		if err != nil {
			return NaiveDateTime{}, fmt.Errorf("invalid date/time %q %q: %w", dateStr, timeStr, err)
		}
	}
	return NaiveDateTime{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}, nil
}

// Localize anchors a naive wall clock in loc and returns the instant.
//
// DST gap (the wall clock does not exist): the result slides forward past
// the gap, which is what time.Date already does. DST overlap (the wall
// clock occurs twice): prefer the standard-time reading, i.e. the
// candidate with the smaller UTC offset.
func Localize(n NaiveDateTime, loc *time.Location) time.Time {
	t := time.Date(n.Year, n.Month, n.Day, n.Hour, n.Minute, n.Second, 0, loc)

	// If adding an hour lands on the same wall clock, the time is ambiguous
	// and t is the DST reading; take the standard one instead.
	if alt := t.Add(time.Hour); sameWall(alt, n) && utcOffset(alt) < utcOffset(t) {
		return alt
	}
	return t
}

// Normalize localizes naive and, when it lands at or before now, applies
// the look-ahead corrections: the user almost certainly meant the next
// future occurrence of that wall clock, not a time that already passed.
//
//   - same day, stated hour 1-11 (AM/PM-ambiguous statement already in
//     the past): advance one day
//   - same day, stated hour 12-23 already past: advance one day
//   - date itself in the past: advance by daysPast+1 days, landing on
//     tomorrow relative to now
//   - within pastGraceWindow of now: advance one day instead of leaving
//     the caller to reject
//
// The result is always UTC. Callers still guard against the past; these
// corrections are best-effort, not a validity proof.
func Normalize(naive NaiveDateTime, loc *time.Location, now time.Time) time.Time {
	t := Localize(naive, loc)
	nowLocal := now.In(loc)

	if t.After(nowLocal) {
		return t.UTC()
	}

	daysPast := daysBetween(startOfDay(t), startOfDay(nowLocal))
	var bump int
	switch {
	case daysPast == 0 && naive.Hour >= 1 && naive.Hour <= 11:
		bump = 1
	case daysPast == 0:
		bump = 1
	case nowLocal.Sub(t) <= pastGraceWindow:
		bump = 1
	default:
		bump = daysPast + 1
	}

	shifted := NaiveDateTime{
		Year:   naive.Year,
		Month:  naive.Month,
		Day:    naive.Day + bump,
		Hour:   naive.Hour,
		Minute: naive.Minute,
		Second: naive.Second,
	}
	return Localize(shifted, loc).UTC()
}

func sameWall(t time.Time, n NaiveDateTime) bool {
	return t.Day() == n.Day && t.Hour() == n.Hour && t.Minute() == n.Minute && t.Second() == n.Second
}

func utcOffset(t time.Time) int {
	_, off := t.Zone()
	return off
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysBetween(from, to time.Time) int {
	// Round so 23h/25h DST days still count as one calendar day.
	return int(math.Round(to.Sub(from).Hours() / 24))
}
