package scheduler

import (
	"fmt"
	"sort"
	"time"

	"remindbot/internal/recurrence"
)

// ErrUnsupportedPattern is returned when a recurrence pattern cannot be
// mapped onto any firing policy without guessing.
var ErrUnsupportedPattern = recurrence.ErrUnsupportedPattern

type TriggerKind int

const (
	// OneShot fires exactly once at First.
	OneShot TriggerKind = iota
	// Interval fires every Every of absolute elapsed time, anchored at
	// First. DST-agnostic: two firings are always exactly Every apart
	// in UTC.
	Interval
	// Calendar fires at a local wall-clock time-of-day, optionally
	// filtered by weekday or day-of-month, anchored in Location so the
	// local hour survives DST shifts.
	Calendar
)

// TriggerSpec is the concrete firing policy for one job. It is a pure
// value: NextAfter has no side effects and no clock of its own.
type TriggerSpec struct {
	Kind  TriggerKind
	First time.Time // first occurrence, UTC

	// Interval trigger
	Every time.Duration

	// Calendar trigger
	Location  *time.Location
	Hour      int
	Minute    int
	Weekdays  []time.Weekday // weekly patterns
	MonthDays []int          // monthly patterns
}

// Plan maps a recurrence pattern (nil for one-time reminders) and its
// first occurrence onto a firing policy.
//
// The split matters: an interval trigger must count literal elapsed time,
// while a calendar trigger must keep the user's intended local hour even
// when the UTC offset changes. A UTC-interval rendering of "every day at
// 8" would drift an hour across a DST boundary.
func Plan(p *recurrence.Pattern, first time.Time, loc *time.Location) (TriggerSpec, error) {
	first = first.UTC()

	if p == nil {
		return TriggerSpec{Kind: OneShot, First: first}, nil
	}

	if p.Interval > 1 {
		if p.Freq == recurrence.Weekly && len(p.Weekdays) > 1 {
			// "Every 2 weeks on Mon/Thu" cannot be expressed as either a
			// plain interval or a weekday filter; reject instead of guessing.
			return TriggerSpec{}, fmt.Errorf("%w: weekly interval %d with %d weekdays",
				ErrUnsupportedPattern, p.Interval, len(p.Weekdays))
		}
		unit := p.Freq.Unit()
		if unit == 0 {
			return TriggerSpec{}, fmt.Errorf("%w: %v with interval %d",
				ErrUnsupportedPattern, p.Freq, p.Interval)
		}
		return TriggerSpec{
			Kind:  Interval,
			First: first,
			Every: time.Duration(p.Interval) * unit,
		}, nil
	}

	firstLocal := first.In(loc)
	spec := TriggerSpec{
		Kind:     Calendar,
		First:    first,
		Location: loc,
		Hour:     firstLocal.Hour(),
		Minute:   firstLocal.Minute(),
	}

	switch p.Freq {
	case recurrence.Weekly:
		spec.Weekdays = append(spec.Weekdays, p.Weekdays...)
	case recurrence.Monthly:
		spec.MonthDays = append(spec.MonthDays, p.MonthDays...)
		sort.Ints(spec.MonthDays)
	case recurrence.Daily:
		// Degenerate calendar pattern: hour/minute only.
	case recurrence.Minutely, recurrence.Hourly:
		// interval == 1 at sub-day frequency behaves like a fixed interval.
		return TriggerSpec{Kind: Interval, First: first, Every: p.Freq.Unit()}, nil
	default:
		return TriggerSpec{}, fmt.Errorf("%w: %v", ErrUnsupportedPattern, p.Freq)
	}

	return spec, nil
}

// NextAfter returns the trigger's first due instant strictly after now,
// in UTC. ok is false when the trigger has nothing left to fire (only the
// one-shot case; bounded recurrences are finalized by the rrule layer).
func (t TriggerSpec) NextAfter(now time.Time) (time.Time, bool) {
	now = now.UTC()

	switch t.Kind {
	case OneShot:
		if t.First.After(now) {
			return t.First, true
		}
		return time.Time{}, false

	case Interval:
		if t.First.After(now) {
			return t.First, true
		}
		elapsed := now.Sub(t.First)
		steps := elapsed/t.Every + 1
		return t.First.Add(steps * t.Every), true

	case Calendar:
		return t.nextCalendar(now), true
	}
	return time.Time{}, false
}

func (t TriggerSpec) nextCalendar(now time.Time) time.Time {
	local := now.In(t.Location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, t.Location)

	// Scan forward day by day; the filters make at most a month and a
	// half of iterations necessary.
	for i := 0; i < 62; i++ {
		candidate := time.Date(day.Year(), day.Month(), day.Day()+i, t.Hour, t.Minute, 0, 0, t.Location)
		if !candidate.After(now.In(t.Location)) {
			continue
		}
		if !t.dayMatches(candidate) {
			continue
		}
		return candidate.UTC()
	}
	// Unreachable for valid specs; keep a sane fallback anyway.
	return now.Add(24 * time.Hour)
}

func (t TriggerSpec) dayMatches(candidate time.Time) bool {
	if len(t.Weekdays) > 0 {
		for _, wd := range t.Weekdays {
			if candidate.Weekday() == wd {
				return true
			}
		}
		return false
	}
	if len(t.MonthDays) > 0 {
		for _, d := range t.MonthDays {
			if candidate.Day() == d {
				return true
			}
		}
		return false
	}
	return true
}
