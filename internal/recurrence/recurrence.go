// Package recurrence parses RFC 5545 RRULE strings into a normalized
// pattern and computes next occurrences. Occurrence boundaries ("every
// Monday", "every day at 8") are local-time concepts, so all rule
// arithmetic happens in the user's zone; callers get UTC back.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrUnsupportedPattern marks rules outside the supported grammar:
// frequencies beyond minute..month, or combinations whose firing policy
// would be ambiguous (multiple weekdays with an interval above one).
var ErrUnsupportedPattern = errors.New("unsupported recurrence pattern")

type Frequency int

const (
	Minutely Frequency = iota
	Hourly
	Daily
	Weekly
	Monthly
)

func (f Frequency) String() string {
	switch f {
	case Minutely:
		return "minutely"
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	}
	return "unknown"
}

// Unit returns the wall-clock duration of one frequency step. Only valid
// for the sub-day frequencies plus day/week, which is all the
// fixed-interval trigger ever needs.
func (f Frequency) Unit() time.Duration {
	switch f {
	case Minutely:
		return time.Minute
	case Hourly:
		return time.Hour
	case Daily:
		return 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	}
	return 0
}

// Pattern is a parsed recurrence rule pinned to its first occurrence.
type Pattern struct {
	Freq      Frequency
	Interval  int
	Weekdays  []time.Weekday // WEEKLY only
	MonthDays []int          // MONTHLY only

	rule *rrule.RRule
	loc  *time.Location
}

// Parse parses an RRULE string anchored at the first occurrence expressed
// in the user's local time. dtstartLocal's location is where all rule
// arithmetic happens.
func Parse(ruleStr string, dtstartLocal time.Time) (*Pattern, error) {
	ruleStr = strings.TrimPrefix(strings.TrimSpace(ruleStr), "RRULE:")

	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}
	opt.Dtstart = dtstartLocal

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build RRULE: %w", err)
	}

	p := &Pattern{
		Interval: opt.Interval,
		rule:     r,
		loc:      dtstartLocal.Location(),
	}
	if p.Interval < 1 {
		p.Interval = 1
	}

	switch opt.Freq {
	case rrule.MINUTELY:
		p.Freq = Minutely
	case rrule.HOURLY:
		p.Freq = Hourly
	case rrule.DAILY:
		p.Freq = Daily
	case rrule.WEEKLY:
		p.Freq = Weekly
		for _, wd := range opt.Byweekday {
			p.Weekdays = append(p.Weekdays, weekdayFromRRule(wd))
		}
		if len(p.Weekdays) == 0 {
			p.Weekdays = []time.Weekday{dtstartLocal.Weekday()}
		}
	case rrule.MONTHLY:
		p.Freq = Monthly
		p.MonthDays = append(p.MonthDays, opt.Bymonthday...)
		if len(p.MonthDays) == 0 {
			p.MonthDays = []int{dtstartLocal.Day()}
		}
	default:
		return nil, fmt.Errorf("%w: frequency %v", ErrUnsupportedPattern, opt.Freq)
	}

	return p, nil
}

// NextAfter returns the first occurrence strictly after the given instant,
// converted to UTC. ok is false once the rule's COUNT/UNTIL bound is
// exhausted, which tells the caller to finalize instead of re-arming.
func (p *Pattern) NextAfter(after time.Time) (next time.Time, ok bool) {
	afterLocal := after.In(p.loc)

	cur := afterLocal
	for i := 0; i < 1000; i++ { // safety limit against degenerate rules
		n := p.rule.After(cur, false)
		if n.IsZero() {
			return time.Time{}, false
		}
		if n.After(afterLocal) {
			return n.UTC(), true
		}
		cur = n.Add(time.Second)
	}
	return time.Time{}, false
}

// IsRecurring checks if the RRULE string represents a recurring event
func IsRecurring(ruleStr string) bool {
	return ruleStr != "" && strings.Contains(strings.ToUpper(ruleStr), "FREQ=")
}

func weekdayFromRRule(wd rrule.Weekday) time.Weekday {
	switch wd.Day() {
	case 0:
		return time.Monday
	case 1:
		return time.Tuesday
	case 2:
		return time.Wednesday
	case 3:
		return time.Thursday
	case 4:
		return time.Friday
	case 5:
		return time.Saturday
	default:
		return time.Sunday
	}
}
