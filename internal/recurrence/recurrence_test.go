package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekly(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	dtstart := time.Date(2026, time.July, 13, 9, 0, 0, 0, loc) // a Monday

	p, err := Parse("RRULE:FREQ=WEEKLY;BYDAY=MO,TH", dtstart)
	require.NoError(t, err)
	assert.Equal(t, Weekly, p.Freq)
	assert.Equal(t, 1, p.Interval)
	assert.Equal(t, []time.Weekday{time.Monday, time.Thursday}, p.Weekdays)
}

func TestParseDefaultsFromDtstart(t *testing.T) {
	dtstart := time.Date(2026, time.July, 15, 9, 0, 0, 0, time.UTC) // a Wednesday

	p, err := Parse("FREQ=WEEKLY", dtstart)
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Wednesday}, p.Weekdays)

	p, err = Parse("FREQ=MONTHLY", dtstart)
	require.NoError(t, err)
	assert.Equal(t, []int{15}, p.MonthDays)
}

func TestParseRejectsYearly(t *testing.T) {
	dtstart := time.Date(2026, time.July, 15, 9, 0, 0, 0, time.UTC)

	_, err := Parse("FREQ=YEARLY", dtstart)
	assert.ErrorIs(t, err, ErrUnsupportedPattern)
}

func TestParseRejectsGarbage(t *testing.T) {
	dtstart := time.Date(2026, time.July, 15, 9, 0, 0, 0, time.UTC)

	_, err := Parse("FREQ=SOMETIMES", dtstart)
	assert.Error(t, err)
}

func TestNextAfterWeeklySequence(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	dtstart := time.Date(2026, time.July, 13, 9, 0, 0, 0, loc) // Monday 09:00 EDT

	p, err := Parse("FREQ=WEEKLY;BYDAY=MO,TH", dtstart)
	require.NoError(t, err)

	// Strictly after the Monday occurrence comes Thursday the 16th.
	next, ok := p.NextAfter(dtstart.UTC())
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.July, 16, 13, 0, 0, 0, time.UTC), next)

	// And after that, Monday the 20th.
	next2, ok := p.NextAfter(next)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.July, 20, 13, 0, 0, 0, time.UTC), next2)
	assert.True(t, next2.After(next))
}

func TestNextAfterCountExhaustion(t *testing.T) {
	dtstart := time.Date(2026, time.July, 13, 9, 0, 0, 0, time.UTC)

	p, err := Parse("FREQ=DAILY;COUNT=2", dtstart)
	require.NoError(t, err)

	next, ok := p.NextAfter(dtstart)
	require.True(t, ok)
	assert.Equal(t, dtstart.Add(24*time.Hour), next)

	_, ok = p.NextAfter(next)
	assert.False(t, ok, "COUNT=2 rule has no occurrence after the second")
}

func TestNextAfterKeepsLocalWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// Saturday 2026-03-07 09:00 EST; DST starts next morning.
	dtstart := time.Date(2026, time.March, 7, 9, 0, 0, 0, loc)

	p, err := Parse("FREQ=DAILY", dtstart)
	require.NoError(t, err)

	next, ok := p.NextAfter(dtstart.UTC())
	require.True(t, ok)
	local := next.In(loc)
	assert.Equal(t, 9, local.Hour(), "daily rule keeps the 9am wall clock across the DST jump")
	assert.Equal(t, 8, local.Day())
}

func TestIsRecurring(t *testing.T) {
	assert.True(t, IsRecurring("FREQ=DAILY"))
	assert.True(t, IsRecurring("RRULE:freq=weekly"))
	assert.False(t, IsRecurring(""))
	assert.False(t, IsRecurring("tomorrow"))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		rule string
		want string
	}{
		{"FREQ=DAILY", "every day"},
		{"RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,TH", "every 2 weeks on Mon, Thu"},
		{"FREQ=MONTHLY;BYMONTHDAY=15", "every month on day 15"},
		{"FREQ=DAILY;COUNT=5", "every day, 5 times"},
		{"FREQ=DAILY;UNTIL=20261231T000000Z", "every day, until 2026-12-31"},
		{"", "one-time"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.rule), tt.rule)
	}
}
