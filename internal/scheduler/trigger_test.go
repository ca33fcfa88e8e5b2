package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindbot/internal/recurrence"
)

func TestPlanOneShot(t *testing.T) {
	first := time.Date(2026, time.July, 15, 13, 0, 0, 0, time.UTC)

	spec, err := Plan(nil, first, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, OneShot, spec.Kind)
	assert.Equal(t, first, spec.First)

	next, ok := spec.NextAfter(first.Add(-time.Hour))
	require.True(t, ok)
	assert.Equal(t, first, next)

	_, ok = spec.NextAfter(first)
	assert.False(t, ok, "a one-shot has nothing after its instant")
}

func TestPlanIntervalEvery2Hours(t *testing.T) {
	first := time.Date(2026, time.July, 15, 13, 0, 0, 0, time.UTC)
	p, err := recurrence.Parse("FREQ=HOURLY;INTERVAL=2", first)
	require.NoError(t, err)

	spec, err := Plan(p, first, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, Interval, spec.Kind)
	assert.Equal(t, 2*time.Hour, spec.Every)

	// 30 minutes past the anchor, the next step is anchor+2h.
	next, ok := spec.NextAfter(first.Add(30 * time.Minute))
	require.True(t, ok)
	assert.Equal(t, first.Add(2*time.Hour), next)

	// Several missed steps collapse into the next future one.
	next, ok = spec.NextAfter(first.Add(7 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, first.Add(8*time.Hour), next)
}

func TestIntervalIgnoresDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Anchor the evening before the 2026-03-08 spring-forward.
	first := time.Date(2026, time.March, 7, 22, 0, 0, 0, loc).UTC()
	p, err := recurrence.Parse("FREQ=HOURLY;INTERVAL=2", first.In(loc))
	require.NoError(t, err)

	spec, err := Plan(p, first, loc)
	require.NoError(t, err)

	// Six absolute hours after the anchor, regardless of the skipped
	// local hour.
	next, ok := spec.NextAfter(first.Add(5 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, first.Add(6*time.Hour), next)
}

func TestPlanCalendarWeekly(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// Monday 2026-07-13 09:00 EDT.
	firstLocal := time.Date(2026, time.July, 13, 9, 0, 0, 0, loc)
	p, err := recurrence.Parse("FREQ=WEEKLY;BYDAY=MO,TH", firstLocal)
	require.NoError(t, err)

	spec, err := Plan(p, firstLocal.UTC(), loc)
	require.NoError(t, err)
	assert.Equal(t, Calendar, spec.Kind)
	assert.Equal(t, 9, spec.Hour)
	assert.Equal(t, 0, spec.Minute)
	assert.ElementsMatch(t, []time.Weekday{time.Monday, time.Thursday}, spec.Weekdays)

	// After Monday's firing comes Thursday 09:00 local.
	next, ok := spec.NextAfter(firstLocal.UTC())
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.July, 16, 9, 0, 0, 0, loc).UTC(), next)
}

func TestCalendarKeepsLocalHourAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// Daily at 08:00, anchored Saturday 2026-03-07 (EST).
	firstLocal := time.Date(2026, time.March, 7, 8, 0, 0, 0, loc)
	p, err := recurrence.Parse("FREQ=DAILY", firstLocal)
	require.NoError(t, err)

	spec, err := Plan(p, firstLocal.UTC(), loc)
	require.NoError(t, err)
	require.Equal(t, Calendar, spec.Kind)

	next, ok := spec.NextAfter(firstLocal.UTC())
	require.True(t, ok)
	local := next.In(loc)
	assert.Equal(t, 8, local.Hour(), "local hour survives spring forward")
	assert.Equal(t, 8, local.Day())
	// In UTC the gap is only 23 hours.
	assert.Equal(t, 23*time.Hour, next.Sub(firstLocal.UTC()))
}

func TestPlanCalendarMonthly(t *testing.T) {
	loc := time.UTC
	firstLocal := time.Date(2026, time.July, 15, 9, 0, 0, 0, loc)
	p, err := recurrence.Parse("FREQ=MONTHLY;BYMONTHDAY=1,15", firstLocal)
	require.NoError(t, err)

	spec, err := Plan(p, firstLocal, loc)
	require.NoError(t, err)
	assert.Equal(t, Calendar, spec.Kind)
	assert.Equal(t, []int{1, 15}, spec.MonthDays)

	next, ok := spec.NextAfter(firstLocal)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC), next)
}

func TestPlanMinutelyBecomesInterval(t *testing.T) {
	first := time.Date(2026, time.July, 15, 9, 0, 0, 0, time.UTC)
	p, err := recurrence.Parse("FREQ=MINUTELY", first)
	require.NoError(t, err)

	spec, err := Plan(p, first, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, Interval, spec.Kind)
	assert.Equal(t, time.Minute, spec.Every)
}

func TestPlanRejectsWeeklyIntervalWithMultipleDays(t *testing.T) {
	loc := time.UTC
	firstLocal := time.Date(2026, time.July, 13, 9, 0, 0, 0, loc)
	p, err := recurrence.Parse("FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,TH", firstLocal)
	require.NoError(t, err)

	_, err = Plan(p, firstLocal, loc)
	assert.ErrorIs(t, err, ErrUnsupportedPattern)
}

func TestPlanRejectsMonthlyInterval(t *testing.T) {
	firstLocal := time.Date(2026, time.July, 15, 9, 0, 0, 0, time.UTC)
	p, err := recurrence.Parse("FREQ=MONTHLY;INTERVAL=2", firstLocal)
	require.NoError(t, err)

	// Months have no fixed duration, so "every 2 months" cannot be an
	// absolute interval.
	_, err = Plan(p, firstLocal, time.UTC)
	assert.ErrorIs(t, err, ErrUnsupportedPattern)
}

func TestPlanWeeklyIntervalSingleDay(t *testing.T) {
	firstLocal := time.Date(2026, time.July, 13, 9, 0, 0, 0, time.UTC) // Monday
	p, err := recurrence.Parse("FREQ=WEEKLY;INTERVAL=2", firstLocal)
	require.NoError(t, err)

	spec, err := Plan(p, firstLocal, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, Interval, spec.Kind)
	assert.Equal(t, 14*24*time.Hour, spec.Every)
}
