package tz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestParseNaive(t *testing.T) {
	n, err := ParseNaive("2026-07-15", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, NaiveDateTime{Year: 2026, Month: time.July, Day: 15, Hour: 9, Minute: 30}, n)

	// seconds are optional
	n, err = ParseNaive("2026-07-15", "09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, n.Hour)
	assert.Equal(t, 30, n.Minute)

	_, err = ParseNaive("tomorrow", "09:30")
	assert.Error(t, err)
}

func TestLocalizeDSTGap(t *testing.T) {
	loc := newYork(t)

	// 2026-03-08 02:30 does not exist in New York; clocks jump 02:00->03:00.
	got := Localize(NaiveDateTime{Year: 2026, Month: time.March, Day: 8, Hour: 2, Minute: 30}, loc)
	assert.Equal(t, 3, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, 8, got.Day())
}

func TestLocalizeDSTOverlap(t *testing.T) {
	loc := newYork(t)

	// 2026-11-01 01:30 happens twice; the standard-time reading (EST,
	// UTC-5) wins, which is 06:30 UTC.
	got := Localize(NaiveDateTime{Year: 2026, Month: time.November, Day: 1, Hour: 1, Minute: 30}, loc)
	assert.Equal(t, time.Date(2026, time.November, 1, 6, 30, 0, 0, time.UTC), got.UTC())
}

func TestLocalizeUnambiguous(t *testing.T) {
	loc := newYork(t)

	got := Localize(NaiveDateTime{Year: 2026, Month: time.July, Day: 15, Hour: 9}, loc)
	// EDT is UTC-4.
	assert.Equal(t, time.Date(2026, time.July, 15, 13, 0, 0, 0, time.UTC), got.UTC())
}

func TestNormalizeFutureUnchanged(t *testing.T) {
	loc := newYork(t)
	now := time.Date(2026, time.July, 15, 16, 0, 0, 0, time.UTC) // 12:00 EDT

	got := Normalize(NaiveDateTime{Year: 2026, Month: time.July, Day: 15, Hour: 15}, loc, now)
	assert.Equal(t, time.Date(2026, time.July, 15, 19, 0, 0, 0, time.UTC), got)
}

func TestNormalizeSameDayMorningHourBumpsDay(t *testing.T) {
	loc := newYork(t)
	now := time.Date(2026, time.July, 15, 18, 0, 0, 0, time.UTC) // 14:00 EDT

	// "at 9" stated in the afternoon means 9:00 tomorrow.
	got := Normalize(NaiveDateTime{Year: 2026, Month: time.July, Day: 15, Hour: 9}, loc, now)
	assert.Equal(t, time.Date(2026, time.July, 16, 13, 0, 0, 0, time.UTC), got)
}

func TestNormalizeSameDayAfternoonBumpsDay(t *testing.T) {
	loc := newYork(t)
	now := time.Date(2026, time.July, 15, 18, 0, 0, 0, time.UTC) // 14:00 EDT

	got := Normalize(NaiveDateTime{Year: 2026, Month: time.July, Day: 15, Hour: 13}, loc, now)
	assert.Equal(t, time.Date(2026, time.July, 16, 17, 0, 0, 0, time.UTC), got)
}

func TestNormalizePastDateLandsTomorrow(t *testing.T) {
	loc := newYork(t)
	now := time.Date(2026, time.July, 15, 18, 0, 0, 0, time.UTC) // 14:00 EDT

	// Three days ago at 10:00 resolves to tomorrow at 10:00.
	got := Normalize(NaiveDateTime{Year: 2026, Month: time.July, Day: 12, Hour: 10}, loc, now)
	assert.Equal(t, time.Date(2026, time.July, 16, 14, 0, 0, 0, time.UTC), got)
}

func TestNormalizeGraceWindowAcrossMidnight(t *testing.T) {
	loc := newYork(t)
	// 00:00:30 local on July 15.
	now := time.Date(2026, time.July, 15, 4, 0, 30, 0, time.UTC)

	// 23:59:30 "yesterday" is only a minute in the past; it bumps one day
	// to tonight instead of jumping two days out.
	got := Normalize(NaiveDateTime{Year: 2026, Month: time.July, Day: 14, Hour: 23, Minute: 59, Second: 30}, loc, now)
	assert.Equal(t, time.Date(2026, time.July, 16, 3, 59, 30, 0, time.UTC), got)
}

func TestNormalizeAcrossDSTBoundary(t *testing.T) {
	loc := newYork(t)
	// 2026-03-07 14:00 EST is 19:00 UTC; the next day DST starts.
	now := time.Date(2026, time.March, 7, 19, 0, 0, 0, time.UTC)

	// 9:00 already passed, so tomorrow at 9:00, which is EDT (UTC-4).
	got := Normalize(NaiveDateTime{Year: 2026, Month: time.March, Day: 7, Hour: 9}, loc, now)
	assert.Equal(t, time.Date(2026, time.March, 8, 13, 0, 0, 0, time.UTC), got)
}
