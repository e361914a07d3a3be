package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayWindowFor(t *testing.T) {
	now := time.Date(2024, time.March, 1, 18, 45, 12, 0, time.UTC)

	t.Run("today", func(t *testing.T) {
		w := DayWindowFor(now, TargetToday)
		assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), w.Start)
		assert.Equal(t, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), w.End)
		assert.Equal(t, "2024-03-01", w.DateKey())
	})

	t.Run("yesterday crosses month boundary", func(t *testing.T) {
		w := DayWindowFor(now, TargetYesterday)
		assert.Equal(t, "2024-02-29", w.DateKey())
		assert.Equal(t, 24*time.Hour, w.End.Sub(w.Start))
	})

	t.Run("non-UTC input is normalised", func(t *testing.T) {
		est := time.FixedZone("EST", -5*3600)
		// 2024-03-01 21:00 EST is 2024-03-02 02:00 UTC.
		w := DayWindowFor(time.Date(2024, time.March, 1, 21, 0, 0, 0, est), TargetToday)
		assert.Equal(t, "2024-03-02", w.DateKey())
	})

	t.Run("fired exactly at midnight", func(t *testing.T) {
		midnight := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, "2024-03-02", DayWindowFor(midnight, TargetToday).DateKey())
		assert.Equal(t, "2024-03-01", DayWindowFor(midnight, TargetYesterday).DateKey())
	})
}

func TestDayWindow_Contains(t *testing.T) {
	w := WindowForDate(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))

	assert.True(t, w.Contains(w.StartMillis()))
	assert.True(t, w.Contains(w.EndMillis()-1))
	assert.False(t, w.Contains(w.EndMillis()))
	assert.False(t, w.Contains(w.StartMillis()-1))
}

func TestParseTargetDay(t *testing.T) {
	got, err := ParseTargetDay("yesterday")
	require.NoError(t, err)
	assert.Equal(t, TargetYesterday, got)

	_, err = ParseTargetDay("tomorrow")
	require.Error(t, err)
}

func TestParseDateKey(t *testing.T) {
	w, err := ParseDateKey("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", w.DateKey())

	_, err = ParseDateKey("2024-13-01")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseDateKey("03/01/2024")
	require.ErrorIs(t, err, ErrInvalidInput)
}
