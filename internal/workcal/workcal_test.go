package workcal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMonthCoversEveryDay(t *testing.T) {
	for _, tc := range []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29}, // leap year
		{2023, time.February, 28},
		{2026, time.January, 31},
		{2025, time.April, 30},
	} {
		days, err := ResolveMonth(tc.year, tc.month)
		require.NoError(t, err)
		require.Len(t, days, tc.want)

		seen := map[int]bool{}
		for i, d := range days {
			assert.Equal(t, i+1, d.Date.Day(), "days must be ordered")
			assert.Equal(t, tc.month, d.Date.Month())
			assert.False(t, seen[d.Date.Day()], "duplicate date %v", d.Date)
			seen[d.Date.Day()] = true
		}
	}
}

func TestWeekdayClassification(t *testing.T) {
	days, err := ResolveMonth(2024, time.February)
	require.NoError(t, err)

	// 2024-02-02 is a Friday, 2024-02-03 a Saturday, 2024-02-05 a Monday.
	assert.Equal(t, KindWeekend, days[1].Kind)
	assert.Equal(t, time.Friday, days[1].Date.Weekday())
	assert.Equal(t, KindWeekend, days[2].Kind)
	assert.Equal(t, KindWorkday, days[4].Kind)
	assert.Equal(t, time.Monday, days[4].Date.Weekday())

	// Sunday is a workday.
	assert.Equal(t, time.Sunday, days[3].Date.Weekday())
	assert.Equal(t, KindWorkday, days[3].Kind)
}

func TestHolidaysAreNotWorkdays(t *testing.T) {
	days, err := ResolveMonth(2024, time.April)
	require.NoError(t, err)

	// Passover I 2024 fell on Tuesday April 23.
	pesach := days[22]
	assert.Equal(t, time.Tuesday, pesach.Date.Weekday())
	assert.Equal(t, KindHoliday, pesach.Kind)
	assert.Equal(t, "Passover I", pesach.Holiday)

	for _, d := range Workdays(days) {
		assert.NotEqual(t, KindHoliday, d.Kind)
		assert.NotEqual(t, KindWeekend, d.Kind)
	}
}

func TestResolveMonthBounds(t *testing.T) {
	_, err := ResolveMonth(2019, time.January)
	assert.True(t, errors.Is(err, ErrUnsupportedYear))

	_, err = ResolveMonth(2031, time.January)
	assert.True(t, errors.Is(err, ErrUnsupportedYear))

	_, err = ResolveMonth(2024, time.Month(13))
	assert.True(t, errors.Is(err, ErrBadMonth))
}
