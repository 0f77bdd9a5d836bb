package plan

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hilanfill/internal/workcal"
)

func feb2024(t *testing.T) []workcal.Day {
	t.Helper()
	days, err := workcal.ResolveMonth(2024, time.February)
	require.NoError(t, err)
	return days
}

func TestDisjointnessValidation(t *testing.T) {
	t.Run("vacation vs sick", func(t *testing.T) {
		req := Requests{
			Vacation: DaySet{8: true, 9: true},
			Sick:     DaySet{9: true, 10: true},
		}
		err := req.Validate()
		require.Error(t, err)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "[9]")
		assert.Contains(t, cfgErr.Error(), "--vacation")
		assert.Contains(t, cfgErr.Error(), "--sick-days")
	})

	t.Run("present dates vs vacation", func(t *testing.T) {
		req := Requests{
			Vacation:     DaySet{5: true},
			PresentDates: DaySet{5: true, 6: true},
		}
		err := req.Validate()
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "[5]")
	})

	t.Run("disjoint sets pass", func(t *testing.T) {
		req := Requests{
			Vacation:     DaySet{1: true},
			Sick:         DaySet{2: true},
			PresentDates: DaySet{3: true},
		}
		assert.NoError(t, req.Validate())
	})
}

func TestSickDayThreshold(t *testing.T) {
	t.Run("three days without certificate fails", func(t *testing.T) {
		req := Requests{Sick: DaySet{8: true, 9: true, 10: true}}
		err := req.Validate()
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "--sick-file")
	})

	t.Run("two days are a declaration, no file needed", func(t *testing.T) {
		req := Requests{Sick: DaySet{8: true, 9: true}}
		require.NoError(t, req.Validate())

		states, err := Classify(feb2024(t), req, "09:00", "18:00", Project{})
		require.NoError(t, err)
		st := states[8] // 2024-02-08 is a Thursday
		assert.Equal(t, Absence, st.Action)
		assert.Equal(t, SickDeclaration, st.Absence)
		assert.Empty(t, st.Attachment)
	})

	t.Run("three days with certificate become sick", func(t *testing.T) {
		req := Requests{
			Sick:     DaySet{8: true, 11: true, 12: true},
			SickFile: "/tmp/cert.pdf",
		}
		states, err := Classify(feb2024(t), req, "09:00", "18:00", Project{})
		require.NoError(t, err)
		assert.Equal(t, Sick, states[8].Absence)
		assert.Equal(t, "/tmp/cert.pdf", states[8].Attachment)
	})
}

func TestReserveDutyAlwaysNeedsAttachment(t *testing.T) {
	req := Requests{ReserveDuty: DaySet{14: true}}
	var cfgErr *ConfigError
	require.ErrorAs(t, req.Validate(), &cfgErr)

	req.ReserveDutyFile = "/tmp/order.pdf"
	states, err := Classify(feb2024(t), req, "09:00", "18:00", Project{})
	require.NoError(t, err)
	assert.Equal(t, ReserveDuty, states[14].Absence)
	assert.Equal(t, "/tmp/order.pdf", states[14].Attachment)
}

func TestPresenceModeSelection(t *testing.T) {
	req := Requests{
		PresentWeekdays: WeekdaySet{time.Monday: true},
		PresentDates:    DaySet{13: true}, // 2024-02-13 is a Tuesday
	}
	project := ParseProject("12086 - AGUR IC")
	states, err := Classify(feb2024(t), req, "08:30", "17:30", project)
	require.NoError(t, err)

	// 2024-02-05 is a Monday: recurring office day.
	assert.Equal(t, Office, states[5].Presence)
	// 2024-02-13: ad-hoc office date.
	assert.Equal(t, Office, states[13].Presence)
	// 2024-02-06 is a Tuesday with no request: remote.
	assert.Equal(t, Remote, states[6].Presence)
	assert.Equal(t, "08:30", states[6].Entry)
	assert.Equal(t, "17:30", states[6].Exit)
	assert.Equal(t, "12086", states[6].Project.Code)
	assert.Equal(t, "12086 - AGUR IC", states[6].Project.Label)
}

func TestWeekendsAndHolidaysAreNoChange(t *testing.T) {
	states, err := Classify(feb2024(t), Requests{}, "09:00", "18:00", Project{})
	require.NoError(t, err)

	// 2024-02-02 Fri, 2024-02-03 Sat.
	assert.Equal(t, NoChange, states[2].Action)
	assert.Equal(t, NoChange, states[3].Action)
	assert.Equal(t, Attendance, states[4].Action) // Sunday
	assert.Len(t, states, 29)
}

func TestClassifyIsIdempotent(t *testing.T) {
	req := Requests{
		Vacation:        DaySet{8: true, 9: true},
		Sick:            DaySet{15: true},
		PresentWeekdays: WeekdaySet{time.Wednesday: true},
	}
	days := feb2024(t)
	project := ParseProject("12086 - AGUR IC")

	first, err := Classify(days, req, "09:00", "18:00", project)
	require.NoError(t, err)
	second, err := Classify(days, req, "09:00", "18:00", project)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("classification not deterministic (-first +second):\n%s", diff)
	}
}

func TestParseDaySet(t *testing.T) {
	set, err := ParseDaySet("--vacation", "5,12,20-22")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 12, 20, 21, 22}, set.Days())

	_, err = ParseDaySet("--vacation", "40")
	assert.Error(t, err)
	_, err = ParseDaySet("--vacation", "14-10")
	assert.Error(t, err)
	_, err = ParseDaySet("--vacation", "abc")
	assert.Error(t, err)

	empty, err := ParseDaySet("--vacation", "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseWeekdaySet(t *testing.T) {
	set, err := ParseWeekdaySet("--present-days", "2,4")
	require.NoError(t, err)
	assert.True(t, set.Has(time.Monday))
	assert.True(t, set.Has(time.Wednesday))
	assert.False(t, set.Has(time.Sunday))

	_, err = ParseWeekdaySet("--present-days", "6")
	assert.Error(t, err)
}

func TestValidateClock(t *testing.T) {
	got, err := ValidateClock("--start-time", "9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", got)

	_, err = ValidateClock("--start-time", "25:00")
	assert.Error(t, err)
	_, err = ValidateClock("--start-time", "0900")
	assert.Error(t, err)
}
