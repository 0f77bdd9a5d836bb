// Package workcal resolves a target month into classified calendar days.
// The working week is Sunday through Thursday; Israeli public holidays are
// non-working regardless of weekday.
package workcal

import (
	"fmt"
	"time"
)

// Supported year range. The holiday table below covers exactly these years,
// so resolution outside the range must fail instead of silently treating
// holidays as workdays.
const (
	MinYear = 2020
	MaxYear = 2030
)

// Kind classifies a calendar day.
type Kind int

const (
	KindWorkday Kind = iota
	KindWeekend
	KindHoliday
)

func (k Kind) String() string {
	switch k {
	case KindWorkday:
		return "workday"
	case KindWeekend:
		return "weekend"
	case KindHoliday:
		return "holiday"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Day is one resolved calendar day of the target month.
type Day struct {
	Date    time.Time
	Kind    Kind
	Holiday string // holiday name when Kind == KindHoliday
}

// ResolveMonth returns every day 1..N of the month, classified. Future days
// are included on purpose: the reconciliation pass also corrects wrong
// symbols on days that have not happened yet.
func ResolveMonth(year int, month time.Month) ([]Day, error) {
	if year < MinYear || year > MaxYear {
		return nil, fmt.Errorf("year %d outside supported range %d-%d: %w", year, MinYear, MaxYear, ErrUnsupportedYear)
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month %d out of range: %w", int(month), ErrBadMonth)
	}

	n := DaysInMonth(year, month)
	days := make([]Day, 0, n)
	for dom := 1; dom <= n; dom++ {
		date := time.Date(year, month, dom, 0, 0, 0, 0, time.UTC)
		d := Day{Date: date, Kind: KindWorkday}
		if name, ok := holidayName(date); ok {
			d.Kind = KindHoliday
			d.Holiday = name
		} else if wd := date.Weekday(); wd == time.Friday || wd == time.Saturday {
			d.Kind = KindWeekend
		}
		days = append(days, d)
	}
	return days, nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Workdays filters resolved days down to the workdays.
func Workdays(days []Day) []Day {
	out := make([]Day, 0, len(days))
	for _, d := range days {
		if d.Kind == KindWorkday {
			out = append(out, d)
		}
	}
	return out
}
