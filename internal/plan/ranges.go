package plan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DaySet is a set of day-of-month numbers.
type DaySet map[int]bool

func (s DaySet) Has(day int) bool { return s[day] }

// Intersect returns the sorted days present in both sets.
func (s DaySet) Intersect(other DaySet) []int {
	var out []int
	for d := range s {
		if other[d] {
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

// Days returns the sorted members of the set.
func (s DaySet) Days() []int {
	out := make([]int, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// ParseDaySet parses day-of-month lists like "5,12,20-22". Ranges are
// inclusive. An empty string yields an empty set.
func ParseDaySet(flag, value string) (DaySet, error) {
	set := DaySet{}
	if strings.TrimSpace(value) == "" {
		return set, nil
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := parseDayNum(lo)
			end, err2 := parseDayNum(hi)
			if err1 != nil || err2 != nil || start > end {
				return nil, configErrorf("%s: bad range %q (expected e.g. 10-14)", flag, part)
			}
			for d := start; d <= end; d++ {
				set[d] = true
			}
			continue
		}
		d, err := parseDayNum(part)
		if err != nil {
			return nil, configErrorf("%s: bad day %q (expected days or ranges like 5,12,20-22)", flag, part)
		}
		set[d] = true
	}
	return set, nil
}

func parseDayNum(s string) (int, error) {
	d, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d < 1 || d > 31 {
		return 0, configErrorf("day %d out of range 1-31", d)
	}
	return d, nil
}

// WeekdaySet is a set of weekdays for recurring office days.
type WeekdaySet map[time.Weekday]bool

func (s WeekdaySet) Has(d time.Weekday) bool { return s[d] }

// weekday numbering on the CLI: 1=Sun .. 5=Thu, matching the portal's work week.
var cliWeekdays = map[int]time.Weekday{
	1: time.Sunday,
	2: time.Monday,
	3: time.Tuesday,
	4: time.Wednesday,
	5: time.Thursday,
}

// ParseWeekdaySet parses recurring office weekdays like "2,4".
func ParseWeekdaySet(flag, value string) (WeekdaySet, error) {
	set := WeekdaySet{}
	if strings.TrimSpace(value) == "" {
		return set, nil
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, configErrorf("%s: bad weekday %q (use 1=Sun..5=Thu)", flag, part)
		}
		wd, ok := cliWeekdays[n]
		if !ok {
			return nil, configErrorf("%s: weekday %d out of range (use 1=Sun..5=Thu)", flag, n)
		}
		set[wd] = true
	}
	return set, nil
}

// ValidateClock checks an HH:MM time string and returns it zero-padded.
func ValidateClock(flag, value string) (string, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return "", configErrorf("%s must be in HH:MM format (e.g. 09:00): got %q", flag, value)
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return "", configErrorf("%s must be in HH:MM format (e.g. 09:00): got %q", flag, value)
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}
