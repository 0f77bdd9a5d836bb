// Package plan computes the desired attendance state for every day of a
// target month from the user's day-request sets. It is pure: no browser,
// no I/O, and identical inputs always produce identical output.
package plan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"hilanfill/internal/workcal"
)

// sickDeclarationLimit is the policy cutoff: up to this many sick days are
// reported as a self-declaration, more require a certificate attachment.
const sickDeclarationLimit = 2

// ConfigError reports invalid user input. It always fires before any
// browser action is taken.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "invalid configuration: " + e.Reason }

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// AbsenceKind identifies the type of a no-hours day.
type AbsenceKind int

const (
	AbsenceNone AbsenceKind = iota
	Vacation
	SickDeclaration
	Sick
	ReserveDuty
)

func (k AbsenceKind) String() string {
	switch k {
	case Vacation:
		return "vacation"
	case SickDeclaration:
		return "sick day declaration"
	case Sick:
		return "sick"
	case ReserveDuty:
		return "reserve duty"
	}
	return "none"
}

// PresenceMode says how a worked day is reported.
type PresenceMode int

const (
	Office PresenceMode = iota
	Remote
)

func (m PresenceMode) String() string {
	if m == Office {
		return "presence"
	}
	return "w.home"
}

// Action is the top-level variant of a desired day state.
type Action int

const (
	NoChange Action = iota
	Attendance
	Absence
)

// DayState is the desired end state for a single day of the target month.
type DayState struct {
	Day  int
	Date time.Time
	Kind workcal.Kind

	Action     Action
	Absence    AbsenceKind
	Attachment string // required certificate path, when the kind needs one

	Entry    string
	Exit     string
	Project  Project
	Presence PresenceMode
}

// Project is the portal project reference: the short canonical code plus the
// human-readable label, e.g. "12086 - AGUR IC".
type Project struct {
	Code  string
	Label string
}

// ParseProject splits a user-supplied project string into code and label.
func ParseProject(s string) Project {
	s = strings.TrimSpace(s)
	if code, _, ok := strings.Cut(s, " - "); ok {
		return Project{Code: strings.TrimSpace(code), Label: s}
	}
	return Project{Code: s, Label: s}
}

// Requests carries the user's day sets for the target month.
type Requests struct {
	Vacation        DaySet
	Sick            DaySet
	ReserveDuty     DaySet
	PresentDates    DaySet
	PresentWeekdays WeekdaySet

	SickFile        string
	ReserveDutyFile string
}

// Validate checks set disjointness and attachment requirements.
func (r Requests) Validate() error {
	sets := []struct {
		name string
		set  DaySet
	}{
		{"--vacation", r.Vacation},
		{"--sick-days", r.Sick},
		{"--reserve-days", r.ReserveDuty},
		{"--present-dates", r.PresentDates},
	}
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			if overlap := sets[i].set.Intersect(sets[j].set); len(overlap) > 0 {
				return configErrorf("%s and %s overlap on days %v: a day cannot be both",
					sets[i].name, sets[j].name, overlap)
			}
		}
	}

	if len(r.Sick) > sickDeclarationLimit && r.SickFile == "" {
		return configErrorf("--sick-file is required when --sick-days has more than %d days", sickDeclarationLimit)
	}
	if len(r.ReserveDuty) > 0 && r.ReserveDutyFile == "" {
		return configErrorf("--reserve-file is required when --reserve-days is set")
	}
	return nil
}

// SickKind returns the absence kind the current sick-day count maps to.
func (r Requests) SickKind() AbsenceKind {
	if len(r.Sick) > sickDeclarationLimit {
		return Sick
	}
	return SickDeclaration
}

// Classify maps every resolved calendar day to its desired state.
//
// Weekends and holidays with no explicit request are NoChange. Requested
// absence days take their kind from the request sets. Every remaining
// workday is attendance with the default hours and project; it is reported
// as office presence when its weekday is a recurring office day or its date
// an ad-hoc one, w.home otherwise.
func Classify(days []workcal.Day, req Requests, entry, exit string, project Project) (map[int]DayState, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	states := make(map[int]DayState, len(days))
	for _, d := range days {
		dom := d.Date.Day()
		st := DayState{Day: dom, Date: d.Date, Kind: d.Kind, Action: NoChange}

		switch {
		case d.Kind != workcal.KindWorkday:
			// Weekend/holiday stays NoChange even when requested: the grid
			// has no editable row to absorb the request.

		case req.Vacation.Has(dom):
			st.Action = Absence
			st.Absence = Vacation

		case req.Sick.Has(dom):
			st.Action = Absence
			st.Absence = req.SickKind()
			if st.Absence == Sick {
				st.Attachment = req.SickFile
			}

		case req.ReserveDuty.Has(dom):
			st.Action = Absence
			st.Absence = ReserveDuty
			st.Attachment = req.ReserveDutyFile

		default:
			st.Action = Attendance
			st.Entry = entry
			st.Exit = exit
			st.Project = project
			st.Presence = Remote
			if req.PresentWeekdays.Has(d.Date.Weekday()) || req.PresentDates.Has(dom) {
				st.Presence = Office
			}
		}
		states[dom] = st
	}
	return states, nil
}

// SortedDays returns the day numbers of a state map in ascending order.
func SortedDays(states map[int]DayState) []int {
	out := make([]int, 0, len(states))
	for d := range states {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}
