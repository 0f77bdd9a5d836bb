package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"hilanfill/internal/plan"
	"hilanfill/internal/workcal"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	promptStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	officeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	remoteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	vacationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	sickStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	reserveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("135"))
	offStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// renderPreview computes the day plan from the answers and draws it as a
// calendar month. Cross-field validation errors surface here.
func renderPreview(p Params) (string, error) {
	states, err := classify(p)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(promptStyle.Render(fmt.Sprintf("%s %d", p.Month, p.Year)))
	b.WriteString("\n\n")
	b.WriteString(offStyle.Render(" Sun  Mon  Tue  Wed  Thu  Fri  Sat"))
	b.WriteString("\n")

	first := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	col := int(first.Weekday())
	b.WriteString(strings.Repeat("     ", col))

	for day := 1; day <= len(states); day++ {
		st := states[day]
		b.WriteString(" ")
		b.WriteString(dayCell(st))
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(legend(p))
	return b.String(), nil
}

func classify(p Params) (map[int]plan.DayState, error) {
	entry, err := plan.ValidateClock("entry time", p.Start)
	if err != nil {
		return nil, err
	}
	exit, err := plan.ValidateClock("exit time", p.End)
	if err != nil {
		return nil, err
	}
	weekdays, err := plan.ParseWeekdaySet("office weekdays", p.PresentDays)
	if err != nil {
		return nil, err
	}
	req := plan.Requests{
		PresentWeekdays: weekdays,
		SickFile:        p.SickFile,
		ReserveDutyFile: p.ReserveFile,
	}
	for _, ds := range []struct {
		name  string
		value string
		dst   *plan.DaySet
	}{
		{"office days", p.PresentDates, &req.PresentDates},
		{"vacation days", p.Vacation, &req.Vacation},
		{"sick days", p.SickDays, &req.Sick},
		{"reserve duty days", p.ReserveDays, &req.ReserveDuty},
	} {
		set, err := plan.ParseDaySet(ds.name, ds.value)
		if err != nil {
			return nil, err
		}
		*ds.dst = set
	}

	days, err := workcal.ResolveMonth(p.Year, p.Month)
	if err != nil {
		return nil, err
	}
	return plan.Classify(days, req, entry, exit, plan.ParseProject(p.Project))
}

func dayCell(st plan.DayState) string {
	text := fmt.Sprintf("%3d ", st.Day)
	switch st.Action {
	case plan.Absence:
		switch st.Absence {
		case plan.Vacation:
			return vacationStyle.Render(text)
		case plan.ReserveDuty:
			return reserveStyle.Render(text)
		default:
			return sickStyle.Render(text)
		}
	case plan.Attendance:
		if st.Presence == plan.Office {
			return officeStyle.Render(text)
		}
		return remoteStyle.Render(text)
	}
	return offStyle.Render(text)
}

func legend(p Params) string {
	entries := []string{
		officeStyle.Render("office"),
		remoteStyle.Render("w.home"),
		vacationStyle.Render("vacation"),
		sickStyle.Render("sick"),
		reserveStyle.Render("reserve"),
		offStyle.Render("off"),
	}
	out := strings.Join(entries, "  ")
	if p.Project != "" {
		out += "\n" + offStyle.Render(fmt.Sprintf("hours %s-%s, project %s", p.Start, p.End, p.Project))
	} else {
		out += "\n" + offStyle.Render(fmt.Sprintf("hours %s-%s", p.Start, p.End))
	}
	return out
}
