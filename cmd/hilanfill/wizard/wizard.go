// Package wizard is the interactive front end: it collects the month plan
// one question at a time and previews the resulting calendar before the
// browser is started.
package wizard

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"hilanfill/internal/plan"
	"hilanfill/internal/workcal"
)

// Defaults pre-fills wizard answers.
type Defaults struct {
	User    string
	Project string
	Start   string
	End     string
	Year    int
	Month   time.Month
}

// Params is the completed questionnaire. String fields carry the same
// syntax as the fill command's flags.
type Params struct {
	User         string
	Password     string
	Project      string
	Start        string
	End          string
	PresentDays  string
	PresentDates string
	Vacation     string
	SickDays     string
	SickFile     string
	ReserveDays  string
	ReserveFile  string
	Year         int
	Month        time.Month
	DryRun       bool
}

// Run walks the user through the questionnaire. It returns nil when the
// user cancelled.
func Run(defaults Defaults) (*Params, error) {
	final, err := tea.NewProgram(newModel(defaults)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(model)
	if !ok || !m.accepted {
		return nil, nil
	}
	return &m.params, nil
}

// step is one question of the wizard.
type step struct {
	prompt      string
	placeholder string
	secret      bool
	initial     func(Defaults) string
	validate    func(string) error
	assign      func(*Params, string)
	// skip hides the step given the answers so far.
	skip func(*Params) bool
}

func steps() []step {
	noSkip := func(*Params) bool { return false }
	return []step{
		{
			prompt:      "Portal username",
			placeholder: "employee number",
			initial:     func(d Defaults) string { return d.User },
			validate:    required("username"),
			assign:      func(p *Params, v string) { p.User = v },
			skip:        noSkip,
		},
		{
			prompt:      "Portal password",
			placeholder: "password",
			secret:      true,
			initial:     func(Defaults) string { return "" },
			validate:    required("password"),
			assign:      func(p *Params, v string) { p.Password = v },
			skip:        noSkip,
		},
		{
			prompt:      "Default project (e.g. \"12086 - AGUR IC\", empty for none)",
			placeholder: "code - label",
			initial:     func(d Defaults) string { return d.Project },
			assign:      func(p *Params, v string) { p.Project = v },
			skip:        noSkip,
		},
		{
			prompt:      "Entry time",
			placeholder: "09:00",
			initial:     func(d Defaults) string { return d.Start },
			validate: func(v string) error {
				_, err := plan.ValidateClock("entry time", v)
				return err
			},
			assign: func(p *Params, v string) { p.Start = v },
			skip:   noSkip,
		},
		{
			prompt:      "Exit time",
			placeholder: "18:00",
			initial:     func(d Defaults) string { return d.End },
			validate: func(v string) error {
				_, err := plan.ValidateClock("exit time", v)
				return err
			},
			assign: func(p *Params, v string) { p.End = v },
			skip:   noSkip,
		},
		{
			prompt:      "Recurring office weekdays, 1=Sunday..5=Thursday (e.g. 1,3)",
			placeholder: "empty for all-remote",
			initial:     func(Defaults) string { return "" },
			validate: func(v string) error {
				_, err := plan.ParseWeekdaySet("office weekdays", v)
				return err
			},
			assign: func(p *Params, v string) { p.PresentDays = v },
			skip:   noSkip,
		},
		{
			prompt:      "Ad-hoc office days of month (e.g. 5,12,20-22)",
			placeholder: "empty for none",
			initial:     func(Defaults) string { return "" },
			validate:    daySetValidator("office days"),
			assign:      func(p *Params, v string) { p.PresentDates = v },
			skip:        noSkip,
		},
		{
			prompt:      "Vacation days",
			placeholder: "e.g. 20-22, empty for none",
			initial:     func(Defaults) string { return "" },
			validate:    daySetValidator("vacation days"),
			assign:      func(p *Params, v string) { p.Vacation = v },
			skip:        noSkip,
		},
		{
			prompt:      "Sick days",
			placeholder: "e.g. 5,6, empty for none",
			initial:     func(Defaults) string { return "" },
			validate:    daySetValidator("sick days"),
			assign:      func(p *Params, v string) { p.SickDays = v },
			skip:        noSkip,
		},
		{
			prompt:      "Sick certificate file (more than 2 sick days reported)",
			placeholder: "/path/to/certificate.pdf",
			initial:     func(Defaults) string { return "" },
			validate:    fileExists,
			assign:      func(p *Params, v string) { p.SickFile = v },
			skip: func(p *Params) bool {
				set, err := plan.ParseDaySet("sick days", p.SickDays)
				return err != nil || len(set) <= 2
			},
		},
		{
			prompt:      "Reserve duty days",
			placeholder: "empty for none",
			initial:     func(Defaults) string { return "" },
			validate:    daySetValidator("reserve duty days"),
			assign:      func(p *Params, v string) { p.ReserveDays = v },
			skip:        noSkip,
		},
		{
			prompt:      "Reserve duty certificate file",
			placeholder: "/path/to/order.pdf",
			initial:     func(Defaults) string { return "" },
			validate:    fileExists,
			assign:      func(p *Params, v string) { p.ReserveFile = v },
			skip:        func(p *Params) bool { return strings.TrimSpace(p.ReserveDays) == "" },
		},
		{
			prompt:      "Target month (1-12)",
			placeholder: "current month",
			initial:     func(d Defaults) string { return strconv.Itoa(int(d.Month)) },
			validate: func(v string) error {
				n, err := strconv.Atoi(v)
				if err != nil || n < 1 || n > 12 {
					return fmt.Errorf("month must be 1-12")
				}
				return nil
			},
			assign: func(p *Params, v string) {
				n, _ := strconv.Atoi(v)
				p.Month = time.Month(n)
			},
			skip: noSkip,
		},
		{
			prompt:      "Target year",
			placeholder: "current year",
			initial:     func(d Defaults) string { return strconv.Itoa(d.Year) },
			validate: func(v string) error {
				n, err := strconv.Atoi(v)
				if err != nil || n < workcal.MinYear || n > workcal.MaxYear {
					return fmt.Errorf("year must be %d-%d", workcal.MinYear, workcal.MaxYear)
				}
				return nil
			},
			assign: func(p *Params, v string) { p.Year, _ = strconv.Atoi(v) },
			skip:   noSkip,
		},
	}
}

func required(name string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		return nil
	}
}

func daySetValidator(name string) func(string) error {
	return func(v string) error {
		_, err := plan.ParseDaySet(name, v)
		return err
	}
}

func fileExists(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("a certificate file is required")
	}
	if _, err := os.Stat(v); err != nil {
		return fmt.Errorf("cannot read %s", v)
	}
	return nil
}

type model struct {
	defaults Defaults
	steps    []step
	idx      int

	input  textinput.Model
	errMsg string

	params     Params
	confirming bool
	preview    string
	accepted   bool
}

func newModel(defaults Defaults) model {
	m := model{
		defaults: defaults,
		steps:    steps(),
	}
	m.input = textinput.New()
	m.input.Focus()
	m.loadStep()
	return m
}

func (m *model) loadStep() {
	s := m.steps[m.idx]
	m.input.SetValue(s.initial(m.defaults))
	m.input.Placeholder = s.placeholder
	if s.secret {
		m.input.EchoMode = textinput.EchoPassword
		m.input.EchoCharacter = '*'
	} else {
		m.input.EchoMode = textinput.EchoNormal
	}
	m.input.CursorEnd()
	m.errMsg = ""
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.accepted = false
		return m, tea.Quit
	}

	if m.confirming {
		switch strings.ToLower(keyMsg.String()) {
		case "y":
			m.accepted = true
			return m, tea.Quit
		case "d":
			m.accepted = true
			m.params.DryRun = true
			return m, tea.Quit
		case "n", "q":
			m.accepted = false
			return m, tea.Quit
		}
		return m, nil
	}

	if keyMsg.Type == tea.KeyEnter {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) submit() (tea.Model, tea.Cmd) {
	s := m.steps[m.idx]
	value := strings.TrimSpace(m.input.Value())
	if s.validate != nil {
		if err := s.validate(value); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
	}
	s.assign(&m.params, value)

	for m.idx++; m.idx < len(m.steps); m.idx++ {
		if !m.steps[m.idx].skip(&m.params) {
			m.loadStep()
			return m, nil
		}
	}

	preview, err := renderPreview(m.params)
	if err != nil {
		// Cross-field problems (overlapping sets, missing files) only
		// show up once everything is answered; start the sets over.
		m.idx = firstDaySetStep
		m.confirming = false
		m.loadStep()
		m.errMsg = err.Error()
		return m, nil
	}
	m.preview = preview
	m.confirming = true
	return m, nil
}

// firstDaySetStep is the index of the office-weekdays question, where the
// wizard restarts after a cross-field validation failure.
const firstDaySetStep = 5

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("hilanfill"))
	b.WriteString("\n\n")

	if m.confirming {
		b.WriteString(m.preview)
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("y: fill  d: dry-run only  n: cancel"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(promptStyle.Render(m.steps[m.idx].prompt))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("enter: next  esc: cancel"))
	b.WriteString("\n")
	return b.String()
}
