// Package portal drives the Hilan attendance pages through a real browser.
// Everything specific to the portal's markup lives in Profile as data; the
// interaction sequences themselves are fixed.
package portal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"hilanfill/internal/plan"
)

// SymbolSet holds the status-symbol codes the reporting-type selector
// accepts. Values are exactly what the portal's <option value="..."> carries.
type SymbolSet struct {
	Presence        string `yaml:"presence"`
	Remote          string `yaml:"remote"`
	Vacation        string `yaml:"vacation"`
	SickDeclaration string `yaml:"sick_declaration"`
	Sick            string `yaml:"sick"`
	ReserveDuty     string `yaml:"reserve_duty"`
}

// ForAbsence maps an absence kind to its symbol code.
func (s SymbolSet) ForAbsence(kind plan.AbsenceKind) string {
	switch kind {
	case plan.Vacation:
		return s.Vacation
	case plan.SickDeclaration:
		return s.SickDeclaration
	case plan.Sick:
		return s.Sick
	case plan.ReserveDuty:
		return s.ReserveDuty
	}
	return ""
}

// ForPresence maps a presence mode to its symbol code.
func (s SymbolSet) ForPresence(mode plan.PresenceMode) string {
	if mode == plan.Office {
		return s.Presence
	}
	return s.Remote
}

// IsAbsence reports whether a current symbol code is one of the absence
// types. Absence rows cannot be switched directly to a work type; they must
// be deleted first.
func (s SymbolSet) IsAbsence(code string) bool {
	switch code {
	case "":
		return false
	case s.Vacation, s.SickDeclaration, s.Sick, s.ReserveDuty:
		return true
	}
	return false
}

// Harmless reports whether a weekend/holiday row's symbol can be left alone.
func (s SymbolSet) Harmless(code string) bool {
	return code == "" || code == s.Remote
}

// Selectors holds the CSS selectors for the fixed page layout.
type Selectors struct {
	UsernameInput   string `yaml:"username_input"`
	PasswordInput   string `yaml:"password_input"`
	LoginButton     string `yaml:"login_button"`
	LoginErrorText  string `yaml:"login_error_text"`
	MonthLabel      string `yaml:"month_label"`
	MonthDropdown   string `yaml:"month_dropdown"`
	SelectAllHeader string `yaml:"select_all_header"`
	TodayCell       string `yaml:"today_cell"` // fmt pattern, day number substituted
	DaysSelectedBtn string `yaml:"days_selected_btn"`
	SaveButton      string `yaml:"save_button"`
	SaveButtonAlt   string `yaml:"save_button_alt"`
	DialogPanel     string `yaml:"dialog_panel"`
	DialogConfirm   string `yaml:"dialog_confirm"`
}

// Profile bundles everything portal-instance specific.
type Profile struct {
	BaseURL       string    `yaml:"base_url"`
	LoginURL      string    `yaml:"login_url"`
	AttendanceURL string    `yaml:"attendance_url"`
	Selectors     Selectors `yaml:"selectors"`
	Symbols       SymbolSet `yaml:"symbols"`
}

// DefaultProfile returns the selector set and symbol codes captured from the
// portal's saved HTML.
func DefaultProfile() Profile {
	const base = "https://nvidia.net.hilan.co.il"
	return Profile{
		BaseURL:       base,
		LoginURL:      base + "/login",
		AttendanceURL: base + "/Hilannetv2/Attendance/calendarpage.aspx",
		Selectors: Selectors{
			UsernameInput:   "#user_nm",
			PasswordInput:   "#password_nm",
			LoginButton:     "button[type='submit']",
			LoginErrorText:  ".error, .h-centered-field.error, [role='alert']",
			MonthLabel:      "#ctl00_mp_calendar_monthChanged",
			MonthDropdown:   ".SelectedBulletedListItem",
			SelectAllHeader: "th.dayFirstHeaderStyle",
			TodayCell:       "td.currentDay[aria-label='%d'], td.CSD[aria-label='%d']",
			DaysSelectedBtn: "#ctl00_mp_RefreshSelectedDays",
			SaveButton:      "input[id$='btnSave'][value='Save']",
			SaveButtonAlt:   "input[value='Save']",
			DialogPanel:     "#ctl00_theBasePanel",
			DialogConfirm:   "input[value='OK'], input[value='Yes']",
		},
		Symbols: SymbolSet{
			Presence:        "0",
			Remote:          "15",
			Vacation:        "2",
			SickDeclaration: "5",
			Sick:            "6",
			ReserveDuty:     "4",
		},
	}
}

// LoadProfile reads YAML overrides on top of the default profile. Missing
// fields keep their defaults, so a profile file only needs what differs.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}
