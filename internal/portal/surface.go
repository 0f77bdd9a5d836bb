package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FillOutcome classifies a project-autocomplete fill attempt.
type FillOutcome int

const (
	// FillCommitted means the value was selected through the widget and the
	// portal recorded it.
	FillCommitted FillOutcome = iota
	// FillTentative means the value was written straight into the storage
	// field after the widget failed; the portal may not recognize it, so the
	// row stays retry-eligible.
	FillTentative
	// FillFailed means nothing was written.
	FillFailed
)

func (o FillOutcome) String() string {
	switch o {
	case FillCommitted:
		return "committed"
	case FillTentative:
		return "tentative"
	}
	return "failed"
}

// Surface exposes the attendance page as domain-level operations. It is the
// only writer to the browser session.
type Surface struct {
	drv     *Driver
	profile Profile
	log     *zap.Logger
}

// NewSurface binds a driver to a portal profile.
func NewSurface(drv *Driver, profile Profile, log *zap.Logger) *Surface {
	return &Surface{drv: drv, profile: profile, log: log}
}

// Driver exposes the underlying driver for diagnostics.
func (s *Surface) Driver() *Driver { return s.drv }

// Login signs in and verifies the portal left the login page.
func (s *Surface) Login(ctx context.Context, user, password string) error {
	s.log.Info("navigating to login page")
	if err := s.drv.Navigate(ctx, s.profile.LoginURL); err != nil {
		return err
	}
	s.drv.Screenshot("01_login_page")

	if err := s.drv.WaitVisible(ctx, s.profile.Selectors.UsernameInput, 3); err != nil {
		s.drv.Screenshot("01_login_form_not_found")
		return fmt.Errorf("login form not found: %w", err)
	}

	s.log.Info("submitting credentials", zap.String("user", user))
	if err := s.drv.Fill(ctx, s.profile.Selectors.UsernameInput, user); err != nil {
		return err
	}
	if err := s.drv.Fill(ctx, s.profile.Selectors.PasswordInput, password); err != nil {
		return err
	}
	if err := s.drv.Click(ctx, s.profile.Selectors.LoginButton); err != nil {
		return err
	}
	if err := s.drv.WaitStable(ctx); err != nil {
		return err
	}
	s.drv.Screenshot("02_after_login")

	current := s.drv.CurrentURL()
	s.log.Debug("post-login url", zap.String("url", current))
	if strings.Contains(strings.ToLower(current), "login") {
		text := ""
		if html, err := s.drv.HTML(ctx); err == nil {
			text = scrapeFirstText(html, s.profile.Selectors.LoginErrorText)
		}
		s.drv.Screenshot("02_login_failed")
		return &AuthError{Text: text}
	}
	s.log.Info("login successful")
	return nil
}

// OpenAttendance navigates to the attendance calendar page.
func (s *Surface) OpenAttendance(ctx context.Context) error {
	s.log.Info("opening attendance page")
	if err := s.drv.Navigate(ctx, s.profile.AttendanceURL); err != nil {
		return err
	}
	s.drv.Screenshot("03_attendance_page")
	return nil
}

// EnsureMonth switches the calendar to the target month when it is not
// already shown. The dropdown item click triggers a full postback.
func (s *Surface) EnsureMonth(ctx context.Context, year int, month time.Month) error {
	target := fmt.Sprintf("%s %d", month.String(), year)

	label, err := s.drv.EvalJSON(ctx, `(sel) => {
		const el = document.querySelector(sel);
		return el ? el.innerText.trim() : '';
	}`, s.profile.Selectors.MonthLabel)
	if err == nil && strings.EqualFold(label.Str(), target) {
		s.log.Info("calendar already on target month", zap.String("month", target))
		return nil
	}

	s.log.Info("switching calendar month", zap.String("month", target))
	if err := s.drv.Click(ctx, s.profile.Selectors.MonthDropdown); err != nil {
		return fmt.Errorf("open month dropdown: %w", err)
	}
	itemValue := fmt.Sprintf("01/%02d/%d", int(month), year)
	if err := s.drv.Click(ctx, fmt.Sprintf("li[itemvalue='%s']", itemValue)); err != nil {
		return fmt.Errorf("month item %s: %w", itemValue, err)
	}
	if err := s.drv.WaitStable(ctx); err != nil {
		return err
	}
	s.drv.Screenshot("04_month_selected")
	return nil
}

// SelectDays selects every day of the viewed month through the ">>" header,
// then refreshes the grid. The ">>" control toggles selection state, and
// today starts out pre-selected: when viewing the current month the toggle
// deselects today, so that one cell is re-clicked. Never applied to other
// months, where it would flip an arbitrary day instead.
func (s *Surface) SelectDays(ctx context.Context, year int, month time.Month, today time.Time) error {
	s.log.Info("selecting all days in month")
	clicked, err := s.drv.ClickIfPresent(ctx, s.profile.Selectors.SelectAllHeader)
	if err != nil {
		return fmt.Errorf("select-all header: %w", err)
	}
	if !clicked {
		return fmt.Errorf("select-all header %s not found", s.profile.Selectors.SelectAllHeader)
	}
	if err := s.drv.WaitStable(ctx); err != nil {
		return err
	}

	if year == today.Year() && month == today.Month() {
		sel := fmt.Sprintf(s.profile.Selectors.TodayCell, today.Day(), today.Day())
		if reclicked, err := s.drv.ClickIfPresent(ctx, sel); err == nil && reclicked {
			s.log.Info("re-selected today after select-all toggle", zap.Int("day", today.Day()))
			if err := s.drv.WaitStable(ctx); err != nil {
				return err
			}
		}
	}

	clicked, err = s.drv.ClickIfPresent(ctx, s.profile.Selectors.DaysSelectedBtn)
	if err != nil {
		return fmt.Errorf("days-selected button: %w", err)
	}
	if !clicked {
		fallback, err := s.drv.ClickIfPresent(ctx, "input[value='Days selected']")
		if err != nil {
			return fmt.Errorf("days-selected fallback: %w", err)
		}
		if !fallback {
			s.drv.Screenshot("error_no_days_selected")
			return fmt.Errorf("days-selected control not found")
		}
	}
	if err := s.drv.WaitStable(ctx); err != nil {
		return err
	}
	s.drv.Screenshot("05_days_selected")
	return nil
}

// ReadRows scans the reports grid. Read-only: it never changes page state.
func (s *Surface) ReadRows(ctx context.Context) ([]Row, error) {
	raw, err := s.drv.Eval(ctx, gridScanScript)
	if err != nil {
		return nil, fmt.Errorf("scan grid: %w", err)
	}
	rows, err := parseRows(raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		s.drv.Screenshot("error_no_rows")
		s.drv.DumpHTML(ctx, "error_no_rows")
	}
	return rows, nil
}

// deleteRowScript fires the portal's own delete handler for a row. The
// confirmation dialog that follows is handled separately.
const deleteRowScript = `
(rowIndex) => {
	const span = document.querySelector(
		'span[id*="SysColumn_Delete_EmployeeReports_row_' + rowIndex + '_"] span.fh-garbage');
	if (span && typeof doControlClick === 'function') {
		doControlClick({type: 'click'}, span);
		return true;
	}
	return false;
}
`

// DeleteRow removes a grid row, confirming the dialog the portal raises.
// Triggers a postback: all row indices are stale afterwards.
func (s *Surface) DeleteRow(ctx context.Context, row Row) error {
	raw, err := s.drv.Eval(ctx, deleteRowScript, row.Index)
	if err != nil {
		return fmt.Errorf("delete row %s: %w", row.DateLabel, err)
	}
	var fired bool
	if json.Unmarshal(raw, &fired) == nil && !fired {
		return fmt.Errorf("delete control for row %s not found", row.DateLabel)
	}

	// The confirm button lives inside the dialog's iframe.
	time.Sleep(2 * time.Second)
	if frame, err := s.drv.Frame(ctx, s.profile.Selectors.DialogPanel); err == nil {
		if btn, err := frame.Timeout(5 * time.Second).Element(s.profile.Selectors.DialogConfirm); err == nil {
			if err := btn.Click("left", 1); err == nil {
				s.log.Debug("confirmed delete dialog", zap.String("row", row.DateLabel))
			}
		}
	}

	if err := s.drv.WaitStable(ctx); err != nil {
		return err
	}
	s.DismissModals(ctx)
	return nil
}

// clearFieldsScript empties a row's hour inputs and project value. Absence
// symbols reject rows that still carry hours.
const clearFieldsScript = `
(entryId, exitId, rowIndex) => {
	const entry = document.getElementById(entryId);
	const exit = document.getElementById(exitId);
	if (entry) entry.value = '';
	if (exit) exit.value = '';

	const projectTd = document.querySelector(
		'td[id*="Project"][id*="_EmployeeReports_row_' + rowIndex + '_"]');
	if (projectTd) {
		const input = projectTd.querySelector('input[type="text"]');
		if (input) { input.value = ''; input.setAttribute('sv', ''); }
	}
	const hidden = document.querySelector(
		'input[id*="ProjectForView_EmployeeReports_row_' + rowIndex + '_"][id*="AutoCompleteExtender_value"]');
	if (hidden) hidden.value = '';
}
`

// SetSymbol changes a row's reporting-type selector through real select
// events so the portal's handler runs. Triggers a postback. When clearFields
// is set, hours and project are emptied first (absence rows carry neither).
func (s *Surface) SetSymbol(ctx context.Context, row Row, code string, clearFields bool) error {
	if !row.HasSymbol || row.SymbolID == "" {
		return fmt.Errorf("row %s has no symbol selector", row.DateLabel)
	}
	s.DismissModals(ctx)

	if clearFields {
		if _, err := s.drv.Eval(ctx, clearFieldsScript, row.EntryID, row.ExitID, row.Index); err != nil {
			return fmt.Errorf("clear fields for %s: %w", row.DateLabel, err)
		}
	}

	sel := fmt.Sprintf("select[id='%s']", row.SymbolID)
	if err := s.drv.SelectValue(ctx, sel, code); err != nil {
		return fmt.Errorf("set symbol %s on %s: %w", code, row.DateLabel, err)
	}
	if err := s.drv.WaitStable(ctx); err != nil {
		return err
	}
	s.DismissModals(ctx)
	return nil
}

// fillHoursScript writes both hour inputs and dispatches the change/blur
// events the grid listens for. DOM-only, no postback.
const fillHoursScript = `
(entryId, exitId, entryTime, exitTime) => {
	const entry = document.getElementById(entryId);
	const exit = document.getElementById(exitId);
	if (!entry || !exit) return {ok: false};

	entry.focus();
	entry.value = entryTime;
	entry.dispatchEvent(new Event('change', {bubbles: true}));
	entry.dispatchEvent(new Event('blur', {bubbles: true}));

	exit.focus();
	exit.value = exitTime;
	exit.dispatchEvent(new Event('change', {bubbles: true}));
	exit.dispatchEvent(new Event('blur', {bubbles: true}));

	return {ok: true, entry: entry.value, exit: exit.value};
}
`

// FillHours sets a row's entry/exit time fields.
func (s *Surface) FillHours(ctx context.Context, row Row, entry, exit string) error {
	if !row.CanFill() {
		return fmt.Errorf("row %s has no hour inputs", row.DateLabel)
	}
	raw, err := s.drv.Eval(ctx, fillHoursScript, row.EntryID, row.ExitID, entry, exit)
	if err != nil {
		return fmt.Errorf("fill hours on %s: %w", row.DateLabel, err)
	}
	var result struct {
		OK    bool   `json:"ok"`
		Entry string `json:"entry"`
		Exit  string `json:"exit"`
	}
	if err := json.Unmarshal(raw, &result); err == nil && !result.OK {
		return fmt.Errorf("hour inputs for %s disappeared", row.DateLabel)
	}
	s.log.Info("hours set",
		zap.String("date", row.DateLabel),
		zap.String("entry", entry),
		zap.String("exit", exit))
	if err := s.drv.WaitStable(ctx); err != nil {
		return err
	}
	s.DismissModals(ctx)
	return nil
}

// AttachFile uploads a certificate through the row's attach control, using
// the intercepted native file chooser.
func (s *Surface) AttachFile(ctx context.Context, row Row, path string) error {
	sel := fmt.Sprintf("span[id*='File_EmployeeReports_row_%d_'][id*='Attach']", row.Index)

	setFiles, err := s.drv.HandleFileDialog()
	if err != nil {
		return fmt.Errorf("arm file dialog: %w", err)
	}
	clicked, err := s.drv.ClickIfPresent(ctx, sel)
	if err != nil {
		return fmt.Errorf("attach control for %s: %w", row.DateLabel, err)
	}
	if !clicked {
		return fmt.Errorf("attach control for %s not found", row.DateLabel)
	}
	if err := setFiles([]string{path}); err != nil {
		return fmt.Errorf("set attachment %s: %w", path, err)
	}
	if err := s.drv.WaitStable(ctx); err != nil {
		return err
	}
	s.DismissModals(ctx)
	s.log.Info("attachment uploaded", zap.String("date", row.DateLabel), zap.String("file", path))
	return nil
}

// dismissModalsScript hides any blocking dialog the portal raised, through
// the portal's own JS API where one exists.
const dismissModalsScript = `
() => {
	const results = [];

	const mpeBg = document.getElementById('MPEBehavior_backgroundElement');
	if (mpeBg && mpeBg.style.display !== 'none') {
		try {
			const mpe = $find('MPEBehavior');
			if (mpe && mpe.hide) { mpe.hide(); results.push('MPEBehavior'); }
		} catch (e) { results.push('MPEBehavior_error:' + e.message); }
	}

	const mdBg = document.getElementById('ctl00_mDialogEx_backgroundElement');
	if (mdBg && mdBg.style.display !== 'none') {
		try {
			const md = $find('ctl00_mDialogEx');
			if (md && md.hide) { md.hide(); results.push('mDialogEx'); }
		} catch (e) { results.push('mDialogEx_error:' + e.message); }
	}

	const gridBg = document.querySelector('[id*="chooseChild_backgroundElement"]');
	if (gridBg && gridBg.style.display !== 'none') {
		gridBg.style.display = 'none';
		results.push('gridDialog');
	}

	return results;
}
`

// DismissModals closes any blocking dialog. Safe to call at any time; it is
// checked defensively around every state-changing action.
func (s *Surface) DismissModals(ctx context.Context) {
	raw, err := s.drv.Eval(ctx, dismissModalsScript)
	if err != nil {
		s.log.Debug("dismiss modals", zap.Error(err))
		return
	}
	var dismissed []string
	if json.Unmarshal(raw, &dismissed) == nil && len(dismissed) > 0 {
		s.log.Info("dismissed modal", zap.Strings("which", dismissed))
		time.Sleep(time.Second)
	}
}

// Save clicks the portal save button, waits out the postback, and scrapes
// the resulting page for server-side validation messages. The messages come
// back as warnings; the save is never retried automatically.
func (s *Surface) Save(ctx context.Context) ([]string, error) {
	s.drv.Screenshot("08_before_save")

	clicked, err := s.drv.ClickIfPresent(ctx, s.profile.Selectors.SaveButton)
	if err != nil {
		return nil, fmt.Errorf("save button: %w", err)
	}
	if !clicked {
		s.log.Warn("save button not found, trying fallback selector")
		clicked, err = s.drv.ClickIfPresent(ctx, s.profile.Selectors.SaveButtonAlt)
		if err != nil || !clicked {
			s.drv.Screenshot("error_no_save_button")
			return nil, fmt.Errorf("save button not found")
		}
	}

	if err := s.drv.WaitStable(ctx); err != nil {
		return nil, err
	}
	s.drv.Screenshot("09_after_save")

	html, err := s.drv.HTML(ctx)
	if err != nil {
		return nil, nil // saved, but the page is unreadable; nothing to report
	}
	warnings := scrapeSaveWarnings(html)
	if len(warnings) > 0 {
		s.DismissModals(ctx)
	}
	return warnings, nil
}

// SessionClosed reports whether the browser session is gone.
func (s *Surface) SessionClosed() bool { return s.drv.SessionClosed() }

// Screenshot records a diagnostic capture.
func (s *Surface) Screenshot(label string) { s.drv.Screenshot(label) }
