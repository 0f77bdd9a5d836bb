package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"go.uber.org/zap"

	"hilanfill/internal/plan"
)

const autocompleteAttempts = 3

// hideStaleDropdownsScript hides leftover completion lists and helper
// iframes from earlier attempts so a stale list cannot shadow the fresh one.
const hideStaleDropdownsScript = `
() => {
	document.querySelectorAll('ul[id*="AutoCompleteExtender_completionListElem"]').forEach(ul => {
		ul.style.display = 'none';
		ul.style.visibility = 'hidden';
	});
	document.querySelectorAll('iframe[id*="AutoCompleteExtender"]').forEach(f => {
		f.style.display = 'none';
	});
}
`

// prepareProjectInputScript clears the watermark text from a row's project
// input and returns the input's element id. The watermark is placeholder
// text, not a value, so typing over it without clearing corrupts the query.
const prepareProjectInputScript = `
(rowIndex) => {
	const td = document.querySelector(
		'td[id*="Project"][id*="_EmployeeReports_row_' + rowIndex + '_"]');
	if (!td) return '';
	const input = td.querySelector('input[type="text"]');
	if (!input) return '';
	input.value = '';
	return input.id;
}
`

// forceProjectValueScript writes the project straight into the visible input
// and the extender's hidden storage field. Last resort when the widget never
// produced a list; the portal may discard it on postback.
const forceProjectValueScript = `
(rowIndex, code, label) => {
	const td = document.querySelector(
		'td[id*="Project"][id*="_EmployeeReports_row_' + rowIndex + '_"]');
	if (!td) return false;
	const input = td.querySelector('input[type="text"]');
	if (!input) return false;
	input.value = label;
	input.setAttribute('sv', code);
	input.dispatchEvent(new Event('change', {bubbles: true}));
	const hidden = document.querySelector(
		'input[id*="ProjectForView_EmployeeReports_row_' + rowIndex + '_"][id*="AutoCompleteExtender_value"]');
	if (hidden) hidden.value = code;
	return true;
}
`

// ProjectAlreadySet reports whether a row already carries the wanted project.
// The hidden extender value must be non-empty, and either it or the visible
// text must mention the code.
func ProjectAlreadySet(row Row, code string) bool {
	if row.ProjectCode == "" {
		return false
	}
	lower := strings.ToLower(code)
	return strings.Contains(row.ProjectCode, code) ||
		strings.Contains(strings.ToLower(row.ProjectText), lower)
}

// FillProject drives the ASP.NET AutoCompleteExtender on a row's project
// field. The widget only commits values picked from its suggestion list, so
// the code is typed character by character to trigger the AJAX lookup and a
// matching list item is clicked. Bounded retries; when the list never shows,
// the value is forced into the storage field and reported as tentative.
func (s *Surface) FillProject(ctx context.Context, row Row, project plan.Project) (FillOutcome, error) {
	for attempt := 1; attempt <= autocompleteAttempts; attempt++ {
		outcome, err := s.fillProjectOnce(ctx, row, project)
		if err != nil {
			s.log.Warn("project fill attempt failed",
				zap.String("date", row.DateLabel),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		if outcome == FillCommitted {
			s.log.Info("project committed",
				zap.String("date", row.DateLabel),
				zap.String("code", project.Code),
				zap.Int("attempt", attempt))
			return FillCommitted, nil
		}
	}

	// Widget gave up; write the value directly and let the caller decide
	// whether the portal kept it.
	raw, err := s.drv.Eval(ctx, forceProjectValueScript, row.Index, project.Code, project.Label)
	if err != nil {
		return FillFailed, fmt.Errorf("force project on %s: %w", row.DateLabel, err)
	}
	var forced bool
	if json.Unmarshal(raw, &forced) == nil && !forced {
		return FillFailed, fmt.Errorf("project input for %s not found", row.DateLabel)
	}
	s.log.Warn("project set via fallback, portal may not keep it",
		zap.String("date", row.DateLabel),
		zap.String("code", project.Code))
	return FillTentative, nil
}

func (s *Surface) fillProjectOnce(ctx context.Context, row Row, project plan.Project) (FillOutcome, error) {
	s.DismissModals(ctx)
	if _, err := s.drv.Eval(ctx, hideStaleDropdownsScript); err != nil {
		return FillFailed, err
	}

	raw, err := s.drv.Eval(ctx, prepareProjectInputScript, row.Index)
	if err != nil {
		return FillFailed, err
	}
	var inputID string
	if err := json.Unmarshal(raw, &inputID); err != nil || inputID == "" {
		return FillFailed, fmt.Errorf("project input for row %d not found", row.Index)
	}
	sel := fmt.Sprintf("input[id='%s']", inputID)

	// Warm-up clicks; the extender sometimes ignores input on a cold field.
	if err := s.drv.Click(ctx, sel); err != nil {
		return FillFailed, err
	}
	time.Sleep(500 * time.Millisecond)
	if err := s.drv.Click(ctx, sel); err != nil {
		return FillFailed, err
	}

	if err := s.drv.Type(ctx, sel, project.Code); err != nil {
		return FillFailed, err
	}
	time.Sleep(3 * time.Second)

	item := s.findSuggestion(ctx, row.Index, project.Code)
	if item == nil {
		return FillFailed, fmt.Errorf("no suggestion list for %q", project.Code)
	}
	if err := item.Click("left", 1); err != nil {
		return FillFailed, fmt.Errorf("click suggestion: %w", err)
	}
	time.Sleep(time.Second)
	return FillCommitted, nil
}

// findSuggestion locates the visible completion list, preferring the one
// bound to this row, and picks the best item: prefix match on the code, then
// substring, then the first entry.
func (s *Surface) findSuggestion(ctx context.Context, rowIndex int, code string) *rod.Element {
	page := s.drv.Page().Context(ctx)

	rowSel := fmt.Sprintf(
		"ul[id*='ProjectForView_EmployeeReports_row_%d_'][id*='completionListElem']", rowIndex)
	list := visibleElement(page, rowSel)
	if list == nil {
		list = visibleElement(page, "ul[id*='AutoCompleteExtender_completionListElem']")
	}
	if list == nil {
		return nil
	}

	items, err := list.Elements("li")
	if err != nil || len(items) == 0 {
		return nil
	}

	lower := strings.ToLower(code)
	var contains *rod.Element
	for _, li := range items {
		text, err := li.Text()
		if err != nil {
			continue
		}
		t := strings.ToLower(strings.TrimSpace(text))
		if strings.HasPrefix(t, lower) {
			return li
		}
		if contains == nil && strings.Contains(t, lower) {
			contains = li
		}
	}
	if contains != nil {
		return contains
	}
	return items[0]
}

func visibleElement(page *rod.Page, selector string) *rod.Element {
	elements, err := page.Elements(selector)
	if err != nil {
		return nil
	}
	for _, el := range elements {
		if visible, err := el.Visible(); err == nil && visible {
			return el
		}
	}
	return nil
}
