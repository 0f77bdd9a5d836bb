package portal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is one visible day row of the reports grid. Row indices are owned by
// the page and are invalidated by every postback; a Row must never be used
// after a state-changing action without re-reading the grid.
type Row struct {
	Index     int
	DateLabel string // as shown, e.g. "01/02 Thu"
	Day       int
	Month     int
	Weekend   bool // Fri/Sat per the label

	Symbol      string
	Entry       string
	Exit        string
	ProjectCode string // hidden canonical value
	ProjectText string // visible autocomplete text

	HasEntry   bool
	HasExit    bool
	HasProject bool
	HasSymbol  bool

	EntryID     string
	ExitID      string
	ProjectName string // form name of the autocomplete text input
	SymbolID    string
}

// HasHours reports whether the row carries any entry/exit value.
func (r Row) HasHours() bool {
	return strings.TrimSpace(r.Entry) != "" || strings.TrimSpace(r.Exit) != ""
}

// CanFill reports whether the row exposes editable hour fields. Weekend and
// holiday rows typically do not.
func (r Row) CanFill() bool { return r.HasEntry && r.HasExit }

// gridScanScript walks the grid from the stable ReportDate spans outwards,
// deriving the sibling control ids for each row index. Read-only.
const gridScanScript = `
() => {
	const rows = [];
	const dateSpans = document.querySelectorAll('span[id*="ReportDate_row_"]');

	for (const dateSpan of dateSpans) {
		const match = dateSpan.id.match(/_row_(\d+)/);
		if (!match) continue;
		const rowIndex = parseInt(match[1]);

		const dateText = (dateSpan.getAttribute('title') || dateSpan.innerText || '').trim();

		const entryInput = document.querySelector(
			'input[id*="ManualEntry_EmployeeReports_row_' + rowIndex + '_"]');
		const exitInput = document.querySelector(
			'input[id*="ManualExit_EmployeeReports_row_' + rowIndex + '_"]');

		const projectTd = document.querySelector(
			'td[id*="Project"][id*="_EmployeeReports_row_' + rowIndex + '_"]');
		const projectInput = projectTd ? projectTd.querySelector('input[type="text"]') : null;
		const projectHidden = document.querySelector(
			'input[id*="ProjectForView_EmployeeReports_row_' + rowIndex + '_"][id*="AutoCompleteExtender_value"]');

		const symbolSelect = document.querySelector(
			'select[id*="Symbol"][id*="_EmployeeReports_row_' + rowIndex + '_"]');

		rows.push({
			rowIndex: rowIndex,
			dateText: dateText,
			hasEntry: !!entryInput,
			hasExit: !!exitInput,
			entryId: entryInput ? entryInput.id : '',
			exitId: exitInput ? exitInput.id : '',
			entry: entryInput ? entryInput.value : '',
			exit: exitInput ? exitInput.value : '',
			hasProject: !!projectInput,
			projectName: projectInput ? projectInput.name : '',
			project: projectHidden ? projectHidden.value : '',
			projectText: projectInput ? projectInput.value : '',
			hasSymbol: !!symbolSelect,
			symbolId: symbolSelect ? symbolSelect.id : '',
			symbol: symbolSelect ? symbolSelect.value : '',
		});
	}
	return rows;
}
`

type rawRow struct {
	RowIndex    int    `json:"rowIndex"`
	DateText    string `json:"dateText"`
	HasEntry    bool   `json:"hasEntry"`
	HasExit     bool   `json:"hasExit"`
	EntryID     string `json:"entryId"`
	ExitID      string `json:"exitId"`
	Entry       string `json:"entry"`
	Exit        string `json:"exit"`
	HasProject  bool   `json:"hasProject"`
	ProjectName string `json:"projectName"`
	Project     string `json:"project"`
	ProjectText string `json:"projectText"`
	HasSymbol   bool   `json:"hasSymbol"`
	SymbolID    string `json:"symbolId"`
	Symbol      string `json:"symbol"`
}

// parseRows decodes the scan script result. Rows with unparseable date
// labels are dropped rather than failing the whole read: the grid sometimes
// renders placeholder rows during postback settling.
func parseRows(data json.RawMessage) ([]Row, error) {
	var raw []rawRow
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode grid rows: %w", err)
	}

	rows := make([]Row, 0, len(raw))
	for _, rr := range raw {
		day, month, weekday, ok := parseDateLabel(rr.DateText)
		if !ok {
			continue
		}
		rows = append(rows, Row{
			Index:       rr.RowIndex,
			DateLabel:   rr.DateText,
			Day:         day,
			Month:       month,
			Weekend:     weekday == "Fri" || weekday == "Sat",
			Symbol:      rr.Symbol,
			Entry:       rr.Entry,
			Exit:        rr.Exit,
			ProjectCode: rr.Project,
			ProjectText: rr.ProjectText,
			HasEntry:    rr.HasEntry,
			HasExit:     rr.HasExit,
			HasProject:  rr.HasProject,
			EntryID:     rr.EntryID,
			ExitID:      rr.ExitID,
			ProjectName: rr.ProjectName,
			HasSymbol:   rr.HasSymbol,
			SymbolID:    rr.SymbolID,
		})
	}
	return rows, nil
}

// parseDateLabel splits a grid date label like "05/02 Mon" into day, month
// and the weekday token. The weekday token may be missing.
func parseDateLabel(label string) (day, month int, weekday string, ok bool) {
	fields := strings.Fields(strings.TrimSpace(label))
	if len(fields) == 0 {
		return 0, 0, "", false
	}
	dd, mm, found := strings.Cut(fields[0], "/")
	if !found {
		return 0, 0, "", false
	}
	d, err1 := strconv.Atoi(dd)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || d < 1 || d > 31 || m < 1 || m > 12 {
		return 0, 0, "", false
	}
	if len(fields) > 1 {
		weekday = fields[1]
	}
	return d, m, weekday, true
}

// Date resolves the row's full date in the given year.
func (r Row) Date(year int) time.Time {
	return time.Date(year, time.Month(r.Month), r.Day, 0, 0, 0, 0, time.UTC)
}
