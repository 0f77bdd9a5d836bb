// Package reconcile converges the portal's attendance grid onto a planned
// month. It never trusts row indices across a state-changing action: every
// postback is followed by a fresh grid read.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"hilanfill/internal/plan"
	"hilanfill/internal/portal"
)

// Surface is the attendance page as the engine sees it. portal.Surface is
// the production implementation; tests substitute an in-memory grid.
type Surface interface {
	EnsureMonth(ctx context.Context, year int, month time.Month) error
	SelectDays(ctx context.Context, year int, month time.Month, today time.Time) error
	ReadRows(ctx context.Context) ([]portal.Row, error)
	DeleteRow(ctx context.Context, row portal.Row) error
	SetSymbol(ctx context.Context, row portal.Row, code string, clearFields bool) error
	FillHours(ctx context.Context, row portal.Row, entry, exit string) error
	FillProject(ctx context.Context, row portal.Row, project plan.Project) (portal.FillOutcome, error)
	AttachFile(ctx context.Context, row portal.Row, path string) error
	DismissModals(ctx context.Context)
	Save(ctx context.Context) ([]string, error)
	SessionClosed() bool
	Screenshot(label string)
}

// Config parameterizes a reconciliation run.
type Config struct {
	Year    int
	Month   time.Month
	Symbols portal.SymbolSet
	// Today bounds hour fills: days after it get symbol and project
	// corrections but no entry/exit times.
	Today time.Time
	// MaxPostbackScans caps the structural convergence loop.
	MaxPostbackScans int
}

const defaultMaxPostbackScans = 50

// Engine reconciles one month.
type Engine struct {
	surface Surface
	cfg     Config
	log     *zap.Logger

	failed map[int]string // day -> reason, excluded from further actions
}

func New(surface Surface, cfg Config, log *zap.Logger) *Engine {
	if cfg.MaxPostbackScans <= 0 {
		cfg.MaxPostbackScans = defaultMaxPostbackScans
	}
	return &Engine{
		surface: surface,
		cfg:     cfg,
		log:     log,
		failed:  make(map[int]string),
	}
}

// Run drives the grid to match the planned day states, then saves. The
// returned Summary is valid even when err is non-nil, up to the point of
// failure.
func (e *Engine) Run(ctx context.Context, states map[int]plan.DayState) (*Summary, error) {
	summary := &Summary{}

	if err := e.surface.EnsureMonth(ctx, e.cfg.Year, e.cfg.Month); err != nil {
		return summary, e.fatal(err)
	}
	if err := e.surface.SelectDays(ctx, e.cfg.Year, e.cfg.Month, e.cfg.Today); err != nil {
		return summary, e.fatal(err)
	}

	rows, err := e.converge(ctx, states, summary)
	if err != nil {
		return summary, err
	}

	if err := e.fillContent(ctx, rows, states, summary); err != nil {
		return summary, err
	}

	for day, reason := range e.failed {
		summary.FailedDays = append(summary.FailedDays, FailedDay{Day: day, Reason: reason})
	}
	summary.sortFailed()

	if summary.Applied == 0 {
		e.log.Info("grid already matches plan, nothing to save")
		return summary, nil
	}

	warnings, err := e.surface.Save(ctx)
	if err != nil {
		return summary, e.fatal(fmt.Errorf("save: %w", err))
	}
	summary.Warnings = append(summary.Warnings, warnings...)
	for _, w := range warnings {
		e.log.Warn("portal reported after save", zap.String("message", w))
	}
	return summary, nil
}

// converge is the structural phase: deletes and symbol changes, each of
// which invalidates row indices. At most one such action is applied per grid
// scan. Returns the final, clean scan.
func (e *Engine) converge(ctx context.Context, states map[int]plan.DayState, summary *Summary) ([]portal.Row, error) {
	attached := make(map[plan.AbsenceKind]bool)
	var lastRows []portal.Row

	for scan := 1; ; scan++ {
		if scan > e.cfg.MaxPostbackScans {
			e.surface.Screenshot("error_convergence")
			return nil, &ConvergenceError{Scans: e.cfg.MaxPostbackScans, LastRows: lastRows}
		}

		rows, err := e.surface.ReadRows(ctx)
		if err != nil {
			return nil, e.fatal(fmt.Errorf("scan %d: %w", scan, err))
		}
		lastRows = rows

		act := e.nextStructuralAction(rows, states, attached)
		if act == nil {
			e.log.Info("grid structure converged", zap.Int("scans", scan))
			return rows, nil
		}

		e.log.Info("applying structural action",
			zap.Int("scan", scan),
			zap.Int("day", act.day),
			zap.String("action", act.kind))
		if err := act.apply(ctx); err != nil {
			if e.surface.SessionClosed() {
				return nil, e.fatal(fmt.Errorf("%s day %d: %w", act.kind, act.day, err))
			}
			e.log.Warn("structural action failed, excluding day",
				zap.Int("day", act.day), zap.Error(err))
			e.failDay(act.day, fmt.Sprintf("%s: %v", act.kind, err))
			act.undo()
			continue
		}
		summary.Applied++
	}
}

type structuralAction struct {
	day   int
	kind  string
	apply func(context.Context) error
	undo  func() // reverts bookkeeping when apply failed
}

// nextStructuralAction finds the first row whose reporting type does not
// match the plan and returns the single correction for it. Absence rows can
// never be switched directly to another type; they are deleted, and the
// portal re-materializes an empty attendance row in their place.
func (e *Engine) nextStructuralAction(rows []portal.Row, states map[int]plan.DayState, attached map[plan.AbsenceKind]bool) *structuralAction {
	for _, row := range rows {
		row := row
		if row.Month != int(e.cfg.Month) {
			continue
		}
		if _, bad := e.failed[row.Day]; bad {
			continue
		}

		state, planned := states[row.Day]
		if !planned || state.Action == plan.NoChange {
			// Weekend or holiday. A leftover work or absence symbol, or
			// reported hours, on such a row is stray and gets removed.
			if (row.HasSymbol && !e.cfg.Symbols.Harmless(row.Symbol)) || row.HasHours() {
				return &structuralAction{
					day:  row.Day,
					kind: "delete stray row",
					apply: func(ctx context.Context) error {
						return e.surface.DeleteRow(ctx, row)
					},
					undo: func() {},
				}
			}
			continue
		}

		switch state.Action {
		case plan.Absence:
			want := e.cfg.Symbols.ForAbsence(state.Absence)
			if row.Symbol == want {
				// A correct absence symbol is not enough: leftover hour
				// values make the portal reject the row on save.
				if row.HasHours() {
					return &structuralAction{
						day:  row.Day,
						kind: "clear hours on absence row",
						apply: func(ctx context.Context) error {
							return e.surface.SetSymbol(ctx, row, want, true)
						},
						undo: func() {},
					}
				}
				if act := e.attachmentAction(row, state, attached); act != nil {
					return act
				}
				continue
			}
			if e.cfg.Symbols.IsAbsence(row.Symbol) {
				return &structuralAction{
					day:  row.Day,
					kind: "delete wrong absence",
					apply: func(ctx context.Context) error {
						return e.surface.DeleteRow(ctx, row)
					},
					undo: func() {},
				}
			}
			return &structuralAction{
				day:  row.Day,
				kind: fmt.Sprintf("set absence symbol %s", want),
				apply: func(ctx context.Context) error {
					return e.surface.SetSymbol(ctx, row, want, true)
				},
				undo: func() {},
			}

		case plan.Attendance:
			if e.cfg.Symbols.IsAbsence(row.Symbol) {
				return &structuralAction{
					day:  row.Day,
					kind: "delete absence row",
					apply: func(ctx context.Context) error {
						return e.surface.DeleteRow(ctx, row)
					},
					undo: func() {},
				}
			}
			want := e.cfg.Symbols.ForPresence(state.Presence)
			// An empty selector on a fresh row is left alone; the portal
			// fills it on save from the hour entries.
			if row.HasSymbol && row.Symbol != "" && row.Symbol != want {
				return &structuralAction{
					day:  row.Day,
					kind: fmt.Sprintf("set presence symbol %s", want),
					apply: func(ctx context.Context) error {
						return e.surface.SetSymbol(ctx, row, want, false)
					},
					undo: func() {},
				}
			}
		}
	}
	return nil
}

// attachmentAction uploads the certificate for an absence row whose symbol
// is already correct. One upload per absence kind per run; the grid does not
// expose whether a file is already attached, so re-runs re-upload.
func (e *Engine) attachmentAction(row portal.Row, state plan.DayState, attached map[plan.AbsenceKind]bool) *structuralAction {
	if state.Attachment == "" || attached[state.Absence] {
		return nil
	}
	attached[state.Absence] = true
	return &structuralAction{
		day:  row.Day,
		kind: "attach certificate",
		apply: func(ctx context.Context) error {
			return e.surface.AttachFile(ctx, row, state.Attachment)
		},
		undo: func() { delete(attached, state.Absence) },
	}
}

// fillContent is the in-place phase: hour and project fills that change the
// DOM without a postback, so one scan's indices stay valid throughout.
func (e *Engine) fillContent(ctx context.Context, rows []portal.Row, states map[int]plan.DayState, summary *Summary) error {
	var tentative []portal.Row

	for _, row := range rows {
		if row.Month != int(e.cfg.Month) {
			continue
		}
		if _, bad := e.failed[row.Day]; bad {
			continue
		}
		state, planned := states[row.Day]
		if !planned || state.Action != plan.Attendance {
			continue
		}

		// Hours are only written for days up to today; project corrections
		// apply to future days too.
		future := row.Date(e.cfg.Year).After(e.cfg.Today)
		touched := false

		if future {
			e.log.Debug("future day, no hour fill", zap.Int("day", row.Day))
		} else if !row.CanFill() {
			e.log.Warn("attendance day has no hour inputs", zap.String("date", row.DateLabel))
		} else if strings.TrimSpace(row.Entry) != state.Entry || strings.TrimSpace(row.Exit) != state.Exit {
			if err := e.surface.FillHours(ctx, row, state.Entry, state.Exit); err != nil {
				if e.surface.SessionClosed() {
					return e.fatal(fmt.Errorf("fill hours day %d: %w", row.Day, err))
				}
				e.failDay(row.Day, fmt.Sprintf("fill hours: %v", err))
				continue
			}
			summary.Applied++
			touched = true
		}

		if state.Project.Code != "" && row.HasProject && !portal.ProjectAlreadySet(row, state.Project.Code) {
			outcome, err := e.surface.FillProject(ctx, row, state.Project)
			if err != nil {
				if e.surface.SessionClosed() {
					return e.fatal(fmt.Errorf("fill project day %d: %w", row.Day, err))
				}
				e.failDay(row.Day, fmt.Sprintf("fill project: %v", err))
				continue
			}
			switch outcome {
			case portal.FillCommitted:
				summary.Applied++
				touched = true
			case portal.FillTentative:
				tentative = append(tentative, row)
				touched = true
			case portal.FillFailed:
				e.failDay(row.Day, "project fill failed")
				continue
			}
		}

		// Days needing nothing are the normal case on re-runs.
		if !touched {
			summary.Skipped++
		}
	}

	return e.retryTentative(ctx, tentative, states, summary)
}

// retryTentative re-reads the grid once and retries project fills that only
// landed through the fallback path. A fill still tentative after the retry
// counts as failed; forced values the widget never confirmed are routinely
// discarded by the portal on save.
func (e *Engine) retryTentative(ctx context.Context, tentative []portal.Row, states map[int]plan.DayState, summary *Summary) error {
	if len(tentative) == 0 {
		return nil
	}

	days := make(map[int]bool, len(tentative))
	for _, row := range tentative {
		days[row.Day] = true
	}

	rows, err := e.surface.ReadRows(ctx)
	if err != nil {
		return e.fatal(fmt.Errorf("re-scan for project retry: %w", err))
	}

	for _, row := range rows {
		if !days[row.Day] {
			continue
		}
		state := states[row.Day]
		if portal.ProjectAlreadySet(row, state.Project.Code) {
			summary.Applied++
			continue
		}
		outcome, err := e.surface.FillProject(ctx, row, state.Project)
		if err == nil && outcome == portal.FillCommitted {
			summary.Applied++
			continue
		}
		if e.surface.SessionClosed() {
			return e.fatal(fmt.Errorf("project retry day %d: %w", row.Day, err))
		}
		e.failDay(row.Day, "project not accepted by autocomplete")
	}
	return nil
}

func (e *Engine) failDay(day int, reason string) {
	if _, ok := e.failed[day]; !ok {
		e.failed[day] = reason
	}
}

// fatal wraps unrecoverable errors, folding in session loss so callers can
// match on portal.ErrSessionClosed.
func (e *Engine) fatal(err error) error {
	if e.surface.SessionClosed() {
		return fmt.Errorf("%w: %v", portal.ErrSessionClosed, err)
	}
	return err
}
