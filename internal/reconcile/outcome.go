package reconcile

import (
	"fmt"
	"sort"

	"hilanfill/internal/portal"
)

// FailedDay records a day the engine gave up on and why.
type FailedDay struct {
	Day    int
	Reason string
}

// Summary is the outcome of a reconciliation run.
type Summary struct {
	// Applied counts actions that changed the grid: deletes, symbol
	// changes, attachments, hour and project fills.
	Applied int
	// Skipped counts attendance days left alone: already matching the
	// plan, future days needing no correction, or rows without editable
	// hour fields.
	Skipped int
	// Warnings holds validation messages the portal reported after save.
	Warnings []string
	// FailedDays lists days excluded after repeated action failures.
	FailedDays []FailedDay
}

// OK reports whether the run completed without per-day failures.
func (s *Summary) OK() bool { return len(s.FailedDays) == 0 }

func (s *Summary) sortFailed() {
	sort.Slice(s.FailedDays, func(i, j int) bool {
		return s.FailedDays[i].Day < s.FailedDays[j].Day
	})
}

// ConvergenceError means the structural loop kept finding corrections past
// its scan budget. That points at an action that silently does not stick,
// such as a symbol the selector rejects.
type ConvergenceError struct {
	Scans int
	// LastRows is the final grid scan, kept for diagnostics.
	LastRows []portal.Row
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("grid did not converge after %d scans; an action is not taking effect", e.Scans)
}
