package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hilanfill/internal/plan"
	"hilanfill/internal/portal"
	"hilanfill/internal/reconcile"
	"hilanfill/internal/workcal"
)

var (
	fillUser         string
	fillPassword     string
	fillProject      string
	fillStart        string
	fillEnd          string
	fillPresentDays  string
	fillPresentDates string
	fillVacation     string
	fillSickDays     string
	fillSickFile     string
	fillReserveDays  string
	fillReserveFile  string
	fillMonth        int
	fillYear         int
	fillDryRun       bool
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill the attendance report for one month",
	Long: `Reconciles the attendance grid of the target month with your plan and
saves the result. Days already matching the plan are left untouched.

Example:
  hilanfill fill -u 12345 -p secret \
    --project "12086 - AGUR IC" --start-time 09:00 --end-time 18:00 \
    --present-days 1,3 --vacation 20-22 --sick-days 5,6

Credentials may also come from the HILAN_USER and HILAN_PASSWORD
environment variables. Use --dry-run to preview the plan without opening
a browser.`,
	RunE: runFill,
}

func init() {
	fillCmd.Flags().StringVarP(&fillUser, "user", "u", "", "Portal username (or HILAN_USER)")
	fillCmd.Flags().StringVarP(&fillPassword, "password", "p", "", "Portal password (or HILAN_PASSWORD)")
	fillCmd.Flags().StringVar(&fillProject, "project", "", "Default project, e.g. \"12086 - AGUR IC\"")
	fillCmd.Flags().StringVar(&fillStart, "start-time", "09:00", "Workday entry time")
	fillCmd.Flags().StringVar(&fillEnd, "end-time", "18:00", "Workday exit time")
	fillCmd.Flags().StringVar(&fillPresentDays, "present-days", "", "Recurring office weekdays, 1=Sunday..5=Thursday, e.g. 1,3")
	fillCmd.Flags().StringVar(&fillPresentDates, "present-dates", "", "Ad-hoc office days of month, e.g. 5,12,20-22")
	fillCmd.Flags().StringVar(&fillVacation, "vacation", "", "Vacation days of month, e.g. 20-22")
	fillCmd.Flags().StringVar(&fillSickDays, "sick-days", "", "Sick days of month")
	fillCmd.Flags().StringVar(&fillSickFile, "sick-file", "", "Sick certificate file, required for more than 2 sick days")
	fillCmd.Flags().StringVar(&fillReserveDays, "reserve-days", "", "Reserve duty days of month")
	fillCmd.Flags().StringVar(&fillReserveFile, "reserve-file", "", "Reserve duty certificate file")
	fillCmd.Flags().IntVar(&fillMonth, "month", 0, "Target month 1-12 (default: current)")
	fillCmd.Flags().IntVar(&fillYear, "year", 0, "Target year (default: current)")
	fillCmd.Flags().BoolVar(&fillDryRun, "dry-run", false, "Print the day plan and exit without opening a browser")
}

// fillJob is one fully validated reconciliation request.
type fillJob struct {
	User     string
	Password string
	Year     int
	Month    time.Month
	States   map[int]plan.DayState
}

// buildFillJob validates flags and computes the day plan. All configuration
// errors surface here, before any browser is started.
func buildFillJob(now time.Time) (*fillJob, error) {
	year, month := fillYear, fillMonth
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}

	entry, err := plan.ValidateClock("--start-time", fillStart)
	if err != nil {
		return nil, err
	}
	exit, err := plan.ValidateClock("--end-time", fillEnd)
	if err != nil {
		return nil, err
	}

	weekdays, err := plan.ParseWeekdaySet("--present-days", fillPresentDays)
	if err != nil {
		return nil, err
	}
	req := plan.Requests{
		PresentWeekdays: weekdays,
		SickFile:        fillSickFile,
		ReserveDutyFile: fillReserveFile,
	}
	for _, ds := range []struct {
		flag  string
		value string
		dst   *plan.DaySet
	}{
		{"--present-dates", fillPresentDates, &req.PresentDates},
		{"--vacation", fillVacation, &req.Vacation},
		{"--sick-days", fillSickDays, &req.Sick},
		{"--reserve-days", fillReserveDays, &req.ReserveDuty},
	} {
		set, err := plan.ParseDaySet(ds.flag, ds.value)
		if err != nil {
			return nil, err
		}
		*ds.dst = set
	}

	for _, file := range []struct{ flag, path string }{
		{"--sick-file", fillSickFile},
		{"--reserve-file", fillReserveFile},
	} {
		if file.path == "" {
			continue
		}
		if _, err := os.Stat(file.path); err != nil {
			return nil, fmt.Errorf("%s: %w", file.flag, err)
		}
	}

	days, err := workcal.ResolveMonth(year, time.Month(month))
	if err != nil {
		return nil, err
	}
	states, err := plan.Classify(days, req, entry, exit, plan.ParseProject(fillProject))
	if err != nil {
		return nil, err
	}

	user := fillUser
	if user == "" {
		user = os.Getenv("HILAN_USER")
	}
	password := fillPassword
	if password == "" {
		password = os.Getenv("HILAN_PASSWORD")
	}

	return &fillJob{
		User:     user,
		Password: password,
		Year:     year,
		Month:    time.Month(month),
		States:   states,
	}, nil
}

func runFill(cmd *cobra.Command, args []string) error {
	now := time.Now()
	job, err := buildFillJob(now)
	if err != nil {
		return err
	}

	if fillDryRun {
		printPlan(os.Stdout, job)
		return nil
	}

	if job.User == "" || job.Password == "" {
		return fmt.Errorf("credentials required: pass -u/-p or set HILAN_USER and HILAN_PASSWORD")
	}
	return executeFill(job, now)
}

// executeFill runs the browser session for a validated job.
func executeFill(job *fillJob, now time.Time) error {
	profile := portal.DefaultProfile()
	if profilePath != "" {
		var err error
		profile, err = portal.LoadProfile(profilePath)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driverCfg := portal.DefaultConfig()
	driverCfg.Headless = headless
	driverCfg.ArtifactsDir = artifacts

	logger.Info("starting browser",
		zap.Bool("headless", driverCfg.Headless),
		zap.String("month", fmt.Sprintf("%s %d", job.Month, job.Year)))

	driver, err := portal.NewDriver(ctx, driverCfg, logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer driver.Close()

	surface := portal.NewSurface(driver, profile, logger)
	if err := surface.Login(ctx, job.User, job.Password); err != nil {
		return err
	}
	if err := surface.OpenAttendance(ctx); err != nil {
		return err
	}

	engine := reconcile.New(surface, reconcile.Config{
		Year:    job.Year,
		Month:   job.Month,
		Symbols: profile.Symbols,
		Today:   now,
	}, logger)

	summary, err := engine.Run(ctx, job.States)
	if summary != nil {
		reportSummary(os.Stdout, summary)
	}
	if err != nil {
		return err
	}
	if !summary.OK() {
		return fmt.Errorf("%d day(s) could not be reconciled", len(summary.FailedDays))
	}
	return nil
}

// printPlan writes the dry-run day table.
func printPlan(w *os.File, job *fillJob) {
	fmt.Fprintf(w, "Plan for %s %d:\n", job.Month, job.Year)
	for _, day := range plan.SortedDays(job.States) {
		st := job.States[day]
		fmt.Fprintf(w, "  %02d %s  %s\n", day, st.Date.Format("Mon"), describeState(st))
	}
}

func describeState(st plan.DayState) string {
	switch st.Action {
	case plan.Absence:
		s := st.Absence.String()
		if st.Attachment != "" {
			s += " (attach " + st.Attachment + ")"
		}
		return s
	case plan.Attendance:
		parts := []string{st.Presence.String(), st.Entry + "-" + st.Exit}
		if st.Project.Code != "" {
			parts = append(parts, st.Project.Label)
		}
		return strings.Join(parts, "  ")
	}
	return "no change (" + st.Kind.String() + ")"
}

func reportSummary(w *os.File, s *reconcile.Summary) {
	fmt.Fprintf(w, "\nApplied %d change(s), skipped %d day(s).\n", s.Applied, s.Skipped)
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "  portal: %s\n", warning)
	}
	for _, failed := range s.FailedDays {
		fmt.Fprintf(w, "  FAILED day %02d: %s\n", failed.Day, failed.Reason)
	}
}
