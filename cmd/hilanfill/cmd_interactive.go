package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hilanfill/cmd/hilanfill/wizard"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Step-by-step wizard for filling a month",
	Long: `Collects the month plan one question at a time, shows a colored
calendar preview of what each day will become, and runs the fill after
confirmation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

func runInteractive() error {
	now := time.Now()
	params, err := wizard.Run(wizard.Defaults{
		Start: "09:00",
		End:   "18:00",
		Year:  now.Year(),
		Month: now.Month(),
	})
	if err != nil {
		return err
	}
	if params == nil {
		fmt.Println("Cancelled.")
		return nil
	}

	// Map the wizard answers onto the fill flags so validation is shared.
	fillUser = params.User
	fillPassword = params.Password
	fillProject = params.Project
	fillStart = params.Start
	fillEnd = params.End
	fillPresentDays = params.PresentDays
	fillPresentDates = params.PresentDates
	fillVacation = params.Vacation
	fillSickDays = params.SickDays
	fillSickFile = params.SickFile
	fillReserveDays = params.ReserveDays
	fillReserveFile = params.ReserveFile
	fillYear = params.Year
	fillMonth = int(params.Month)

	job, err := buildFillJob(now)
	if err != nil {
		return err
	}
	if params.DryRun {
		printPlan(os.Stdout, job)
		return nil
	}

	// The wizard ran with a nop logger; the browser run wants a real one.
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return executeFill(job, now)
}
