package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose     bool
	profilePath string
	headless    bool
	artifacts   string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hilanfill",
	Short: "hilanfill - automated monthly attendance reporting for the Hilan portal",
	Long: `hilanfill drives a real browser through the Hilan attendance pages and
reconciles the monthly report grid with the plan you describe: default work
hours and project on workdays, office days vs work-from-home, and vacation,
sick and reserve-duty absences.

It only changes what differs from the plan, re-reads the grid after every
server postback, and saves once at the end.

Run without arguments to start the interactive wizard.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The wizard owns the terminal; it configures its own quiet logger.
		if cmd.CalledAs() == "hilanfill" || cmd.CalledAs() == "interactive" {
			logger = zap.NewNop()
			return nil
		}

		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "YAML portal profile overriding built-in selectors and symbol codes")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "Run the browser headless")
	rootCmd.PersistentFlags().StringVar(&artifacts, "artifacts", "screenshots", "Directory for diagnostic screenshots and HTML dumps")

	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(interactiveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
