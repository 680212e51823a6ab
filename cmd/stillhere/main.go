package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stillhere",
	Short: "Operate the missed check-in sweep",
	Long: `stillhere runs the missed check-in sweep and manages check-ins from the command line.

Configuration is read from the environment, see STILLHERE_ENVIRONMENT.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("Command failed", "error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(
		newSweepCmd(),
		newCheckInCmd(),
		newStreakCmd(),
		newAlertsCmd(),
		newScheduleCmd(),
	)
}
