package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/spf13/cobra"
)

type sweepSummary struct {
	AsOf       string         `json:"asOf"`
	Processed  int            `json:"processed"`
	AlertsSent int            `json:"alertsSent"`
	Outcomes   map[string]int `json:"outcomes"`
	Errors     []string       `json:"errors"`
}

func newSweepSummary(result domain.SweepResult) sweepSummary {
	outcomes := make(map[string]int, len(result.Outcomes))
	for outcome, count := range result.Outcomes {
		outcomes[string(outcome)] = count
	}

	errs := make([]string, 0, len(result.Errors))
	for _, userErr := range result.Errors {
		errs = append(errs, fmt.Sprintf("%s: %s", userErr.UserID, userErr.Err))
	}
	sort.Strings(errs)

	return sweepSummary{
		AsOf:       result.AsOf.UTC().Format(time.RFC3339),
		Processed:  result.Processed,
		AlertsSent: result.AlertsSent,
		Outcomes:   outcomes,
		Errors:     errs,
	}
}

// parseAsOf parses the --as-of flag. An empty value means now.
func parseAsOf(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now.UTC(), nil
	}
	asOf, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q, expected RFC3339: %w", raw, err)
	}
	return asOf.UTC(), nil
}

func newSweepCmd() *cobra.Command {
	var asOfFlag string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one missed check-in sweep and print the summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := parseAsOf(asOfFlag, time.Now())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := newServices(ctx, "sweep")
			if err != nil {
				return err
			}
			defer svc.close()

			result, err := svc.runSweep(svc.ctx, asOf)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(newSweepSummary(result))
		},
	}
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "evaluate deadlines at this RFC3339 instant instead of now")

	return cmd
}
