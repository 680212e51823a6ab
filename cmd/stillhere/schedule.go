package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Amund211/stillhere/internal/config"
	"github.com/Amund211/stillhere/internal/logging"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultScheduleSpec = "*/15 * * * *"

var errTriggerFailed = errors.New("sweep trigger failed")

type triggerResponse struct {
	Success    bool   `json:"success"`
	Cause      string `json:"cause"`
	Message    string `json:"message"`
	Processed  int    `json:"processed"`
	AlertsSent int    `json:"alertsSent"`
	Errors     int    `json:"errors"`
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// triggerSweep asks the service at url to run one sweep
func triggerSweep(ctx context.Context, client httpDoer, url string, secret string) (triggerResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return triggerResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+secret)
	req.Header.Set("User-Agent", "stillhere-schedule")

	resp, err := client.Do(req)
	if err != nil {
		return triggerResponse{}, fmt.Errorf("%w: %w", errTriggerFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return triggerResponse{}, fmt.Errorf("%w: failed to read response: %w", errTriggerFailed, err)
	}

	var parsed triggerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return triggerResponse{}, fmt.Errorf("%w: status %d, invalid response body: %w", errTriggerFailed, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || !parsed.Success {
		return parsed, fmt.Errorf("%w: status %d: %s", errTriggerFailed, resp.StatusCode, parsed.Cause)
	}

	return parsed, nil
}

func newTriggerJob(ctx context.Context, client httpDoer, url string, secret string, timeout time.Duration) func() {
	logger := logging.FromContext(ctx)
	return func() {
		jobCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		resp, err := triggerSweep(jobCtx, client, url, secret)
		if err != nil {
			logger.ErrorContext(jobCtx, "Failed to trigger sweep", "error", err.Error(), "durationSeconds", time.Since(start).Seconds())
			return
		}
		logger.InfoContext(jobCtx, "Triggered sweep",
			"processed", resp.Processed,
			"alertsSent", resp.AlertsSent,
			"errors", resp.Errors,
			"durationSeconds", time.Since(start).Seconds(),
		)
	}
}

func newScheduleCmd() *cobra.Command {
	var (
		url     string
		spec    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Trigger the sweep endpoint on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.ConfigFromEnv()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if conf.CronSecret() == "" {
				return fmt.Errorf("%w: CRON_SECRET", config.ErrMissingRequiredValue)
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("command", "schedule")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = logging.AddToContext(ctx, logger)

			client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

			scheduler := cron.New(cron.WithChain(
				cron.Recover(cron.DefaultLogger),
				// A sweep that outlasts the interval must not overlap with the next one
				cron.SkipIfStillRunning(cron.DefaultLogger),
			))
			if _, err := scheduler.AddFunc(spec, newTriggerJob(ctx, client, url, conf.CronSecret(), timeout)); err != nil {
				return fmt.Errorf("invalid --spec %q: %w", spec, err)
			}

			scheduler.Start()
			logger.Info("Scheduler started", "url", url, "spec", spec)

			<-ctx.Done()
			logger.Info("Stopping scheduler")
			<-scheduler.Stop().Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8080/v1/cron/check-missed", "sweep trigger endpoint")
	cmd.Flags().StringVar(&spec, "spec", defaultScheduleSpec, "cron schedule")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for one sweep")

	return cmd
}
