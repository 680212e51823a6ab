package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/stillhere/internal/app"
	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/logging"
	"github.com/Amund211/stillhere/internal/ratelimiting"
	"github.com/Amund211/stillhere/internal/reporting"
)

type checkMissedResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Processed  int            `json:"processed"`
	AlertsSent int            `json:"alertsSent"`
	Errors     int            `json:"errors"`
	Outcomes   map[string]int `json:"outcomes"`
	Timestamp  string         `json:"timestamp"`
}

func newCheckMissedResponse(result domain.SweepResult, finishedAt time.Time) checkMissedResponse {
	outcomes := make(map[string]int, len(result.Outcomes))
	for outcome, count := range result.Outcomes {
		outcomes[string(outcome)] = count
	}

	message := "Sweep completed"
	if result.Processed == 0 {
		message = "No active users"
	}

	return checkMissedResponse{
		Success:    true,
		Message:    message,
		Processed:  result.Processed,
		AlertsSent: result.AlertsSent,
		Errors:     len(result.Errors),
		Outcomes:   outcomes,
		Timestamp:  finishedAt.UTC().Format(time.RFC3339),
	}
}

// MakeCheckMissedHandler runs one sweep per authorized request.
//
// The sweep is detached from the request so a disconnecting scheduler does not
// cut it short. It is bounded by sweepTimeout instead.
func MakeCheckMissedHandler(
	runSweep app.RunSweep,
	cronSecret string,
	sweepTimeout time.Duration,
	nowFunc func() time.Time,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) (http.HandlerFunc, func()) {
	ipLimiter, stopLimiter := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(0.1),
		ratelimiting.BurstSize(10),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	onLimitExceeded := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logging.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded", "key", ipRateLimiter.KeyFor(r))
		writeFailure(w, http.StatusTooManyRequests, "rate limit exceeded")
	}

	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("checkmissed"),
		buildMetricsMiddleware("checkmissed"),
		NewRateLimitMiddleware(ipRateLimiter, onLimitExceeded),
		BuildCronSecretMiddleware(cronSecret),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		asOf := nowFunc().UTC()
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"asOf": asOf.Format(time.RFC3339),
		})

		sweepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sweepTimeout)
		defer cancel()

		result, err := runSweep(sweepCtx, asOf)
		if err != nil {
			// NOTE: The sweep only fails as a whole if it could not list users or ran out of time
			reporting.Report(ctx, fmt.Errorf("sweep failed: %w", err), map[string]string{
				"processed": fmt.Sprint(result.Processed),
			})
			writeFailure(w, http.StatusInternalServerError, "internal server error")
			return
		}

		response, err := json.Marshal(newCheckMissedResponse(result, nowFunc()))
		if err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to marshal sweep response: %w", err))
			writeFailure(w, http.StatusInternalServerError, "internal server error")
			return
		}

		logger.InfoContext(ctx, "Sweep completed",
			"processed", result.Processed,
			"alertsSent", result.AlertsSent,
			"errors", len(result.Errors),
		)
		writeJSON(w, http.StatusOK, response)
	}

	return middleware(handler), stopLimiter
}
