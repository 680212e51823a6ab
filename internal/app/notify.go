package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/logging"
	"github.com/Amund211/stillhere/internal/reporting"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// NotifyContact delivers one missed check-in alert to one contact.
//
// It reports whether the contact was reached and never returns an error:
// failures are logged and reported, and count as not reached.
type NotifyContact func(ctx context.Context, contact domain.EmergencyContact, alert domain.MissedCheckInAlert) bool

type alertTransport interface {
	Send(ctx context.Context, alert domain.MissedCheckInAlert) error
}

const initialRetryBackoff = 1 * time.Second

func BuildNotifyContact(
	transport alertTransport,
	attemptTimeout time.Duration,
	maxAttempts int,
	afterFunc func(time.Duration) <-chan time.Time,
) NotifyContact {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	send := func(ctx context.Context, alert domain.MissedCheckInAlert) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: transport panicked: %v", domain.ErrTransport, r)
			}
		}()

		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		defer cancel()

		return transport.Send(attemptCtx, alert)
	}

	return func(ctx context.Context, contact domain.EmergencyContact, alert domain.MissedCheckInAlert) bool {
		ctx = logging.AddMetaToContext(ctx, slog.String("contactId", contact.ID))
		logger := logging.FromContext(ctx)

		backoff := initialRetryBackoff
		for attempt := 1; ; attempt++ {
			err := send(ctx, alert)
			if err == nil {
				logger.InfoContext(ctx, "Notified contact", "attempt", attempt)
				metrics.notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "success")))
				return true
			}

			// A timed out attempt may still have been delivered. Only failures the
			// transport marks as temporary are known to be safe to send again.
			retryable := errors.Is(err, domain.ErrTemporarilyUnavailable)
			if !retryable || attempt >= maxAttempts || ctx.Err() != nil {
				logger.ErrorContext(ctx, "Failed to notify contact", "attempt", attempt, "error", err)
				metrics.notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "failure")))
				reporting.Report(ctx, fmt.Errorf("failed to notify contact: %w", err), map[string]string{
					"contactId": contact.ID,
					"attempts":  fmt.Sprint(attempt),
				})
				return false
			}

			logger.WarnContext(ctx, "Retrying contact notification", "attempt", attempt, "backoff", backoff.String(), "error", err)
			select {
			case <-ctx.Done():
				logger.ErrorContext(ctx, "Gave up notifying contact", "attempt", attempt, "error", ctx.Err())
				metrics.notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "failure")))
				return false
			case <-afterFunc(backoff):
			}
			backoff *= 2
		}
	}
}
