package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/logging"
	"github.com/Amund211/stillhere/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// RunSweep checks every active user for a missed check-in as of asOf and
// alerts the emergency contacts of those who missed it.
//
// Failures for a single user are recorded in the result and never abort the
// sweep. An error is only returned if the users could not be listed, or if ctx
// was cancelled before every user was processed.
type RunSweep func(ctx context.Context, asOf time.Time) (domain.SweepResult, error)

type activeProfileLister interface {
	ListActiveProfiles(ctx context.Context) ([]domain.UserProfile, error)
}

type checkInFinder interface {
	HasCheckedInSince(ctx context.Context, userID string, since time.Time) (bool, error)
}

type alertLedger interface {
	HasAlertForDay(ctx context.Context, userID string, day domain.Date) (bool, error)
	// LockUser takes an exclusive lock on alerting userID. Returns domain.ErrUserLocked if it is held elsewhere.
	LockUser(ctx context.Context, userID string) (func(), error)
	RecordAlert(ctx context.Context, alert domain.AlertRecord) error
}

type activeContactLister interface {
	ListActiveContacts(ctx context.Context, userID string) ([]domain.EmergencyContact, error)
}

type locationResolver interface {
	Location(name string) (*time.Location, error)
}

// Writes that must survive a cancelled sweep get their own deadline
const detachedWriteTimeout = 10 * time.Second

func BuildRunSweep(
	profiles activeProfileLister,
	checkIns checkInFinder,
	ledger alertLedger,
	contacts activeContactLister,
	resolver locationResolver,
	notifyContact NotifyContact,
	workers int,
	nowFunc func() time.Time,
) RunSweep {
	if workers < 1 {
		workers = 1
	}
	tracer := otel.Tracer("stillhere/app/sweep")

	processUser := func(ctx context.Context, profile domain.UserProfile, asOf time.Time) (domain.SweepOutcome, error) {
		if err := profile.ValidateSettings(); err != nil {
			return domain.OutcomeError, err
		}
		loc, err := resolver.Location(profile.Timezone)
		if err != nil {
			return domain.OutcomeError, err
		}

		cycle, due := domain.DueCycle(loc, profile.CheckInTime, profile.GracePeriod(), asOf)
		if !due {
			return domain.OutcomeNotDue, nil
		}
		ctx = logging.AddMetaToContext(ctx, slog.String("localDate", cycle.Day.String()))

		if profile.AlertsPausedAt(asOf) {
			return domain.OutcomePaused, nil
		}

		checkedIn, err := checkIns.HasCheckedInSince(ctx, profile.UserID, cycle.Start)
		if err != nil {
			return domain.OutcomeError, fmt.Errorf("%w: failed to look up check-ins: %w", domain.ErrRepository, err)
		}
		if checkedIn {
			return domain.OutcomeCheckedIn, nil
		}

		alerted, err := ledger.HasAlertForDay(ctx, profile.UserID, cycle.Day)
		if err != nil {
			return domain.OutcomeError, fmt.Errorf("%w: failed to look up alerts: %w", domain.ErrRepository, err)
		}
		if alerted {
			return domain.OutcomeAlreadyAlerted, nil
		}

		unlock, err := ledger.LockUser(ctx, profile.UserID)
		if errors.Is(err, domain.ErrUserLocked) {
			return domain.OutcomeLocked, nil
		} else if err != nil {
			return domain.OutcomeError, fmt.Errorf("%w: failed to lock user: %w", domain.ErrRepository, err)
		}
		defer unlock()

		// Another sweep may have alerted this user between the check above and taking the lock
		alerted, err = ledger.HasAlertForDay(ctx, profile.UserID, cycle.Day)
		if err != nil {
			return domain.OutcomeError, fmt.Errorf("%w: failed to look up alerts: %w", domain.ErrRepository, err)
		}
		if alerted {
			return domain.OutcomeAlreadyAlerted, nil
		}

		userContacts, err := contacts.ListActiveContacts(ctx, profile.UserID)
		if err != nil {
			return domain.OutcomeError, fmt.Errorf("%w: failed to list contacts: %w", domain.ErrRepository, err)
		}
		activeContacts := make([]domain.EmergencyContact, 0, len(userContacts))
		for _, contact := range userContacts {
			if contact.IsActive {
				activeContacts = append(activeContacts, contact)
			}
		}
		if len(activeContacts) == 0 {
			return domain.OutcomeNoContacts, nil
		}

		notified := make([]domain.NotifiedContact, 0, len(activeContacts))
		for _, contact := range activeContacts {
			alert := domain.NewMissedCheckInAlert(profile, cycle.Day, contact)
			if notifyContact(ctx, contact, alert) {
				notified = append(notified, domain.NotifiedContact{
					Name:    contact.Name,
					Address: contact.Address(),
				})
			}
		}
		if len(notified) == 0 {
			return domain.OutcomeNotifyFailed, fmt.Errorf("%w: none of %d contacts could be notified", domain.ErrTransport, len(activeContacts))
		}

		// The contacts have been reached, so record it even if the sweep is being cancelled
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detachedWriteTimeout)
		defer cancel()
		err = ledger.RecordAlert(recordCtx, domain.AlertRecord{
			UserID:           profile.UserID,
			LocalDate:        cycle.Day,
			SentAt:           nowFunc(),
			NotifiedContacts: notified,
		})
		if errors.Is(err, domain.ErrAlertAlreadyRecorded) {
			err := fmt.Errorf("contacts notified, but an alert was already recorded for %s", cycle.Day)
			reporting.Report(ctx, err)
			return domain.OutcomeAlreadyAlerted, nil
		} else if err != nil {
			return domain.OutcomeError, fmt.Errorf("%w: contacts notified, but failed to record alert: %w", domain.ErrRepository, err)
		}

		return domain.OutcomeAlerted, nil
	}

	safeProcessUser := func(ctx context.Context, profile domain.UserProfile, asOf time.Time) (outcome domain.SweepOutcome, err error) {
		defer func() {
			if r := recover(); r != nil {
				outcome = domain.OutcomeError
				err = fmt.Errorf("panic while processing user: %v", r)
				reporting.Report(ctx, err)
			}
		}()
		return processUser(ctx, profile, asOf)
	}

	return func(ctx context.Context, asOf time.Time) (domain.SweepResult, error) {
		ctx, span := tracer.Start(ctx, "RunSweep")
		defer span.End()

		start := time.Now()
		logger := logging.FromContext(ctx)
		result := domain.NewSweepResult(asOf)

		activeProfiles, err := profiles.ListActiveProfiles(ctx)
		if err != nil {
			// NOTE: The profile repository handles its own error reporting
			return result, fmt.Errorf("%w: failed to list active users: %w", domain.ErrRepository, err)
		}
		logger.InfoContext(ctx, "Starting sweep", "users", len(activeProfiles), "asOf", asOf.Format(time.RFC3339))

		var resultLock sync.Mutex
		var group errgroup.Group
		group.SetLimit(workers)

		active := 0
		for _, profile := range activeProfiles {
			if profile.IsActive {
				active++
			}
		}

		for _, profile := range activeProfiles {
			if !profile.IsActive {
				continue
			}
			if ctx.Err() != nil {
				break
			}

			group.Go(func() error {
				userCtx := reporting.CloneHubInContext(ctx)
				userCtx = reporting.SetUserIDInContext(userCtx, profile.UserID)
				userCtx = logging.AddMetaToContext(userCtx, slog.String("userId", profile.UserID))
				userLogger := logging.FromContext(userCtx)

				outcome, err := safeProcessUser(userCtx, profile, asOf)

				switch {
				case err == nil && outcome == domain.OutcomeNoContacts:
					userLogger.WarnContext(userCtx, "Missed check-in, but the user has no active emergency contacts")
				case err == nil:
					userLogger.DebugContext(userCtx, "Processed user", "outcome", string(outcome))
				case errors.Is(err, domain.ErrConfiguration):
					userLogger.WarnContext(userCtx, "Skipping user with invalid settings", "error", err)
				default:
					userLogger.ErrorContext(userCtx, "Failed to process user", "outcome", string(outcome), "error", err)
				}

				metrics.userOutcomes.Add(userCtx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
				if outcome == domain.OutcomeAlerted {
					metrics.alertsSent.Add(userCtx, 1)
				}

				resultLock.Lock()
				defer resultLock.Unlock()
				result.Record(profile.UserID, outcome, err)

				return nil
			})
		}

		_ = group.Wait()
		metrics.sweepDuration.Record(ctx, time.Since(start).Seconds())

		logger.InfoContext(ctx, "Finished sweep",
			"processed", result.Processed,
			"alertsSent", result.AlertsSent,
			"errors", len(result.Errors),
			"durationSeconds", time.Since(start).Seconds(),
		)

		if err := ctx.Err(); err != nil && result.Processed < active {
			return result, fmt.Errorf("sweep interrupted after %d of %d users: %w", result.Processed, active, err)
		}

		return result, nil
	}
}
