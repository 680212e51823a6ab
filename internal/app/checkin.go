package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/logging"
	"github.com/Amund211/stillhere/internal/strutils"
)

// RecordCheckIn records proof of life for a user.
//
// A user checks in at most once per local day: if there already is a check-in
// today in the user's timezone nothing is written and alreadyCheckedIn is true.
type RecordCheckIn func(ctx context.Context, userID string, method domain.CheckInMethod) (event domain.CheckInEvent, alreadyCheckedIn bool, err error)

type profileGetter interface {
	GetProfile(ctx context.Context, userID string) (domain.UserProfile, error)
}

type checkInRecorder interface {
	HasCheckedInSince(ctx context.Context, userID string, since time.Time) (bool, error)
	RecordCheckIn(ctx context.Context, userID string, occurredAt time.Time, method domain.CheckInMethod) (domain.CheckInEvent, error)
}

func BuildRecordCheckIn(
	profiles profileGetter,
	checkIns checkInRecorder,
	resolver locationResolver,
	nowFunc func() time.Time,
) RecordCheckIn {
	return func(ctx context.Context, userID string, method domain.CheckInMethod) (domain.CheckInEvent, bool, error) {
		userID, err := strutils.NormalizeUserID(userID)
		if err != nil {
			return domain.CheckInEvent{}, false, err
		}

		profile, err := profiles.GetProfile(ctx, userID)
		if err != nil {
			// NOTE: The profile repository handles its own error reporting
			return domain.CheckInEvent{}, false, fmt.Errorf("failed to get profile: %w", err)
		}

		loc, err := resolver.Location(profile.Timezone)
		if err != nil {
			return domain.CheckInEvent{}, false, err
		}

		now := nowFunc()
		startOfDay := domain.StartOfLocalDay(loc, now)

		checkedIn, err := checkIns.HasCheckedInSince(ctx, userID, startOfDay)
		if err != nil {
			return domain.CheckInEvent{}, false, fmt.Errorf("%w: failed to look up check-ins: %w", domain.ErrRepository, err)
		}
		if checkedIn {
			logging.FromContext(ctx).InfoContext(ctx, "User already checked in today", "userId", userID)
			return domain.CheckInEvent{}, true, nil
		}

		event, err := checkIns.RecordCheckIn(ctx, userID, now, method)
		if err != nil {
			return domain.CheckInEvent{}, false, fmt.Errorf("%w: failed to record check-in: %w", domain.ErrRepository, err)
		}

		return event, false, nil
	}
}
