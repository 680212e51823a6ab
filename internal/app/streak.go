package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/strutils"
)

type GetStreak func(ctx context.Context, userID string) (int, error)

type checkInHistory interface {
	ListCheckInTimesSince(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
}

// Longer streaks are reported as this many days
const streakHistoryDays = 366

func BuildGetStreak(
	profiles profileGetter,
	checkIns checkInHistory,
	resolver locationResolver,
	nowFunc func() time.Time,
) GetStreak {
	return func(ctx context.Context, userID string) (int, error) {
		userID, err := strutils.NormalizeUserID(userID)
		if err != nil {
			return 0, err
		}

		profile, err := profiles.GetProfile(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("failed to get profile: %w", err)
		}

		loc, err := resolver.Location(profile.Timezone)
		if err != nil {
			return 0, err
		}

		today := domain.LocalDate(loc, nowFunc())
		since := today.AddDays(-(streakHistoryDays - 1)).At(loc, 0, 0)

		checkInTimes, err := checkIns.ListCheckInTimesSince(ctx, userID, since)
		if err != nil {
			return 0, fmt.Errorf("%w: failed to list check-ins: %w", domain.ErrRepository, err)
		}

		return domain.ComputeStreak(domain.LocalDates(loc, checkInTimes), today), nil
	}
}
