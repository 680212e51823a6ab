package app

import (
	"errors"
	"testing"
	"time"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/domaintest"
	"github.com/stretchr/testify/require"
)

func TestRecordCheckIn(t *testing.T) {
	t.Parallel()

	ny := newYork(t)
	day := domain.Date{Year: 2025, Month: time.June, Day: 2}

	t.Run("records the first check-in of the day", func(t *testing.T) {
		t.Parallel()

		now := day.At(ny, 8, 15)
		store := newMemoryStore(domaintest.NewProfileBuilder(userA).Build())
		recordCheckIn := BuildRecordCheckIn(store, store, newTestResolver(t), func() time.Time { return now })

		event, alreadyCheckedIn, err := recordCheckIn(t.Context(), userA, domain.CheckInMethodManual)
		require.NoError(t, err)
		require.False(t, alreadyCheckedIn)
		require.Equal(t, userA, event.UserID)
		require.Equal(t, now, event.OccurredAt)
		require.Equal(t, domain.CheckInMethodManual, event.Method)

		_, alreadyCheckedIn, err = recordCheckIn(t.Context(), userA, domain.CheckInMethodAPI)
		require.NoError(t, err)
		require.True(t, alreadyCheckedIn)
		require.Len(t, store.checkIns[userA], 1)
	})

	t.Run("days are counted in the user's timezone", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore(domaintest.NewProfileBuilder(userA).Build())
		// 22:00 in New York is already the next day in UTC
		store.checkIns[userA] = []time.Time{day.AddDays(-1).At(ny, 22, 0)}
		now := day.At(ny, 7, 0)

		_, alreadyCheckedIn, err := BuildRecordCheckIn(store, store, newTestResolver(t), func() time.Time { return now })(t.Context(), userA, domain.CheckInMethodSMS)
		require.NoError(t, err)
		require.False(t, alreadyCheckedIn)
		require.Len(t, store.checkIns[userA], 2)
	})

	t.Run("user ids are normalized", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore(domaintest.NewProfileBuilder(userA).Build())
		now := day.At(ny, 8, 15)

		event, _, err := BuildRecordCheckIn(store, store, newTestResolver(t), func() time.Time { return now })(t.Context(), "0123456789ABCDEF0123456789ABCDEF", domain.CheckInMethodManual)
		require.NoError(t, err)
		require.Equal(t, userA, event.UserID)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		now := func() time.Time { return day.At(ny, 8, 15) }

		store := newMemoryStore(domaintest.NewProfileBuilder(userA).Build())
		_, _, err := BuildRecordCheckIn(store, store, newTestResolver(t), now)(t.Context(), "not-a-uuid", domain.CheckInMethodManual)
		require.Error(t, err)

		_, _, err = BuildRecordCheckIn(store, store, newTestResolver(t), now)(t.Context(), userB, domain.CheckInMethodManual)
		require.ErrorIs(t, err, domain.ErrUserNotFound)

		badTimezone := newMemoryStore(domaintest.NewProfileBuilder(userA).WithTimezone("Nowhere/Special").Build())
		_, _, err = BuildRecordCheckIn(badTimezone, badTimezone, newTestResolver(t), now)(t.Context(), userA, domain.CheckInMethodManual)
		require.ErrorIs(t, err, domain.ErrConfiguration)

		store.checkInErrs[userA] = errors.New("connection reset")
		_, _, err = BuildRecordCheckIn(store, store, newTestResolver(t), now)(t.Context(), userA, domain.CheckInMethodManual)
		require.ErrorIs(t, err, domain.ErrRepository)
	})
}
