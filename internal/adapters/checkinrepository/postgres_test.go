package checkinrepository

import (
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/Amund211/stillhere/internal/adapters/database"
	"github.com/Amund211/stillhere/internal/adapters/userrepository"
	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/domaintest"
)

func newPostgres(t *testing.T, db *sqlx.DB, schemaSuffix string) (*Postgres, *userrepository.Postgres) {
	require.NotEmpty(t, schemaSuffix, "schemaSuffix must not be empty")
	schema := fmt.Sprintf("checkins_repo_test_%s", schemaSuffix)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db.MustExec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(schema)))

	err := database.NewDatabaseMigrator(db, logger).Migrate(t.Context(), schema)
	require.NoError(t, err)

	return NewPostgres(db, schema), userrepository.NewPostgres(db, schema)
}

func TestPostgresCheckIns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping db tests in short mode.")
	}
	t.Parallel()

	db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	startOfDay := time.Date(2025, time.June, 2, 4, 0, 0, 0, time.UTC)

	t.Run("record and look up", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		p, users := newPostgres(t, db, "record_and_look_up")

		userID := domaintest.NewUserID(t)
		require.NoError(t, users.SaveProfile(ctx, domaintest.NewProfileBuilder(userID).Build()))

		checkedIn, err := p.HasCheckedInSince(ctx, userID, startOfDay)
		require.NoError(t, err)
		require.False(t, checkedIn)

		// Yesterday's check-in does not count for today
		_, err = p.RecordCheckIn(ctx, userID, startOfDay.Add(-time.Minute), domain.CheckInMethodManual)
		require.NoError(t, err)

		checkedIn, err = p.HasCheckedInSince(ctx, userID, startOfDay)
		require.NoError(t, err)
		require.False(t, checkedIn)

		event, err := p.RecordCheckIn(ctx, userID, startOfDay, domain.CheckInMethodSMS)
		require.NoError(t, err)
		require.NotEmpty(t, event.ID)
		require.Equal(t, userID, event.UserID)
		require.Equal(t, domain.CheckInMethodSMS, event.Method)

		checkedIn, err = p.HasCheckedInSince(ctx, userID, startOfDay)
		require.NoError(t, err)
		require.True(t, checkedIn)
	})

	t.Run("users are independent", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		p, users := newPostgres(t, db, "independent_users")

		user1 := domaintest.NewUserID(t)
		user2 := domaintest.NewUserID(t)
		for _, userID := range []string{user1, user2} {
			require.NoError(t, users.SaveProfile(ctx, domaintest.NewProfileBuilder(userID).Build()))
		}

		_, err := p.RecordCheckIn(ctx, user1, startOfDay.Add(time.Hour), domain.CheckInMethodAPI)
		require.NoError(t, err)

		checkedIn, err := p.HasCheckedInSince(ctx, user2, startOfDay)
		require.NoError(t, err)
		require.False(t, checkedIn)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		p, _ := newPostgres(t, db, "unknown_user")

		_, err := p.RecordCheckIn(t.Context(), domaintest.NewUserID(t), startOfDay, domain.CheckInMethodManual)
		require.Error(t, err)
	})

	t.Run("list check-in times", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		p, users := newPostgres(t, db, "list_times")

		userID := domaintest.NewUserID(t)
		require.NoError(t, users.SaveProfile(ctx, domaintest.NewProfileBuilder(userID).Build()))

		times := []time.Time{
			startOfDay.Add(-48 * time.Hour),
			startOfDay.Add(-24 * time.Hour),
			startOfDay.Add(2 * time.Hour),
		}
		for _, occurredAt := range times {
			_, err := p.RecordCheckIn(ctx, userID, occurredAt, domain.CheckInMethodManual)
			require.NoError(t, err)
		}

		listed, err := p.ListCheckInTimesSince(ctx, userID, startOfDay.Add(-24*time.Hour))
		require.NoError(t, err)
		require.Len(t, listed, 2)
		require.True(t, listed[0].Equal(times[2]))
		require.True(t, listed[1].Equal(times[1]))
	})
}
