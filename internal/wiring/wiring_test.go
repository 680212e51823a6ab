package wiring

import (
	"log/slog"
	"testing"

	"github.com/Amund211/stillhere/internal/adapters/database"
	"github.com/Amund211/stillhere/internal/config"
	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/domaintest"
	"github.com/stretchr/testify/require"
)

func TestNewServices(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping db tests in short mode.")
	}

	for _, key := range []string{"SMTP_HOST", "RESEND_API_KEY", "TWILIO_ACCOUNT_SID"} {
		t.Setenv(key, "")
	}
	t.Setenv("STILLHERE_ENVIRONMENT", "development")
	t.Setenv("SWEEP_WORKERS", "40")

	conf, err := config.ConfigFromEnv()
	require.NoError(t, err)

	services, err := NewServices(t.Context(), conf, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer services.Close()

	t.Run("pool fits every sweep worker and its lock", func(t *testing.T) {
		require.Equal(t, database.MaxOpenConnections(40), services.db.Stats().MaxOpenConnections)
		require.Equal(t, 84, services.db.Stats().MaxOpenConnections)
	})

	t.Run("use cases reach the migrated schema", func(t *testing.T) {
		userID := domaintest.NewUserID(t)

		_, _, err := services.RecordCheckIn(t.Context(), userID, domain.CheckInMethodManual)
		require.ErrorIs(t, err, domain.ErrUserNotFound)

		_, err = services.GetStreak(t.Context(), userID)
		require.ErrorIs(t, err, domain.ErrUserNotFound)

		alerts, err := services.Ledger.ListAlerts(t.Context(), userID, 10)
		require.NoError(t, err)
		require.Empty(t, alerts)
		require.NotNil(t, services.RunSweep)
	})
}
