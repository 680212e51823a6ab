package database

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func freshSchema(t *testing.T, db *sqlx.DB, schemaName string) {
	t.Helper()
	db.MustExec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(schemaName)))
}

func migrateDown(ctx context.Context, t *testing.T, db *sqlx.DB, schemaName string) {
	t.Helper()

	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(schemaName)))
	require.NoError(t, err)

	source, err := iofs.New(embeddedMigrations, "migrations")
	require.NoError(t, err)
	defer source.Close()

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		DatabaseName: DB_NAME,
		SchemaName:   schemaName,
	})
	require.NoError(t, err)

	instance, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	require.NoError(t, err)
	defer instance.Close()

	// Not even ErrNoChange: there must be something to undo
	require.NoError(t, instance.Down())
}

func TestMigrator(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping migrator tests in short mode.")
	}
	t.Parallel()

	db, err := NewPostgresDatabase(LOCAL_CONNECTION_STRING)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	listTables := func(t *testing.T, schemaName string) []string {
		t.Helper()
		tables := []string{}
		err := db.SelectContext(t.Context(), &tables,
			"SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_name <> 'schema_migrations'",
			schemaName,
		)
		require.NoError(t, err)
		return tables
	}

	t.Run("creates the tables and is idempotent", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		schemaName := "migrate_tables"
		freshSchema(t, db, schemaName)
		migrator := NewDatabaseMigrator(db, slog.New(slog.DiscardHandler))

		require.NoError(t, migrator.Migrate(ctx, schemaName))
		require.ElementsMatch(t, []string{"profiles", "emergency_contacts", "checkins", "missed_alerts"}, listTables(t, schemaName))

		require.NoError(t, migrator.Migrate(ctx, schemaName), "migrating twice")

		migrateDown(ctx, t, db, schemaName)
		require.Empty(t, listTables(t, schemaName))
	})

	t.Run("constraints", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		schemaName := "migrate_constraints"
		freshSchema(t, db, schemaName)
		require.NoError(t, NewDatabaseMigrator(db, slog.New(slog.DiscardHandler)).Migrate(ctx, schemaName))

		exec := func(query string, args ...any) error {
			_, err := db.ExecContext(ctx, fmt.Sprintf(query, pq.QuoteIdentifier(schemaName)), args...)
			return err
		}

		const userID = "01234567-89ab-cdef-0123-456789abcdef"
		insertProfile := "INSERT INTO %s.profiles (user_id, display_name, checkin_time, grace_period_minutes, timezone) VALUES ($1, 'Alex', '09:00', $2, 'UTC')"

		require.Error(t, exec(insertProfile, userID, 1440), "grace period must be shorter than a day")
		require.Error(t, exec(insertProfile, userID, -1), "grace period must not be negative")
		require.NoError(t, exec(insertProfile, userID, 120))

		require.Error(t,
			exec("INSERT INTO %s.emergency_contacts (id, user_id, name) VALUES (gen_random_uuid(), $1, 'Sam')", userID),
			"a contact needs an email address or a phone number",
		)

		insertAlert := "INSERT INTO %s.missed_alerts (id, user_id, local_date, alert_sent_at, contacts_notified) VALUES (gen_random_uuid(), $1, '2025-06-02', now(), '[]')"
		require.NoError(t, exec(insertAlert, userID))
		require.Error(t, exec(insertAlert, userID), "one alert per user and day")
	})
}
