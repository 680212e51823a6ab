package contactrepository

import (
	"fmt"
	"log/slog"
	"os"
	"testing"

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
	schema := fmt.Sprintf("contacts_repo_test_%s", schemaSuffix)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db.MustExec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(schema)))

	err := database.NewDatabaseMigrator(db, logger).Migrate(t.Context(), schema)
	require.NoError(t, err)

	return NewPostgres(db, schema), userrepository.NewPostgres(db, schema)
}

func TestPostgresContacts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping db tests in short mode.")
	}
	t.Parallel()

	db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	t.Run("only active contacts are listed", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		p, users := newPostgres(t, db, "active_only")

		userID := domaintest.NewUserID(t)
		otherUserID := domaintest.NewUserID(t)
		for _, id := range []string{userID, otherUserID} {
			require.NoError(t, users.SaveProfile(ctx, domaintest.NewProfileBuilder(id).Build()))
		}

		email := domaintest.NewContactBuilder(userID).WithName("Email contact").Build()
		phone := domaintest.NewContactBuilder(userID).WithName("Phone contact").WithEmail("").WithPhone("+15550100").Build()
		inactive := domaintest.NewContactBuilder(userID).Inactive().Build()
		otherUsers := domaintest.NewContactBuilder(otherUserID).Build()

		for _, contact := range []domain.EmergencyContact{email, phone, inactive, otherUsers} {
			_, err := p.AddContact(ctx, contact)
			require.NoError(t, err)
		}

		contacts, err := p.ListActiveContacts(ctx, userID)
		require.NoError(t, err)
		require.ElementsMatch(t, []domain.EmergencyContact{email, phone}, contacts)
	})

	t.Run("no contacts", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		p, users := newPostgres(t, db, "no_contacts")

		userID := domaintest.NewUserID(t)
		require.NoError(t, users.SaveProfile(ctx, domaintest.NewProfileBuilder(userID).Build()))

		contacts, err := p.ListActiveContacts(ctx, userID)
		require.NoError(t, err)
		require.Empty(t, contacts)
	})

	t.Run("generates missing ids", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		p, users := newPostgres(t, db, "generated_ids")

		userID := domaintest.NewUserID(t)
		require.NoError(t, users.SaveProfile(ctx, domaintest.NewProfileBuilder(userID).Build()))

		contact, err := p.AddContact(ctx, domaintest.NewContactBuilder(userID).WithID("").Build())
		require.NoError(t, err)
		require.NotEmpty(t, contact.ID)
	})

	t.Run("contact without address is rejected", func(t *testing.T) {
		t.Parallel()
		p, _ := newPostgres(t, db, "no_address")

		_, err := p.AddContact(t.Context(), domaintest.NewContactBuilder(domaintest.NewUserID(t)).WithEmail("").Build())
		require.ErrorIs(t, err, domain.ErrConfiguration)
	})
}
