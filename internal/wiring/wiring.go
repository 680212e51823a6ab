package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/stillhere/internal/adapters/alertledger"
	"github.com/Amund211/stillhere/internal/adapters/checkinrepository"
	"github.com/Amund211/stillhere/internal/adapters/contactrepository"
	"github.com/Amund211/stillhere/internal/adapters/database"
	"github.com/Amund211/stillhere/internal/adapters/transport"
	"github.com/Amund211/stillhere/internal/adapters/userrepository"
	"github.com/Amund211/stillhere/internal/app"
	"github.com/Amund211/stillhere/internal/config"
	"github.com/Amund211/stillhere/internal/timezone"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	NotifyAttemptTimeout = 10 * time.Second
	NotifyMaxAttempts    = 3

	outboundRequestTimeout = 10 * time.Second
	locationCacheTTL       = 24 * time.Hour
)

// Services are the use cases wired to postgres and the configured transports
type Services struct {
	RunSweep      app.RunSweep
	RecordCheckIn app.RecordCheckIn
	GetStreak     app.GetStreak
	Ledger        *alertledger.Postgres

	db           *sqlx.DB
	stopResolver func()
}

func (s *Services) Close() {
	s.stopResolver()
	_ = s.db.Close()
}

func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   outboundRequestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewServices connects to and migrates the database, then wires the use cases.
//
// The returned Services own the database connection.
func NewServices(ctx context.Context, conf config.Config, logger *slog.Logger) (*Services, error) {
	db, err := database.NewCloudsqlPostgresDatabase(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database connection: %w", err)
	}
	logger.Info("Initialized database connection", "maxOpenConnections", db.Stats().MaxOpenConnections)

	schema := database.GetSchemaName(!conf.IsProduction())
	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schema)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	alertTransport, err := transport.NewFromConfig(conf, NewHTTPClient(), logger.With("component", "transport"))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize transport: %w", err)
	}

	return newServices(conf, db, schema, alertTransport), nil
}

func newServices(conf config.Config, db *sqlx.DB, schema string, alertTransport transport.Transport) *Services {
	profileRepo := userrepository.NewPostgres(db, schema)
	checkInRepo := checkinrepository.NewPostgres(db, schema)
	contactRepo := contactrepository.NewPostgres(db, schema)
	ledger := alertledger.NewPostgres(db, schema)

	resolver, stopResolver := timezone.NewResolver(locationCacheTTL)

	notifyContact := app.BuildNotifyContact(alertTransport, NotifyAttemptTimeout, NotifyMaxAttempts, time.After)

	return &Services{
		RunSweep: app.BuildRunSweep(
			profileRepo,
			checkInRepo,
			ledger,
			contactRepo,
			resolver,
			notifyContact,
			conf.SweepWorkers(),
			time.Now,
		),
		RecordCheckIn: app.BuildRecordCheckIn(profileRepo, checkInRepo, resolver, time.Now),
		GetStreak:     app.BuildGetStreak(profileRepo, checkInRepo, resolver, time.Now),
		Ledger:        ledger,
		db:            db,
		stopResolver:  stopResolver,
	}
}
