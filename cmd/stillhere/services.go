package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Amund211/stillhere/internal/adapters/alertledger"
	"github.com/Amund211/stillhere/internal/app"
	"github.com/Amund211/stillhere/internal/config"
	"github.com/Amund211/stillhere/internal/logging"
	"github.com/Amund211/stillhere/internal/reporting"
	"github.com/Amund211/stillhere/internal/wiring"
	"github.com/google/uuid"

	_ "golang.org/x/crypto/x509roots/fallback"
)

// services is everything a command needs to talk to the database and the transports
type services struct {
	ctx    context.Context
	logger *slog.Logger

	runSweep      app.RunSweep
	recordCheckIn app.RecordCheckIn
	getStreak     app.GetStreak
	ledger        *alertledger.Postgres

	close func()
}

func newServices(ctx context.Context, command string) (*services, error) {
	conf, err := config.ConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With(
		"instanceID", uuid.New().String(),
		"command", command,
	)
	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	flush, err := reporting.InitSentryOrSkip(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	ctx = logging.AddToContext(ctx, logger)
	ctx = reporting.AddHubToContext(ctx)

	wired, err := wiring.NewServices(ctx, conf, logger)
	if err != nil {
		flush()
		return nil, err
	}

	return &services{
		ctx:           ctx,
		logger:        logger,
		runSweep:      wired.RunSweep,
		recordCheckIn: wired.RecordCheckIn,
		getStreak:     wired.GetStreak,
		ledger:        wired.Ledger,
		close: func() {
			wired.Close()
			flush()
		},
	}, nil
}
