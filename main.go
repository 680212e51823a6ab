package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Amund211/stillhere/internal/config"
	"github.com/Amund211/stillhere/internal/logging"
	"github.com/Amund211/stillhere/internal/ports"
	"github.com/Amund211/stillhere/internal/reporting"
	"github.com/Amund211/stillhere/internal/telemetry"
	"github.com/Amund211/stillhere/internal/wiring"
	"github.com/google/uuid"

	// Minimal container images ship without CA certificates
	_ "golang.org/x/crypto/x509roots/fallback"
)

// Below the request timeout of the scheduler so the summary is still delivered
const sweepTimeout = 4 * time.Minute

func main() {
	instanceID := uuid.New().String()

	config, err := config.ConfigFromEnv()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("Failed to load config", "error", err.Error())
		os.Exit(1)
	}

	logger := slog.New(
		logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil), config.GoogleCloudProject()),
	).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	logger.Info("Loaded config", "config", config.NonSensitiveString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !config.IsDevelopment() {
		shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, "stillhere")
		if err != nil {
			fail("Failed to initialize OpenTelemetry", "error", err.Error())
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	services, err := wiring.NewServices(ctx, config, logger)
	if err != nil {
		fail("Failed to initialize services", "error", err.Error())
	}
	defer services.Close()
	logger.Info("Initialized services")

	checkMissedHandler, stopCheckMissed := ports.MakeCheckMissedHandler(
		services.RunSweep,
		config.CronSecret(),
		sweepTimeout,
		time.Now,
		logger.With("port", "checkmissed"),
		sentryMiddleware,
	)
	defer stopCheckMissed()

	mux := http.NewServeMux()
	for _, pattern := range []string{
		"GET /v1/cron/check-missed",
		"POST /v1/cron/check-missed",
		// Path used by the previous deployment's scheduler
		"GET /api/cron/check-missed",
		"POST /api/cron/check-missed",
	} {
		mux.HandleFunc(pattern, checkMissedHandler)
	}
	mux.HandleFunc("GET /healthz", ports.MakeHealthHandler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port()),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down server", "error", err.Error())
		}
	}()

	logger.Info("Init complete")
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		// Let in-flight sweeps finish
		<-shutdownDone
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
