package app

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type appMetricsCollection struct {
	userOutcomes  metric.Int64Counter
	alertsSent    metric.Int64Counter
	notifications metric.Int64Counter
	sweepDuration metric.Float64Histogram
}

var metrics appMetricsCollection

func init() {
	const name = "stillhere/app"
	meter := otel.Meter(name)

	userOutcomes, err := meter.Int64Counter(
		"sweep/user_outcomes",
		metric.WithDescription("Users processed by the missed check-in sweep, by outcome"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create user outcomes metric: %w", err))
	}

	alertsSent, err := meter.Int64Counter(
		"sweep/alerts_sent",
		metric.WithDescription("Missed check-in alerts recorded"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create alerts sent metric: %w", err))
	}

	notifications, err := meter.Int64Counter(
		"sweep/notifications",
		metric.WithDescription("Notifications sent to emergency contacts, by result"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create notifications metric: %w", err))
	}

	sweepDuration, err := meter.Float64Histogram(
		"sweep/duration_seconds",
		metric.WithDescription("Wall clock time of one sweep over all active users"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create sweep duration metric: %w", err))
	}

	metrics = appMetricsCollection{
		userOutcomes:  userOutcomes,
		alertsSent:    alertsSent,
		notifications: notifications,
		sweepDuration: sweepDuration,
	}
}
