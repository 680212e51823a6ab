package checkinrepository

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/reporting"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Postgres is the append-only log of check-ins
type Postgres struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("stillhere/checkinrepository/postgres")
	return &Postgres{
		db:     db,
		schema: schema,
		tracer: tracer,
	}
}

func (p *Postgres) HasCheckedInSince(ctx context.Context, userID string, since time.Time) (bool, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.HasCheckedInSince")
	defer span.End()

	var exists bool
	err := p.db.GetContext(
		ctx,
		&exists,
		fmt.Sprintf(
			`SELECT EXISTS (SELECT 1 FROM %s.checkins WHERE user_id = $1 AND checked_in_at >= $2)`,
			pq.QuoteIdentifier(p.schema),
		),
		userID,
		since,
	)
	if err != nil {
		err := fmt.Errorf("failed to look up check-ins: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"since": since.Format(time.RFC3339),
		})
		return false, err
	}

	return exists, nil
}

func (p *Postgres) RecordCheckIn(ctx context.Context, userID string, occurredAt time.Time, method domain.CheckInMethod) (domain.CheckInEvent, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.RecordCheckIn")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		err := fmt.Errorf("failed to generate check-in id: %w", err)
		reporting.Report(ctx, err)
		return domain.CheckInEvent{}, err
	}

	_, err = p.db.ExecContext(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %s.checkins (id, user_id, checked_in_at, method) VALUES ($1, $2, $3, $4)`,
			pq.QuoteIdentifier(p.schema),
		),
		id,
		userID,
		occurredAt,
		string(method),
	)
	if err != nil {
		err := fmt.Errorf("failed to insert check-in: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"userID": userID,
			"method": string(method),
		})
		return domain.CheckInEvent{}, err
	}

	return domain.CheckInEvent{
		ID:         id.String(),
		UserID:     userID,
		OccurredAt: occurredAt,
		Method:     method,
	}, nil
}

// ListCheckInTimesSince returns the check-in instants at or after since, newest first
func (p *Postgres) ListCheckInTimesSince(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListCheckInTimesSince")
	defer span.End()

	var checkedInAt []time.Time
	err := p.db.SelectContext(
		ctx,
		&checkedInAt,
		fmt.Sprintf(
			`SELECT checked_in_at FROM %s.checkins WHERE user_id = $1 AND checked_in_at >= $2 ORDER BY checked_in_at DESC`,
			pq.QuoteIdentifier(p.schema),
		),
		userID,
		since,
	)
	if err != nil {
		err := fmt.Errorf("failed to list check-ins: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"since": since.Format(time.RFC3339),
		})
		return nil, err
	}

	return checkedInAt, nil
}
