package userrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/reporting"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Postgres stores user profiles: the check-in schedule and alert settings of each user
type Postgres struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("stillhere/userrepository/postgres")
	return &Postgres{
		db:     db,
		schema: schema,
		tracer: tracer,
	}
}

type dbProfile struct {
	UserID             string       `db:"user_id"`
	DisplayName        string       `db:"display_name"`
	CheckInTime        string       `db:"checkin_time"`
	GracePeriodMinutes int          `db:"grace_period_minutes"`
	Timezone           string       `db:"timezone"`
	IsActive           bool         `db:"is_active"`
	AlertsPausedUntil  sql.NullTime `db:"alerts_paused_until"`
}

func (p *Postgres) selectProfiles() string {
	return fmt.Sprintf(`SELECT
			user_id,
			display_name,
			to_char(checkin_time, 'HH24:MI') AS checkin_time,
			grace_period_minutes,
			timezone,
			is_active,
			alerts_paused_until
		FROM %s.profiles`,
		pq.QuoteIdentifier(p.schema),
	)
}

func dbProfileToDomain(profile dbProfile) domain.UserProfile {
	result := domain.UserProfile{
		UserID:             profile.UserID,
		DisplayName:        profile.DisplayName,
		GracePeriodMinutes: profile.GracePeriodMinutes,
		Timezone:           profile.Timezone,
		IsActive:           profile.IsActive,
	}
	if profile.AlertsPausedUntil.Valid {
		result.AlertsPausedUntil = profile.AlertsPausedUntil.Time
	}

	checkInTime, err := domain.ParseTimeOfDay(profile.CheckInTime)
	if err != nil {
		result.SettingsErr = fmt.Errorf("invalid check-in time %q: %w", profile.CheckInTime, err)
	} else {
		result.CheckInTime = checkInTime
	}
	return result
}

func (p *Postgres) ListActiveProfiles(ctx context.Context) ([]domain.UserProfile, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListActiveProfiles")
	defer span.End()

	var rows []dbProfile
	err := p.db.SelectContext(ctx, &rows, p.selectProfiles()+" WHERE is_active ORDER BY user_id")
	if err != nil {
		err := fmt.Errorf("failed to select active profiles: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	profiles := make([]domain.UserProfile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, dbProfileToDomain(row))
	}

	return profiles, nil
}

func (p *Postgres) GetProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetProfile")
	defer span.End()

	var row dbProfile
	err := p.db.GetContext(ctx, &row, p.selectProfiles()+" WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserProfile{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	} else if err != nil {
		err := fmt.Errorf("failed to select profile: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"userID": userID,
		})
		return domain.UserProfile{}, err
	}

	return dbProfileToDomain(row), nil
}

// SaveProfile creates the profile, or replaces the settings of an existing one
func (p *Postgres) SaveProfile(ctx context.Context, profile domain.UserProfile) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.SaveProfile")
	defer span.End()

	if profile.UserID == "" {
		err := fmt.Errorf("userID is empty")
		reporting.Report(ctx, err)
		return err
	}
	if err := domain.ValidateGracePeriod(profile.GracePeriodMinutes); err != nil {
		return err
	}

	var pausedUntil sql.NullTime
	if !profile.AlertsPausedUntil.IsZero() {
		pausedUntil = sql.NullTime{Time: profile.AlertsPausedUntil, Valid: true}
	}

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.profiles
		(user_id, display_name, checkin_time, grace_period_minutes, timezone, is_active, alerts_paused_until)
		VALUES ($1, $2, $3::time, $4, $5, $6, $7)
		ON CONFLICT (user_id)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			checkin_time = EXCLUDED.checkin_time,
			grace_period_minutes = EXCLUDED.grace_period_minutes,
			timezone = EXCLUDED.timezone,
			is_active = EXCLUDED.is_active,
			alerts_paused_until = EXCLUDED.alerts_paused_until,
			updated_at = NOW()`,
			pq.QuoteIdentifier(p.schema)),
		profile.UserID,
		profile.DisplayName,
		profile.CheckInTime.String(),
		profile.GracePeriodMinutes,
		profile.Timezone,
		profile.IsActive,
		pausedUntil,
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert profile: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"userID": profile.UserID,
		})
		return err
	}

	return nil
}
