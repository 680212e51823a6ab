package alertledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/logging"
	"github.com/Amund211/stillhere/internal/reporting"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const unlockTimeout = 5 * time.Second

// Postgres records which days each user's contacts were alerted about.
//
// The (user_id, local_date) uniqueness constraint is what ultimately keeps a
// user from being alerted twice about the same day.
type Postgres struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("stillhere/alertledger/postgres")
	return &Postgres{
		db:     db,
		schema: schema,
		tracer: tracer,
	}
}

type dbNotifiedContact struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type dbAlert struct {
	ID               string    `db:"id"`
	UserID           string    `db:"user_id"`
	LocalDate        string    `db:"local_date"`
	AlertSentAt      time.Time `db:"alert_sent_at"`
	ContactsNotified []byte    `db:"contacts_notified"`
}

func (p *Postgres) HasAlertForDay(ctx context.Context, userID string, day domain.Date) (bool, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.HasAlertForDay")
	defer span.End()

	var exists bool
	err := p.db.GetContext(
		ctx,
		&exists,
		fmt.Sprintf(
			`SELECT EXISTS (SELECT 1 FROM %s.missed_alerts WHERE user_id = $1 AND local_date = $2::date)`,
			pq.QuoteIdentifier(p.schema),
		),
		userID,
		day.String(),
	)
	if err != nil {
		err := fmt.Errorf("failed to look up alerts: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"localDate": day.String(),
		})
		return false, err
	}

	return exists, nil
}

func (p *Postgres) lockKey(userID string) string {
	return fmt.Sprintf("missed_alert:%s:%s", p.schema, userID)
}

// LockUser takes a session level advisory lock on alerting userID, held on a
// dedicated connection until the returned unlock func is called.
//
// Returns domain.ErrUserLocked without waiting if another session holds it.
func (p *Postgres) LockUser(ctx context.Context, userID string) (func(), error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.LockUser")
	defer span.End()

	conn, err := p.db.Connx(ctx)
	if err != nil {
		err := fmt.Errorf("failed to get connection for lock: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	key := p.lockKey(userID)

	var acquired bool
	err = conn.GetContext(ctx, &acquired, "SELECT pg_try_advisory_lock(hashtextextended($1, 0))", key)
	if err != nil {
		conn.Close()
		err := fmt.Errorf("failed to take advisory lock: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}
	if !acquired {
		conn.Close()
		return nil, fmt.Errorf("%w: %s", domain.ErrUserLocked, userID)
	}

	unlock := func() {
		// Release even if the sweep was cancelled, the connection goes back to the pool
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
		defer cancel()
		defer conn.Close()

		var released bool
		err := conn.GetContext(unlockCtx, &released, "SELECT pg_advisory_unlock(hashtextextended($1, 0))", key)
		if err != nil {
			reporting.Report(unlockCtx, fmt.Errorf("failed to release advisory lock: %w", err))
			return
		}
		if !released {
			logging.FromContext(unlockCtx).WarnContext(unlockCtx, "Advisory lock was not held when releasing it")
		}
	}

	return unlock, nil
}

func (p *Postgres) RecordAlert(ctx context.Context, alert domain.AlertRecord) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.RecordAlert")
	defer span.End()

	if alert.UserID == "" || alert.LocalDate.IsZero() {
		err := fmt.Errorf("alert is missing user or date")
		reporting.Report(ctx, err)
		return err
	}

	notified := make([]dbNotifiedContact, 0, len(alert.NotifiedContacts))
	for _, contact := range alert.NotifiedContacts {
		notified = append(notified, dbNotifiedContact{Name: contact.Name, Address: contact.Address})
	}
	contactsJSON, err := json.Marshal(notified)
	if err != nil {
		err := fmt.Errorf("failed to marshal notified contacts: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	id := alert.ID
	if id == "" {
		id = uuid.NewString()
	}

	result, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %s.missed_alerts (id, user_id, local_date, alert_sent_at, contacts_notified)
			VALUES ($1, $2, $3::date, $4, $5)
			ON CONFLICT (user_id, local_date) DO NOTHING`,
			pq.QuoteIdentifier(p.schema),
		),
		id,
		alert.UserID,
		alert.LocalDate.String(),
		alert.SentAt,
		string(contactsJSON),
	)
	if err != nil {
		err := fmt.Errorf("failed to insert alert: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"localDate": alert.LocalDate.String(),
		})
		return err
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("failed to read inserted rows: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	if inserted == 0 {
		return fmt.Errorf("%w: %s on %s", domain.ErrAlertAlreadyRecorded, alert.UserID, alert.LocalDate)
	}

	return nil
}

// ListAlerts returns the alerts recorded for userID, newest first
func (p *Postgres) ListAlerts(ctx context.Context, userID string, limit int) ([]domain.AlertRecord, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListAlerts")
	defer span.End()

	var rows []dbAlert
	err := p.db.SelectContext(
		ctx,
		&rows,
		fmt.Sprintf(
			`SELECT id, user_id, local_date::text AS local_date, alert_sent_at, contacts_notified
			FROM %s.missed_alerts
			WHERE user_id = $1
			ORDER BY local_date DESC
			LIMIT $2`,
			pq.QuoteIdentifier(p.schema),
		),
		userID,
		limit,
	)
	if err != nil {
		err := fmt.Errorf("failed to select alerts: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	alerts := make([]domain.AlertRecord, 0, len(rows))
	for _, row := range rows {
		localDate, err := domain.ParseDate(row.LocalDate)
		if err != nil {
			err := fmt.Errorf("failed to parse alert date: %w", err)
			reporting.Report(ctx, err)
			return nil, err
		}

		var notified []dbNotifiedContact
		if err := json.Unmarshal(row.ContactsNotified, &notified); err != nil {
			err := fmt.Errorf("failed to unmarshal notified contacts: %w", err)
			reporting.Report(ctx, err)
			return nil, err
		}

		contacts := make([]domain.NotifiedContact, 0, len(notified))
		for _, contact := range notified {
			contacts = append(contacts, domain.NotifiedContact{Name: contact.Name, Address: contact.Address})
		}

		alerts = append(alerts, domain.AlertRecord{
			ID:               row.ID,
			UserID:           row.UserID,
			LocalDate:        localDate,
			SentAt:           row.AlertSentAt,
			NotifiedContacts: contacts,
		})
	}

	return alerts, nil
}
