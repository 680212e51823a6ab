package contactrepository

import (
	"context"
	"fmt"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/reporting"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Postgres struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("stillhere/contactrepository/postgres")
	return &Postgres{
		db:     db,
		schema: schema,
		tracer: tracer,
	}
}

type dbContact struct {
	ID       string `db:"id"`
	UserID   string `db:"user_id"`
	Name     string `db:"name"`
	Email    string `db:"email"`
	Phone    string `db:"phone"`
	IsActive bool   `db:"is_active"`
}

// ListActiveContacts returns the active contacts of userID in the order they were added
func (p *Postgres) ListActiveContacts(ctx context.Context, userID string) ([]domain.EmergencyContact, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListActiveContacts")
	defer span.End()

	var rows []dbContact
	err := p.db.SelectContext(
		ctx,
		&rows,
		fmt.Sprintf(
			`SELECT id, user_id, name, email, phone, is_active
			FROM %s.emergency_contacts
			WHERE user_id = $1 AND is_active
			ORDER BY created_at, id`,
			pq.QuoteIdentifier(p.schema),
		),
		userID,
	)
	if err != nil {
		err := fmt.Errorf("failed to select contacts: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	contacts := make([]domain.EmergencyContact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, domain.EmergencyContact{
			ID:       row.ID,
			UserID:   row.UserID,
			Name:     row.Name,
			Email:    row.Email,
			Phone:    row.Phone,
			IsActive: row.IsActive,
		})
	}
	return contacts, nil
}

// AddContact stores a new contact. A missing ID is generated.
func (p *Postgres) AddContact(ctx context.Context, contact domain.EmergencyContact) (domain.EmergencyContact, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.AddContact")
	defer span.End()

	if contact.Address() == "" {
		return domain.EmergencyContact{}, fmt.Errorf("%w: contact has neither email nor phone", domain.ErrConfiguration)
	}

	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %s.emergency_contacts (id, user_id, name, email, phone, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			pq.QuoteIdentifier(p.schema),
		),
		contact.ID,
		contact.UserID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.IsActive,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert contact: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"contactId": contact.ID,
		})
		return domain.EmergencyContact{}, err
	}

	return contact, nil
}
