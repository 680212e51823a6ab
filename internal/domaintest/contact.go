package domaintest

import (
	"github.com/Amund211/stillhere/internal/domain"
	"github.com/google/uuid"
)

type contactBuilder struct {
	contact domain.EmergencyContact
}

func (cb *contactBuilder) WithID(id string) *contactBuilder {
	cb.contact.ID = id
	return cb
}

func (cb *contactBuilder) WithName(name string) *contactBuilder {
	cb.contact.Name = name
	return cb
}

func (cb *contactBuilder) WithEmail(email string) *contactBuilder {
	cb.contact.Email = email
	return cb
}

func (cb *contactBuilder) WithPhone(phone string) *contactBuilder {
	cb.contact.Phone = phone
	return cb
}

func (cb *contactBuilder) Inactive() *contactBuilder {
	cb.contact.IsActive = false
	return cb
}

func (cb *contactBuilder) Build() domain.EmergencyContact {
	return cb.contact
}

func NewContactBuilder(userID string) *contactBuilder {
	return &contactBuilder{
		contact: domain.EmergencyContact{
			ID:       uuid.NewString(),
			UserID:   userID,
			Name:     "Sam",
			Email:    "sam@example.com",
			IsActive: true,
		},
	}
}
