package domain

import (
	"fmt"
	"time"
)

type NotifiedContact struct {
	Name    string
	Address string
}

// AlertRecord is the proof that a user's contacts were notified about a missed day.
//
// At most one AlertRecord exists per user per local calendar day.
type AlertRecord struct {
	ID               string
	UserID           string
	LocalDate        Date
	SentAt           time.Time
	NotifiedContacts []NotifiedContact
}

// MissedCheckInAlert is the content of one outbound message to one contact
type MissedCheckInAlert struct {
	UserID          string
	UserDisplayName string
	MissedDay       Date
	ContactID       string
	ContactName     string
	Email           string
	Phone           string
}

func NewMissedCheckInAlert(profile UserProfile, missedDay Date, contact EmergencyContact) MissedCheckInAlert {
	return MissedCheckInAlert{
		UserID:          profile.UserID,
		UserDisplayName: profile.DisplayName,
		MissedDay:       missedDay,
		ContactID:       contact.ID,
		ContactName:     contact.Name,
		Email:           contact.Email,
		Phone:           contact.Phone,
	}
}

// DeliveryKey is the same for every attempt to deliver this alert to this contact
func (a MissedCheckInAlert) DeliveryKey() string {
	return fmt.Sprintf("missed-checkin/%s/%s/%s", a.UserID, a.MissedDay, a.ContactID)
}
