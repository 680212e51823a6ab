package domain

import (
	"fmt"
	"time"
)

const maxGracePeriodMinutes = 24 * 60

type UserProfile struct {
	UserID             string
	DisplayName        string
	CheckInTime        TimeOfDay
	GracePeriodMinutes int
	Timezone           string
	IsActive           bool

	// Alerts are suppressed until this instant (snooze or vacation). Zero means not paused.
	AlertsPausedUntil time.Time

	// Set when the stored settings could not be read. The user is still listed so
	// the failure is counted instead of silently skipping them.
	SettingsErr error
}

// ValidateSettings reports whether the profile can be evaluated for a deadline
func (p UserProfile) ValidateSettings() error {
	if p.SettingsErr != nil {
		return p.SettingsErr
	}
	return ValidateGracePeriod(p.GracePeriodMinutes)
}

func (p UserProfile) GracePeriod() time.Duration {
	return time.Duration(p.GracePeriodMinutes) * time.Minute
}

// AlertsPausedAt reports whether the user has snoozed alerts at the given instant
func (p UserProfile) AlertsPausedAt(t time.Time) bool {
	return !p.AlertsPausedUntil.IsZero() && t.Before(p.AlertsPausedUntil)
}

// ValidateGracePeriod rejects grace periods that would let one day's deadline
// reach past the end of the following day.
func ValidateGracePeriod(minutes int) error {
	if minutes < 0 || minutes >= maxGracePeriodMinutes {
		return fmt.Errorf("%w: grace period of %d minutes is outside [0, %d)", ErrConfiguration, minutes, maxGracePeriodMinutes)
	}
	return nil
}
