package domaintest

import (
	"time"

	"github.com/Amund211/stillhere/internal/domain"
)

type profileBuilder struct {
	profile domain.UserProfile
}

func (pb *profileBuilder) WithDisplayName(name string) *profileBuilder {
	pb.profile.DisplayName = name
	return pb
}

func (pb *profileBuilder) WithCheckInTime(hour, minute int) *profileBuilder {
	pb.profile.CheckInTime = domain.TimeOfDay{Hour: hour, Minute: minute}
	return pb
}

func (pb *profileBuilder) WithGracePeriodMinutes(minutes int) *profileBuilder {
	pb.profile.GracePeriodMinutes = minutes
	return pb
}

func (pb *profileBuilder) WithTimezone(timezone string) *profileBuilder {
	pb.profile.Timezone = timezone
	return pb
}

func (pb *profileBuilder) WithAlertsPausedUntil(until time.Time) *profileBuilder {
	pb.profile.AlertsPausedUntil = until
	return pb
}

func (pb *profileBuilder) Inactive() *profileBuilder {
	pb.profile.IsActive = false
	return pb
}

func (pb *profileBuilder) Build() domain.UserProfile {
	return pb.profile
}

// NewProfileBuilder starts from an active New York user due at 09:00 with two hours of grace
func NewProfileBuilder(userID string) *profileBuilder {
	return &profileBuilder{
		profile: domain.UserProfile{
			UserID:             userID,
			DisplayName:        "Alex",
			CheckInTime:        domain.TimeOfDay{Hour: 9, Minute: 0},
			GracePeriodMinutes: 120,
			Timezone:           "America/New_York",
			IsActive:           true,
		},
	}
}
