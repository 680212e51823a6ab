package domain

import "time"

// CheckInCycle is one local calendar day of a user's check-in schedule
type CheckInCycle struct {
	// The local calendar day the cycle belongs to
	Day Date
	// Start of Day in the user's location. Check-ins at or after Start count for the cycle.
	Start time.Time
	// The instant after which a missing check-in is a missed check-in
	Deadline time.Time
}

// CycleFor builds the check-in cycle for the given local day.
//
// The deadline is the check-in time on that day plus the grace period, added as
// elapsed time so DST transitions inside the grace period are accounted for.
// A deadline past local midnight still belongs to day.
func CycleFor(day Date, loc *time.Location, checkInTime TimeOfDay, gracePeriod time.Duration) CheckInCycle {
	return CheckInCycle{
		Day:      day,
		Start:    day.At(loc, 0, 0),
		Deadline: day.At(loc, checkInTime.Hour, checkInTime.Minute).Add(gracePeriod),
	}
}

// LocalDate is the calendar date of asOf in loc
func LocalDate(loc *time.Location, asOf time.Time) Date {
	return DateOf(asOf.In(loc))
}

func StartOfLocalDay(loc *time.Location, asOf time.Time) time.Time {
	return LocalDate(loc, asOf).At(loc, 0, 0)
}

// ComputeDeadline returns the deadline of the local day containing asOf
func ComputeDeadline(loc *time.Location, checkInTime TimeOfDay, gracePeriod time.Duration, asOf time.Time) time.Time {
	return CycleFor(LocalDate(loc, asOf), loc, checkInTime, gracePeriod).Deadline
}

// DueCycle returns the cycle whose deadline has passed at asOf, if any.
//
// Normally this is today's cycle. When the grace period carries yesterday's
// deadline past midnight, yesterday's cycle is due from that deadline until
// today's deadline passes.
//
// gracePeriod must be shorter than a day, see ValidateGracePeriod.
func DueCycle(loc *time.Location, checkInTime TimeOfDay, gracePeriod time.Duration, asOf time.Time) (CheckInCycle, bool) {
	today := CycleFor(LocalDate(loc, asOf), loc, checkInTime, gracePeriod)
	if !asOf.Before(today.Deadline) {
		return today, true
	}

	yesterday := CycleFor(today.Day.AddDays(-1), loc, checkInTime, gracePeriod)
	if yesterday.Deadline.After(today.Start) && !asOf.Before(yesterday.Deadline) {
		return yesterday, true
	}

	return today, false
}
