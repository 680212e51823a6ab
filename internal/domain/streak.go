package domain

import "time"

// LocalDates maps instants to the distinct local calendar dates they fall on in loc
func LocalDates(loc *time.Location, instants []time.Time) []Date {
	seen := make(map[Date]struct{}, len(instants))
	dates := make([]Date, 0, len(instants))
	for _, instant := range instants {
		date := LocalDate(loc, instant)
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		dates = append(dates, date)
	}
	return dates
}

// ComputeStreak counts consecutive check-in days ending today.
//
// A streak that ended yesterday is still alive until today is over, so if there
// is no check-in today the count starts from yesterday instead.
// checkInDays and today must be in the same location.
func ComputeStreak(checkInDays []Date, today Date) int {
	checkedIn := make(map[Date]struct{}, len(checkInDays))
	for _, day := range checkInDays {
		checkedIn[day] = struct{}{}
	}
	has := func(day Date) bool {
		_, ok := checkedIn[day]
		return ok
	}

	day := today
	if !has(day) {
		day = today.AddDays(-1)
	}

	streak := 0
	for has(day) {
		streak++
		day = day.AddDays(-1)
	}
	return streak
}
