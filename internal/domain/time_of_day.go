package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a wall-clock time with minute precision
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS". Seconds must be zero.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("%w: time of day %q is not HH:MM", ErrConfiguration, s)
	}

	parse := func(part string, max int) (int, error) {
		if len(part) != 2 {
			return 0, fmt.Errorf("%w: time of day %q is not HH:MM", ErrConfiguration, s)
		}
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 || value > max {
			return 0, fmt.Errorf("%w: time of day %q is out of range", ErrConfiguration, s)
		}
		return value, nil
	}

	hour, err := parse(parts[0], 23)
	if err != nil {
		return TimeOfDay{}, err
	}
	minute, err := parse(parts[1], 59)
	if err != nil {
		return TimeOfDay{}, err
	}
	if len(parts) == 3 {
		seconds, err := parse(parts[2], 59)
		if err != nil {
			return TimeOfDay{}, err
		}
		if seconds != 0 {
			return TimeOfDay{}, fmt.Errorf("%w: time of day %q has seconds", ErrConfiguration, s)
		}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
