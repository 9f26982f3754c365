package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ParseDayTimeSeconds parses a schedule time of day in "HH:MM" or "HH:MM:SS" form
// into seconds past midnight. Hours may exceed 24 for stops past midnight on a
// service day.
func ParseDayTimeSeconds(dayTime string) (int, error) {
	parts := strings.Split(strings.TrimSpace(dayTime), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid schedule time %q", dayTime)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid hours in schedule time %q", dayTime)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minutes in schedule time %q", dayTime)
	}
	seconds := 0
	if len(parts) == 3 {
		seconds, err = strconv.Atoi(parts[2])
		if err != nil || seconds < 0 || seconds > 59 {
			return 0, fmt.Errorf("invalid seconds in schedule time %q", dayTime)
		}
	}
	return hours*3600 + minutes*60 + seconds, nil
}

// ParseDayTimeMinutes parses a schedule time of day into whole minutes past midnight,
// discarding seconds.
func ParseDayTimeMinutes(dayTime string) (int, error) {
	seconds, err := ParseDayTimeSeconds(dayTime)
	if err != nil {
		return 0, err
	}
	return seconds / 60, nil
}

// FormatHHMM renders minutes past midnight as "HH:MM", wrapping at 24 hours.
func FormatHHMM(minutes int) string {
	minutes = minutes % minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TrimToHHMM reduces a "HH:MM:SS" time of day to "HH:MM". Times past 24 hours are
// wrapped back into the day so they can be displayed.
func TrimToHHMM(dayTime string) string {
	minutes, err := ParseDayTimeMinutes(dayTime)
	if err != nil {
		return dayTime
	}
	return FormatHHMM(minutes)
}

// AddMinutes applies a signed minute delta to a time of day, wrapping at 24 hours,
// and returns the result as "HH:MM".
func AddMinutes(dayTime string, delta int) (string, error) {
	minutes, err := ParseDayTimeMinutes(dayTime)
	if err != nil {
		return "", err
	}
	return FormatHHMM(minutes + delta), nil
}

// NormalizeDelayMinutes folds a delay in minutes into the interval (-720, 720].
// A delay computed across midnight from raw minute-of-day values can be off by a
// whole day, for example 23:55 scheduled against an 00:05 update.
func NormalizeDelayMinutes(delay int) int {
	for delay > minutesPerDay/2 {
		delay -= minutesPerDay
	}
	for delay <= -minutesPerDay/2 {
		delay += minutesPerDay
	}
	return delay
}

// DayTimeDistanceMinutes returns the absolute difference in minutes between two
// times of day, or -1 when either cannot be parsed.
func DayTimeDistanceMinutes(a string, b string) int {
	aMinutes, err := ParseDayTimeMinutes(a)
	if err != nil {
		return -1
	}
	bMinutes, err := ParseDayTimeMinutes(b)
	if err != nil {
		return -1
	}
	distance := aMinutes - bMinutes
	if distance < 0 {
		distance = -distance
	}
	return distance
}
