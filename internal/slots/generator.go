// Package slots generates discrete appointment slots from availability
// windows. Times are wall-clock strings ("HH:MM"), dates are not
// involved: a window on a given date produces the same slots as the
// same window on any other date.
package slots

import (
	"fmt"
	"time"
)

// DefaultDuration is the standard appointment length.
const DefaultDuration = 30 * time.Minute

const clockLayout = "15:04"

// Generate returns the slot start times for the window [start, end)
// using the default 30 minute duration.
func Generate(start, end string) ([]string, error) {
	return GenerateWithDuration(start, end, DefaultDuration)
}

// GenerateWithDuration returns the slot start times for [start, end)
// stepping by the given duration. A slot is emitted whenever its start
// falls strictly before the window end, so a trailing partial interval
// still yields a slot (a 09:00-10:15 window with 30 minute steps gives
// 09:00, 09:30, 10:00).
func GenerateWithDuration(start, end string, duration time.Duration) ([]string, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %v", duration)
	}

	startTime, err := time.Parse(clockLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q: %w", start, err)
	}

	endTime, err := time.Parse(clockLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end time %q: %w", end, err)
	}

	if !endTime.After(startTime) {
		return []string{}, nil
	}

	var result []string
	for cur := startTime; cur.Before(endTime); cur = cur.Add(duration) {
		result = append(result, cur.Format(clockLayout))
	}

	return result, nil
}

// Contains reports whether slot is one of the generated slot starts
// for the window [start, end) with the given duration.
func Contains(start, end, slot string, duration time.Duration) (bool, error) {
	generated, err := GenerateWithDuration(start, end, duration)
	if err != nil {
		return false, err
	}

	for _, s := range generated {
		if s == slot {
			return true, nil
		}
	}
	return false, nil
}
