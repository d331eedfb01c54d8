package model

import (
	"fmt"
	"strings"
	"time"
)

// MaxScheduledMeals is the per-day meal limit of the weekly schedule.
const MaxScheduledMeals = 5

// Weekdays lists the canonical day names, Sunday first, matching time.Weekday.
var Weekdays = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// WeekdayName returns the canonical day name of t in its own location.
func WeekdayName(t time.Time) string {
	return Weekdays[t.Weekday()]
}

// CanonicalWeekday accepts a full or three-letter day name in any case.
func CanonicalWeekday(name string) (string, bool) {
	n := strings.TrimSpace(name)
	for _, day := range Weekdays {
		if strings.EqualFold(n, day) || strings.EqualFold(n, day[:3]) {
			return day, true
		}
	}
	return "", false
}

// CanonicalWeekdays canonicalises a list of day names, rejecting unknown ones.
func CanonicalWeekdays(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		day, ok := CanonicalWeekday(name)
		if !ok {
			return nil, NewValidationError(ErrCodeInvalidField, fmt.Sprintf("unknown weekday %q", name))
		}
		out = append(out, day)
	}
	return out, nil
}

// ScheduleDay is the operator-curated menu for one weekday.
type ScheduleDay struct {
	Day       string    `json:"day" db:"day"`
	Meals     []string  `json:"meals" db:"meals"`
	SnackID   *string   `json:"snackId,omitempty" db:"snack_id"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ScheduleInput is the upsert payload for a schedule day.
type ScheduleInput struct {
	Day     string   `json:"day"`
	Meals   []string `json:"meals"`
	SnackID *string  `json:"snackId,omitempty"`
}

// Validate checks the payload and returns the canonical day name.
func (in ScheduleInput) Validate() (string, error) {
	day, ok := CanonicalWeekday(in.Day)
	if !ok {
		return "", NewValidationError(ErrCodeInvalidField, "day must be a weekday name")
	}
	if in.Meals == nil {
		return "", NewValidationError(ErrCodeMissingField, "meals is required")
	}
	if len(in.Meals) > MaxScheduledMeals {
		return "", NewValidationError(ErrCodeInvalidField, fmt.Sprintf("a day holds at most %d meals", MaxScheduledMeals))
	}
	return day, nil
}
