package config

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Calendar answers whether the center takes bookings on a calendar date,
// driven by the operatingSchedule rrule. A nil Calendar allows every date.
type Calendar struct {
	rule *rrule.RRule
}

// Calendar builds the operating calendar from the config. Returns nil when no
// schedule is configured.
func (c *Config) Calendar() (*Calendar, error) {
	if c.OperatingSchedule == "" {
		return nil, nil
	}

	rule, err := rrule.StrToRRule(c.OperatingSchedule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule in operatingSchedule: %w", err)
	}

	// Anchor the rule well before any bookable date so occurrence checks
	// work for the whole calendar, not just dates after process start.
	rule.DTStart(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))

	return &Calendar{rule: rule}, nil
}

// Allows reports whether the date has an occurrence in the operating
// schedule. Unparsable dates are disallowed.
func (cal *Calendar) Allows(date string) bool {
	if cal == nil {
		return true
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}

	occurrences := cal.rule.Between(day, day.Add(24*time.Hour-time.Second), true)
	return len(occurrences) > 0
}
