package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/habits/internal/constants"
)

// Clock supplies the current instant. Everything that depends on "today"
// takes a Clock so tests can pin the date.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock returns a clock for the named IANA timezone ("" or "Local" for the system zone).
func NewSystemClock(timezone string) (SystemClock, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return SystemClock{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return SystemClock{Location: loc}, nil
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// DayKey returns the local calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// ParseDayKey parses a YYYY-MM-DD key into midnight of that day in loc.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// IsDayKey reports whether s is a well-formed day key.
func IsDayKey(s string) bool {
	_, err := time.Parse(constants.DateFormat, s)
	return err == nil
}

// LastNDays returns the day keys for now and the n-1 days before it, newest first.
// Days are stepped by calendar date so DST transitions never skip or repeat a key.
func LastNDays(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	keys := make([]string, 0, n)
	for offset := 0; offset < n; offset++ {
		keys = append(keys, DayKey(now.AddDate(0, 0, -offset)))
	}
	return keys
}

// Weekday returns the weekday of t numbered 1 (Sunday) through 7 (Saturday).
func Weekday(t time.Time) int {
	return int(t.Weekday()) + 1
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// ParseClockTime parses an HH:MM time of day and returns hour and minute.
func ParseClockTime(s string) (hour, minute int, err error) {
	t, err := time.Parse(constants.TimeFormat, s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// TimeOfDay builds a time on the zero date carrying only hour and minute.
func TimeOfDay(hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(0, 1, 1, hour, minute, 0, 0, loc)
}

// NextOccurrence returns the first instant strictly after now whose wall clock
// reads hour:minute in now's location.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	return next
}
