package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habits/internal/constants"
)

// Reminder is a daily notification for a habit. Only the hour and minute of Time matter.
// They are read from the UTC form of Time and fire at that wall-clock time in the user's zone.
type Reminder struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	IsEnabled bool      `json:"isEnabled"`
	Message   string    `json:"message"`
}

// NewReminder creates an enabled reminder at hour:minute.
func NewReminder(hour, minute int, message string) Reminder {
	return Reminder{
		ID:        uuid.New().String(),
		Time:      reminderTime(hour, minute),
		IsEnabled: true,
		Message:   message,
	}
}

// reminderTime anchors a wall-clock time on a fixed UTC date so it survives serialization unchanged.
func reminderTime(hour, minute int) time.Time {
	return time.Date(2000, 1, 1, hour, minute, 0, 0, time.UTC)
}

// At returns a copy of r firing at hour:minute.
func (r Reminder) At(hour, minute int) Reminder {
	r.Time = reminderTime(hour, minute)
	return r
}

// HourMinute returns the wall-clock time the reminder fires at.
func (r Reminder) HourMinute() (int, int) {
	t := r.Time.UTC()
	return t.Hour(), t.Minute()
}

// Clock returns the reminder time as HH:MM.
func (r Reminder) Clock() string {
	return r.Time.UTC().Format(constants.TimeFormat)
}

// Body returns the notification text, falling back to a generated one.
func (r Reminder) Body(habitName string) string {
	if r.Message != "" {
		return r.Message
	}
	return fmt.Sprintf(constants.ReminderMessageFormat, habitName)
}

// Identifier is the stable scheduling key for a habit reminder.
func (r Reminder) Identifier(habitID string) string {
	return ReminderIdentifier(habitID, r.ID)
}

// ReminderIdentifier formats the scheduling key habit-<habitID>-<reminderID>.
func ReminderIdentifier(habitID, reminderID string) string {
	return constants.ReminderIDPrefix + habitID + "-" + reminderID
}
