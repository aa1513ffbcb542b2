package models

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/utils"
)

// completionWindowDays is the trailing window used for the weekly completion rate.
const completionWindowDays = 7

// Habit is a recurring activity tracked day by day.
type Habit struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Icon           string     `json:"icon"`
	Color          Color      `json:"color"`
	Streak         int        `json:"streak"`
	CompletedDates DaySet     `json:"completedDates"`
	Target         int        `json:"target"` // days per week
	CreatedDate    time.Time  `json:"createdDate"`
	SelectedDays   WeekdaySet `json:"selectedDays"`
	Reminders      []Reminder `json:"reminders"`
	IsAllDays      bool       `json:"isAllDays"`
}

// NewHabit returns a habit with a fresh id, no completions and a zero streak.
// The target is clamped to 1-7 and selected days are dropped for all-days habits.
func NewHabit(name, icon string, color Color, target int, createdAt time.Time) Habit {
	return Habit{
		ID:             uuid.New().String(),
		Name:           name,
		Icon:           icon,
		Color:          color,
		CompletedDates: DaySet{},
		Target:         ClampTarget(target),
		CreatedDate:    createdAt,
		IsAllDays:      true,
	}
}

// ClampTarget bounds a weekly target to 1-7 days.
func ClampTarget(target int) int {
	if target < constants.MinTarget {
		return constants.MinTarget
	}
	if target > constants.MaxTarget {
		return constants.MaxTarget
	}
	return target
}

// CompletionRate is the share of the weekly target met over the 7 days ending on now,
// capped at 1. A zero target yields 0.
func (h *Habit) CompletionRate(now time.Time) float64 {
	if h.Target <= 0 {
		return 0
	}
	done := 0
	for _, key := range utils.LastNDays(now, completionWindowDays) {
		if h.CompletedDates.Has(key) {
			done++
		}
	}
	return math.Min(float64(done)/float64(h.Target), 1.0)
}

// TotalCompletions is the number of distinct days the habit was completed.
func (h *Habit) TotalCompletions() int {
	return len(h.CompletedDates)
}

// DaysActive counts whole days elapsed since creation, inclusive of the first day.
func (h *Habit) DaysActive(now time.Time) int {
	elapsed := int(now.Sub(h.CreatedDate) / (24 * time.Hour))
	if elapsed+1 < 1 {
		return 1
	}
	return elapsed + 1
}

// DayNames returns the names of the selected weekdays in Sunday-first order.
func (h *Habit) DayNames() []string {
	return h.SelectedDays.Names()
}

// ShouldBeDoneOn reports whether the habit is scheduled on the weekday of t.
func (h *Habit) ShouldBeDoneOn(t time.Time) bool {
	if h.IsAllDays {
		return true
	}
	return h.SelectedDays.Has(utils.Weekday(t))
}

// ShouldBeDoneToday is ShouldBeDoneOn for the current instant.
func (h *Habit) ShouldBeDoneToday(now time.Time) bool {
	return h.ShouldBeDoneOn(now)
}

// CompletedOn reports whether the habit was completed on the local day of t.
func (h *Habit) CompletedOn(t time.Time) bool {
	return h.CompletedDates.Has(utils.DayKey(t))
}

// EnabledReminders returns the reminders that should be scheduled.
func (h *Habit) EnabledReminders() []Reminder {
	out := make([]Reminder, 0, len(h.Reminders))
	for _, r := range h.Reminders {
		if r.IsEnabled {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy safe to hand out of the store.
func (h Habit) Clone() Habit {
	h.CompletedDates = h.CompletedDates.Clone()
	if h.Reminders != nil {
		h.Reminders = append([]Reminder(nil), h.Reminders...)
	}
	return h
}

// HabitDraft carries the user-editable fields of a habit for add and edit commands.
type HabitDraft struct {
	Name         string
	Icon         string
	Color        Color
	Target       int
	IsAllDays    bool
	SelectedDays WeekdaySet
	Reminders    []Reminder
}

// Draft extracts the editable fields of h.
func (h *Habit) Draft() HabitDraft {
	return HabitDraft{
		Name:         h.Name,
		Icon:         h.Icon,
		Color:        h.Color,
		Target:       h.Target,
		IsAllDays:    h.IsAllDays,
		SelectedDays: h.SelectedDays,
		Reminders:    append([]Reminder(nil), h.Reminders...),
	}
}

// Apply copies the draft onto h. Selected days are cleared for all-days habits
// and disabled reminders are dropped.
func (h *Habit) Apply(d HabitDraft) {
	h.Name = d.Name
	h.Icon = d.Icon
	h.Color = d.Color
	h.Target = ClampTarget(d.Target)
	h.IsAllDays = d.IsAllDays
	h.SelectedDays = d.SelectedDays
	if d.IsAllDays {
		h.SelectedDays = 0
	}
	h.Reminders = nil
	for _, r := range d.Reminders {
		if r.IsEnabled {
			h.Reminders = append(h.Reminders, r)
		}
	}
}
