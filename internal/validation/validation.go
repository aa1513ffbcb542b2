package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/stats"
	"github.com/julianstephens/habits/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictEmptyName        ConflictType = "empty_name"
	ConflictInvalidTarget    ConflictType = "invalid_target"
	ConflictNoDaysSelected   ConflictType = "no_days_selected"
	ConflictInvalidColor     ConflictType = "invalid_color"
	ConflictDuplicateName    ConflictType = "duplicate_habit_name"
	ConflictNegativeStreak   ConflictType = "negative_streak"
	ConflictStreakDrift      ConflictType = "streak_drift"
	ConflictFutureCompletion ConflictType = "future_completion"
	ConflictInvalidReminder  ConflictType = "invalid_reminder"
)

// Conflict represents a problem found in a habit or in the collection
type Conflict struct {
	Type        ConflictType
	Description string
	HabitIDs    []string
	Items       []string // Habit names involved
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

// Validator checks habit drafts before they reach the store and audits stored collections.
type Validator struct{}

// New creates a new validator
func New() *Validator {
	return &Validator{}
}

// ValidateDraft rejects input the store would otherwise accept silently.
func (v *Validator) ValidateDraft(d models.HabitDraft) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("habit name cannot be empty")
	}
	if d.Target < constants.MinTarget || d.Target > constants.MaxTarget {
		return fmt.Errorf("target must be between %d and %d days per week, got %d", constants.MinTarget, constants.MaxTarget, d.Target)
	}
	if !d.IsAllDays && d.SelectedDays.Empty() {
		return fmt.Errorf("select at least one weekday or mark the habit as every day")
	}
	if !d.Color.Valid() {
		return fmt.Errorf("color channels must be between 0 and 1")
	}
	for _, r := range d.Reminders {
		if r.ID == "" {
			return fmt.Errorf("reminder at %s has no id", r.Clock())
		}
	}
	return nil
}

// ValidateHabits audits a stored collection. It never modifies the habits.
func (v *Validator) ValidateHabits(habits []models.Habit, now time.Time) ValidationResult {
	var result ValidationResult
	today := utils.DayKey(now)

	byName := make(map[string][]models.Habit)
	for _, h := range habits {
		key := strings.ToLower(strings.TrimSpace(h.Name))
		byName[key] = append(byName[key], h)

		if key == "" {
			result.add(ConflictEmptyName, h, "Habit %s has an empty name", h.ID)
		}
		if h.Target < constants.MinTarget || h.Target > constants.MaxTarget {
			result.add(ConflictInvalidTarget, h, "Habit %q has target %d outside 1-7", h.Name, h.Target)
		}
		if !h.IsAllDays && h.SelectedDays.Empty() {
			result.add(ConflictNoDaysSelected, h, "Habit %q is never scheduled", h.Name)
		}
		if !h.Color.Valid() {
			result.add(ConflictInvalidColor, h, "Habit %q has an invalid color", h.Name)
		}
		if h.Streak < 0 {
			result.add(ConflictNegativeStreak, h, "Habit %q has negative streak %d", h.Name, h.Streak)
		}
		if derived := stats.DerivedStreak(h, now); h.Streak >= 0 && derived != h.Streak {
			result.add(ConflictStreakDrift, h, "Habit %q streak is %d but completions show %d", h.Name, h.Streak, derived)
		}
		for _, key := range h.CompletedDates.Sorted() {
			if key > today {
				result.add(ConflictFutureCompletion, h, "Habit %q is completed on future day %s", h.Name, key)
				break
			}
		}
		seen := make(map[string]bool)
		for _, r := range h.Reminders {
			if r.ID == "" || seen[r.ID] {
				result.add(ConflictInvalidReminder, h, "Habit %q has a reminder with a missing or duplicate id", h.Name)
				break
			}
			seen[r.ID] = true
		}
	}

	for _, group := range byName {
		if len(group) < 2 || strings.TrimSpace(group[0].Name) == "" {
			continue
		}
		c := Conflict{
			Type:        ConflictDuplicateName,
			Description: fmt.Sprintf("%d habits are named %q", len(group), group[0].Name),
		}
		for _, h := range group {
			c.HabitIDs = append(c.HabitIDs, h.ID)
			c.Items = append(c.Items, h.Name)
		}
		result.Conflicts = append(result.Conflicts, c)
	}

	return result
}

func (vr *ValidationResult) add(t ConflictType, h models.Habit, format string, args ...interface{}) {
	vr.Conflicts = append(vr.Conflicts, Conflict{
		Type:        t,
		Description: fmt.Sprintf(format, args...),
		HabitIDs:    []string{h.ID},
		Items:       []string{h.Name},
	})
}
