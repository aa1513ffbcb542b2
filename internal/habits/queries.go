package habits

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/julianstephens/habits/internal/errors"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/stats"
)

// Habits returns a copy of the collection in insertion order.
func (m *Manager) Habits() []models.Habit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

func (m *Manager) Habit(id string) (models.Habit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.index(id); i >= 0 {
		return m.habits[i].Clone(), true
	}
	return models.Habit{}, false
}

func (m *Manager) Profile() models.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

// Find resolves ref as an exact id, an id prefix, an exact name (case-insensitive)
// or a unique name prefix, in that order.
func (m *Manager) Find(ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Habit{}, apperrors.ErrHabitNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.index(ref); i >= 0 {
		return m.habits[i].Clone(), nil
	}

	matchers := []func(h models.Habit) bool{
		func(h models.Habit) bool { return strings.HasPrefix(h.ID, ref) },
		func(h models.Habit) bool { return strings.EqualFold(h.Name, ref) },
		func(h models.Habit) bool { return strings.HasPrefix(strings.ToLower(h.Name), strings.ToLower(ref)) },
	}
	for _, match := range matchers {
		var found []models.Habit
		for _, h := range m.habits {
			if match(h) {
				found = append(found, h)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0].Clone(), nil
		default:
			return models.Habit{}, fmt.Errorf("%w: %q matches %d habits", apperrors.ErrAmbiguousHabit, ref, len(found))
		}
	}
	return models.Habit{}, fmt.Errorf("%w: %q", apperrors.ErrHabitNotFound, ref)
}

func (m *Manager) TotalHabitsCompleted() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats.TotalCompletions(m.habits)
}

func (m *Manager) AverageCompletionRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats.AverageCompletionRate(m.habits, m.clock.Now())
}

func (m *Manager) LongestStreak() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats.LongestStreak(m.habits)
}

func (m *Manager) CompletedTodayCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats.CompletedToday(m.habits, m.clock.Now())
}

func (m *Manager) DueTodayCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats.DueToday(m.habits, m.clock.Now())
}

// HasCompletedAllDailyGoals is false when nothing is due today.
func (m *Manager) HasCompletedAllDailyGoals() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats.AllDailyGoalsMet(m.habits, m.clock.Now())
}

// Summary computes every aggregate against the same instant.
func (m *Manager) Summary() stats.Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats.Summarize(m.habits, m.clock.Now())
}

// WeeklyHistogram counts completions for each of the last seven days, oldest first.
func (m *Manager) WeeklyHistogram() []stats.Day {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats.WeeklyHistogram(m.habits, m.clock.Now())
}

// Now is the manager's current instant.
func (m *Manager) Now() time.Time {
	return m.clock.Now()
}
