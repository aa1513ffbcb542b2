// Package stats computes read-only aggregates over a snapshot of habits.
package stats

import (
	"time"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/utils"
)

// WindowDays is the length of the weekly grid and histogram.
const WindowDays = 7

// Day is one bucket of the weekly histogram.
type Day struct {
	Key       string `json:"day"`
	Label     string `json:"label"`
	Completed int    `json:"completed"`
}

// Summary aggregates the headline numbers shown on the statistics screen.
type Summary struct {
	TotalHabits           int     `json:"totalHabits"`
	CompletedToday        int     `json:"completedToday"`
	DueToday              int     `json:"dueToday"`
	TotalCompletions      int     `json:"totalCompletions"`
	AverageCompletionRate float64 `json:"averageCompletionRate"`
	LongestStreak         int     `json:"longestStreak"`
	TodayPercent          int     `json:"todayPercent"`
	AllDailyGoalsMet      bool    `json:"allDailyGoalsMet"`
}

// WeekDays returns the last seven day keys ending on now, oldest first.
func WeekDays(now time.Time) []string {
	keys := utils.LastNDays(now, WindowDays)
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}

// WeeklyGrid reports, oldest first, whether h was completed on each of the last seven days.
func WeeklyGrid(h models.Habit, now time.Time) []bool {
	days := WeekDays(now)
	grid := make([]bool, len(days))
	for i, key := range days {
		grid[i] = h.CompletedDates.Has(key)
	}
	return grid
}

// WeeklyHistogram counts, per day over the last seven days, how many habits were completed.
func WeeklyHistogram(habits []models.Habit, now time.Time) []Day {
	out := make([]Day, 0, WindowDays)
	for offset := WindowDays - 1; offset >= 0; offset-- {
		date := now.AddDate(0, 0, -offset)
		key := utils.DayKey(date)
		count := 0
		for i := range habits {
			if habits[i].CompletedDates.Has(key) {
				count++
			}
		}
		out = append(out, Day{
			Key:       key,
			Label:     constants.WeekdayShortNames[date.Weekday()],
			Completed: count,
		})
	}
	return out
}

// TotalCompletions sums completed days across all habits.
func TotalCompletions(habits []models.Habit) int {
	total := 0
	for i := range habits {
		total += habits[i].TotalCompletions()
	}
	return total
}

// AverageCompletionRate is the mean weekly completion rate, 0 for an empty collection.
func AverageCompletionRate(habits []models.Habit, now time.Time) float64 {
	if len(habits) == 0 {
		return 0
	}
	sum := 0.0
	for i := range habits {
		sum += habits[i].CompletionRate(now)
	}
	return sum / float64(len(habits))
}

// LongestStreak is the maximum streak counter, 0 for an empty collection.
func LongestStreak(habits []models.Habit) int {
	longest := 0
	for i := range habits {
		if habits[i].Streak > longest {
			longest = habits[i].Streak
		}
	}
	return longest
}

// CompletedToday counts habits completed on now's day, due or not.
func CompletedToday(habits []models.Habit, now time.Time) int {
	key := utils.DayKey(now)
	n := 0
	for i := range habits {
		if habits[i].CompletedDates.Has(key) {
			n++
		}
	}
	return n
}

// DueToday counts habits scheduled for now's weekday.
func DueToday(habits []models.Habit, now time.Time) int {
	n := 0
	for i := range habits {
		if habits[i].ShouldBeDoneToday(now) {
			n++
		}
	}
	return n
}

// AllDailyGoalsMet reports whether at least one habit is due today and every due habit is done.
func AllDailyGoalsMet(habits []models.Habit, now time.Time) bool {
	key := utils.DayKey(now)
	due := 0
	for i := range habits {
		if !habits[i].ShouldBeDoneToday(now) {
			continue
		}
		due++
		if !habits[i].CompletedDates.Has(key) {
			return false
		}
	}
	return due > 0
}

// Summarize computes every aggregate in one pass over the snapshot.
func Summarize(habits []models.Habit, now time.Time) Summary {
	s := Summary{
		TotalHabits:           len(habits),
		CompletedToday:        CompletedToday(habits, now),
		DueToday:              DueToday(habits, now),
		TotalCompletions:      TotalCompletions(habits),
		AverageCompletionRate: AverageCompletionRate(habits, now),
		LongestStreak:         LongestStreak(habits),
		AllDailyGoalsMet:      AllDailyGoalsMet(habits, now),
	}
	if s.TotalHabits > 0 {
		s.TodayPercent = s.CompletedToday * 100 / s.TotalHabits
	}
	return s
}

// DerivedStreak counts consecutive scheduled days ending today (or yesterday, when
// today is still open) on which h was completed. Unscheduled days neither break
// nor extend the run. It is the value the streak counter would hold if it never
// drifted from the completion record.
func DerivedStreak(h models.Habit, now time.Time) int {
	day := utils.StartOfDay(now)
	if !h.CompletedOn(day) {
		day = day.AddDate(0, 0, -1)
	}
	floor := utils.StartOfDay(h.CreatedDate).AddDate(0, 0, -1)
	if len(h.CompletedDates) > 0 {
		if first, err := utils.ParseDayKey(h.CompletedDates.Sorted()[0], now.Location()); err == nil && first.Before(floor) {
			floor = first
		}
	}

	run := 0
	for !day.Before(floor) {
		switch {
		case h.CompletedOn(day):
			run++
		case h.ShouldBeDoneOn(day):
			return run
		}
		day = day.AddDate(0, 0, -1)
	}
	return run
}
