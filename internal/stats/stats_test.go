package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/utils"
)

// now is Friday 2025-07-11.
var now = time.Date(2025, 7, 11, 18, 0, 0, 0, time.UTC)

func habit(name string, target int, daysAgo ...int) models.Habit {
	h := models.NewHabit(name, "star.fill", models.Palette["blue"], target, now.AddDate(0, 0, -30))
	for _, d := range daysAgo {
		h.CompletedDates.Add(utils.DayKey(now.AddDate(0, 0, -d)))
	}
	h.Streak = len(daysAgo)
	return h
}

func TestWeekDays(t *testing.T) {
	days := WeekDays(now)
	require.Len(t, days, 7)
	assert.Equal(t, "2025-07-05", days[0])
	assert.Equal(t, "2025-07-11", days[6])
}

func TestWeeklyGrid(t *testing.T) {
	h := habit("Meditar", 7, 0, 2, 6, 9)
	assert.Equal(t, []bool{true, false, false, false, true, false, true}, WeeklyGrid(h, now))
}

func TestWeeklyHistogram(t *testing.T) {
	habits := []models.Habit{
		habit("Exercitar", 5, 0, 1),
		habit("Meditar", 7, 0),
		habit("Ler", 6, 6, 10),
	}

	hist := WeeklyHistogram(habits, now)
	require.Len(t, hist, 7)

	assert.Equal(t, Day{Key: "2025-07-05", Label: "Sáb", Completed: 1}, hist[0])
	assert.Equal(t, 1, hist[5].Completed)
	assert.Equal(t, Day{Key: "2025-07-11", Label: "Sex", Completed: 2}, hist[6])

	total := 0
	for _, d := range hist {
		total += d.Completed
	}
	assert.Equal(t, 4, total, "completions outside the window are not counted")
}

func TestSummarize(t *testing.T) {
	ler := habit("Ler", 6, 0, 1, 2)
	ler.IsAllDays = false
	ler.SelectedDays = models.NewWeekdaySet(2, 3, 4, 5, 6, 7)

	habits := []models.Habit{
		habit("Exercitar", 5, 0, 1, 2, 3, 4),
		habit("Meditar", 7, 1, 2, 3),
		ler,
	}

	s := Summarize(habits, now)
	assert.Equal(t, 3, s.TotalHabits)
	assert.Equal(t, 2, s.CompletedToday)
	assert.Equal(t, 3, s.DueToday)
	assert.Equal(t, 11, s.TotalCompletions)
	assert.Equal(t, 5, s.LongestStreak)
	assert.Equal(t, 66, s.TodayPercent)
	assert.False(t, s.AllDailyGoalsMet)
	assert.InDelta(t, (1.0+3.0/7.0+3.0/6.0)/3.0, s.AverageCompletionRate, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, now)
	assert.Equal(t, Summary{}, s)
}

func TestAllDailyGoalsMet(t *testing.T) {
	sundayOnly := habit("Ler", 1)
	sundayOnly.IsAllDays = false
	sundayOnly.SelectedDays = models.NewWeekdaySet(1)

	t.Run("nothing due is not complete", func(t *testing.T) {
		assert.False(t, AllDailyGoalsMet([]models.Habit{sundayOnly}, now))
	})

	t.Run("every due habit done", func(t *testing.T) {
		habits := []models.Habit{habit("Água", 7, 0), habit("Meditar", 7, 0), sundayOnly}
		assert.True(t, AllDailyGoalsMet(habits, now))
	})

	t.Run("one due habit open", func(t *testing.T) {
		habits := []models.Habit{habit("Água", 7, 0), habit("Meditar", 7, 1)}
		assert.False(t, AllDailyGoalsMet(habits, now))
	})
}

func TestDerivedStreak(t *testing.T) {
	t.Run("run ending today", func(t *testing.T) {
		assert.Equal(t, 3, DerivedStreak(habit("Água", 7, 0, 1, 2, 4), now))
	})

	t.Run("today still open keeps yesterday's run", func(t *testing.T) {
		assert.Equal(t, 2, DerivedStreak(habit("Água", 7, 1, 2, 5), now))
	})

	t.Run("unscheduled days are skipped", func(t *testing.T) {
		// Monday to Friday habit completed Mon-Fri this week and Friday last week.
		h := habit("Ler", 5, 0, 1, 2, 3, 4, 7)
		h.IsAllDays = false
		h.SelectedDays = models.NewWeekdaySet(2, 3, 4, 5, 6)
		assert.Equal(t, 6, DerivedStreak(h, now))
	})

	t.Run("no completions", func(t *testing.T) {
		assert.Equal(t, 0, DerivedStreak(habit("Meditar", 7), now))
	})
}
