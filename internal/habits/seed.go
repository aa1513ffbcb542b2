package habits

import (
	"time"

	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/utils"
)

// SampleHabits returns the demonstration collection, with completions ending on now's day.
func SampleHabits(now time.Time) []models.Habit {
	sample := func(name, icon, color string, streak, target int) models.Habit {
		h := models.NewHabit(name, icon, models.Palette[color], target, now)
		h.Streak = streak
		h.CompletedDates = models.NewDaySet(utils.LastNDays(now, streak)...)
		return h
	}

	ler := sample("Ler", "book.fill", "orange", 7, 6)
	ler.IsAllDays = false
	ler.SelectedDays = models.NewWeekdaySet(2, 3, 4, 5, 6, 7)

	return []models.Habit{
		sample("Exercitar", "figure.run", "blue", 5, 5),
		sample("Meditar", "leaf.fill", "green", 3, 7),
		ler,
		sample("Água", "drop.fill", "cyan", 10, 7),
	}
}
