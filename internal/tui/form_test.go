package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habits/internal/models"
)

func TestHabitFormDraft(t *testing.T) {
	f := &habitForm{
		Name:     "  Ler ",
		Icon:     "book.fill",
		Color:    "orange",
		Target:   "5",
		Days:     []int{2, 3, 4},
		Reminder: "21:30",
	}

	d, err := f.draft()
	require.NoError(t, err)
	assert.Equal(t, "Ler", d.Name)
	assert.Equal(t, "book.fill", d.Icon)
	assert.Equal(t, models.Palette["orange"], d.Color)
	assert.Equal(t, 5, d.Target)
	assert.False(t, d.IsAllDays)
	assert.Equal(t, models.NewWeekdaySet(2, 3, 4), d.SelectedDays)
	require.Len(t, d.Reminders, 1)
	assert.Equal(t, "21:30", d.Reminders[0].Clock())
}

func TestHabitFormDefaultsToEveryDay(t *testing.T) {
	f := newHabitForm()
	f.Name = "Água"

	d, err := f.draft()
	require.NoError(t, err)
	assert.True(t, d.IsAllDays)
	assert.True(t, d.SelectedDays.Empty())
	assert.Equal(t, 7, d.Target)
	assert.Empty(t, d.Reminders)
}

func TestHabitFormAllSevenDaysIsEveryDay(t *testing.T) {
	f := newHabitForm()
	f.Name = "Água"
	f.AllDays = false
	f.Days = []int{1, 2, 3, 4, 5, 6, 7}

	d, err := f.draft()
	require.NoError(t, err)
	assert.True(t, d.IsAllDays)
	assert.True(t, d.SelectedDays.Empty())
}

func TestHabitFormRejectsBadInput(t *testing.T) {
	f := newHabitForm()
	f.Name = "Água"
	f.Target = "9"
	_, err := f.draft()
	assert.Error(t, err)

	f.Target = "x"
	_, err = f.draft()
	assert.Error(t, err)

	f.Target = "3"
	f.Reminder = "25:99"
	_, err = f.draft()
	assert.Error(t, err)
}

func TestValidateTarget(t *testing.T) {
	assert.NoError(t, validateTarget("1"))
	assert.NoError(t, validateTarget(" 7 "))
	assert.Error(t, validateTarget("0"))
	assert.Error(t, validateTarget("seven"))
}
