package habits

import (
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/validation"
)

// applyDays sets the schedule from a weekday list. "" and "all" mean every day.
func applyDays(d *models.HabitDraft, days string) error {
	days = strings.TrimSpace(days)
	if days == "" || strings.EqualFold(days, "all") {
		d.IsAllDays = true
		d.SelectedDays = 0
		return nil
	}
	set, err := validation.ParseWeekdays(days)
	if err != nil {
		return err
	}
	d.IsAllDays = false
	d.SelectedDays = set
	return nil
}

func applyColor(d *models.HabitDraft, color string) error {
	c, err := validation.ParseColor(color)
	if err != nil {
		return err
	}
	d.Color = c
	return nil
}

func applyIcon(d *models.HabitDraft, icon string) error {
	if !slices.Contains(models.Icons, icon) {
		return fmt.Errorf("unknown icon %q (choose one of: %s)", icon, strings.Join(models.Icons, ", "))
	}
	d.Icon = icon
	return nil
}

func parseReminders(specs []string) ([]models.Reminder, error) {
	out := make([]models.Reminder, 0, len(specs))
	for _, s := range specs {
		r, err := validation.ParseReminder(s)
		if err != nil {
			return nil, fmt.Errorf("invalid reminder %q: %w", s, err)
		}
		out = append(out, r)
	}
	return out, nil
}
