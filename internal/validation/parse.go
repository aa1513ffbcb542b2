package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/utils"
)

var weekdayAliases = map[string]int{
	"domingo": 1, "dom": 1, "sunday": 1, "sun": 1,
	"segunda": 2, "seg": 2, "monday": 2, "mon": 2,
	"terça": 3, "terca": 3, "ter": 3, "tuesday": 3, "tue": 3,
	"quarta": 4, "qua": 4, "wednesday": 4, "wed": 4,
	"quinta": 5, "qui": 5, "thursday": 5, "thu": 5,
	"sexta": 6, "sex": 6, "friday": 6, "fri": 6,
	"sábado": 7, "sabado": 7, "sáb": 7, "sab": 7, "saturday": 7, "sat": 7,
}

// ParseWeekdays parses a comma-separated list of weekday numbers (1=Sunday)
// or Portuguese/English names, e.g. "seg,qua,6".
func ParseWeekdays(s string) (models.WeekdaySet, error) {
	var set models.WeekdaySet
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			if n < 1 || n > 7 {
				return 0, fmt.Errorf("weekday %d out of range 1-7 (1=Sunday)", n)
			}
			set = set.With(n)
			continue
		}
		d, ok := weekdayAliases[part]
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", part)
		}
		set = set.With(d)
	}
	if set.Empty() {
		return 0, fmt.Errorf("no weekdays given")
	}
	return set, nil
}

// ParseColor accepts a palette name or "r,g,b[,a]" with channels in [0,1].
func ParseColor(s string) (models.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := models.Palette[s]; ok {
		return c, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return models.Color{}, fmt.Errorf("unknown color %q (use a palette name or r,g,b[,a])", s)
	}
	vals := []float64{0, 0, 0, 1}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return models.Color{}, fmt.Errorf("invalid color channel %q: %w", p, err)
		}
		vals[i] = v
	}
	c := models.Color{Red: vals[0], Green: vals[1], Blue: vals[2], Alpha: vals[3]}
	if !c.Valid() {
		return models.Color{}, fmt.Errorf("color channels must be between 0 and 1")
	}
	return c, nil
}

// ParseReminder parses "HH:MM" or "HH:MM=message" into an enabled reminder.
func ParseReminder(s string) (models.Reminder, error) {
	clock, message, _ := strings.Cut(s, "=")
	hour, minute, err := utils.ParseClockTime(strings.TrimSpace(clock))
	if err != nil {
		return models.Reminder{}, err
	}
	return models.NewReminder(hour, minute, strings.TrimSpace(message)), nil
}
