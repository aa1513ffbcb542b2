package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/validation"
)

// habitForm holds the values bound to the add-habit form fields.
type habitForm struct {
	Name     string
	Icon     string
	Color    string
	Target   string
	AllDays  bool
	Days     []int
	Reminder string
}

func newHabitForm() *habitForm {
	return &habitForm{
		Icon:    models.Icons[0],
		Color:   models.PaletteOrder[0],
		Target:  strconv.Itoa(constants.MaxTarget),
		AllDays: true,
	}
}

func (f *habitForm) build() *huh.Form {
	icons := make([]huh.Option[string], len(models.Icons))
	for i, icon := range models.Icons {
		icons[i] = huh.NewOption(models.Glyph(icon)+"  "+icon, icon)
	}
	colors := make([]huh.Option[string], len(models.PaletteOrder))
	for i, name := range models.PaletteOrder {
		colors[i] = huh.NewOption(name, name)
	}
	days := make([]huh.Option[int], len(constants.WeekdayNames))
	for i, name := range constants.WeekdayNames {
		days[i] = huh.NewOption(name, i+1)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&f.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Icon").
				Options(icons...).
				Value(&f.Icon),
			huh.NewSelect[string]().
				Title("Color").
				Options(colors...).
				Value(&f.Color),
			huh.NewInput().
				Title("Target (days per week)").
				Value(&f.Target).
				Validate(validateTarget),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Every day?").
				Value(&f.AllDays),
		),
		huh.NewGroup(
			huh.NewMultiSelect[int]().
				Title("Days").
				Options(days...).
				Value(&f.Days),
		).WithHideFunc(func() bool { return f.AllDays }),
		huh.NewGroup(
			huh.NewInput().
				Title("Reminder (HH:MM[=message], optional)").
				Value(&f.Reminder).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := validation.ParseReminder(s)
					return err
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

func validateTarget(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("target must be a number")
	}
	if n < constants.MinTarget || n > constants.MaxTarget {
		return fmt.Errorf("target must be between %d and %d", constants.MinTarget, constants.MaxTarget)
	}
	return nil
}

// draft converts the form values into a validated habit draft. Choosing no
// days or all seven is treated as every day.
func (f *habitForm) draft() (models.HabitDraft, error) {
	target, err := strconv.Atoi(strings.TrimSpace(f.Target))
	if err != nil {
		return models.HabitDraft{}, fmt.Errorf("invalid target %q", f.Target)
	}
	color, ok := models.Palette[f.Color]
	if !ok {
		return models.HabitDraft{}, fmt.Errorf("unknown color %q", f.Color)
	}

	d := models.HabitDraft{
		Name:      strings.TrimSpace(f.Name),
		Icon:      f.Icon,
		Color:     color,
		Target:    target,
		IsAllDays: f.AllDays,
	}
	if !f.AllDays {
		d.SelectedDays = models.NewWeekdaySet(f.Days...)
		if d.SelectedDays.Empty() || d.SelectedDays.Len() == len(constants.WeekdayNames) {
			d.IsAllDays = true
			d.SelectedDays = 0
		}
	}
	if strings.TrimSpace(f.Reminder) != "" {
		r, err := validation.ParseReminder(f.Reminder)
		if err != nil {
			return models.HabitDraft{}, err
		}
		d.Reminders = []models.Reminder{r}
	}

	if err := validation.New().ValidateDraft(d); err != nil {
		return models.HabitDraft{}, err
	}
	return d, nil
}
