package habits

import (
	"context"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/validation"
)

type AddCmd struct {
	Name   string   `arg:"" help:"Habit name."`
	Icon   string   `short:"i" help:"Icon name." default:"star.fill"`
	Color  string   `short:"c" help:"Named color or r,g,b[,a] with channels in [0,1]." default:"blue"`
	Target int      `short:"t" help:"Weekly target in days (1-7)." default:"7"`
	Days   string   `short:"d" help:"Comma-separated weekdays (dom,seg,... or 1-7). Empty means every day."`
	Remind []string `short:"r" help:"Daily reminder as HH:MM or HH:MM=message. Repeatable."`
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	draft := models.HabitDraft{Name: c.Name, Target: c.Target}
	if err := applyIcon(&draft, c.Icon); err != nil {
		return err
	}
	if err := applyColor(&draft, c.Color); err != nil {
		return err
	}
	if err := applyDays(&draft, c.Days); err != nil {
		return err
	}
	reminders, err := parseReminders(c.Remind)
	if err != nil {
		return err
	}
	draft.Reminders = reminders

	if err := validation.New().ValidateDraft(draft); err != nil {
		return err
	}

	h := ctx.Manager(bg).AddHabit(bg, draft)
	if err := ctx.Persisted(); err != nil {
		return err
	}

	ctx.Printf("Added habit: %s %s (ID: %s)\n", models.Glyph(h.Icon), h.Name, h.ID)
	for _, r := range h.Reminders {
		ctx.Printf("  reminder at %s\n", r.Clock())
	}
	return nil
}
