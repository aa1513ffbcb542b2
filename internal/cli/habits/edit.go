package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/validation"
)

// EditCmd changes only the fields whose flags are given.
type EditCmd struct {
	Ref            string   `arg:"" help:"Habit id, id prefix or name."`
	Name           string   `help:"New name."`
	Icon           string   `short:"i" help:"New icon name."`
	Color          string   `short:"c" help:"New color."`
	Target         int      `short:"t" help:"New weekly target (1-7)."`
	Days           string   `short:"d" help:"New weekdays, or 'all'."`
	Remind         []string `short:"r" help:"Replace reminders with these HH:MM[=message] entries."`
	ClearReminders bool     `help:"Remove every reminder."`
}

func (c *EditCmd) Validate() error {
	if c.ClearReminders && len(c.Remind) > 0 {
		return fmt.Errorf("--remind and --clear-reminders cannot be combined")
	}
	return nil
}

func (c *EditCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	mgr := ctx.Manager(bg)

	h, err := mgr.Find(c.Ref)
	if err != nil {
		return err
	}

	draft := h.Draft()
	if c.Name != "" {
		draft.Name = c.Name
	}
	if c.Icon != "" {
		if err := applyIcon(&draft, c.Icon); err != nil {
			return err
		}
	}
	if c.Color != "" {
		if err := applyColor(&draft, c.Color); err != nil {
			return err
		}
	}
	if c.Target != 0 {
		draft.Target = c.Target
	}
	if c.Days != "" {
		if err := applyDays(&draft, c.Days); err != nil {
			return err
		}
	}
	switch {
	case c.ClearReminders:
		draft.Reminders = nil
	case len(c.Remind) > 0:
		if draft.Reminders, err = parseReminders(c.Remind); err != nil {
			return err
		}
	}

	if err := validation.New().ValidateDraft(draft); err != nil {
		return err
	}

	if !mgr.UpdateHabit(bg, h.ID, draft) {
		return fmt.Errorf("habit %q disappeared while editing", h.Name)
	}
	if err := ctx.Persisted(); err != nil {
		return err
	}

	ctx.Printf("Updated habit: %s\n", draft.Name)
	return nil
}
