package habits

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habits/internal/cli"
)

type DeleteCmd struct {
	Ref string `arg:"" help:"Habit id, id prefix or name."`
	Yes bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	mgr := ctx.Manager(bg)

	h, err := mgr.Find(c.Ref)
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", h.Name)).
				Description(fmt.Sprintf("%d completions and a %d-day streak will be lost.", h.TotalCompletions(), h.Streak)).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&confirmed),
		))
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}

	if !mgr.DeleteHabit(bg, h.ID) {
		return fmt.Errorf("habit %q disappeared before it could be deleted", h.Name)
	}
	if err := ctx.Persisted(); err != nil {
		return err
	}

	ctx.Printf("Deleted habit: %s\n", h.Name)
	return nil
}
