package habits

import (
	"context"
	"fmt"

	"github.com/common-nighthawk/go-figure"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/constants"
	core "github.com/julianstephens/habits/internal/habits"
)

type ToggleCmd struct {
	Ref string `arg:"" help:"Habit id, id prefix or name."`
}

func (c *ToggleCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	mgr := ctx.Manager(bg)

	h, err := mgr.Find(c.Ref)
	if err != nil {
		return err
	}

	celebrate := false
	mgr.Subscribe(func(e core.Event) {
		if e == core.EventDailyGoalsCompleted {
			celebrate = true
		}
	})

	res := mgr.ToggleHabit(bg, h.ID)
	if !res.Found {
		return fmt.Errorf("habit %q disappeared before it could be toggled", h.Name)
	}
	if err := ctx.Persisted(); err != nil {
		return err
	}

	if res.Completed {
		ctx.Printf("%s %s done today (streak: %d)\n", cli.StatusMark(true), h.Name, res.Streak)
	} else {
		ctx.Printf("%s %s unmarked for today (streak: %d)\n", cli.StatusMark(false), h.Name, res.Streak)
	}

	if celebrate {
		PrintCelebration(ctx)
	}
	return nil
}

// PrintCelebration prints the banner shown when every habit due today is done.
func PrintCelebration(ctx *cli.Context) {
	ctx.Println()
	ctx.Printf("%s", figure.NewFigure("Parabens!", "basic", false).String())
	ctx.Println(constants.CelebrationTitle, constants.CelebrationMessage)
}
