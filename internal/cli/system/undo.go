package system

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/storage"
)

// UndoCmd restores the previous saved version of the habit list or the profile.
type UndoCmd struct {
	Profile bool `help:"Revert the profile instead of the habit list."`
}

func (c *UndoCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	historian, ok := ctx.Store.(storage.Historian)
	if !ok {
		return fmt.Errorf("storage at %s does not keep history", ctx.Store.GetConfigPath())
	}

	key := constants.HabitsKey
	if c.Profile {
		key = constants.ProfileKey
	}

	if err := historian.Revert(bg, key); err != nil {
		if errors.Is(err, storage.ErrNoHistory) {
			ctx.Println("Nothing to undo.")
			return nil
		}
		return err
	}

	mgr := ctx.Manager(bg)
	mgr.Initialize(bg)
	if c.Profile {
		ctx.Printf("Profile restored (name: %s).\n", mgr.Profile().Name)
		return nil
	}
	ctx.Printf("Habit list restored (%d habits).\n", len(mgr.Habits()))
	return nil
}
