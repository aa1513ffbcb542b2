package system

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/habits/internal/cli"
)

type InitCmd struct {
	Force bool `help:"Delete an existing local store before initializing."`
	Seed  bool `help:"Add the demonstration habits to an empty store."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	if c.Force {
		if !ctx.IsLocal() {
			return fmt.Errorf("--force only applies to local SQLite or JSON stores")
		}
		path := ctx.Store.GetConfigPath()
		if _, err := os.Stat(path); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing store: %w", err)
			}
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to delete existing store: %w", err)
			}
			ctx.Printf("Deleted existing store at: %s\n", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing store: %w", err)
		}
	}

	if err := ctx.Store.Init(bg); err != nil {
		return err
	}
	ctx.Printf("Initialized habits storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Seed {
		ctx.Config.SeedDemo = true
	}
	mgr := ctx.Manager(bg)
	if err := ctx.Persisted(); err != nil {
		return err
	}
	if n := len(mgr.Habits()); n > 0 {
		ctx.Printf("%d habits in store.\n", n)
	}
	return nil
}
