package backups

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habits/internal/backup"
	"github.com/julianstephens/habits/internal/cli"
)

type BackupCmd struct {
	Create  CreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
	List    ListCmd    `cmd:"" help:"List available backups."`
	Restore RestoreCmd `cmd:"" help:"Restore from a backup."`
}

func manager(ctx *cli.Context) (*backup.Manager, error) {
	mgr := ctx.BackupManager()
	if mgr == nil {
		return nil, fmt.Errorf("backups are only supported for local SQLite or JSON stores, not %s", ctx.Store.GetConfigPath())
	}
	return mgr, nil
}

type CreateCmd struct{}

func (c *CreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	info, err := mgr.Create(context.Background())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.Printf("✓ Backup created: %s\n", info.Name)
	return nil
}

type ListCmd struct{}

func (c *ListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	list, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(list) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(list), backup.MaxBackups)
	for _, b := range list {
		ctx.Printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04"), b.Name, float64(b.Size)/1024.0)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type RestoreCmd struct {
	Backup string `arg:"" optional:"" help:"Backup file name or path. Defaults to the latest." default:"latest"`
	Yes    bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *RestoreCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}

	path, err := mgr.Resolve(c.Backup)
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Restore " + path + "?").
				Description("The current store is backed up first.").
				Value(&confirmed),
		))
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close store before restore: %w", err)
	}
	safety, err := mgr.Restore(bg, path)
	if safety != nil {
		ctx.Printf("Backed up current store to: %s\n", safety.Name)
	}
	if err != nil {
		return err
	}
	if err := ctx.Store.Load(bg); err != nil {
		return fmt.Errorf("restored store could not be opened: %w", err)
	}

	ctx.Printf("✓ Restored from %s\n", path)
	return nil
}
