package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	ctx.PerformAutomaticBackup(bg)

	p := tea.NewProgram(tui.NewModel(ctx.Manager(bg)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited with an error: %w", err)
	}
	return ctx.Persisted()
}
