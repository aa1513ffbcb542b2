package backups

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/storage"
	"github.com/julianstephens/habits/internal/storage/sqlite"
	"github.com/julianstephens/habits/internal/utils"
)

func newContext(t *testing.T, store storage.Provider, at time.Time) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &cli.Context{
		Store: store,
		Codec: storage.JSONCodec{},
		Clock: utils.FixedClock(at),
		Out:   out,
	}, out
}

func TestCreateListRestore(t *testing.T) {
	bg := context.Background()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "habits.db"))
	require.NoError(t, store.Init(bg))
	t.Cleanup(func() { store.Close() })

	at := time.Date(2025, 7, 11, 10, 0, 0, 0, time.UTC)
	ctx, out := newContext(t, store, at)
	ctx.Manager(bg).AddHabit(bg, models.HabitDraft{Name: "Água", Icon: "drop.fill", Color: models.Palette["cyan"], Target: 7, IsAllDays: true})

	require.NoError(t, (&CreateCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "✓ Backup created: habits-20250711-1000.db")

	out.Reset()
	require.NoError(t, (&ListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Available backups (1 total")
	assert.Contains(t, out.String(), "2025-07-11 10:00  habits-20250711-1000.db")

	// a later change that the restore should undo
	ctx.Manager(bg).AddHabit(bg, models.HabitDraft{Name: "Ler", Icon: "book.fill", Color: models.Palette["orange"], Target: 5, IsAllDays: true})

	later, out := newContext(t, store, at.Add(time.Hour))
	require.NoError(t, (&RestoreCmd{Backup: "latest", Yes: true}).Run(later))
	assert.Contains(t, out.String(), "Backed up current store to: habits-20250711-1100.db")
	assert.Contains(t, out.String(), "✓ Restored from")

	habits := later.Manager(bg).Habits()
	require.Len(t, habits, 1)
	assert.Equal(t, "Água", habits[0].Name)
}

func TestListEmpty(t *testing.T) {
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "habits.db"))
	ctx, out := newContext(t, store, time.Now())
	require.NoError(t, (&ListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "No backups found.")
}

func TestRemoteStoresHaveNoBackups(t *testing.T) {
	ctx, _ := newContext(t, storage.NewMemoryStore(), time.Now())
	assert.ErrorContains(t, (&CreateCmd{}).Run(ctx), "only supported for local")
}
