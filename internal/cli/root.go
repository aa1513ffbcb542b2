package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/habits/internal/backup"
	"github.com/julianstephens/habits/internal/config"
	"github.com/julianstephens/habits/internal/habits"
	"github.com/julianstephens/habits/internal/logger"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/reminders"
	"github.com/julianstephens/habits/internal/storage"
	"github.com/julianstephens/habits/internal/storage/backend"
	"github.com/julianstephens/habits/internal/utils"
)

const memoryStore = "memory"

type Context struct {
	Config config.Config
	Store  storage.Provider
	Codec  storage.Codec
	Clock  utils.Clock
	Out    io.Writer

	registry *reminders.Registry
	manager  *habits.Manager
}

// NewContext builds a command context for cfg. The store is not opened.
func NewContext(cfg config.Config, store storage.Provider) (*Context, error) {
	codec, err := storage.CodecByName(cfg.Codec)
	if err != nil {
		return nil, err
	}
	clock, err := utils.NewSystemClock(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return &Context{
		Config: cfg,
		Store:  store,
		Codec:  codec,
		Clock:  clock,
		Out:    os.Stdout,
	}, nil
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

func (c *Context) Repository() storage.Repository {
	return storage.NewRepository(c.Store, c.Codec)
}

// Registry holds the reminder requests scheduled by the manager.
func (c *Context) Registry() *reminders.Registry {
	if c.registry == nil {
		c.registry = reminders.NewRegistry()
	}
	return c.registry
}

// Manager returns the habit manager, initializing it from the store on first use.
func (c *Context) Manager(ctx context.Context) *habits.Manager {
	if c.manager == nil {
		c.manager = habits.New(c.Repository(), c.Registry(),
			habits.WithClock(c.Clock),
			habits.WithDemoSeed(c.Config.SeedDemo),
		)
		c.manager.Initialize(ctx)
		if err := c.manager.LastError(); err != nil {
			logger.Warn("Habit data could not be fully loaded", "error", err)
		}
	}
	return c.manager
}

// Persisted reports a swallowed save failure from the last mutation as an error.
func (c *Context) Persisted() error {
	if c.manager == nil {
		return nil
	}
	if err := c.manager.LastError(); err != nil {
		return fmt.Errorf("changes may not have been saved: %w", err)
	}
	return nil
}

// IsLocal reports whether the store lives in a file on this machine.
func (c *Context) IsLocal() bool {
	path := c.Store.GetConfigPath()
	if path == memoryStore {
		return false
	}
	kind := backend.Detect(path)
	return kind == backend.KindSQLite || kind == backend.KindJSON
}

// BackupManager returns a backup manager for local stores, nil otherwise.
func (c *Context) BackupManager() *backup.Manager {
	if !c.IsLocal() {
		return nil
	}
	return backup.NewManager(c.Store.GetConfigPath(), backup.WithClock(c.Clock))
}

// PerformAutomaticBackup creates a backup and only logs failures.
func (c *Context) PerformAutomaticBackup(ctx context.Context) {
	mgr := c.BackupManager()
	if mgr == nil {
		return
	}
	if _, err := mgr.Create(ctx); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// FormatDays renders the schedule of h.
func FormatDays(h models.Habit) string {
	if h.IsAllDays {
		return "todos os dias"
	}
	return strings.Join(h.SelectedDays.Names(), ", ")
}

// FormatPercent renders a 0..1 rate as a whole percentage.
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%d%%", int(rate*100+0.5))
}

// StatusMark is the check glyph used in listings.
func StatusMark(done bool) string {
	if done {
		return "✓"
	}
	return "○"
}
