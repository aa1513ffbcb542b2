package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/keyring"
	"github.com/julianstephens/habits/internal/migration"
	"github.com/julianstephens/habits/internal/utils"
	"github.com/julianstephens/habits/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(context.Context, *cli.Context) (warning bool, err error)
}

// migrator is implemented by the SQL backends.
type migrator interface {
	MigrationStatus(ctx context.Context) (migration.Status, error)
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	ctx.Println("Running diagnostics...")
	ctx.Println()

	reachable := true
	checks := []check{
		{"Storage reachable", func(bg context.Context, ctx *cli.Context) (bool, error) {
			if err := ctx.Store.Load(bg); err != nil {
				reachable = false
				return false, err
			}
			return false, nil
		}},
		{"Schema version", func(bg context.Context, ctx *cli.Context) (bool, error) {
			if !reachable {
				return false, errSkipped
			}
			return checkSchemaVersion(bg, ctx)
		}},
		{"Data decodes", func(bg context.Context, ctx *cli.Context) (bool, error) {
			if !reachable {
				return false, errSkipped
			}
			ctx.Manager(bg)
			return false, ctx.Persisted()
		}},
		{"Data validation", func(bg context.Context, ctx *cli.Context) (bool, error) {
			if !reachable {
				return false, errSkipped
			}
			return checkValidation(bg, ctx)
		}},
		{"Backups present", checkBackups},
		{"Clock/timezone", checkClock},
		{"OS keyring", func(context.Context, *cli.Context) (bool, error) {
			if !keyring.IsAvailable() {
				return true, keyring.ErrKeyringUnavailable
			}
			return false, nil
		}},
	}

	failed := false
	for _, c := range checks {
		warning, err := c.run(bg, ctx)
		switch {
		case errors.Is(err, errSkipped):
			ctx.Printf("⊘ %s: SKIPPED (storage not reachable)\n", c.name)
		case err != nil && warning:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		case err != nil:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			failed = true
		default:
			ctx.Printf("✓ %s: OK\n", c.name)
		}
	}

	ctx.Println()
	if failed {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

var errSkipped = errors.New("skipped")

func checkSchemaVersion(bg context.Context, ctx *cli.Context) (bool, error) {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return false, nil
	}
	st, err := m.MigrationStatus(bg)
	if err != nil {
		return false, err
	}
	if st.Current > st.Latest {
		return false, fmt.Errorf("schema version %d is newer than this build (%d); upgrade habits", st.Current, st.Latest)
	}
	if n := len(st.Pending); n > 0 {
		return false, fmt.Errorf("schema version %d, %d migration(s) pending up to %d; run 'habits init' to migrate", st.Current, n, st.Latest)
	}
	return false, nil
}

// checkValidation fails on malformed habits. Streak drift only warns.
func checkValidation(bg context.Context, ctx *cli.Context) (bool, error) {
	mgr := ctx.Manager(bg)
	result := validation.New().ValidateHabits(mgr.Habits(), mgr.Now())
	if !result.HasConflicts() {
		return false, nil
	}

	var hard validation.ValidationResult
	for _, c := range result.Conflicts {
		if c.Type != validation.ConflictStreakDrift {
			hard.Conflicts = append(hard.Conflicts, c)
		}
	}
	if hard.HasConflicts() {
		return false, fmt.Errorf("%s", hard.FormatReport())
	}
	return true, fmt.Errorf("%s", result.FormatReport())
}

func checkBackups(bg context.Context, ctx *cli.Context) (bool, error) {
	mgr := ctx.BackupManager()
	if mgr == nil {
		return false, nil
	}
	list, err := mgr.List()
	if err != nil {
		return true, err
	}
	if len(list) == 0 {
		return true, fmt.Errorf("no backups found in %s; run 'habits backup create'", mgr.Dir())
	}
	if age := ctx.Clock.Now().Sub(list[0].Timestamp); age > 7*24*time.Hour {
		return true, fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return false, nil
}

func checkClock(bg context.Context, ctx *cli.Context) (bool, error) {
	if !utils.ValidateTimezone(ctx.Config.Timezone) {
		return false, fmt.Errorf("invalid timezone %q", ctx.Config.Timezone)
	}
	now := ctx.Clock.Now()
	if now.Year() < 2020 {
		return false, fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return false, nil
}
