// Package migration applies the numbered SQL files embedded for each SQL
// backend. Every applied version is recorded in schema_version with the time
// it ran, and the highest recorded version is the schema version.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habits/internal/logger"
)

var mlog = logger.For("migrate")

// ErrNewerSchema means the database was migrated by a newer build.
var ErrNewerSchema = errors.New("database schema is newer than this build supports")

// Migration is one NNN_name.sql file.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Status describes where a database stands against the embedded migrations.
type Status struct {
	Current   int
	Latest    int
	AppliedAt time.Time
	Pending   []Migration
}

// UpToDate reports whether nothing is pending and the schema is not ahead.
func (s Status) UpToDate() bool {
	return len(s.Pending) == 0 && s.Current == s.Latest
}

// Dialect selects the bind-parameter style of the target database.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) bind(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

type Runner struct {
	db      *sql.DB
	files   fs.FS
	dialect Dialect
	now     func() time.Time
}

func NewRunner(db *sql.DB, files fs.FS, dialect Dialect) *Runner {
	return &Runner{db: db, files: files, dialect: dialect, now: time.Now}
}

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
)`

func (r *Runner) ensureTable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createVersionTable); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// parseName splits "007_add_index.sql" into 7 and "add_index".
func parseName(file string) (int, string, error) {
	prefix, rest, ok := strings.Cut(strings.TrimSuffix(file, ".sql"), "_")
	if !ok || rest == "" {
		return 0, "", fmt.Errorf("migration %s: expected NNN_name.sql", file)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version < 1 {
		return 0, "", fmt.Errorf("migration %s: version must be a positive number", file)
	}
	return version, rest, nil
}

// Migrations returns the embedded migrations in version order.
func (r *Runner) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(r.files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		version, name, err := parseName(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, e.Name(), version)
		}
		seen[version] = e.Name()

		body, err := fs.ReadFile(r.files, e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: name, SQL: string(body)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Status compares the recorded schema version with the embedded migrations.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	if err := r.ensureTable(ctx); err != nil {
		return Status{}, err
	}
	all, err := r.Migrations()
	if err != nil {
		return Status{}, err
	}

	var st Status
	var (
		current sql.NullInt64
		stamp   sql.NullString
	)
	err = r.db.QueryRowContext(ctx,
		"SELECT version, applied_at FROM schema_version ORDER BY version DESC LIMIT 1",
	).Scan(&current, &stamp)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Status{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	st.Current = int(current.Int64)
	if stamp.Valid {
		st.AppliedAt, _ = time.Parse(time.RFC3339, stamp.String)
	}

	if n := len(all); n > 0 {
		st.Latest = all[n-1].Version
	}
	for _, m := range all {
		if m.Version > st.Current {
			st.Pending = append(st.Pending, m)
		}
	}
	return st, nil
}

// Validate fails with ErrNewerSchema when the database is ahead of this build.
func (r *Runner) Validate(ctx context.Context) error {
	st, err := r.Status(ctx)
	if err != nil {
		return err
	}
	if st.Current > st.Latest {
		return fmt.Errorf("%w: database is at version %d, this build knows up to %d; upgrade habits", ErrNewerSchema, st.Current, st.Latest)
	}
	return nil
}

// Apply runs every pending migration, each in its own transaction, and
// returns how many succeeded.
func (r *Runner) Apply(ctx context.Context) (int, error) {
	if err := r.Validate(ctx); err != nil {
		return 0, err
	}
	st, err := r.Status(ctx)
	if err != nil {
		return 0, err
	}
	if len(st.Pending) == 0 {
		mlog.Debug("Schema up to date", "version", st.Current)
		return 0, nil
	}

	start := r.now()
	for i, m := range st.Pending {
		if err := r.apply(ctx, m); err != nil {
			return i, err
		}
		mlog.Info("Migration applied", "version", m.Version, "name", m.Name)
	}
	mlog.Info("Schema migrated", "from", st.Current, "to", st.Latest, "took", r.now().Sub(start).Round(time.Millisecond))
	return len(st.Pending), nil
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: failed to begin transaction: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
	}
	record := fmt.Sprintf("INSERT INTO schema_version (version, applied_at) VALUES (%s, %s)", r.dialect.bind(1), r.dialect.bind(2))
	if _, err := tx.ExecContext(ctx, record, m.Version, r.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("migration %d: failed to record version: %w", m.Version, err)
	}
	return tx.Commit()
}
