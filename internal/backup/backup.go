// Package backup keeps rotating point-in-time copies of a local habits store.
// SQLite databases are copied with VACUUM INTO and JSON documents byte for byte.
package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/logger"
	"github.com/julianstephens/habits/internal/utils"
)

const (
	MaxBackups    = 14
	DirName       = "backups"
	FilePrefix    = constants.AppName + "-"
	stampLayout   = "20060102-1504"
	maxSameMinute = 100
)

var (
	ErrNoBackups    = errors.New("no backups found")
	ErrNoSource     = errors.New("store file does not exist")
	ErrInvalidStore = errors.New("backup is not a valid habits store")

	namePattern = regexp.MustCompile(`^` + regexp.QuoteMeta(FilePrefix) + `(\d{8}-\d{4})(?:-(\d+))?(\.db|\.json)$`)
)

type Info struct {
	Path      string
	Name      string
	Timestamp time.Time
	Seq       int
	Size      int64
}

type Manager struct {
	path  string
	dir   string
	ext   string
	keep  int
	clock utils.Clock
}

type Option func(*Manager)

func WithClock(c utils.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithRetention sets how many backups survive rotation.
func WithRetention(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.keep = n
		}
	}
}

// NewManager manages backups of the store at path, kept in a backups directory beside it.
func NewManager(path string, opts ...Option) *Manager {
	ext := ".db"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		ext = ".json"
	}
	m := &Manager{
		path:  path,
		dir:   filepath.Join(filepath.Dir(path), DirName),
		ext:   ext,
		keep:  MaxBackups,
		clock: utils.SystemClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Dir() string {
	return m.dir
}

// Create copies the store into a new timestamped backup and rotates old ones.
func (m *Manager) Create(ctx context.Context) (Info, error) {
	info, err := m.create(ctx)
	if err != nil {
		return Info{}, err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old backups", "error", err)
	}
	logger.Info("Backup created", "path", info.Path, "size", info.Size)
	return info, nil
}

func (m *Manager) create(ctx context.Context) (Info, error) {
	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		return Info{}, fmt.Errorf("%w: %s", ErrNoSource, m.path)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return Info{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	dest, err := m.nextPath()
	if err != nil {
		return Info{}, err
	}

	if m.ext == ".json" {
		err = copyFile(m.path, dest)
	} else {
		err = vacuumInto(ctx, m.path, dest)
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to back up %s: %w", m.path, err)
	}
	return m.stat(dest)
}

func (m *Manager) nextPath() (string, error) {
	stamp := m.clock.Now().Format(stampLayout)
	for seq := 0; seq < maxSameMinute; seq++ {
		name := FilePrefix + stamp + m.ext
		if seq > 0 {
			name = fmt.Sprintf("%s%s-%d%s", FilePrefix, stamp, seq, m.ext)
		}
		p := filepath.Join(m.dir, name)
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return p, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique backup filename for %s", stamp)
}

func (m *Manager) stat(path string) (Info, error) {
	name := filepath.Base(path)
	match := namePattern.FindStringSubmatch(name)
	if match == nil {
		return Info{}, fmt.Errorf("unrecognized backup name %q", name)
	}
	ts, err := time.ParseInLocation(stampLayout, match[1], m.clock.Now().Location())
	if err != nil {
		return Info{}, fmt.Errorf("unrecognized backup timestamp in %q: %w", name, err)
	}
	seq := 0
	if match[2] != "" {
		seq, _ = strconv.Atoi(match[2])
	}
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	return Info{Path: path, Name: name, Timestamp: ts, Seq: seq, Size: fi.Size()}, nil
}

// List returns the backups matching this store's format, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var out []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), m.ext) {
			continue
		}
		info, err := m.stat(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			continue
		}
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

// Resolve maps "latest", a backup file name or a path to a backup path.
func (m *Manager) Resolve(ref string) (string, error) {
	if ref == "" || ref == "latest" {
		list, err := m.List()
		if err != nil {
			return "", err
		}
		if len(list) == 0 {
			return "", ErrNoBackups
		}
		return list[0].Path, nil
	}
	if !strings.ContainsRune(ref, os.PathSeparator) {
		ref = filepath.Join(m.dir, ref)
	}
	if _, err := os.Stat(ref); err != nil {
		return "", fmt.Errorf("backup file does not exist: %s", ref)
	}
	return ref, nil
}

func (m *Manager) rotate() error {
	list, err := m.List()
	if err != nil {
		return err
	}
	for i := m.keep; i < len(list); i++ {
		if err := os.Remove(list[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", list[i].Name, err)
		}
	}
	return nil
}

// Restore replaces the store with the backup at path. The current store, if any,
// is backed up first and that safety copy is returned. The store must be closed.
func (m *Manager) Restore(ctx context.Context, path string) (*Info, error) {
	if err := m.verify(ctx, path); err != nil {
		return nil, err
	}

	var safety *Info
	if _, err := os.Stat(m.path); err == nil {
		info, err := m.create(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to back up current store before restore: %w", err)
		}
		safety = &info
		logger.Info("Backed up current store before restore", "path", info.Path)
	}

	tmp := m.path + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return safety, fmt.Errorf("failed to copy backup: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tmp, "error", rmErr)
		}
		return safety, fmt.Errorf("failed to restore store: %w", err)
	}
	logger.Info("Store restored", "from", path)
	return safety, nil
}

func (m *Manager) verify(ctx context.Context, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", path)
	}

	if m.ext == ".json" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !json.Valid(data) {
			return fmt.Errorf("%w: %s is not JSON", ErrInvalidStore, filepath.Base(path))
		}
		return nil
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var n int
	err = db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'blobs'").Scan(&n)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStore, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s has no blobs table", ErrInvalidStore, filepath.Base(path))
	}
	return nil
}

func vacuumInto(ctx context.Context, src, dest string) error {
	db, err := sql.Open("sqlite", "file:"+src+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		logger.Debug("VACUUM INTO failed, copying file instead", "error", err)
		return copyFile(src, dest)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
