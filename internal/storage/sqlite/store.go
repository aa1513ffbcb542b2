package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habits/internal/logger"
	"github.com/julianstephens/habits/internal/migration"
	"github.com/julianstephens/habits/internal/storage"
	"github.com/julianstephens/habits/migrations"
)

// historyDepth is how many previous values are kept per key.
const historyDepth = 10

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Init(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		db, err := s.open()
		if err != nil {
			return err
		}
		s.db = db
	}

	if err := s.runMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return storage.ErrNotInitialized
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	s.db = db

	return s.validateSchemaVersion(ctx)
}

func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (storage.Blob, error) {
	if s.db == nil {
		return storage.Blob{}, fmt.Errorf("storage not loaded")
	}

	var (
		blob      storage.Blob
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT value, codec, updated_at FROM blobs WHERE key = ?", key,
	).Scan(&blob.Data, &blob.Codec, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Blob{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Blob{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		blob.UpdatedAt = t
	}
	return blob, nil
}

// Put upserts the blob and moves the value it replaces into blob_history.
func (s *Store) Put(ctx context.Context, key string, blob storage.Blob) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}
	if blob.UpdatedAt.IsZero() {
		blob.UpdatedAt = time.Now().UTC()
	}
	stamp := blob.UpdatedAt.UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO blob_history (key, value, codec, replaced_at)
		SELECT key, value, codec, ? FROM blobs WHERE key = ?`, stamp, key); err != nil {
		return fmt.Errorf("failed to archive %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO blobs (key, value, codec, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			codec = excluded.codec,
			updated_at = excluded.updated_at`,
		key, blob.Data, blob.Codec, stamp); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM blob_history WHERE key = ? AND rowid NOT IN (
			SELECT rowid FROM blob_history WHERE key = ? ORDER BY rowid DESC LIMIT ?
		)`, key, key, historyDepth); err != nil {
		return fmt.Errorf("failed to prune history for %s: %w", key, err)
	}

	return tx.Commit()
}

// Revert restores the most recently replaced value of key.
func (s *Store) Revert(ctx context.Context, key string) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		rowid int64
		value []byte
		codec string
	)
	err = tx.QueryRowContext(ctx,
		"SELECT rowid, value, codec FROM blob_history WHERE key = ? ORDER BY rowid DESC LIMIT 1", key,
	).Scan(&rowid, &value, &codec)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNoHistory
	}
	if err != nil {
		return fmt.Errorf("failed to read history for %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE blobs SET value = ?, codec = ?, updated_at = ? WHERE key = ?",
		value, codec, time.Now().UTC().Format(time.RFC3339Nano), key); err != nil {
		return fmt.Errorf("failed to restore %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM blob_history WHERE rowid = ?", rowid); err != nil {
		return fmt.Errorf("failed to drop history entry for %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit revert of %s: %w", key, err)
	}
	logger.Info("Reverted blob to previous version", "key", key)
	return nil
}

// tableExists checks if a table exists in the SQLite database (case-insensitive).
func (s *Store) tableExists(ctx context.Context, tableName string) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name COLLATE NOCASE = ?", tableName)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, migration.SQLite), nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	_, err = runner.Apply(ctx)
	return err
}

func (s *Store) validateSchemaVersion(ctx context.Context) error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	if err := runner.Validate(ctx); err != nil {
		return err
	}
	ok, err := s.tableExists(ctx, "blobs")
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	if !ok {
		return storage.ErrNotInitialized
	}
	return nil
}

// MigrationStatus reports the applied schema version against the embedded migrations.
func (s *Store) MigrationStatus(ctx context.Context) (migration.Status, error) {
	runner, err := s.runner()
	if err != nil {
		return migration.Status{}, err
	}
	return runner.Status(ctx)
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection, nil before Init or Load.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
