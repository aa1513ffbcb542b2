package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/logger"
	"github.com/julianstephens/habits/internal/migration"
	"github.com/julianstephens/habits/internal/storage"
	"github.com/julianstephens/habits/migrations"
)

const historyDepth = 10

type Store struct {
	connStr string
	db      *sql.DB
}

func New(connStr string) *Store {
	return &Store{connStr: withSearchPath(connStr)}
}

func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasParam(s.connStr, "sslmode") {
			return nil, fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (s *Store) Init(ctx context.Context) error {
	if s.db == nil {
		db, err := s.open(ctx)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+constants.AppName); err != nil {
			db.Close()
			return fmt.Errorf("failed to create schema: %w", err)
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

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	s.db = db

	return s.validateSchemaVersion(ctx)
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

	var blob storage.Blob
	err := s.db.QueryRowContext(ctx,
		"SELECT value, codec, updated_at FROM blobs WHERE key = $1", key,
	).Scan(&blob.Data, &blob.Codec, &blob.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Blob{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Blob{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return blob, nil
}

func (s *Store) Put(ctx context.Context, key string, blob storage.Blob) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}
	if blob.UpdatedAt.IsZero() {
		blob.UpdatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO blob_history (key, value, codec, replaced_at)
		SELECT key, value, codec, $1 FROM blobs WHERE key = $2`, blob.UpdatedAt, key); err != nil {
		return fmt.Errorf("failed to archive %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO blobs (key, value, codec, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			codec = EXCLUDED.codec,
			updated_at = EXCLUDED.updated_at`,
		key, blob.Data, blob.Codec, blob.UpdatedAt); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM blob_history WHERE key = $1 AND ctid NOT IN (
			SELECT ctid FROM blob_history WHERE key = $1 ORDER BY replaced_at DESC LIMIT $2
		)`, key, historyDepth); err != nil {
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
		value      []byte
		codec      string
		replacedAt time.Time
	)
	err = tx.QueryRowContext(ctx, `
		DELETE FROM blob_history WHERE ctid = (
			SELECT ctid FROM blob_history WHERE key = $1 ORDER BY replaced_at DESC LIMIT 1
		) RETURNING value, codec, replaced_at`, key).Scan(&value, &codec, &replacedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNoHistory
	}
	if err != nil {
		return fmt.Errorf("failed to read history for %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE blobs SET value = $1, codec = $2, updated_at = $3 WHERE key = $4",
		value, codec, time.Now().UTC(), key); err != nil {
		return fmt.Errorf("failed to restore %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit revert of %s: %w", key, err)
	}
	logger.Info("Reverted blob to previous version", "key", key, "replaced_at", replacedAt)
	return nil
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, migration.Postgres), nil
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
	return runner.Validate(ctx)
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
	// Return a non-sensitive identifier instead of the full connection string
	return "postgresql"
}
