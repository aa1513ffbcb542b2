package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/logger"
	"github.com/julianstephens/habits/internal/storage"
)

const (
	historyDepth  = 10
	schemaVersion = "1"

	fieldData      = "data"
	fieldCodec     = "codec"
	fieldUpdatedAt = "updated_at"
)

// Store keeps each blob in a hash under "habits:<key>" and its previous
// values in the list "habits:<key>:history", newest first.
type Store struct {
	url    string
	client *redis.Client
}

type historyEntry struct {
	Data       []byte    `json:"data"`
	Codec      string    `json:"codec"`
	ReplacedAt time.Time `json:"replaced_at"`
}

func NewStore(url string) *Store {
	return &Store{url: url}
}

// IsURL reports whether target looks like a Redis URL.
func IsURL(target string) bool {
	return strings.HasPrefix(target, "redis://") || strings.HasPrefix(target, "rediss://")
}

func blobKey(key string) string    { return constants.AppName + ":" + key }
func historyKey(key string) string { return blobKey(key) + ":history" }
func metaKey() string              { return constants.AppName + ":meta" }

func (s *Store) connect(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	opt, err := redis.ParseURL(s.url)
	if err != nil {
		return fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	s.client = client
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	return s.client.HSet(ctx, metaKey(), "version", schemaVersion).Err()
}

func (s *Store) Load(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	version, err := s.client.HGet(ctx, metaKey(), "version").Result()
	if errors.Is(err, redis.Nil) {
		return storage.ErrNotInitialized
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("unsupported redis schema version %s (expected %s)", version, schemaVersion)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (storage.Blob, error) {
	if s.client == nil {
		return storage.Blob{}, fmt.Errorf("storage not loaded")
	}
	fields, err := s.client.HGetAll(ctx, blobKey(key)).Result()
	if err != nil {
		return storage.Blob{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	data, ok := fields[fieldData]
	if !ok {
		return storage.Blob{}, storage.ErrNotFound
	}

	blob := storage.Blob{Data: []byte(data), Codec: fields[fieldCodec]}
	if t, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt]); err == nil {
		blob.UpdatedAt = t
	}
	return blob, nil
}

func (s *Store) Put(ctx context.Context, key string, blob storage.Blob) error {
	if s.client == nil {
		return fmt.Errorf("storage not loaded")
	}
	if blob.UpdatedAt.IsZero() {
		blob.UpdatedAt = time.Now().UTC()
	}

	prev, err := s.Get(ctx, key)
	hasPrev := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	var archived []byte
	if hasPrev {
		archived, err = json.Marshal(historyEntry{Data: prev.Data, Codec: prev.Codec, ReplacedAt: blob.UpdatedAt})
		if err != nil {
			return fmt.Errorf("failed to archive %s: %w", key, err)
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if hasPrev {
			pipe.LPush(ctx, historyKey(key), archived)
			pipe.LTrim(ctx, historyKey(key), 0, historyDepth-1)
		}
		pipe.HSet(ctx, blobKey(key),
			fieldData, blob.Data,
			fieldCodec, blob.Codec,
			fieldUpdatedAt, blob.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Revert restores the most recently replaced value of key.
func (s *Store) Revert(ctx context.Context, key string) error {
	if s.client == nil {
		return fmt.Errorf("storage not loaded")
	}

	raw, err := s.client.LPop(ctx, historyKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return storage.ErrNoHistory
	}
	if err != nil {
		return fmt.Errorf("failed to read history for %s: %w", key, err)
	}

	var entry historyEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return fmt.Errorf("corrupt history entry for %s: %w", key, err)
	}

	if err := s.client.HSet(ctx, blobKey(key),
		fieldData, entry.Data,
		fieldCodec, entry.Codec,
		fieldUpdatedAt, time.Now().UTC().Format(time.RFC3339Nano),
	).Err(); err != nil {
		return fmt.Errorf("failed to restore %s: %w", key, err)
	}
	logger.Info("Reverted blob to previous version", "key", key, "replaced_at", entry.ReplacedAt)
	return nil
}

func (s *Store) GetConfigPath() string {
	return "redis"
}
