package storage

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/habits/internal/models"
)

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("not found")
	// ErrNotInitialized is returned by Load when the backing store does not exist yet.
	ErrNotInitialized = errors.New("storage not initialized, run 'habits init' first")
	// ErrNoHistory is returned by Revert when no earlier value is kept for a key.
	ErrNoHistory = errors.New("no earlier version to restore")
)

// Blob is an encoded value together with the name of the codec that produced it.
type Blob struct {
	Data      []byte
	Codec     string
	UpdatedAt time.Time
}

// BlobStore is a small key-value store for encoded blobs.
type BlobStore interface {
	Get(ctx context.Context, key string) (Blob, error)
	Put(ctx context.Context, key string, blob Blob) error
}

// Provider is a storage backend with an explicit lifecycle.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	BlobStore

	// GetConfigPath returns a non-sensitive description of where data lives.
	GetConfigPath() string
}

// Historian is implemented by backends that keep previous blob values.
type Historian interface {
	Revert(ctx context.Context, key string) error
}

// Repository persists the habit collection and the user profile.
type Repository interface {
	LoadHabits(ctx context.Context) ([]models.Habit, error)
	SaveHabits(ctx context.Context, habits []models.Habit) error
	LoadProfile(ctx context.Context) (models.UserProfile, error)
	SaveProfile(ctx context.Context, profile models.UserProfile) error
}
