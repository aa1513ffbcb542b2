package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/models"
)

// BlobRepository stores the habit list and profile as two encoded blobs.
// Writes use the configured codec; reads decode with whichever codec wrote the blob.
type BlobRepository struct {
	blobs BlobStore
	codec Codec
	now   func() time.Time
}

// NewRepository wraps a blob store. A nil codec means JSON.
func NewRepository(blobs BlobStore, codec Codec) *BlobRepository {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &BlobRepository{blobs: blobs, codec: codec, now: time.Now}
}

func (r *BlobRepository) LoadHabits(ctx context.Context) ([]models.Habit, error) {
	blob, err := r.blobs.Get(ctx, constants.HabitsKey)
	if err != nil {
		return nil, err
	}
	habits, err := DecodeHabits(blob.Codec, blob.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", constants.HabitsKey, err)
	}
	return habits, nil
}

func (r *BlobRepository) SaveHabits(ctx context.Context, habits []models.Habit) error {
	data, err := EncodeHabits(r.codec, habits)
	if err != nil {
		return fmt.Errorf("encode %s: %w", constants.HabitsKey, err)
	}
	return r.put(ctx, constants.HabitsKey, data)
}

func (r *BlobRepository) LoadProfile(ctx context.Context) (models.UserProfile, error) {
	blob, err := r.blobs.Get(ctx, constants.ProfileKey)
	if err != nil {
		return models.UserProfile{}, err
	}
	profile, err := DecodeProfile(blob.Codec, blob.Data)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("decode %s: %w", constants.ProfileKey, err)
	}
	return profile, nil
}

func (r *BlobRepository) SaveProfile(ctx context.Context, profile models.UserProfile) error {
	data, err := EncodeProfile(r.codec, profile)
	if err != nil {
		return fmt.Errorf("encode %s: %w", constants.ProfileKey, err)
	}
	return r.put(ctx, constants.ProfileKey, data)
}

func (r *BlobRepository) put(ctx context.Context, key string, data []byte) error {
	return r.blobs.Put(ctx, key, Blob{Data: data, Codec: r.codec.Name(), UpdatedAt: r.now().UTC()})
}
