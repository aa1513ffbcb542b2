package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/julianstephens/habits/internal/storage"
)

// Set POSTGRES_TEST_URL to run, e.g.
// POSTGRES_TEST_URL="postgres://habits_user@localhost:5432/habits_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}
	ctx := context.Background()

	store := New(connStr)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	key := "integration-" + t.Name()

	t.Run("PutGetRevert", func(t *testing.T) {
		for _, v := range []string{`["a"]`, `["a","b"]`} {
			if err := store.Put(ctx, key, storage.Blob{Data: []byte(v), Codec: storage.CodecJSON}); err != nil {
				t.Fatalf("Put() failed: %v", err)
			}
		}
		blob, err := store.Get(ctx, key)
		if err != nil || string(blob.Data) != `["a","b"]` {
			t.Fatalf("Get() = %q, %v", blob.Data, err)
		}
		if err := store.Revert(ctx, key); err != nil {
			t.Fatalf("Revert() failed: %v", err)
		}
		blob, _ = store.Get(ctx, key)
		if string(blob.Data) != `["a"]` {
			t.Errorf("after revert = %q", blob.Data)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := store.Get(ctx, key+"-missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("MigrationStatus", func(t *testing.T) {
		st, err := store.MigrationStatus(ctx)
		if err != nil || !st.UpToDate() {
			t.Errorf("MigrationStatus() = %+v, %v", st, err)
		}
	})
}
