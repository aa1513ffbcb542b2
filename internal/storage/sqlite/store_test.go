package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "nested", "habits.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoad_NotInitialized(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	err := store.Load(context.Background())
	if !errors.Is(err, storage.ErrNotInitialized) {
		t.Errorf("Load() error = %v, want ErrNotInitialized", err)
	}
}

func TestInitThenLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "habits.db")

	first := NewStore(path)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if err := first.Put(ctx, constants.ProfileKey, storage.Blob{Data: []byte(`{"name":"Ana"}`), Codec: "json"}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	first.Close()

	second := NewStore(path)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	defer second.Close()

	blob, err := second.Get(ctx, constants.ProfileKey)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(blob.Data) != `{"name":"Ana"}` || blob.Codec != "json" {
		t.Errorf("Get() = %q (%s)", blob.Data, blob.Codec)
	}

	st, err := second.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() failed: %v", err)
	}
	if !st.UpToDate() || st.Latest < 2 {
		t.Errorf("MigrationStatus() = %+v, want fully migrated", st)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Init(context.Background()); err != nil {
		t.Errorf("second Init() failed: %v", err)
	}
}

func TestGet_Missing(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestPutOverwritesAndRevert(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for _, v := range []string{"[1]", "[1,2]", "[1,2,3]"} {
		if err := store.Put(ctx, constants.HabitsKey, storage.Blob{Data: []byte(v), Codec: "json"}); err != nil {
			t.Fatalf("Put(%s) failed: %v", v, err)
		}
	}

	blob, err := store.Get(ctx, constants.HabitsKey)
	if err != nil || string(blob.Data) != "[1,2,3]" {
		t.Fatalf("Get() = %q, %v", blob.Data, err)
	}
	if blob.UpdatedAt.IsZero() {
		t.Error("UpdatedAt was not recorded")
	}

	if err := store.Revert(ctx, constants.HabitsKey); err != nil {
		t.Fatalf("Revert() failed: %v", err)
	}
	blob, _ = store.Get(ctx, constants.HabitsKey)
	if string(blob.Data) != "[1,2]" {
		t.Errorf("after first revert = %q, want [1,2]", blob.Data)
	}

	if err := store.Revert(ctx, constants.HabitsKey); err != nil {
		t.Fatalf("second Revert() failed: %v", err)
	}
	if err := store.Revert(ctx, constants.HabitsKey); !errors.Is(err, storage.ErrNoHistory) {
		t.Errorf("third Revert() error = %v, want ErrNoHistory", err)
	}
}

func TestHistoryIsPruned(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for i := 0; i < historyDepth+5; i++ {
		if err := store.Put(ctx, "k", storage.Blob{Data: []byte{byte(i)}, Codec: "json"}); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	var n int
	if err := store.GetDB().QueryRow("SELECT count(*) FROM blob_history WHERE key = 'k'").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != historyDepth {
		t.Errorf("history rows = %d, want %d", n, historyDepth)
	}
}

func TestRepositoryOverSQLite(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewRepository(setupTestStore(t), storage.MsgpackCodec{})

	h := models.NewHabit("Meditar", "leaf.fill", models.Palette["green"], 7, time.Now())
	h.CompletedDates.Add("2025-07-11")
	if err := repo.SaveHabits(ctx, []models.Habit{h}); err != nil {
		t.Fatalf("SaveHabits() failed: %v", err)
	}

	got, err := repo.LoadHabits(ctx)
	if err != nil {
		t.Fatalf("LoadHabits() failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != h.ID || !got[0].CompletedDates.Has("2025-07-11") {
		t.Errorf("LoadHabits() = %+v", got)
	}
}

func TestTableExists(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	exists, err := store.tableExists(ctx, "BLOBS")
	if err != nil || !exists {
		t.Errorf("tableExists(BLOBS) = %v, %v", exists, err)
	}
	exists, err = store.tableExists(ctx, "nonexistent_table")
	if err != nil || exists {
		t.Errorf("tableExists(nonexistent_table) = %v, %v", exists, err)
	}
}
