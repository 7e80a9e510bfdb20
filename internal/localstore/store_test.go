package localstore

import (
	"path/filepath"
	"testing"
)

func TestTasksKey(t *testing.T) {
	t.Parallel()

	if got := TasksKey("user-1"); got != "todos_user-1" {
		t.Fatalf("expected todos_user-1, got %q", got)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	if _, ok, err := store.Get("missing"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	value, ok, err := store.Get("k")
	if err != nil || !ok || value != "v" {
		t.Fatalf("expected v, got %q ok=%v err=%v", value, ok, err)
	}

	if err := store.Delete("k"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok, _ := store.Get("k"); ok {
		t.Fatal("expected key to be gone after delete")
	}
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	t.Run("round trips values across reopen", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "store.json")

		store, err := OpenFileStore(path)
		if err != nil {
			t.Fatalf("OpenFileStore returned error: %v", err)
		}
		if err := store.Set(TasksKey("user-1"), `[{"id":"task-1"}]`); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}

		reopened, err := OpenFileStore(path)
		if err != nil {
			t.Fatalf("reopen returned error: %v", err)
		}
		value, ok, err := reopened.Get(TasksKey("user-1"))
		if err != nil || !ok {
			t.Fatalf("expected persisted value, got ok=%v err=%v", ok, err)
		}
		if value != `[{"id":"task-1"}]` {
			t.Fatalf("unexpected persisted value: %q", value)
		}
	})

	t.Run("missing file yields an empty store", func(t *testing.T) {
		t.Parallel()

		store, err := OpenFileStore(filepath.Join(t.TempDir(), "absent", "store.json"))
		if err != nil {
			t.Fatalf("OpenFileStore returned error: %v", err)
		}
		if _, ok, _ := store.Get("anything"); ok {
			t.Fatal("expected empty store")
		}
	})

	t.Run("delete of absent key is a no-op", func(t *testing.T) {
		t.Parallel()

		store, err := OpenFileStore(filepath.Join(t.TempDir(), "store.json"))
		if err != nil {
			t.Fatalf("OpenFileStore returned error: %v", err)
		}
		if err := store.Delete("missing"); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
	})

	t.Run("rejects empty path", func(t *testing.T) {
		t.Parallel()

		if _, err := OpenFileStore(""); err == nil {
			t.Fatal("expected error for empty path")
		}
	})
}
