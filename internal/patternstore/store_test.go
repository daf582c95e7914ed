package patternstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amcoelho/taskpilot/internal/engine"
)

// newTestStore creates a temporary Store for testing. The caller
// should call cleanup() when done.
func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "pattern-store-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := New(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to migrate: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func TestNewCreatesDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pattern-store-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "nested", "dir", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	if store.Path() != dbPath {
		t.Errorf("Path() = %v, want %v", store.Path(), dbPath)
	}
	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.Migrate(); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	saved := []*engine.Pattern{
		{
			Type: "math_operation",
			Examples: [][]string{
				{"use calculator", "report result"},
				{"use advanced_calculator", "report result"},
			},
			Count: 3,
		},
		{
			Type:     "web_search",
			Examples: [][]string{{"open search engine", "type query"}},
			Count:    1,
		},
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d patterns, want 2", len(loaded))
	}

	// Most used first.
	if loaded[0].Type != "math_operation" || loaded[0].Count != 3 {
		t.Errorf("loaded[0] = %+v", loaded[0])
	}
	if len(loaded[0].Examples) != 2 {
		t.Fatalf("examples = %v", loaded[0].Examples)
	}
	// Append order survives the round trip, so the cache still treats
	// the last example as the most recent.
	if got := loaded[0].Examples[1]; got[0] != "use advanced_calculator" {
		t.Errorf("most recent example = %v", got)
	}
}

func TestSaveReplaces(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	first := []*engine.Pattern{{Type: "form_fill", Examples: [][]string{{"fill form"}}, Count: 1}}
	if err := store.Save(first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := []*engine.Pattern{{Type: "data_extract", Examples: [][]string{{"extract rows"}}, Count: 2}}
	if err := store.Save(second); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0].Type != "data_extract" {
		t.Errorf("loaded = %+v, want only the second set", loaded)
	}
}

func TestLoadEmpty(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded = %v, want empty", loaded)
	}
}
