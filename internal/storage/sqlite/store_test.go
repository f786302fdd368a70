package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/storage/sqldb"
	"github.com/julianstephens/habitquest/internal/storage/storagetest"
)

func newTestStore(t *testing.T, opts ...sqldb.Option) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"), opts...)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, opts storagetest.Options) storage.Provider {
		return newTestStore(t, sqldb.WithClock(opts.Now), sqldb.WithStartingBalance(opts.StartingBalance))
	})
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); err == nil {
		t.Fatal("Load() on a missing database should fail")
	}
}

func TestLoadAfterInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitquest.db")

	first := NewStore(path)
	if err := first.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := first.SetBalance(42); err != nil {
		t.Fatalf("SetBalance() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second := NewStore(path)
	if err := second.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer second.Close()

	balance, err := second.GetBalance()
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if balance != 42 {
		t.Errorf("balance = %d, want 42", balance)
	}
}

func TestInitIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "habitquest.db")
	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	store.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	again := NewStore(path)
	if err := again.Init(); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	defer again.Close()

	for _, table := range []string{"habits", "habit_logs", "quest_history", "wallet", "completion_markers"} {
		ok, err := again.TableExists(table)
		if err != nil {
			t.Fatalf("TableExists(%s) error = %v", table, err)
		}
		if !ok {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.db")
	if got := NewStore(path).GetConfigPath(); got != path {
		t.Errorf("GetConfigPath() = %q, want %q", got, path)
	}
}
