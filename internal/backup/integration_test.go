package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/storage/kv"
	"github.com/julianstephens/habitquest/internal/storage/sqlite"
)

func addHabit(t *testing.T, s storage.Provider, label string) {
	t.Helper()
	if _, err := s.CreateHabit(models.HabitDefinition{
		Label:        label,
		TrackingType: constants.TrackingTickCross,
		DurationDays: 7,
	}); err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
}

func labels(t *testing.T, s storage.Provider) []string {
	t.Helper()
	habits, err := s.GetAllHabits()
	if err != nil {
		t.Fatalf("GetAllHabits() error = %v", err)
	}
	var out []string
	for _, h := range habits {
		out = append(out, h.Label)
	}
	return out
}

func roundTrip(t *testing.T, backend constants.Backend, source string, open func() storage.Provider) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.Local)
	m, err := NewManager(backend, source, filepath.Dir(source), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}

	s := open()
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	addHabit(t, s, "Read")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	snap, err := m.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	s = open()
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	addHabit(t, s, "Run")
	if got := labels(t, s); len(got) != 2 {
		t.Fatalf("labels before restore = %v", got)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Hour)
	saved, err := m.Restore(snap.Path)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if _, err := os.Stat(saved.Path); err != nil {
		t.Errorf("pre-restore backup missing: %v", err)
	}

	s = open()
	if err := s.Load(); err != nil {
		t.Fatalf("Load() after restore error = %v", err)
	}
	defer s.Close()
	if got := labels(t, s); len(got) != 1 || got[0] != "Read" {
		t.Errorf("labels after restore = %v, want [Read]", got)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Errorf("List() = %d backups, want 2", len(backups))
	}
}

func TestBackupRestore_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitquest.db")
	roundTrip(t, constants.BackendSQLite, path, func() storage.Provider {
		return sqlite.NewStore(path)
	})
}

func TestBackupRestore_KV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	roundTrip(t, constants.BackendKV, dir, func() storage.Provider {
		return kv.NewStore(dir)
	})
}
