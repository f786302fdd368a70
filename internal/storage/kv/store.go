// Package kv is a file-backed storage.Provider. Each collection is one JSON
// document on disk, written atomically through diskv.
package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/storage"
)

var _ storage.Provider = (*Store)(nil)

const (
	keyMeta    = "meta"
	keyHabits  = "habits"
	keyLogs    = "habit_logs"
	keyHistory = "quest_history"
	keyWallet  = "wallet"
	keyMarkers = "completion_shown"

	schemaVersion = 1
	docExt        = ".json"
)

type meta struct {
	Version int `json:"version"`
}

type wallet struct {
	Balance int `json:"balance"`
}

type Store struct {
	dir string
	d   *diskv.Diskv

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex

	now             func() time.Time
	newID           func() string
	startingBalance int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithStartingBalance(n int) Option {
	return func(s *Store) { s.startingBalance = n }
}

func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:             dir,
		now:             time.Now,
		newID:           uuid.NewString,
		startingBalance: constants.DefaultBalance,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) open() {
	s.d = diskv.New(diskv.Options{
		BasePath:          s.dir,
		TempDir:           filepath.Join(s.dir, ".tmp"),
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		// Other processes write the same files; never serve from cache.
		CacheSizeMax: 0,
	})
}

func keyToPath(key string) *diskv.PathKey {
	return &diskv.PathKey{Path: []string{}, FileName: key + docExt}
}

func pathToKey(pk *diskv.PathKey) string {
	return strings.TrimSuffix(pk.FileName, docExt)
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	s.open()

	if s.d.Has(keyMeta) {
		return s.checkVersion()
	}
	return s.write(keyMeta, meta{Version: schemaVersion})
}

func (s *Store) Load() error {
	if s.d != nil {
		return nil
	}
	if _, err := os.Stat(filepath.Join(s.dir, keyMeta+docExt)); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'habitquest init' first")
	}
	s.open()
	return s.checkVersion()
}

func (s *Store) checkVersion() error {
	var m meta
	if err := s.read(keyMeta, &m); err != nil {
		return err
	}
	if m.Version > schemaVersion {
		return fmt.Errorf("store version (%d) is newer than supported version (%d) - please upgrade habitquest", m.Version, schemaVersion)
	}
	return nil
}

func (s *Store) Close() error {
	s.d = nil
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.dir
}

// read decodes key into out. A missing key leaves out untouched.
func (s *Store) read(key string, out any) error {
	if s.d == nil {
		return fmt.Errorf("kv store not opened")
	}
	if !s.d.Has(key) {
		return nil
	}
	b, err := s.d.Read(key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) write(key string, v any) error {
	if s.d == nil {
		return fmt.Errorf("kv store not opened")
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.d.Write(key, b); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
