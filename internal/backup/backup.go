// Package backup keeps rotating snapshots of the local stores. SQLite
// databases are copied with VACUUM INTO; kv stores are copied document by
// document.
package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/logger"
)

const (
	// DefaultKeep is how many backups survive rotation.
	DefaultKeep = 14
	DirName     = "backups"

	filePrefix = constants.AppName + "-"
	sqliteExt  = ".db"
	kvExt      = ".kv"

	stampMinute = "20060102-1504"
	stampSecond = "20060102-150405"
)

var (
	ErrUnsupported = errors.New("backups are only supported for local backends")
	ErrInvalid     = errors.New("backup is corrupted or invalid")
)

var log = logger.With("backup")

type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

func (i Info) Name() string { return filepath.Base(i.Path) }

type Manager struct {
	backend constants.Backend
	source  string
	dir     string
	keep    int
	now     func() time.Time
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithKeep(n int) Option {
	return func(m *Manager) { m.keep = n }
}

// NewManager backs up the store at source into <configDir>/backups.
func NewManager(backend constants.Backend, source, configDir string, opts ...Option) (*Manager, error) {
	if backend != constants.BackendSQLite && backend != constants.BackendKV {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, backend)
	}
	m := &Manager{
		backend: backend,
		source:  source,
		dir:     filepath.Join(configDir, DirName),
		keep:    DefaultKeep,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) Dir() string { return m.dir }

func (m *Manager) ext() string {
	if m.backend == constants.BackendKV {
		return kvExt
	}
	return sqliteExt
}

func (m *Manager) Create() (Info, error) {
	return m.create(true)
}

func (m *Manager) create(rotate bool) (Info, error) {
	if _, err := os.Stat(m.source); os.IsNotExist(err) {
		return Info{}, fmt.Errorf("store does not exist: %s", m.source)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return Info{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	dest, stamp, err := m.nextName()
	if err != nil {
		return Info{}, err
	}

	if m.backend == constants.BackendKV {
		err = copyDocs(m.source, dest)
	} else {
		err = vacuumInto(m.source, dest)
	}
	if err != nil {
		os.RemoveAll(dest)
		return Info{}, fmt.Errorf("failed to back up store: %w", err)
	}
	log.Info("backup created", "path", dest)

	if rotate {
		if err := m.rotate(); err != nil {
			log.Warn("failed to rotate old backups", "error", err)
		}
	}
	return Info{Path: dest, Timestamp: stamp, Size: sizeOf(dest)}, nil
}

// nextName picks a free file name, falling back to second precision and then
// a counter when backups are taken in quick succession.
func (m *Manager) nextName() (string, time.Time, error) {
	now := m.now()
	name := func(stamp string) string {
		return filepath.Join(m.dir, filePrefix+stamp+m.ext())
	}

	p := name(now.Format(stampMinute))
	if !exists(p) {
		return p, now.Truncate(time.Minute), nil
	}
	stamp := now.Format(stampSecond)
	if p = name(stamp); !exists(p) {
		return p, now.Truncate(time.Second), nil
	}
	for i := 1; i <= 100; i++ {
		if p = name(fmt.Sprintf("%s-%d", stamp, i)); !exists(p) {
			return p, now.Truncate(time.Second), nil
		}
	}
	return "", time.Time{}, fmt.Errorf("failed to generate unique backup name")
}

// List returns the backups for this backend, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var out []Info
	for _, e := range entries {
		stamp, ok := parseName(e.Name(), m.ext())
		if !ok {
			continue
		}
		p := filepath.Join(m.dir, e.Name())
		out = append(out, Info{Path: p, Timestamp: stamp, Size: sizeOf(p)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Path > out[j].Path
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func parseName(name, ext string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ext) {
		return time.Time{}, false
	}
	s := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ext)

	// drop a trailing "-N" counter
	if i := strings.LastIndex(s, "-"); i > 0 && strings.Count(s, "-") > 1 {
		s = s[:i]
	}
	for _, layout := range []string{stampMinute, stampSecond} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := m.keep; i < len(backups); i++ {
		if err := os.RemoveAll(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the store with the backup at path. The current store is
// backed up first. The store must be closed by the caller.
func (m *Manager) Restore(path string) (Info, error) {
	if !exists(path) {
		return Info{}, fmt.Errorf("backup does not exist: %s", path)
	}
	if err := m.verify(path); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var saved Info
	if exists(m.source) {
		var err error
		if saved, err = m.create(false); err != nil {
			return Info{}, fmt.Errorf("failed to back up current store before restore: %w", err)
		}
	}

	tmp := m.source + ".restore.tmp"
	os.RemoveAll(tmp)

	var err error
	if m.backend == constants.BackendKV {
		err = copyDocs(path, tmp)
	} else {
		err = copyFile(path, tmp)
	}
	if err != nil {
		os.RemoveAll(tmp)
		return saved, fmt.Errorf("failed to copy backup: %w", err)
	}

	if m.backend == constants.BackendKV {
		if err := os.RemoveAll(m.source); err != nil {
			os.RemoveAll(tmp)
			return saved, fmt.Errorf("failed to clear store: %w", err)
		}
	} else {
		os.Remove(m.source + "-wal")
		os.Remove(m.source + "-shm")
	}
	if err := os.Rename(tmp, m.source); err != nil {
		os.RemoveAll(tmp)
		return saved, fmt.Errorf("failed to restore store: %w", err)
	}
	log.Info("backup restored", "path", path)
	return saved, nil
}

func (m *Manager) verify(path string) error {
	if m.backend == constants.BackendKV {
		if !exists(filepath.Join(path, "meta.json")) {
			return fmt.Errorf("missing meta document")
		}
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var n int
	return db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n)
}

func vacuumInto(src, dest string) error {
	db, err := sql.Open("sqlite", src+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n); err != nil {
		return fmt.Errorf("store appears to be corrupted: %w", err)
	}
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		db.Close()
		return copyFile(src, dest)
	}
	return nil
}

// copyDocs copies the top-level documents of a kv store. The diskv temp
// directory is skipped.
func copyDocs(src, dest string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0700); err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dest, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func sizeOf(p string) int64 {
	fi, err := os.Stat(p)
	if err != nil {
		return 0
	}
	if !fi.IsDir() {
		return fi.Size()
	}
	var total int64
	entries, _ := os.ReadDir(p)
	for _, e := range entries {
		if info, err := e.Info(); err == nil && !e.IsDir() {
			total += info.Size()
		}
	}
	return total
}
