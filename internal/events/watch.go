package events

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/logger"
)

var log = logger.With("watch")

// Watcher turns filesystem writes to a store location into ExternalChange
// events on a bus. The target may be a directory (kv store) or a database
// file, in which case its -wal/-shm/-journal siblings count too.
type Watcher struct {
	target string
	dir    string
	prefix string
	isDir  bool
	bus    *Bus
	fsw    *fsnotify.Watcher

	closeOnce sync.Once
}

// NewWatcher starts watching target. Events are only delivered once Run is
// called.
func NewWatcher(target string, bus *Bus) (*Watcher, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", target, err)
	}

	w := &Watcher{target: abs, bus: bus}
	info, err := os.Stat(abs)
	switch {
	case err == nil && info.IsDir():
		w.isDir = true
		w.dir = abs
	case err == nil || os.IsNotExist(err):
		w.dir = filepath.Dir(abs)
		w.prefix = filepath.Base(abs)
	default:
		return nil, fmt.Errorf("watch: stat %s: %w", abs, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w.fsw = fsw

	dirs := []string{w.dir}
	if w.isDir {
		dirs, err = collectDirs(w.dir)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("watch: enumerate directories: %w", err)
		}
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch: add %s: %w", d, err)
		}
	}
	return w, nil
}

// Run publishes coalesced ExternalChange events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	throttle := newThrottle(constants.WatchThrottle, func() {
		w.bus.Publish(Event{Type: ExternalChange})
	})
	defer throttle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error, forcing refresh", "error", err)
			throttle.Trigger()
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if evt.Op == fsnotify.Chmod {
				continue
			}
			if !w.relevant(evt.Name) {
				continue
			}
			if w.isDir && evt.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(evt.Name); err != nil {
						log.Warn("failed to watch new directory", "dir", evt.Name, "error", err)
					}
				}
			}
			throttle.Trigger()
		}
	}
}

func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		if w.fsw != nil {
			if err := w.fsw.Close(); err != nil {
				log.Warn("watcher close failed", "error", err)
			}
		}
	})
}

func (w *Watcher) relevant(name string) bool {
	if w.isDir {
		return true
	}
	return strings.HasPrefix(filepath.Base(name), w.prefix)
}

// Watch blocks, publishing ExternalChange events for writes under target,
// until ctx is cancelled.
func Watch(ctx context.Context, target string, bus *Bus) error {
	w, err := NewWatcher(target, bus)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func collectDirs(base string) ([]string, error) {
	dirs := []string{}
	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// throttle collapses a burst of triggers into one call of fire, delay after
// the first trigger of the burst.
type throttle struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fire  func()
}

func newThrottle(delay time.Duration, fire func()) *throttle {
	return &throttle{delay: delay, fire: fire}
}

func (t *throttle) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		return
	}
	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		t.timer = nil
		t.mu.Unlock()
		t.fire()
	})
}

func (t *throttle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
