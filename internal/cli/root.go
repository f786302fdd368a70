package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/habitquest/internal/config"
	"github.com/julianstephens/habitquest/internal/events"
	"github.com/julianstephens/habitquest/internal/keyring"
	"github.com/julianstephens/habitquest/internal/lifecycle"
	"github.com/julianstephens/habitquest/internal/logger"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/remote"
	"github.com/julianstephens/habitquest/internal/revival"
	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/tracker"
	"github.com/julianstephens/habitquest/internal/utils"
)

// ErrRemoteNotConfigured is returned by Syncer when no backend URL is set.
var ErrRemoteNotConfigured = errors.New("remote backend not configured, run 'habitquest remote login' first")

// Context is handed to every command's Run method.
type Context struct {
	Config *config.Config
	Store  storage.Provider
	Bus    *events.Bus
	Out    io.Writer
	// Now defaults to time.Now.
	Now func() time.Time

	base context.Context
}

func NewContext(base context.Context, cfg *config.Config, store storage.Provider, bus *events.Bus) *Context {
	return &Context{
		Config: cfg,
		Store:  store,
		Bus:    bus,
		Out:    os.Stdout,
		Now:    time.Now,
		base:   base,
	}
}

// Ctx is cancelled when the process receives an interrupt.
func (c *Context) Ctx() context.Context {
	if c.base == nil {
		return context.Background()
	}
	return c.base
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// Clock is the current instant in the configured timezone.
func (c *Context) Clock() time.Time {
	now := c.Now()
	loc, err := utils.LoadLocation(c.Config.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, using local time", "timezone", c.Config.Timezone, "error", err)
		return now
	}
	return now.In(loc)
}

func (c *Context) Today() string {
	return utils.CivilDate(c.Clock())
}

// FindHabit resolves ref as a habit ID first and then as a label.
func (c *Context) FindHabit(ref string) (models.Habit, error) {
	h, err := c.Store.GetHabit(ref)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, err
	}

	habits, err := c.Store.GetAllHabits()
	if err != nil {
		return models.Habit{}, err
	}
	for _, h := range habits {
		if h.MatchesLabel(ref) {
			return h, nil
		}
	}
	return models.Habit{}, fmt.Errorf("habit %q: %w", ref, storage.ErrNotFound)
}

// Syncer connects to the configured backend using the API token from the
// keyring or environment.
func (c *Context) Syncer() (*remote.Syncer, error) {
	if c.Config.RemoteURL == "" {
		return nil, ErrRemoteNotConfigured
	}
	token, err := keyring.Get(keyring.APIToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read API token: %w", err)
	}
	return remote.NewSyncer(remote.NewClient(c.Config.RemoteURL, token), c.Store), nil
}

// Lifecycle also registers and deletes habits on the backend when one is
// configured.
func (c *Context) Lifecycle() *lifecycle.Manager {
	opts := []lifecycle.Option{lifecycle.WithClock(c.Clock)}
	if s, err := c.Syncer(); err == nil {
		opts = append(opts, lifecycle.WithRemote(s))
	} else if !errors.Is(err, ErrRemoteNotConfigured) {
		logger.Warn("remote unavailable, changes stay local", "error", err)
	}
	return lifecycle.New(c.Store, opts...)
}

func (c *Context) Tracker() *tracker.Tracker {
	return tracker.New(c.Store, c.Today)
}

func (c *Context) Revival() *revival.Service {
	return revival.NewService(c.Store, c.Today)
}

// PushLog mirrors a local entry to the backend when one is configured.
// Failures only warn; the local write already happened.
func (c *Context) PushLog(l models.HabitLog) {
	s, err := c.Syncer()
	if err != nil {
		if !errors.Is(err, ErrRemoteNotConfigured) {
			logger.Warn("remote unavailable, log kept locally", "error", err)
		}
		return
	}
	if err := s.PushLog(c.Ctx(), l); err != nil {
		logger.Warn("failed to push log", "habit", l.HabitID, "date", l.Date, "error", err)
		c.Printf("⚠ Not synced: %v\n", err)
	}
}
