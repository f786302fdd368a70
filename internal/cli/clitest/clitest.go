// Package clitest builds a command context over a throwaway kv store.
package clitest

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/config"
	"github.com/julianstephens/habitquest/internal/events"
	"github.com/julianstephens/habitquest/internal/storage"
)

// Start is the instant every Env begins at.
var Start = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

type Env struct {
	*cli.Context
	Buf *bytes.Buffer
	// Cancel cancels the context commands see.
	Cancel context.CancelFunc

	now time.Time
}

func New(t *testing.T) *Env {
	t.Helper()
	return NewIn(t, "UTC")
}

// NewIn is New with the given configured timezone. The store is opened the
// way the binary opens it.
func NewIn(t *testing.T, timezone string) *Env {
	t.Helper()

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if err := cfg.Override("kv", "", timezone); err != nil {
		t.Fatalf("Override() error = %v", err)
	}
	cfg.RemoteURL = ""

	e := &Env{Buf: &bytes.Buffer{}, now: Start}
	clock := func() time.Time { return e.now }
	raw, err := cli.OpenStore(cfg, clock)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	if err := raw.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { raw.Close() })

	base, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bus := events.NewBus()
	e.Context = cli.NewContext(base, cfg, storage.WithEvents(raw, bus), bus)
	e.Context.Out = e.Buf
	e.Context.Now = clock
	e.Cancel = cancel
	return e
}

func (e *Env) Advance(d time.Duration) { e.now = e.now.Add(d) }

// Output returns everything printed since the last call.
func (e *Env) Output() string {
	s := e.Buf.String()
	e.Buf.Reset()
	return s
}
