package events

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, target string) (*Bus, *int32) {
	t.Helper()
	bus := NewBus()
	var count int32
	bus.Subscribe(func(ev Event) {
		if ev.Type == ExternalChange {
			atomic.AddInt32(&count, 1)
		}
	})

	w, err := NewWatcher(target, bus)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return bus, &count
}

func TestWatcher_DirectoryWrites(t *testing.T) {
	dir := t.TempDir()
	_, count := startWatcher(t, dir)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "habit_logs"), []byte{byte(i)}, 0o600))
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(count) >= 1 }, 2*time.Second, 20*time.Millisecond)

	// the burst is coalesced into far fewer events than writes
	time.Sleep(300 * time.Millisecond)
	assert.Less(t, atomic.LoadInt32(count), int32(5))
}

func TestWatcher_FileTargetIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "habitquest.db")
	require.NoError(t, os.WriteFile(db, nil, 0o600))
	_, count := startWatcher(t, db)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o600))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(count))

	require.NoError(t, os.WriteFile(db+"-wal", []byte("x"), 0o600))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(count) == 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestWatch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Watch(ctx, t.TempDir(), NewBus()) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
