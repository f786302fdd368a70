package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/events"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/storage/kv"
)

func TestWithEventsPublishesMutations(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	raw := kv.NewStore(t.TempDir(), kv.WithClock(func() time.Time { return now }))
	require.NoError(t, raw.Init())

	bus := events.NewBus()
	var got []events.Type
	bus.Subscribe(func(ev events.Event) { got = append(got, ev.Type) })

	p := storage.WithEvents(raw, bus)
	h, err := p.CreateHabit(models.HabitDefinition{
		Label:        "Read",
		TrackingType: constants.TrackingTickCross,
		DurationDays: 7,
	})
	require.NoError(t, err)

	_, err = p.UpsertLog(models.HabitLog{HabitID: h.ID, Date: "2025-01-10", Completed: true})
	require.NoError(t, err)
	_, err = p.ApplyRevival(models.HabitLog{HabitID: h.ID, Date: "2025-01-09", Completed: true, WasRevived: true}, 10,
		func(models.HabitLog) bool { return false })
	require.NoError(t, err)

	// reads publish nothing
	_, err = p.GetAllHabits()
	require.NoError(t, err)

	assert.Equal(t, []events.Type{
		events.HabitsChanged,
		events.LogsChanged,
		events.WalletChanged,
		events.LogsChanged,
	}, got)
}

func TestWithEventsSkipsFailedMutations(t *testing.T) {
	raw := kv.NewStore(t.TempDir())
	require.NoError(t, raw.Init())

	bus := events.NewBus()
	published := 0
	bus.Subscribe(func(events.Event) { published++ })

	p := storage.WithEvents(raw, bus)
	_, err := p.CreateHabit(models.HabitDefinition{Label: "", TrackingType: constants.TrackingTickCross, DurationDays: 7})
	require.Error(t, err)
	require.Error(t, p.SetBalance(-1))
	assert.Zero(t, published)
}

func TestUnwrap(t *testing.T) {
	raw := kv.NewStore(t.TempDir())
	wrapped := storage.WithEvents(raw, events.NewBus())

	assert.Same(t, raw, storage.Unwrap(wrapped))
	assert.Same(t, raw, storage.Unwrap(raw))
}
