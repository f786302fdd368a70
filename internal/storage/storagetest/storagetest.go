// Package storagetest is a contract suite every storage.Provider backend
// must pass.
package storagetest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
)

// Epoch is the initial reading of the suite clock.
var Epoch = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

// Options are applied by the factory when building a provider.
type Options struct {
	Now             func() time.Time
	StartingBalance int
}

// Factory returns an initialized, empty provider. It should register its own
// cleanup.
type Factory func(t *testing.T, opts Options) storage.Provider

type fixture struct {
	store storage.Provider
	now   time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func setup(t *testing.T, newProvider Factory) *fixture {
	t.Helper()
	f := &fixture{now: Epoch}
	f.store = newProvider(t, Options{
		Now:             func() time.Time { return f.now },
		StartingBalance: constants.DefaultBalance,
	})
	return f
}

func Run(t *testing.T, newProvider Factory) {
	t.Run("Habits", func(t *testing.T) { testHabits(t, setup(t, newProvider)) })
	t.Run("HabitValidation", func(t *testing.T) { testHabitValidation(t, setup(t, newProvider)) })
	t.Run("Logs", func(t *testing.T) { testLogs(t, setup(t, newProvider)) })
	t.Run("ReplaceAll", func(t *testing.T) { testReplaceAll(t, setup(t, newProvider)) })
	t.Run("History", func(t *testing.T) { testHistory(t, setup(t, newProvider)) })
	t.Run("Wallet", func(t *testing.T) { testWallet(t, setup(t, newProvider)) })
	t.Run("Markers", func(t *testing.T) { testMarkers(t, setup(t, newProvider)) })
	t.Run("ApplyRevival", func(t *testing.T) { testApplyRevival(t, setup(t, newProvider)) })
}

func tickDef(label string) models.HabitDefinition {
	return models.HabitDefinition{
		Label:        label,
		Emoji:        "📚",
		Color:        "#4caf50",
		TrackingType: constants.TrackingTickCross,
		DurationDays: 21,
	}
}

func amountDef(label string, target float64) models.HabitDefinition {
	return models.HabitDefinition{
		Label:        label,
		TrackingType: constants.TrackingVariableAmount,
		Target:       models.Some(target),
		Unit:         "glasses",
		DurationDays: 30,
	}
}

func testHabits(t *testing.T, f *fixture) {
	read, err := f.store.CreateHabit(tickDef("Read"))
	require.NoError(t, err)
	assert.NotEmpty(t, read.ID)
	assert.True(t, read.CreatedAt.Equal(Epoch))
	assert.Equal(t, constants.CadenceDaily, read.Cadence)

	f.advance(time.Hour)
	water, err := f.store.CreateHabit(amountDef("Water", 8))
	require.NoError(t, err)
	assert.NotEqual(t, read.ID, water.ID)

	got, err := f.store.GetHabit(water.ID)
	require.NoError(t, err)
	assert.Equal(t, "Water", got.Label)
	assert.Equal(t, constants.TrackingVariableAmount, got.TrackingType)
	target, ok := got.Target.Get()
	assert.True(t, ok)
	assert.Equal(t, 8.0, target)
	assert.Equal(t, "glasses", got.Unit)
	assert.True(t, got.CreatedAt.Equal(water.CreatedAt))

	all, err := f.store.GetAllHabits()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, read.ID, all[0].ID, "habits are ordered by creation")

	label := "Read more"
	days := 30
	updated, err := f.store.UpdateHabit(read.ID, models.HabitPatch{Label: &label, DurationDays: &days})
	require.NoError(t, err)
	assert.Equal(t, "Read more", updated.Label)
	assert.Equal(t, 30, updated.DurationDays)
	assert.True(t, updated.CreatedAt.Equal(read.CreatedAt), "update never moves CreatedAt")

	zero := 0
	_, err = f.store.UpdateHabit(read.ID, models.HabitPatch{DurationDays: &zero})
	assert.ErrorIs(t, err, models.ErrInvalidHabit)
	stored, err := f.store.GetHabit(read.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.DurationDays, "failed update leaves the habit unchanged")

	_, err = f.store.UpdateHabit("missing", models.HabitPatch{Label: &label})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, f.store.DeleteHabit(read.ID))
	_, err = f.store.GetHabit(read.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, f.store.DeleteHabit(read.ID), "deleting twice is harmless")
}

func testHabitValidation(t *testing.T, f *fixture) {
	def := tickDef("Run")
	def.Target = models.Some(5)
	_, err := f.store.CreateHabit(def)
	assert.ErrorIs(t, err, models.ErrInvalidHabit)

	_, err = f.store.CreateHabit(models.HabitDefinition{Label: "Nope", TrackingType: constants.TrackingQuit})
	assert.ErrorIs(t, err, models.ErrInvalidHabit)

	all, err := f.store.GetAllHabits()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testLogs(t *testing.T, f *fixture) {
	_, err := f.store.GetLog("h1", "2025-01-01")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	saved, err := f.store.UpsertLog(models.HabitLog{HabitID: "h1", Date: "2025-01-01", Completed: true})
	require.NoError(t, err)
	assert.True(t, saved.UpdatedAt.Equal(Epoch))

	f.advance(time.Minute)
	_, err = f.store.UpsertLog(models.HabitLog{HabitID: "h1", Date: "2025-01-01", Completed: false})
	require.NoError(t, err)

	got, err := f.store.GetLog("h1", "2025-01-01")
	require.NoError(t, err)
	assert.False(t, got.Completed, "upsert replaces the existing record")
	assert.True(t, got.UpdatedAt.After(saved.UpdatedAt))

	for _, l := range []models.HabitLog{
		{HabitID: "h1", Date: "2025-01-02", Completed: true},
		{HabitID: "h1", Date: "2025-01-05", Completed: true, WasRevived: true},
		{HabitID: "h2", Date: "2025-01-03", Value: models.Some(2.5)},
	} {
		_, err := f.store.UpsertLog(l)
		require.NoError(t, err)
	}

	h1, err := f.store.GetAllLogs("h1")
	require.NoError(t, err)
	require.Len(t, h1, 3, "one record per (habit, date)")
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-05"}, dates(h1))
	assert.True(t, h1[2].WasRevived)

	all, err := f.store.GetAllLogs("")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	h2, err := f.store.GetLog("h2", "2025-01-03")
	require.NoError(t, err)
	v, ok := h2.Value.Get()
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)
	assert.False(t, h1[0].Value.IsSome())

	ranged, err := f.store.GetLogsInRange("h1", "2025-01-02", "2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-02", "2025-01-05"}, dates(ranged))

	ranged, err = f.store.GetLogsInRange("", "2025-01-03", "2025-01-03")
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "h2", ranged[0].HabitID)

	_, err = f.store.UpsertLog(models.HabitLog{HabitID: "h1", Date: "Jan 5"})
	assert.ErrorIs(t, err, models.ErrInvalidLog)

	require.NoError(t, f.store.DeleteLogsForHabit("h1"))
	h1, err = f.store.GetAllLogs("h1")
	require.NoError(t, err)
	assert.Empty(t, h1)
	h2logs, err := f.store.GetAllLogs("h2")
	require.NoError(t, err)
	assert.Len(t, h2logs, 1, "other habits keep their logs")
}

func testReplaceAll(t *testing.T, f *fixture) {
	_, err := f.store.CreateHabit(tickDef("Local"))
	require.NoError(t, err)
	_, err = f.store.UpsertLog(models.HabitLog{HabitID: "old", Date: "2025-01-01", Completed: true})
	require.NoError(t, err)

	remote := models.Habit{
		ID:           "42",
		Label:        "Remote",
		TrackingType: constants.TrackingQuit,
		Cadence:      constants.CadenceWeekly,
		DurationDays: 14,
		CreatedAt:    Epoch.Add(-48 * time.Hour),
	}
	require.NoError(t, f.store.ReplaceAllHabits([]models.Habit{remote}))

	habits, err := f.store.GetAllHabits()
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, "42", habits[0].ID)
	assert.Equal(t, constants.CadenceWeekly, habits[0].Cadence)
	assert.True(t, habits[0].CreatedAt.Equal(remote.CreatedAt))

	require.NoError(t, f.store.ReplaceAllLogs([]models.HabitLog{
		{HabitID: "42", Date: "2025-01-09", Completed: true},
		{HabitID: "42", Date: "2025-01-08", Completed: false},
	}))
	logs, err := f.store.GetAllLogs("")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-08", "2025-01-09"}, dates(logs))

	require.NoError(t, f.store.ReplaceAllLogs(nil))
	logs, err = f.store.GetAllLogs("")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func testHistory(t *testing.T, f *fixture) {
	first := models.QuestHistoryEntry{
		ID:            "h1",
		Label:         "Read",
		TrackingType:  constants.TrackingTickCross,
		HighestStreak: 4,
		DaysCompleted: 5,
		DaysMissed:    2,
		TotalDays:     7,
		CompletedAt:   Epoch,
		Reason:        constants.ArchiveCompleted,
	}
	require.NoError(t, f.store.AddHistoryEntry(first))

	dup := first
	dup.HighestStreak = 99
	assert.ErrorIs(t, f.store.AddHistoryEntry(dup), storage.ErrHistoryExists)

	got, err := f.store.GetHistoryEntry("h1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.HighestStreak, "history entries are immutable")
	assert.Equal(t, constants.ArchiveCompleted, got.Reason)
	assert.False(t, got.Target.IsSome())

	second := models.QuestHistoryEntry{
		ID:           "h2",
		Label:        "Water",
		TrackingType: constants.TrackingVariableAmount,
		Target:       models.Some(8),
		Unit:         "glasses",
		CompletedAt:  Epoch.Add(24 * time.Hour),
		Reason:       constants.ArchiveDeleted,
	}
	require.NoError(t, f.store.AddHistoryEntry(second))

	history, err := f.store.GetHistory()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "h2", history[0].ID, "newest first")

	_, err = f.store.GetHistoryEntry("missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, f.store.DeleteHistoryEntry("h1"))
	assert.ErrorIs(t, f.store.DeleteHistoryEntry("h1"), storage.ErrNotFound)

	require.NoError(t, f.store.ReplaceAllHistory([]models.QuestHistoryEntry{first}))
	history, err = f.store.GetHistory()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "h1", history[0].ID)
}

func testWallet(t *testing.T, f *fixture) {
	balance, err := f.store.GetBalance()
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultBalance, balance)

	require.NoError(t, f.store.SetBalance(25))
	balance, err = f.store.GetBalance()
	require.NoError(t, err)
	assert.Equal(t, 25, balance)

	balance, err = f.store.AddBalance(-10)
	require.NoError(t, err)
	assert.Equal(t, 15, balance)

	balance, err = f.store.AddBalance(-100)
	require.NoError(t, err)
	assert.Equal(t, 0, balance, "subtraction clamps at zero")

	assert.Error(t, f.store.SetBalance(-1))
}

func testMarkers(t *testing.T, f *fixture) {
	shown, err := f.store.HasCompletionShown("h1")
	require.NoError(t, err)
	assert.False(t, shown)

	require.NoError(t, f.store.MarkCompletionShown("h1"))
	require.NoError(t, f.store.MarkCompletionShown("h1"))
	require.NoError(t, f.store.MarkCompletionShown("h0"))

	shown, err = f.store.HasCompletionShown("h1")
	require.NoError(t, err)
	assert.True(t, shown)

	ids, err := f.store.GetCompletionShown()
	require.NoError(t, err)
	assert.Equal(t, []string{"h0", "h1"}, ids)
}

func testApplyRevival(t *testing.T, f *fixture) {
	satisfied := func(l models.HabitLog) bool { return l.Completed || l.WasRevived }
	revived := models.HabitLog{HabitID: "h1", Date: "2025-01-05", Completed: true, WasRevived: true}

	require.NoError(t, f.store.SetBalance(25))

	balance, err := f.store.ApplyRevival(revived, 10, satisfied)
	require.NoError(t, err)
	assert.Equal(t, 15, balance)

	got, err := f.store.GetLog("h1", "2025-01-05")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.True(t, got.WasRevived)

	_, err = f.store.ApplyRevival(revived, 10, satisfied)
	assert.ErrorIs(t, err, storage.ErrAlreadySatisfied)
	balance, err = f.store.GetBalance()
	require.NoError(t, err)
	assert.Equal(t, 15, balance, "no double charge")

	// an explicit failed log can be overwritten
	_, err = f.store.UpsertLog(models.HabitLog{HabitID: "h1", Date: "2025-01-06", Completed: false})
	require.NoError(t, err)
	second := revived
	second.Date = "2025-01-06"
	balance, err = f.store.ApplyRevival(second, 10, satisfied)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	third := revived
	third.Date = "2025-01-07"
	_, err = f.store.ApplyRevival(third, 10, satisfied)
	assert.ErrorIs(t, err, storage.ErrInsufficientBalance)
	_, err = f.store.GetLog("h1", "2025-01-07")
	assert.ErrorIs(t, err, storage.ErrNotFound, "nothing written when the balance is short")
	balance, err = f.store.GetBalance()
	require.NoError(t, err)
	assert.Equal(t, 5, balance)
}

func dates(logs []models.HabitLog) []string {
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = l.Date
	}
	return out
}
