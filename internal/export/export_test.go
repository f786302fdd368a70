package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage/kv"
	"github.com/julianstephens/habitquest/internal/storage/sqlite"
	"github.com/julianstephens/habitquest/internal/storage/sqldb"
)

var now = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func seed(t *testing.T) *kv.Store {
	t.Helper()
	store := kv.NewStore(t.TempDir(), kv.WithClock(clock))
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.ReplaceAllHabits([]models.Habit{
		{
			ID: "h2", Label: "Water", Color: "#2196F3", TrackingType: constants.TrackingVariableAmount,
			Target: models.Some(8), Unit: "glasses", Cadence: constants.CadenceDaily, DurationDays: 21,
			CreatedAt: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC), IsPrivate: true,
		},
		{
			ID: "h1", Label: "Read", Color: "#4CAF50", TrackingType: constants.TrackingTickCross,
			Cadence: constants.CadenceDaily, DurationDays: 30,
			CreatedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		},
	}))
	require.NoError(t, store.ReplaceAllLogs([]models.HabitLog{
		{HabitID: "h2", Date: "2025-01-02", Completed: true, Value: models.Some(8), WasRevived: true},
		{HabitID: "h1", Date: "2025-01-01", Completed: true},
	}))
	require.NoError(t, store.AddHistoryEntry(models.QuestHistoryEntry{
		ID: "h0", Label: "Stretch", TrackingType: constants.TrackingTickCross,
		HighestStreak: 5, DaysCompleted: 6, DaysMissed: 1, TotalDays: 7,
		CompletedAt: time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC), Reason: constants.ArchiveCompleted,
	}))
	require.NoError(t, store.SetBalance(1240))
	require.NoError(t, store.MarkCompletionShown("h0"))
	return store
}

func TestWrite_Golden(t *testing.T) {
	snap, err := Take(seed(t), now)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, snap))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "snapshot", buf.Bytes())
}

func TestRoundTripAcrossBackends(t *testing.T) {
	snap, err := Take(seed(t), now)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, snap))

	read, err := Read(&buf)
	require.NoError(t, err)

	dst := sqlite.NewStore(filepath.Join(t.TempDir(), "restore.db"), sqldb.WithClock(clock))
	require.NoError(t, dst.Init())
	t.Cleanup(func() { _ = dst.Close() })
	require.NoError(t, Restore(dst, read, now))

	again, err := Take(dst, now)
	require.NoError(t, err)

	var first, second bytes.Buffer
	require.NoError(t, Write(&first, snap))
	require.NoError(t, Write(&second, again))
	assert.JSONEq(t, first.String(), second.String())
}

func TestRead_RejectsUnknownVersion(t *testing.T) {
	_, err := Read(strings.NewReader(`{"version": 2}`))
	assert.ErrorContains(t, err, "unsupported export version 2")

	_, err = Read(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestRestore_InvalidHabitWritesNothing(t *testing.T) {
	store := seed(t)
	bad := Snapshot{
		Version: FormatVersion,
		Habits:  []models.Habit{{ID: "x", Label: "Bad", TrackingType: "boolean", DurationDays: 1, CreatedAt: now}},
	}

	err := Restore(store, bad, now)
	assert.ErrorIs(t, err, models.ErrInvalidHabit)

	habits, err := store.GetAllHabits()
	require.NoError(t, err)
	assert.Len(t, habits, 2)
}
