package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitquest/internal/completion"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/storage/sqlite"
)

var created = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Tracker, *sqlite.Store) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.ReplaceAllHabits([]models.Habit{
		{
			ID: "tick", Label: "Read", TrackingType: constants.TrackingTickCross,
			Cadence: constants.CadenceDaily, DurationDays: 30, CreatedAt: created,
		},
		{
			ID: "water", Label: "Water", TrackingType: constants.TrackingVariableAmount,
			Target: models.Some(8), Unit: "glasses", Cadence: constants.CadenceDaily,
			DurationDays: 30, CreatedAt: created,
		},
	}))
	return New(store, func() string { return "2025-01-05" }), store
}

func TestToggle(t *testing.T) {
	tr, store := setup(t)
	ctx := context.Background()

	l, err := tr.Toggle(ctx, "tick", "2025-01-03")
	require.NoError(t, err)
	assert.True(t, l.Completed)

	l, err = tr.Toggle(ctx, "tick", "2025-01-03")
	require.NoError(t, err)
	assert.False(t, l.Completed)

	stored, err := store.GetLog("tick", "2025-01-03")
	require.NoError(t, err)
	assert.False(t, stored.Completed)
}

func TestToggle_PreservesRevivedFlag(t *testing.T) {
	tr, store := setup(t)
	_, err := store.UpsertLog(models.HabitLog{HabitID: "tick", Date: "2025-01-02", Completed: true, WasRevived: true})
	require.NoError(t, err)

	l, err := tr.Toggle(context.Background(), "tick", "2025-01-02")
	require.NoError(t, err)
	assert.False(t, l.Completed)
	assert.True(t, l.WasRevived)
}

func TestToggle_Rejections(t *testing.T) {
	tr, _ := setup(t)
	ctx := context.Background()

	_, err := tr.Toggle(ctx, "tick", "2025-01-06")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = tr.Toggle(ctx, "tick", "2024-12-31")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = tr.Toggle(ctx, "tick", "5 Jan")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = tr.Toggle(ctx, "water", "2025-01-02")
	assert.ErrorIs(t, err, ErrWrongTrackingType)
	_, err = tr.Toggle(ctx, "missing", "2025-01-02")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLogValue(t *testing.T) {
	tr, _ := setup(t)
	ctx := context.Background()
	water := models.Habit{TrackingType: constants.TrackingVariableAmount, Target: models.Some(8)}

	half, err := tr.LogValue(ctx, "water", "2025-01-04", 4)
	require.NoError(t, err)
	assert.False(t, half.Completed, "half the target is not a completed day")
	assert.False(t, completion.IsSuccess(water, &half))
	assert.True(t, completion.IsPartiallyCompleted(4, 8))

	low, err := tr.LogValue(ctx, "water", "2025-01-04", 3)
	require.NoError(t, err)
	assert.False(t, low.Completed)

	full, err := tr.LogValue(ctx, "water", "2025-01-05", 8)
	require.NoError(t, err)
	assert.True(t, full.Completed)
	assert.True(t, completion.IsSuccess(water, &full))

	// the stored flag and the success rule always agree
	for _, v := range []float64{0, 3.99, 4, 7.99, 8, 12} {
		l, err := tr.LogValue(ctx, "water", "2025-01-03", v)
		require.NoError(t, err)
		assert.Equal(t, completion.IsSuccess(water, &l), l.Completed, "value %v", v)
	}

	_, err = tr.LogValue(ctx, "water", "2025-01-04", -1)
	assert.ErrorIs(t, err, models.ErrInvalidLog)
	_, err = tr.LogValue(ctx, "tick", "2025-01-04", 1)
	assert.ErrorIs(t, err, ErrWrongTrackingType)
}

func TestLogValue_PreservesRevivedFlag(t *testing.T) {
	tr, store := setup(t)
	_, err := store.UpsertLog(models.HabitLog{
		HabitID: "water", Date: "2025-01-02", Completed: true, Value: models.Some(8), WasRevived: true,
	})
	require.NoError(t, err)

	l, err := tr.LogValue(context.Background(), "water", "2025-01-02", 2)
	require.NoError(t, err)
	assert.True(t, l.WasRevived)
	v, _ := l.Value.Get()
	assert.Equal(t, 2.0, v)
}
