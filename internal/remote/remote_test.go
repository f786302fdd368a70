package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/lifecycle"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage/kv"
)

func TestLocalKind(t *testing.T) {
	tests := []struct {
		mode     TrackingMode
		kind     HabitType
		tracking constants.TrackingType
		cadence  constants.Cadence
	}{
		{ModeDaily, TypeGood, constants.TrackingTickCross, constants.CadenceDaily},
		{ModeDaily, TypeNeutral, constants.TrackingTickCross, constants.CadenceDaily},
		{ModeWeekly, TypeGood, constants.TrackingTickCross, constants.CadenceWeekly},
		{ModeWeekly, TypeNeutral, constants.TrackingTickCross, constants.CadenceWeekly},
		{ModeDaily, TypeBad, constants.TrackingQuit, constants.CadenceDaily},
		{ModeWeekly, TypeBad, constants.TrackingQuit, constants.CadenceWeekly},
		{ModeCount, TypeGood, constants.TrackingVariableAmount, constants.CadenceDaily},
		{ModeCount, TypeBad, constants.TrackingVariableAmount, constants.CadenceDaily},
		{ModeTime, TypeNeutral, constants.TrackingVariableAmount, constants.CadenceDaily},
		{ModeTime, TypeBad, constants.TrackingVariableAmount, constants.CadenceDaily},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode)+"/"+string(tt.kind), func(t *testing.T) {
			tracking, cadence, err := LocalKind(tt.mode, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.tracking, tracking)
			assert.Equal(t, tt.cadence, cadence)
		})
	}

	_, _, err := LocalKind("hourly", TypeGood)
	assert.ErrorIs(t, err, ErrUnmappable)
	_, _, err = LocalKind(ModeDaily, "ugly")
	assert.ErrorIs(t, err, ErrUnmappable)
}

func TestBackendKind(t *testing.T) {
	tests := []struct {
		tracking constants.TrackingType
		cadence  constants.Cadence
		mode     TrackingMode
		kind     HabitType
	}{
		{constants.TrackingTickCross, constants.CadenceDaily, ModeDaily, TypeGood},
		{constants.TrackingTickCross, constants.CadenceWeekly, ModeWeekly, TypeGood},
		{constants.TrackingTickCross, constants.CadenceMonthly, ModeDaily, TypeGood},
		{constants.TrackingVariableAmount, constants.CadenceDaily, ModeCount, TypeGood},
		{constants.TrackingQuit, constants.CadenceDaily, ModeDaily, TypeBad},
		{constants.TrackingQuit, constants.CadenceWeekly, ModeWeekly, TypeBad},
	}
	for _, tt := range tests {
		mode, kind := BackendKind(tt.tracking, tt.cadence)
		assert.Equal(t, tt.mode, mode, "%s/%s", tt.tracking, tt.cadence)
		assert.Equal(t, tt.kind, kind, "%s/%s", tt.tracking, tt.cadence)
	}
}

func TestKindRoundTrip(t *testing.T) {
	// Every local kind except monthly cadence survives the trip.
	for _, tracking := range []constants.TrackingType{constants.TrackingTickCross, constants.TrackingQuit} {
		for _, cadence := range []constants.Cadence{constants.CadenceDaily, constants.CadenceWeekly} {
			mode, kind := BackendKind(tracking, cadence)
			gotTracking, gotCadence, err := LocalKind(mode, kind)
			require.NoError(t, err)
			assert.Equal(t, tracking, gotTracking)
			assert.Equal(t, cadence, gotCadence)
		}
	}
}

func TestLogStatusCompleted(t *testing.T) {
	for _, s := range []LogStatus{StatusMissed, StatusNone, StatusSkipped, StatusFailed, StatusPartial} {
		done, err := s.Completed()
		require.NoError(t, err)
		assert.False(t, done, s)
	}
	done, err := StatusCompleted.Completed()
	require.NoError(t, err)
	assert.True(t, done)

	_, err = LogStatus("maybe").Completed()
	assert.ErrorIs(t, err, ErrUnmappable)
}

func TestIDs(t *testing.T) {
	assert.Equal(t, "42", LocalID(42))
	id, ok := BackendID("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = BackendID("3f1c2a9e-uuid")
	assert.False(t, ok)
	_, ok = BackendID("0")
	assert.False(t, ok)
}

func TestDecimalJSON(t *testing.T) {
	var d Decimal
	require.NoError(t, json.Unmarshal([]byte(`"10.50"`), &d))
	assert.Equal(t, Decimal(10.5), d)
	require.NoError(t, json.Unmarshal([]byte(`3`), &d))
	assert.Equal(t, Decimal(3), d)
	assert.Error(t, json.Unmarshal([]byte(`"ten"`), &d))

	out, err := json.Marshal(Decimal(8))
	require.NoError(t, err)
	assert.Equal(t, `"8.00"`, string(out))
}

func TestToLocalHabit(t *testing.T) {
	created := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	target := Decimal(8)

	h, err := ToLocalHabit(Habit{
		ID: 7, Name: " Water ", HabitType: TypeGood, TrackingMode: ModeTime,
		TargetAmount: &target, Unit: "minutes", CreatedAt: created,
	})
	require.NoError(t, err)
	assert.Equal(t, "7", h.ID)
	assert.Equal(t, "Water", h.Label)
	assert.Equal(t, constants.TrackingVariableAmount, h.TrackingType)
	assert.Equal(t, constants.DefaultDurationDays, h.DurationDays)
	assert.True(t, h.IsPrivate)
	v, ok := h.Target.Get()
	assert.True(t, ok)
	assert.Equal(t, 8.0, v)

	// tick_cross drops any target the backend carries
	h, err = ToLocalHabit(Habit{
		ID: 8, Name: "Read", HabitType: TypeGood, TrackingMode: ModeDaily,
		TargetAmount: &target, Unit: "pages", CreatedAt: created, IsPublic: true,
	})
	require.NoError(t, err)
	assert.False(t, h.Target.IsSome())
	assert.Empty(t, h.Unit)
	assert.False(t, h.IsPrivate)

	_, err = ToLocalHabit(Habit{ID: 9, Name: "Count", TrackingMode: ModeCount, CreatedAt: created})
	assert.ErrorIs(t, err, ErrUnmappable, "count without a target")
	_, err = ToLocalHabit(Habit{ID: 10, Name: "No date", TrackingMode: ModeDaily})
	assert.ErrorIs(t, err, ErrUnmappable, "missing created_at")
}

func TestToBackendHabit(t *testing.T) {
	h := models.Habit{
		ID: "12", Label: "Water", TrackingType: constants.TrackingVariableAmount,
		Target: models.Some(8), Unit: "glasses", DurationDays: 21, IsPrivate: true,
	}
	b := ToBackendHabit(h)
	assert.Equal(t, int64(12), b.ID)
	assert.Equal(t, ModeCount, b.TrackingMode)
	assert.Equal(t, TypeGood, b.HabitType)
	require.NotNil(t, b.TargetAmount)
	assert.Equal(t, Decimal(8), *b.TargetAmount)
	require.NotNil(t, b.DurationDays)
	assert.Equal(t, 21, *b.DurationDays)
	assert.False(t, b.IsPublic)

	offline := ToBackendHabit(models.Habit{ID: "abc", TrackingType: constants.TrackingQuit})
	assert.Zero(t, offline.ID)
	assert.Equal(t, TypeBad, offline.HabitType)
	assert.Nil(t, offline.TargetAmount)
}

func TestLogMapping(t *testing.T) {
	tick := models.Habit{ID: "1", TrackingType: constants.TrackingTickCross}
	amount := models.Habit{ID: "2", TrackingType: constants.TrackingVariableAmount, Target: models.Some(10)}
	four := Decimal(4)

	l, err := ToLocalLog(tick, Log{LogDate: "2025-01-02", Status: StatusCompleted, AmountDone: &four})
	require.NoError(t, err)
	assert.True(t, l.Completed)
	assert.False(t, l.Value.IsSome(), "tick_cross never carries a value")

	l, err = ToLocalLog(amount, Log{LogDate: "2025-01-02", Status: StatusPartial, AmountDone: &four})
	require.NoError(t, err)
	assert.False(t, l.Completed)
	assert.Equal(t, 4.0, l.Value.OrZero())

	_, err = ToLocalLog(tick, Log{LogDate: "02/01/2025", Status: StatusCompleted})
	assert.ErrorIs(t, err, ErrUnmappable)

	back := ToBackendLog(models.HabitLog{HabitID: "2", Date: "2025-01-03", Value: models.Some(10), Completed: true})
	assert.Equal(t, StatusCompleted, back.Status)
	assert.Equal(t, "2025-01-03", back.LogDate)
	assert.Equal(t, StatusMissed, ToBackendLog(models.HabitLog{Date: "2025-01-03"}).Status)
}

type backend struct {
	t        *testing.T
	habits   string
	logs     map[int64]string
	deleted  []string
	posted   []Log
	created  []Habit
	token    string
	failLogs bool
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+b.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	var id int64
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/habits/":
		fmt.Fprint(w, b.habits)
	case r.Method == http.MethodDelete:
		b.deleted = append(b.deleted, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPost && r.URL.Path == "/api/habits/":
		var h Habit
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&h))
		h.ID = 99
		b.created = append(b.created, h)
		require.NoError(b.t, json.NewEncoder(w).Encode(h))
	case scan(r.URL.Path, &id):
		if r.Method == http.MethodPost {
			var l Log
			require.NoError(b.t, json.NewDecoder(r.Body).Decode(&l))
			b.posted = append(b.posted, l)
			w.WriteHeader(http.StatusCreated)
			return
		}
		if b.failLogs {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "boom")
			return
		}
		fmt.Fprint(w, b.logs[id])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func scan(path string, id *int64) bool {
	n, err := fmt.Sscanf(path, "/api/habits/%d/logs/", id)
	return err == nil && n == 1
}

func newBackend(t *testing.T) (*backend, *Client) {
	t.Helper()
	b := &backend{
		t:     t,
		token: "secret",
		habits: `[
			{"id": 1, "name": "Read", "habit_type": "good", "tracking_mode": "daily",
			 "target_amount": null, "duration_days": 30, "created_at": "2025-01-01T09:00:00Z"},
			{"id": 2, "name": "Water", "habit_type": "neutral", "tracking_mode": "count",
			 "target_amount": "8.00", "unit": "glasses", "duration_days": 21, "created_at": "2025-01-01T09:00:00Z"},
			{"id": 3, "name": "Odd", "habit_type": "good", "tracking_mode": "hourly",
			 "duration_days": 5, "created_at": "2025-01-01T09:00:00Z"}
		]`,
		logs: map[int64]string{
			1: `[{"id": 10, "log_date": "2025-01-02", "status": "completed", "amount_done": null},
			     {"id": 11, "log_date": "2025-01-03", "status": "missed", "amount_done": null}]`,
			2: `[{"id": 20, "log_date": "2025-01-02", "status": "partial", "amount_done": "4.00"},
			     {"id": 21, "log_date": "2025-01-03", "status": "bogus", "amount_done": null}]`,
		},
	}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, NewClient(srv.URL+"/api/", b.token)
}

func TestClient(t *testing.T) {
	b, c := newBackend(t)
	ctx := context.Background()

	habits, err := c.ListHabits(ctx)
	require.NoError(t, err)
	assert.Len(t, habits, 3)

	created, err := c.CreateHabit(ctx, ToBackendHabit(models.Habit{ID: "x", Label: "New", TrackingType: constants.TrackingTickCross}))
	require.NoError(t, err)
	assert.Equal(t, int64(99), created.ID)

	require.NoError(t, c.DeleteHabit(ctx, "2"))
	assert.Equal(t, []string{"/api/habits/2/"}, b.deleted)
	assert.ErrorIs(t, c.DeleteHabit(ctx, "offline-id"), ErrNotRemote)

	b.failLogs = true
	_, err = c.ListLogs(ctx, 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Body)

	unauth := NewClient(c.baseURL, "stale")
	_, err = unauth.ListHabits(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func newStore(t *testing.T) *kv.Store {
	t.Helper()
	store := kv.NewStore(t.TempDir())
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSyncer_Pull(t *testing.T) {
	_, c := newBackend(t)
	store := newStore(t)
	created := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.ReplaceAllHabits([]models.Habit{
		{ID: "offline", Label: "Journal", TrackingType: constants.TrackingTickCross, DurationDays: 10, CreatedAt: created},
		{ID: "9", Label: "Gone", TrackingType: constants.TrackingTickCross, DurationDays: 10, CreatedAt: created},
	}))
	require.NoError(t, store.ReplaceAllLogs([]models.HabitLog{
		{HabitID: "offline", Date: "2025-01-02", Completed: true},
		{HabitID: "9", Date: "2025-01-02", Completed: true},
		{HabitID: "1", Date: "2025-01-03", Completed: true, WasRevived: true},
		{HabitID: "1", Date: "2025-01-04", Completed: true},
	}))

	res, err := NewSyncer(c, store).Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PullResult{Habits: 3, Logs: 5, Skipped: 2}, res)

	habits, err := store.GetAllHabits()
	require.NoError(t, err)
	var ids []string
	for _, h := range habits {
		ids = append(ids, h.ID)
	}
	assert.ElementsMatch(t, []string{"1", "2", "offline"}, ids)

	l, err := store.GetLog("1", "2025-01-03")
	require.NoError(t, err)
	assert.False(t, l.Completed, "backend wins on conflicts")
	assert.True(t, l.WasRevived, "revival mark survives")

	_, err = store.GetLog("1", "2025-01-04")
	assert.NoError(t, err, "local-only day is kept")

	l, err = store.GetLog("2", "2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, 4.0, l.Value.OrZero())

	logs, err := store.GetAllLogs("9")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSyncer_PullFailureLeavesStoreAlone(t *testing.T) {
	b, c := newBackend(t)
	b.failLogs = true
	store := newStore(t)
	created := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	local := []models.Habit{{ID: "offline", Label: "Journal", TrackingType: constants.TrackingTickCross, DurationDays: 10, CreatedAt: created}}
	require.NoError(t, store.ReplaceAllHabits(local))

	_, err := NewSyncer(c, store).Pull(context.Background())
	require.Error(t, err)

	habits, err := store.GetAllHabits()
	require.NoError(t, err)
	assert.Len(t, habits, 1)
}

func TestSyncer_PushAndDelete(t *testing.T) {
	b, c := newBackend(t)
	s := NewSyncer(c, newStore(t))
	ctx := context.Background()

	require.NoError(t, s.PushLog(ctx, models.HabitLog{HabitID: "2", Date: "2025-01-05", Completed: true, Value: models.Some(8)}))
	require.NoError(t, s.PushLog(ctx, models.HabitLog{HabitID: "offline", Date: "2025-01-05"}))
	require.Len(t, b.posted, 1)
	assert.Equal(t, StatusCompleted, b.posted[0].Status)
	require.NotNil(t, b.posted[0].AmountDone)
	assert.Equal(t, Decimal(8), *b.posted[0].AmountDone)

	require.NoError(t, s.DeleteHabit(ctx, "offline"))
	require.NoError(t, s.DeleteHabit(ctx, "1"))
	assert.Equal(t, []string{"/api/habits/1/"}, b.deleted)
}

func TestSyncer_PullKeepsArchivedHabitsRetired(t *testing.T) {
	b, c := newBackend(t)
	store := newStore(t)
	s := NewSyncer(c, store)
	ctx := context.Background()

	_, err := s.Pull(ctx)
	require.NoError(t, err)

	// the backend delete failed at archive time, so the backend still has it
	h, err := store.GetHabit("1")
	require.NoError(t, err)
	_, err = lifecycle.New(store).ArchiveHabit(ctx, h, constants.ArchiveDeleted)
	require.NoError(t, err)

	res, err := s.Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Retired)

	_, err = store.GetHabit("1")
	assert.Error(t, err, "archived habit must not come back")
	logs, err := store.GetAllLogs("1")
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Equal(t, []string{"/api/habits/1/"}, b.deleted, "backend delete is retried")

	history, err := store.GetHistory()
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = store.GetHabit("2")
	assert.NoError(t, err)
}

// brokenLogs fails every bulk log write.
type brokenLogs struct {
	*kv.Store
}

func (brokenLogs) ReplaceAllLogs([]models.HabitLog) error {
	return errors.New("disk full")
}

func TestSyncer_PullRestoresHabitsWhenLogWriteFails(t *testing.T) {
	_, c := newBackend(t)
	store := newStore(t)
	created := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	local := []models.Habit{{ID: "offline", Label: "Journal", TrackingType: constants.TrackingTickCross, DurationDays: 10, CreatedAt: created}}
	require.NoError(t, store.ReplaceAllHabits(local))

	_, err := NewSyncer(c, brokenLogs{store}).Pull(context.Background())
	assert.ErrorContains(t, err, "disk full")

	habits, err := store.GetAllHabits()
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, "offline", habits[0].ID)
}

func TestSyncer_CreateHabit(t *testing.T) {
	b, c := newBackend(t)
	s := NewSyncer(c, newStore(t))
	ctx := context.Background()

	id, err := s.CreateHabit(ctx, models.Habit{
		ID: "0b7c", Label: "Stretch", TrackingType: constants.TrackingQuit, DurationDays: 14,
	})
	require.NoError(t, err)
	assert.Equal(t, "99", id)
	require.Len(t, b.created, 1)
	assert.Equal(t, "Stretch", b.created[0].Name)
	assert.Equal(t, TypeBad, b.created[0].HabitType)

	id, err = s.CreateHabit(ctx, models.Habit{ID: "5", Label: "Read", TrackingType: constants.TrackingTickCross})
	require.NoError(t, err)
	assert.Equal(t, "5", id)
	assert.Len(t, b.created, 1, "habits with a backend id are not posted again")
}
