package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/habitquest/internal/models"
)

// Store is what a sync reads and replaces locally. History and completion
// markers tell which backend habits were already retired here.
type Store interface {
	GetAllHabits() ([]models.Habit, error)
	GetAllLogs(habitID string) ([]models.HabitLog, error)
	ReplaceAllHabits([]models.Habit) error
	ReplaceAllLogs([]models.HabitLog) error
	GetHistory() ([]models.QuestHistoryEntry, error)
	GetCompletionShown() ([]string, error)
}

type Syncer struct {
	client *Client
	store  Store
}

func NewSyncer(client *Client, store Store) *Syncer {
	return &Syncer{client: client, store: store}
}

type PullResult struct {
	Habits  int
	Logs    int
	Skipped int
	// Retired counts backend habits already archived locally. They are not
	// brought back, and their backend delete is retried.
	Retired int
}

// Pull fetches every backend habit and log and merges them into the local
// store. Habits that only exist locally are kept. For a day present on both
// sides the backend wins, except that a local revival mark survives. Habits
// that are in the local quest history or carry a completion marker stay
// archived. Nothing is written unless every fetch succeeds.
func (s *Syncer) Pull(ctx context.Context) (PullResult, error) {
	var res PullResult

	remoteHabits, err := s.client.ListHabits(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to fetch habits: %w", err)
	}
	retired, err := s.retired()
	if err != nil {
		return res, err
	}

	localHabits, err := s.store.GetAllHabits()
	if err != nil {
		return res, err
	}
	localLogs, err := s.store.GetAllLogs("")
	if err != nil {
		return res, err
	}
	local := make(map[string]models.HabitLog, len(localLogs))
	for _, l := range localLogs {
		local[l.Key()] = l
	}

	var habits []models.Habit
	merged := map[string]models.HabitLog{}
	remoteIDs := map[string]bool{}

	for _, rh := range remoteHabits {
		h, err := ToLocalHabit(rh)
		if err != nil {
			log.Warn("skipping backend habit", "error", err)
			res.Skipped++
			continue
		}
		if retired[h.ID] {
			res.Retired++
			if err := s.client.DeleteHabit(ctx, h.ID); err != nil {
				log.Warn("remote delete of archived habit failed", "habit", h.ID, "error", err)
			}
			continue
		}
		rlogs, err := s.client.ListLogs(ctx, rh.ID)
		if err != nil {
			return res, fmt.Errorf("failed to fetch logs for habit %d: %w", rh.ID, err)
		}

		habits = append(habits, h)
		remoteIDs[h.ID] = true
		for _, rl := range rlogs {
			l, err := ToLocalLog(h, rl)
			if err != nil {
				log.Warn("skipping backend log", "habit", h.ID, "date", rl.LogDate, "error", err)
				res.Skipped++
				continue
			}
			if prev, ok := local[l.Key()]; ok {
				l.WasRevived = prev.WasRevived
			}
			merged[l.Key()] = l
		}
	}

	for _, h := range localHabits {
		if !remoteIDs[h.ID] {
			if _, backed := BackendID(h.ID); backed {
				// deleted on the backend
				continue
			}
			habits = append(habits, h)
			remoteIDs[h.ID] = true
		}
	}
	for key, l := range local {
		if _, ok := merged[key]; !ok && remoteIDs[l.HabitID] {
			merged[key] = l
		}
	}

	logs := make([]models.HabitLog, 0, len(merged))
	for _, l := range merged {
		logs = append(logs, l)
	}
	models.SortLogs(logs)

	if err := s.replace(localHabits, habits, logs); err != nil {
		return res, err
	}

	res.Habits = len(habits)
	res.Logs = len(logs)
	log.Info("pulled from remote", "habits", res.Habits, "logs", res.Logs,
		"skipped", res.Skipped, "retired", res.Retired)
	return res, nil
}

// retired is the set of habit IDs archived locally.
func (s *Syncer) retired() (map[string]bool, error) {
	history, err := s.store.GetHistory()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	shown, err := s.store.GetCompletionShown()
	if err != nil {
		return nil, fmt.Errorf("failed to read completion markers: %w", err)
	}
	out := make(map[string]bool, len(history)+len(shown))
	for _, e := range history {
		out[e.ID] = true
	}
	for _, id := range shown {
		out[id] = true
	}
	return out, nil
}

// replace writes habits and then logs. When the log write fails the previous
// habit set is put back, so habits and logs never come from different pulls.
func (s *Syncer) replace(prev, habits []models.Habit, logs []models.HabitLog) error {
	if err := s.store.ReplaceAllHabits(habits); err != nil {
		return fmt.Errorf("failed to save habits: %w", err)
	}
	if err := s.store.ReplaceAllLogs(logs); err != nil {
		err = fmt.Errorf("failed to save logs: %w", err)
		if rerr := s.store.ReplaceAllHabits(prev); rerr != nil {
			return errors.Join(err, fmt.Errorf("failed to restore habits: %w", rerr))
		}
		return err
	}
	return nil
}

// PushLog sends one local entry to the backend. Offline habits are skipped
// without error.
func (s *Syncer) PushLog(ctx context.Context, l models.HabitLog) error {
	id, ok := BackendID(l.HabitID)
	if !ok {
		return nil
	}
	if err := s.client.PutLog(ctx, id, ToBackendLog(l)); err != nil {
		return fmt.Errorf("failed to push %s: %w", l.Key(), err)
	}
	return nil
}

// CreateHabit registers a local habit on the backend and returns the local ID
// it will have from now on. Habits that already have a backend ID are left
// alone.
func (s *Syncer) CreateHabit(ctx context.Context, h models.Habit) (string, error) {
	if _, ok := BackendID(h.ID); ok {
		return h.ID, nil
	}
	created, err := s.client.CreateHabit(ctx, ToBackendHabit(h))
	if err != nil {
		return "", fmt.Errorf("failed to create %s on the backend: %w", h.Label, err)
	}
	if created.ID <= 0 {
		return "", fmt.Errorf("backend returned no id for %s", h.Label)
	}
	return LocalID(created.ID), nil
}

// DeleteHabit forwards to the client, treating offline habits as already
// gone.
func (s *Syncer) DeleteHabit(ctx context.Context, id string) error {
	err := s.client.DeleteHabit(ctx, id)
	if errors.Is(err, ErrNotRemote) {
		return nil
	}
	return err
}
