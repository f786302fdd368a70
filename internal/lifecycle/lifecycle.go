// Package lifecycle creates habits and retires them into quest history.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/logger"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/streak"
	"github.com/julianstephens/habitquest/internal/utils"
)

var log = logger.With("lifecycle")

type Store interface {
	storage.HabitRepository
	storage.LogRepository
	storage.HistoryRepository
	storage.MarkerRepository
}

// Remote mirrors habit creation and removal on the backend.
type Remote interface {
	// CreateHabit returns the ID the habit has once the backend knows it.
	CreateHabit(ctx context.Context, h models.Habit) (string, error)
	DeleteHabit(ctx context.Context, id string) error
}

type Manager struct {
	store  Store
	remote Remote
	now    func() time.Time
}

type Option func(*Manager)

// WithRemote makes CreateHabit register new habits on the backend and
// CompleteHabit and DeleteHabit try the backend first.
func WithRemote(r Remote) Option {
	return func(m *Manager) { m.remote = r }
}

// WithClock sets the clock. Its location decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(store Store, opts ...Option) *Manager {
	m := &Manager{store: store, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) CreateHabit(ctx context.Context, def models.HabitDefinition) (models.Habit, error) {
	if err := ctx.Err(); err != nil {
		return models.Habit{}, err
	}
	h, err := m.store.CreateHabit(def)
	if err != nil {
		return models.Habit{}, err
	}
	log.Info("habit created", "habit", h.ID, "label", h.Label, "duration", h.DurationDays)
	return m.createRemote(ctx, h), nil
}

// createRemote never fails the caller. A habit the backend rejected stays
// under its local ID and is treated as offline.
func (m *Manager) createRemote(ctx context.Context, h models.Habit) models.Habit {
	if m.remote == nil {
		return h
	}
	id, err := m.remote.CreateHabit(ctx, h)
	if err != nil {
		log.Warn("remote create failed, habit stays local", "habit", h.ID, "error", err)
		return h
	}
	if id == h.ID {
		return h
	}
	rekeyed, err := m.rekey(h.ID, id)
	if err != nil {
		log.Warn("failed to adopt backend id", "habit", h.ID, "backend_id", id, "error", err)
		return h
	}
	log.Debug("habit registered on backend", "habit", h.ID, "backend_id", id)
	return rekeyed
}

// rekey renames a habit. Only used for freshly created habits, which have no
// logs, history or markers yet.
func (m *Manager) rekey(from, to string) (models.Habit, error) {
	habits, err := m.store.GetAllHabits()
	if err != nil {
		return models.Habit{}, err
	}
	var out models.Habit
	found := false
	for i := range habits {
		if habits[i].ID == to {
			return models.Habit{}, fmt.Errorf("habit %s already exists", to)
		}
		if habits[i].ID == from {
			habits[i].ID = to
			out, found = habits[i], true
		}
	}
	if !found {
		return models.Habit{}, fmt.Errorf("habit %s: %w", from, storage.ErrNotFound)
	}
	if err := m.store.ReplaceAllHabits(habits); err != nil {
		return models.Habit{}, err
	}
	return out, nil
}

// DaysLeft is durationDays minus whole days elapsed since creation, floored
// at zero.
func DaysLeft(h models.Habit, now time.Time) int {
	left := h.DurationDays - utils.ElapsedDays(h.CreatedAt, now)
	if left < 0 {
		return 0
	}
	return left
}

func IsArchivalEligible(h models.Habit, now time.Time) bool {
	return DaysLeft(h, now) == 0
}

// ArchiveHabit snapshots the habit's final stats into quest history, then
// removes the habit and its logs. Stats are taken as of today or the last
// quest day, whichever is earlier. If history already holds an entry for the
// habit, that entry is returned unchanged and only the cleanup is repeated.
func (m *Manager) ArchiveHabit(ctx context.Context, h models.Habit, reason constants.ArchiveReason) (models.QuestHistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return models.QuestHistoryEntry{}, err
	}

	entry, err := m.store.GetHistoryEntry(h.ID)
	switch {
	case err == nil:
		log.Debug("habit already archived", "habit", h.ID)
	case errors.Is(err, storage.ErrNotFound):
		entry, err = m.snapshot(h, reason)
		if err != nil {
			return models.QuestHistoryEntry{}, err
		}
	default:
		return models.QuestHistoryEntry{}, fmt.Errorf("failed to read history: %w", err)
	}

	// the marker goes last so a failed removal is picked up again by
	// ProcessExpired
	if err := m.store.DeleteHabit(h.ID); err != nil {
		return models.QuestHistoryEntry{}, fmt.Errorf("failed to remove habit: %w", err)
	}
	if err := m.store.DeleteLogsForHabit(h.ID); err != nil {
		return models.QuestHistoryEntry{}, fmt.Errorf("failed to remove logs: %w", err)
	}
	if err := m.store.MarkCompletionShown(h.ID); err != nil {
		return models.QuestHistoryEntry{}, fmt.Errorf("failed to mark completion: %w", err)
	}
	return entry, nil
}

func (m *Manager) snapshot(h models.Habit, reason constants.ArchiveReason) (models.QuestHistoryEntry, error) {
	logs, err := m.store.GetAllLogs(h.ID)
	if err != nil {
		return models.QuestHistoryEntry{}, fmt.Errorf("failed to read logs: %w", err)
	}

	now := m.now()
	asOf := utils.CivilDate(now)
	if last := h.LastQuestDay(); last < asOf {
		asOf = last
	}
	stats := streak.ComputeStats(h, logs, asOf)
	entry := models.NewHistoryEntry(h, stats, reason, now)

	err = m.store.AddHistoryEntry(entry)
	if errors.Is(err, storage.ErrHistoryExists) {
		return m.store.GetHistoryEntry(h.ID)
	}
	if err != nil {
		return models.QuestHistoryEntry{}, fmt.Errorf("failed to save history: %w", err)
	}

	log.Info("habit archived", "habit", h.ID, "reason", reason,
		"completed", stats.DaysCompleted, "highest_streak", stats.HighestStreak)
	return entry, nil
}

// CompleteHabit archives a habit whose quest ran its course.
func (m *Manager) CompleteHabit(ctx context.Context, h models.Habit) (models.QuestHistoryEntry, error) {
	m.deleteRemote(ctx, h.ID)
	return m.ArchiveHabit(ctx, h, constants.ArchiveCompleted)
}

// DeleteHabit archives a habit the user gave up on.
func (m *Manager) DeleteHabit(ctx context.Context, h models.Habit) (models.QuestHistoryEntry, error) {
	m.deleteRemote(ctx, h.ID)
	return m.ArchiveHabit(ctx, h, constants.ArchiveDeleted)
}

// deleteRemote never fails the caller: local state wins.
func (m *Manager) deleteRemote(ctx context.Context, id string) {
	if m.remote == nil {
		return
	}
	if err := m.remote.DeleteHabit(ctx, id); err != nil {
		log.Warn("remote delete failed, archiving locally", "habit", id, "error", err)
	}
}

// ProcessExpired completes every habit whose quest is over. Habits that
// already carry a completion-shown marker are left alone, so running it
// repeatedly archives each habit at most once.
func (m *Manager) ProcessExpired(ctx context.Context) ([]models.QuestHistoryEntry, error) {
	habits, err := m.store.GetAllHabits()
	if err != nil {
		return nil, err
	}

	now := m.now()
	var archived []models.QuestHistoryEntry
	for _, h := range habits {
		if err := ctx.Err(); err != nil {
			return archived, err
		}
		if !IsArchivalEligible(h, now) {
			continue
		}
		shown, err := m.store.HasCompletionShown(h.ID)
		if err != nil {
			return archived, err
		}
		if shown {
			log.Debug("completion already shown, skipping", "habit", h.ID)
			continue
		}
		entry, err := m.CompleteHabit(ctx, h)
		if err != nil {
			return archived, fmt.Errorf("failed to archive %s: %w", h.ID, err)
		}
		archived = append(archived, entry)
	}
	return archived, nil
}
