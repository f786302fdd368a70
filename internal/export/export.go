// Package export moves the whole store to and from a flat JSON document.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/julianstephens/habitquest/internal/logger"
	"github.com/julianstephens/habitquest/internal/models"
)

// FormatVersion is bumped whenever Snapshot changes shape.
const FormatVersion = 1

var log = logger.With("export")

type Snapshot struct {
	Version         int                        `json:"version"`
	ExportedAt      time.Time                  `json:"exported_at"`
	Balance         int                        `json:"balance"`
	Habits          []models.Habit             `json:"habits"`
	Logs            []models.HabitLog          `json:"logs"`
	History         []models.QuestHistoryEntry `json:"history"`
	CompletionShown []string                   `json:"completion_shown"`
}

type Source interface {
	GetAllHabits() ([]models.Habit, error)
	GetAllLogs(habitID string) ([]models.HabitLog, error)
	GetHistory() ([]models.QuestHistoryEntry, error)
	GetBalance() (int, error)
	GetCompletionShown() ([]string, error)
}

type Sink interface {
	ReplaceAllHabits([]models.Habit) error
	ReplaceAllLogs([]models.HabitLog) error
	ReplaceAllHistory([]models.QuestHistoryEntry) error
	SetBalance(int) error
	MarkCompletionShown(habitID string) error
}

// Take reads everything from src.
func Take(src Source, now time.Time) (Snapshot, error) {
	s := Snapshot{Version: FormatVersion, ExportedAt: now}
	var err error

	if s.Habits, err = src.GetAllHabits(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read habits: %w", err)
	}
	if s.Logs, err = src.GetAllLogs(""); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read logs: %w", err)
	}
	if s.History, err = src.GetHistory(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read history: %w", err)
	}
	if s.Balance, err = src.GetBalance(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read balance: %w", err)
	}
	if s.CompletionShown, err = src.GetCompletionShown(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read markers: %w", err)
	}
	return s, nil
}

func Write(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func Read(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse export: %w", err)
	}
	if s.Version != FormatVersion {
		return Snapshot{}, fmt.Errorf("unsupported export version %d (expected %d)", s.Version, FormatVersion)
	}
	return s, nil
}

// Restore replaces the contents of dst with s. Habits and logs are validated
// up front, so a bad record aborts before anything is replaced.
// Completion markers are added to, never cleared.
func Restore(dst Sink, s Snapshot, now time.Time) error {
	for i := range s.Habits {
		if err := s.Habits[i].Validate(now); err != nil {
			return err
		}
	}
	for i := range s.Logs {
		if err := s.Logs[i].Validate(); err != nil {
			return err
		}
	}

	if err := dst.ReplaceAllHabits(s.Habits); err != nil {
		return fmt.Errorf("failed to restore habits: %w", err)
	}
	if err := dst.ReplaceAllLogs(s.Logs); err != nil {
		return fmt.Errorf("failed to restore logs: %w", err)
	}
	if err := dst.ReplaceAllHistory(s.History); err != nil {
		return fmt.Errorf("failed to restore history: %w", err)
	}
	if err := dst.SetBalance(s.Balance); err != nil {
		return fmt.Errorf("failed to restore balance: %w", err)
	}
	for _, id := range s.CompletionShown {
		if err := dst.MarkCompletionShown(id); err != nil {
			return fmt.Errorf("failed to restore marker %s: %w", id, err)
		}
	}

	log.Info("snapshot restored", "habits", len(s.Habits), "logs", len(s.Logs), "history", len(s.History))
	return nil
}
