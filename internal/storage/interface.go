package storage

import "github.com/julianstephens/habitquest/internal/models"

// LogRepository owns habit log persistence. There is at most one log per
// (habit, date).
type LogRepository interface {
	// GetAllLogs returns the logs of one habit, or of every habit when
	// habitID is empty, ordered by habit then date.
	GetAllLogs(habitID string) ([]models.HabitLog, error)
	// GetLog returns ErrNotFound when the date has no log.
	GetLog(habitID, date string) (models.HabitLog, error)
	// GetLogsInRange returns logs with start <= date <= end.
	GetLogsInRange(habitID, start, end string) ([]models.HabitLog, error)
	UpsertLog(models.HabitLog) (models.HabitLog, error)
	// ReplaceAllLogs swaps the whole log set. Used by remote sync and import.
	ReplaceAllLogs([]models.HabitLog) error
	DeleteLogsForHabit(habitID string) error
}

// HabitRepository owns habit definitions.
type HabitRepository interface {
	GetAllHabits() ([]models.Habit, error)
	GetHabit(id string) (models.Habit, error)
	// CreateHabit assigns the ID and CreatedAt.
	CreateHabit(models.HabitDefinition) (models.Habit, error)
	UpdateHabit(id string, patch models.HabitPatch) (models.Habit, error)
	DeleteHabit(id string) error
	ReplaceAllHabits([]models.Habit) error
}

// HistoryRepository keeps the immutable quest history.
type HistoryRepository interface {
	// AddHistoryEntry returns ErrHistoryExists if the ID is already present.
	AddHistoryEntry(models.QuestHistoryEntry) error
	GetHistory() ([]models.QuestHistoryEntry, error)
	GetHistoryEntry(id string) (models.QuestHistoryEntry, error)
	DeleteHistoryEntry(id string) error
	ReplaceAllHistory([]models.QuestHistoryEntry) error
}

// WalletRepository holds the currency balance. A store that never saved a
// balance reports the configured starting balance.
type WalletRepository interface {
	GetBalance() (int, error)
	SetBalance(int) error
	// AddBalance applies delta and clamps the result at zero.
	AddBalance(delta int) (int, error)
}

// MarkerRepository records which habits have had their completion shown.
type MarkerRepository interface {
	HasCompletionShown(habitID string) (bool, error)
	MarkCompletionShown(habitID string) error
	GetCompletionShown() ([]string, error)
}

// RevivalStore applies a revival as one atomic unit.
type RevivalStore interface {
	// ApplyRevival re-reads the log stored for log's date and returns
	// ErrAlreadySatisfied if satisfied reports true for it. Otherwise it
	// deducts cost (ErrInsufficientBalance if that would go negative) and
	// upserts log. Nothing is written on error. Returns the new balance.
	ApplyRevival(log models.HabitLog, cost int, satisfied func(existing models.HabitLog) bool) (int, error)
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	HabitRepository
	LogRepository
	HistoryRepository
	WalletRepository
	MarkerRepository
	RevivalStore

	// Utils
	GetConfigPath() string
}
