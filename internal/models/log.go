package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/utils"
)

// ErrInvalidLog is wrapped by every log validation failure.
var ErrInvalidLog = errors.New("invalid habit log")

// HabitLog is the record for one habit on one civil date.
type HabitLog struct {
	HabitID    string    `json:"habit_id"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Completed  bool      `json:"completed"`
	Value      Amount    `json:"value"`
	WasRevived bool      `json:"was_revived"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewLog builds a log for habit h. A value is only representable for
// variable_amount habits.
func NewLog(h Habit, date string, completed bool, value Amount) (HabitLog, error) {
	l := HabitLog{
		HabitID:   h.ID,
		Date:      date,
		Completed: completed,
		Value:     value,
	}
	if err := l.Validate(); err != nil {
		return HabitLog{}, err
	}
	if value.IsSome() && h.TrackingType != constants.TrackingVariableAmount {
		return HabitLog{}, fmt.Errorf("%w: %s habits do not record values", ErrInvalidLog, h.TrackingType)
	}
	return l, nil
}

func (l *HabitLog) Validate() error {
	if l.HabitID == "" {
		return fmt.Errorf("%w: habit id cannot be empty", ErrInvalidLog)
	}
	if !utils.ValidateDate(l.Date) {
		return fmt.Errorf("%w: invalid date %q (expected YYYY-MM-DD)", ErrInvalidLog, l.Date)
	}
	if v, ok := l.Value.Get(); ok && v < 0 {
		return fmt.Errorf("%w: value cannot be negative, got %v", ErrInvalidLog, v)
	}
	return nil
}

// Key identifies the (habit, date) slot a log occupies.
func (l *HabitLog) Key() string {
	return l.HabitID + "|" + l.Date
}

// IndexByDate maps date to log. Later duplicates win.
func IndexByDate(logs []HabitLog) map[string]HabitLog {
	idx := make(map[string]HabitLog, len(logs))
	for _, l := range logs {
		idx[l.Date] = l
	}
	return idx
}

// SortLogs orders logs by habit then date.
func SortLogs(logs []HabitLog) {
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].HabitID != logs[j].HabitID {
			return logs[i].HabitID < logs[j].HabitID
		}
		return logs[i].Date < logs[j].Date
	})
}
