package kv

import (
	"fmt"

	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
)

func (s *Store) logs() ([]models.HabitLog, error) {
	logs := []models.HabitLog{}
	if err := s.read(keyLogs, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func filterLogs(logs []models.HabitLog, keep func(models.HabitLog) bool) []models.HabitLog {
	out := []models.HabitLog{}
	for _, l := range logs {
		if keep(l) {
			out = append(out, l)
		}
	}
	models.SortLogs(out)
	return out
}

func (s *Store) GetAllLogs(habitID string) ([]models.HabitLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := s.logs()
	if err != nil {
		return nil, err
	}
	return filterLogs(logs, func(l models.HabitLog) bool {
		return habitID == "" || l.HabitID == habitID
	}), nil
}

func (s *Store) GetLog(habitID, date string) (models.HabitLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := s.logs()
	if err != nil {
		return models.HabitLog{}, err
	}
	if i := indexOf(logs, habitID, date); i >= 0 {
		return logs[i], nil
	}
	return models.HabitLog{}, fmt.Errorf("log %s on %s: %w", habitID, date, storage.ErrNotFound)
}

func (s *Store) GetLogsInRange(habitID, start, end string) ([]models.HabitLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := s.logs()
	if err != nil {
		return nil, err
	}
	return filterLogs(logs, func(l models.HabitLog) bool {
		return (habitID == "" || l.HabitID == habitID) && l.Date >= start && l.Date <= end
	}), nil
}

func indexOf(logs []models.HabitLog, habitID, date string) int {
	for i, l := range logs {
		if l.HabitID == habitID && l.Date == date {
			return i
		}
	}
	return -1
}

// upsert replaces or appends l in logs.
func upsert(logs []models.HabitLog, l models.HabitLog) []models.HabitLog {
	if i := indexOf(logs, l.HabitID, l.Date); i >= 0 {
		logs[i] = l
		return logs
	}
	return append(logs, l)
}

func (s *Store) UpsertLog(l models.HabitLog) (models.HabitLog, error) {
	if err := l.Validate(); err != nil {
		return models.HabitLog{}, err
	}
	l.UpdatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := s.logs()
	if err != nil {
		return models.HabitLog{}, err
	}
	if err := s.write(keyLogs, upsert(logs, l)); err != nil {
		return models.HabitLog{}, err
	}
	return l, nil
}

func (s *Store) ReplaceAllLogs(logs []models.HabitLog) error {
	now := s.now()
	merged := []models.HabitLog{}
	for _, l := range logs {
		if err := l.Validate(); err != nil {
			return err
		}
		if l.UpdatedAt.IsZero() {
			l.UpdatedAt = now
		}
		merged = upsert(merged, l)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(keyLogs, merged)
}

func (s *Store) DeleteLogsForHabit(habitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := s.logs()
	if err != nil {
		return err
	}
	kept := filterLogs(logs, func(l models.HabitLog) bool { return l.HabitID != habitID })
	if len(kept) == len(logs) {
		return nil
	}
	return s.write(keyLogs, kept)
}
