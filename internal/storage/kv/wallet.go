package kv

import (
	"fmt"
	"sort"

	"github.com/julianstephens/habitquest/internal/logger"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
)

func (s *Store) balance() (int, error) {
	if s.d != nil && !s.d.Has(keyWallet) {
		return s.startingBalance, nil
	}
	var w wallet
	if err := s.read(keyWallet, &w); err != nil {
		return 0, err
	}
	return w.Balance, nil
}

func (s *Store) GetBalance() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance()
}

func (s *Store) SetBalance(balance int) error {
	if balance < 0 {
		return fmt.Errorf("balance cannot be negative, got %d", balance)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(keyWallet, wallet{Balance: balance})
}

func (s *Store) AddBalance(delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.balance()
	if err != nil {
		return 0, err
	}
	next := current + delta
	if next < 0 {
		next = 0
	}
	if err := s.write(keyWallet, wallet{Balance: next}); err != nil {
		return 0, err
	}
	return next, nil
}

// ApplyRevival writes the wallet first and restores it if the log write
// fails, so a failure never leaves a charge without its log.
func (s *Store) ApplyRevival(l models.HabitLog, cost int, satisfied func(models.HabitLog) bool) (int, error) {
	if err := l.Validate(); err != nil {
		return 0, err
	}
	l.UpdatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := s.logs()
	if err != nil {
		return 0, err
	}
	if i := indexOf(logs, l.HabitID, l.Date); i >= 0 && satisfied != nil && satisfied(logs[i]) {
		return 0, fmt.Errorf("%s on %s: %w", l.HabitID, l.Date, storage.ErrAlreadySatisfied)
	}

	current, err := s.balance()
	if err != nil {
		return 0, err
	}
	if current < cost {
		return 0, fmt.Errorf("balance %d, revival costs %d: %w", current, cost, storage.ErrInsufficientBalance)
	}
	next := current - cost

	if err := s.write(keyWallet, wallet{Balance: next}); err != nil {
		return 0, err
	}
	if err := s.write(keyLogs, upsert(logs, l)); err != nil {
		if rbErr := s.write(keyWallet, wallet{Balance: current}); rbErr != nil {
			logger.Error("failed to restore balance after revival write error", "error", rbErr, "balance", current)
		}
		return 0, err
	}
	return next, nil
}

func (s *Store) markers() ([]string, error) {
	ids := []string{}
	if err := s.read(keyMarkers, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) HasCompletionShown(habitID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.markers()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == habitID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) MarkCompletionShown(habitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.markers()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == habitID {
			return nil
		}
	}
	ids = append(ids, habitID)
	sort.Strings(ids)
	return s.write(keyMarkers, ids)
}

func (s *Store) GetCompletionShown() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.markers()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
