package kv

import (
	"fmt"
	"sort"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
)

func (s *Store) history() ([]models.QuestHistoryEntry, error) {
	entries := []models.QuestHistoryEntry{}
	if err := s.read(keyHistory, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) AddHistoryEntry(e models.QuestHistoryEntry) error {
	if e.Reason == "" {
		e.Reason = constants.ArchiveCompleted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.history()
	if err != nil {
		return err
	}
	for _, existing := range entries {
		if existing.ID == e.ID {
			return fmt.Errorf("history entry %s: %w", e.ID, storage.ErrHistoryExists)
		}
	}
	return s.write(keyHistory, append(entries, e))
}

func (s *Store) GetHistory() ([]models.QuestHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.history()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CompletedAt.After(entries[j].CompletedAt)
	})
	return entries, nil
}

func (s *Store) GetHistoryEntry(id string) (models.QuestHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.history()
	if err != nil {
		return models.QuestHistoryEntry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return models.QuestHistoryEntry{}, fmt.Errorf("history entry %s: %w", id, storage.ErrNotFound)
}

func (s *Store) DeleteHistoryEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.history()
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.ID == id {
			return s.write(keyHistory, append(entries[:i], entries[i+1:]...))
		}
	}
	return fmt.Errorf("history entry %s: %w", id, storage.ErrNotFound)
}

func (s *Store) ReplaceAllHistory(entries []models.QuestHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries == nil {
		entries = []models.QuestHistoryEntry{}
	}
	return s.write(keyHistory, entries)
}
