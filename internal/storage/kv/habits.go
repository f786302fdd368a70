package kv

import (
	"fmt"
	"sort"

	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
)

func (s *Store) habits() ([]models.Habit, error) {
	habits := []models.Habit{}
	if err := s.read(keyHabits, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

func (s *Store) GetAllHabits() ([]models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits, err := s.habits()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(habits, func(i, j int) bool {
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
	return habits, nil
}

func (s *Store) GetHabit(id string) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits, err := s.habits()
	if err != nil {
		return models.Habit{}, err
	}
	for _, h := range habits {
		if h.ID == id {
			return h, nil
		}
	}
	return models.Habit{}, fmt.Errorf("habit %s: %w", id, storage.ErrNotFound)
}

func (s *Store) CreateHabit(def models.HabitDefinition) (models.Habit, error) {
	now := s.now()
	h, err := models.NewHabit(s.newID(), def, now, now)
	if err != nil {
		return models.Habit{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	habits, err := s.habits()
	if err != nil {
		return models.Habit{}, err
	}
	if err := s.write(keyHabits, append(habits, h)); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) UpdateHabit(id string, patch models.HabitPatch) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits, err := s.habits()
	if err != nil {
		return models.Habit{}, err
	}
	for i, h := range habits {
		if h.ID != id {
			continue
		}
		updated := patch.Apply(h)
		if err := updated.Validate(s.now()); err != nil {
			return models.Habit{}, err
		}
		habits[i] = updated
		if err := s.write(keyHabits, habits); err != nil {
			return models.Habit{}, err
		}
		return updated, nil
	}
	return models.Habit{}, fmt.Errorf("habit %s: %w", id, storage.ErrNotFound)
}

func (s *Store) DeleteHabit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits, err := s.habits()
	if err != nil {
		return err
	}
	kept := habits[:0]
	for _, h := range habits {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	if len(kept) == len(habits) {
		return nil
	}
	return s.write(keyHabits, kept)
}

func (s *Store) ReplaceAllHabits(habits []models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if habits == nil {
		habits = []models.Habit{}
	}
	return s.write(keyHabits, habits)
}
