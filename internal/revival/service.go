package revival

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
)

// Store is the slice of storage.Provider a revival needs.
type Store interface {
	GetBalance() (int, error)
	GetLog(habitID, date string) (models.HabitLog, error)
	storage.RevivalStore
}

type Status int

const (
	StatusRevived Status = iota
	// StatusAlreadySatisfied is a no-op: nothing was charged or written.
	StatusAlreadySatisfied
)

func (s Status) String() string {
	if s == StatusRevived {
		return "revived"
	}
	return "already satisfied"
}

type Result struct {
	Status  Status
	Log     models.HabitLog
	Balance int
}

type Service struct {
	store Store
	today func() string
}

// NewService returns a Service that judges dates against today().
func NewService(store Store, today func() string) *Service {
	return &Service{store: store, today: today}
}

// Revive marks date as completed for h and charges Cost. The charge and the
// log write happen together or not at all. Reviving a date that is already
// satisfied returns StatusAlreadySatisfied with a nil error and leaves the
// balance alone, so repeating a revival is safe.
func (s *Service) Revive(ctx context.Context, h models.Habit, date string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	balance, err := s.store.GetBalance()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read balance: %w", err)
	}

	var existing *models.HabitLog
	l, err := s.store.GetLog(h.ID, date)
	switch {
	case err == nil:
		existing = &l
	case errors.Is(err, storage.ErrNotFound):
	default:
		return Result{}, fmt.Errorf("failed to read log: %w", err)
	}

	if err := Check(h, existing, date, s.today(), balance); err != nil {
		if errors.Is(err, ErrAlreadySatisfied) {
			log.Debug("revival skipped", "habit", h.ID, "date", date)
			return Result{Status: StatusAlreadySatisfied, Log: *existing, Balance: balance}, nil
		}
		return Result{Balance: balance}, err
	}

	revived := RevivedLog(h, date)
	next, err := s.store.ApplyRevival(revived, Cost, func(current models.HabitLog) bool {
		return Satisfied(h, current)
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadySatisfied):
		// Another context revived or completed the date after our read.
		return s.settled(h, date)
	default:
		return Result{Balance: balance}, err
	}

	log.Info("day revived", "habit", h.ID, "date", date, "balance", next)
	if saved, err := s.store.GetLog(h.ID, date); err == nil {
		revived = saved
	}
	return Result{Status: StatusRevived, Log: revived, Balance: next}, nil
}

func (s *Service) settled(h models.Habit, date string) (Result, error) {
	balance, err := s.store.GetBalance()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read balance: %w", err)
	}
	l, err := s.store.GetLog(h.ID, date)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read log: %w", err)
	}
	return Result{Status: StatusAlreadySatisfied, Log: l, Balance: balance}, nil
}
