// Package tracker records the user's daily entries.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/habitquest/internal/completion"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/logger"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/utils"
)

var (
	// ErrInvalidDate covers future dates, dates before creation and
	// malformed dates.
	ErrInvalidDate = errors.New("date cannot be logged")
	// ErrWrongTrackingType is returned when the entry does not fit the
	// habit's tracking type.
	ErrWrongTrackingType = errors.New("wrong tracking type")
)

var log = logger.With("tracker")

type Store interface {
	GetHabit(id string) (models.Habit, error)
	GetLog(habitID, date string) (models.HabitLog, error)
	UpsertLog(models.HabitLog) (models.HabitLog, error)
}

type Tracker struct {
	store Store
	today func() string
}

func New(store Store, today func() string) *Tracker {
	return &Tracker{store: store, today: today}
}

// Toggle flips the completed flag of a tick_cross or quit habit on date.
// A date with no entry becomes completed.
func (t *Tracker) Toggle(ctx context.Context, habitID, date string) (models.HabitLog, error) {
	h, existing, err := t.prepare(ctx, habitID, date)
	if err != nil {
		return models.HabitLog{}, err
	}
	if h.TrackingType == constants.TrackingVariableAmount {
		return models.HabitLog{}, fmt.Errorf("%w: %s tracks amounts, log a value instead", ErrWrongTrackingType, h.Label)
	}

	l := models.HabitLog{HabitID: h.ID, Date: date, Completed: true}
	if existing != nil {
		l = *existing
		l.Completed = !existing.Completed
	}
	return t.save(l)
}

// LogValue records an amount for a variable_amount habit. The stored
// completed flag is set only when the full target is reached.
func (t *Tracker) LogValue(ctx context.Context, habitID, date string, value float64) (models.HabitLog, error) {
	h, existing, err := t.prepare(ctx, habitID, date)
	if err != nil {
		return models.HabitLog{}, err
	}
	if h.TrackingType != constants.TrackingVariableAmount {
		return models.HabitLog{}, fmt.Errorf("%w: %s is %s, toggle it instead", ErrWrongTrackingType, h.Label, h.TrackingType)
	}
	target, _ := h.Target.Get()

	l, err := models.NewLog(h, date, completion.IsFullyCompleted(value, target), models.Some(value))
	if err != nil {
		return models.HabitLog{}, err
	}
	if existing != nil {
		l.WasRevived = existing.WasRevived
	}
	return t.save(l)
}

func (t *Tracker) prepare(ctx context.Context, habitID, date string) (models.Habit, *models.HabitLog, error) {
	if err := ctx.Err(); err != nil {
		return models.Habit{}, nil, err
	}
	h, err := t.store.GetHabit(habitID)
	if err != nil {
		return models.Habit{}, nil, err
	}
	if err := checkDate(h, date, t.today()); err != nil {
		return models.Habit{}, nil, err
	}

	l, err := t.store.GetLog(habitID, date)
	switch {
	case err == nil:
		return h, &l, nil
	case errors.Is(err, storage.ErrNotFound):
		return h, nil, nil
	default:
		return models.Habit{}, nil, err
	}
}

func checkDate(h models.Habit, date, today string) error {
	if !utils.ValidateDate(date) {
		return fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidDate, date)
	}
	if date > today {
		return fmt.Errorf("%w: %s is in the future", ErrInvalidDate, date)
	}
	if created := h.CreatedDate(); date < created {
		return fmt.Errorf("%w: %s is before the habit started on %s", ErrInvalidDate, date, created)
	}
	return nil
}

func (t *Tracker) save(l models.HabitLog) (models.HabitLog, error) {
	saved, err := t.store.UpsertLog(l)
	if err != nil {
		return models.HabitLog{}, err
	}
	log.Debug("entry saved", "habit", l.HabitID, "date", l.Date, "completed", l.Completed, "value", l.Value)
	return saved, nil
}
