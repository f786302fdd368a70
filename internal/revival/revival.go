// Package revival turns a missed past day into a completed one in exchange
// for currency.
package revival

import (
	"errors"
	"fmt"

	"github.com/julianstephens/habitquest/internal/completion"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/logger"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/utils"
)

// Cost is the price of one revival.
const Cost = constants.RevivalCost

var (
	// ErrInvalidDate is returned for today, future dates, dates before the
	// habit was created and malformed dates.
	ErrInvalidDate = errors.New("date cannot be revived")
	// ErrAlreadySatisfied means the date is already done or already revived.
	ErrAlreadySatisfied = storage.ErrAlreadySatisfied
	// ErrInsufficientBalance means the wallet cannot cover Cost.
	ErrInsufficientBalance = storage.ErrInsufficientBalance
)

var log = logger.With("revival")

// Satisfied reports whether existing already blocks a revival of its date:
// it is marked completed, it succeeds on its own, or it was revived before.
// A revived day can never be revived again, even if its value was later
// lowered.
func Satisfied(h models.Habit, existing models.HabitLog) bool {
	return existing.WasRevived || existing.Completed || completion.IsSuccess(h, &existing)
}

// Check validates a revival of date as of asOf without touching any state.
// Errors are reported in a fixed order: invalid date, already satisfied,
// insufficient balance.
func Check(h models.Habit, existing *models.HabitLog, date, asOf string, balance int) error {
	if !utils.ValidateDate(date) {
		return fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidDate, date)
	}
	if date >= asOf {
		return fmt.Errorf("%w: %s is not before %s", ErrInvalidDate, date, asOf)
	}
	if created := h.CreatedDate(); date < created {
		return fmt.Errorf("%w: %s is before the habit started on %s", ErrInvalidDate, date, created)
	}
	if existing != nil && Satisfied(h, *existing) {
		return fmt.Errorf("%s on %s: %w", h.ID, date, ErrAlreadySatisfied)
	}
	if balance < Cost {
		return fmt.Errorf("balance %d, revival costs %d: %w", balance, Cost, ErrInsufficientBalance)
	}
	return nil
}

// Eligible lists the dates before asOf that could be revived right now, oldest
// first. logs must belong to h. It is empty when the balance cannot cover a
// single revival.
func Eligible(h models.Habit, logs []models.HabitLog, asOf string, balance int) []string {
	if balance < Cost {
		return nil
	}
	yesterday, err := utils.AddDays(asOf, -1)
	if err != nil {
		return nil
	}
	dates, err := utils.DateRange(h.CreatedDate(), yesterday)
	if err != nil {
		return nil
	}
	byDate := models.IndexByDate(logs)

	var out []string
	for _, d := range dates {
		var existing *models.HabitLog
		if l, ok := byDate[d]; ok {
			existing = &l
		}
		if Check(h, existing, d, asOf, balance) == nil {
			out = append(out, d)
		}
	}
	return out
}

// RevivedLog is the log a revival writes for date.
func RevivedLog(h models.Habit, date string) models.HabitLog {
	l := models.HabitLog{
		HabitID:    h.ID,
		Date:       date,
		Completed:  true,
		WasRevived: true,
	}
	if h.TrackingType == constants.TrackingVariableAmount {
		l.Value = h.Target
	}
	return l
}
