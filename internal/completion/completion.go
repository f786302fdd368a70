// Package completion decides whether a logged day counts as a success.
package completion

import (
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
)

// IsSuccess classifies one day. A missing log is a failure.
// variable_amount habits need the full target; the others use the completed
// flag as logged.
func IsSuccess(h models.Habit, log *models.HabitLog) bool {
	if log == nil {
		return false
	}
	if h.TrackingType == constants.TrackingVariableAmount {
		value, ok := log.Value.Get()
		target, hasTarget := h.Target.Get()
		return ok && hasTarget && IsFullyCompleted(value, target)
	}
	return log.Completed
}

// IsFullyCompleted is the strict threshold used for streak arithmetic.
func IsFullyCompleted(value, target float64) bool {
	return value >= target
}

// IsPartiallyCompleted is the loose threshold used for coarse progress
// badges and for the stored completed flag of numeric entries. It never
// decides streaks.
func IsPartiallyCompleted(value, target float64) bool {
	return value >= target*constants.PartialCompletionRatio
}

// Progress is value/target clamped to [0, 1]. Habits without a target report
// 1 for a successful log and 0 otherwise.
func Progress(h models.Habit, log *models.HabitLog) float64 {
	if log == nil {
		return 0
	}
	target, ok := h.Target.Get()
	if !ok {
		if IsSuccess(h, log) {
			return 1
		}
		return 0
	}
	p := log.Value.OrZero() / target
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
