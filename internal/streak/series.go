package streak

import (
	"github.com/julianstephens/habitquest/internal/completion"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/utils"
)

type Status int

const (
	StatusSuccess Status = iota
	// StatusPartial is a failed numeric day that reached half the target.
	StatusPartial
	StatusFailed
	// StatusPending is asOf without a success yet.
	StatusPending
	StatusFuture
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	case StatusPending:
		return "pending"
	case StatusFuture:
		return "future"
	default:
		return "unknown"
	}
}

// Day is one entry of a habit's calendar.
type Day struct {
	Date   string
	Status Status
	Log    *models.HabitLog
}

// Series classifies every day of the quest window, from creation through the
// last quest day or asOf, whichever is later.
func Series(h models.Habit, logs []models.HabitLog, asOf string) []Day {
	end := h.LastQuestDay()
	if asOf > end {
		end = asOf
	}
	t := newTimeline(h, logs, asOf)
	dates, _ := utils.DateRange(t.start, end)

	out := make([]Day, 0, len(dates))
	for _, d := range dates {
		day := Day{Date: d, Log: t.log(d)}
		switch {
		case d > asOf:
			day.Status = StatusFuture
		case completion.IsSuccess(h, day.Log):
			day.Status = StatusSuccess
		case d == asOf:
			day.Status = StatusPending
		case isPartial(h, day.Log):
			day.Status = StatusPartial
		default:
			day.Status = StatusFailed
		}
		out = append(out, day)
	}
	return out
}

func isPartial(h models.Habit, l *models.HabitLog) bool {
	if l == nil || h.TrackingType != constants.TrackingVariableAmount {
		return false
	}
	value, ok := l.Value.Get()
	target, hasTarget := h.Target.Get()
	return ok && hasTarget && completion.IsPartiallyCompleted(value, target)
}
