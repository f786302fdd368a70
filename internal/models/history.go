package models

import (
	"math"
	"time"

	"github.com/julianstephens/habitquest/internal/constants"
)

// QuestHistoryEntry is the immutable summary written when a habit is archived.
type QuestHistoryEntry struct {
	ID            string                  `json:"id"`
	Label         string                  `json:"label"`
	Emoji         string                  `json:"emoji"`
	Color         string                  `json:"color"`
	TrackingType  constants.TrackingType  `json:"tracking_type"`
	HighestStreak int                     `json:"highest_streak"`
	DaysCompleted int                     `json:"days_completed"`
	DaysMissed    int                     `json:"days_missed"`
	TotalDays     int                     `json:"total_days"`
	CompletedAt   time.Time               `json:"completed_at"`
	Target        Amount                  `json:"target_amount"`
	Unit          string                  `json:"unit,omitempty"`
	Reason        constants.ArchiveReason `json:"reason"`
}

func NewHistoryEntry(h Habit, stats Stats, reason constants.ArchiveReason, at time.Time) QuestHistoryEntry {
	return QuestHistoryEntry{
		ID:            h.ID,
		Label:         h.Label,
		Emoji:         h.Emoji,
		Color:         h.Color,
		TrackingType:  h.TrackingType,
		HighestStreak: stats.HighestStreak,
		DaysCompleted: stats.DaysCompleted,
		DaysMissed:    stats.DaysMissed,
		TotalDays:     stats.TotalDays,
		CompletedAt:   at,
		Target:        h.Target,
		Unit:          h.Unit,
		Reason:        reason,
	}
}

// SuccessRate is days completed as a rounded percentage of total days.
func (e *QuestHistoryEntry) SuccessRate() int {
	if e.TotalDays <= 0 {
		return 0
	}
	return int(math.Round(float64(e.DaysCompleted) / float64(e.TotalDays) * 100))
}
