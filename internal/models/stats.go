package models

import "github.com/julianstephens/habitquest/internal/constants"

// Stats is the derived view of a habit's log as of one civil date.
// CurrentStreak and HighestStreak count in the habit's cadence (days, weeks or
// months); the Days fields always count days.
type Stats struct {
	CurrentStreak int `json:"current_streak"`
	HighestStreak int `json:"highest_streak"`
	DaysCompleted int `json:"days_completed"`
	DaysMissed    int `json:"days_missed"`
	TotalDays     int `json:"total_days"`

	Cadence          constants.Cadence `json:"cadence"`
	PeriodsCompleted int               `json:"periods_completed,omitempty"`
	PeriodsMissed    int               `json:"periods_missed,omitempty"`
}
