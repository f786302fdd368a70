// Package streak derives streaks and day counts from a habit's log.
//
// Every function is pure: inputs are a habit, its logs and an as-of civil
// date (YYYY-MM-DD). Dates compare as civil dates, never as instants. The
// sequence a habit is judged over runs from its creation date through asOf
// inclusive. Logs dated after asOf are ignored.
package streak

import (
	"fmt"
	"math"

	"github.com/julianstephens/habitquest/internal/completion"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/utils"
)

// timeline is the evaluated day sequence of one habit.
type timeline struct {
	habit models.Habit
	logs  map[string]models.HabitLog
	start string
	asOf  string
	days  []string
}

func newTimeline(h models.Habit, logs []models.HabitLog, asOf string) timeline {
	if h.CreatedAt.IsZero() {
		panic(fmt.Sprintf("streak: habit %q has no creation time", h.ID))
	}
	if _, err := utils.ParseDate(asOf); err != nil {
		panic(fmt.Sprintf("streak: %v", err))
	}

	own := make(map[string]models.HabitLog, len(logs))
	for _, l := range logs {
		if l.HabitID != "" && h.ID != "" && l.HabitID != h.ID {
			continue
		}
		own[l.Date] = l
	}

	start := h.CreatedDate()
	// DateRange only fails on malformed input, ruled out above.
	days, _ := utils.DateRange(start, asOf)
	return timeline{habit: h, logs: own, start: start, asOf: asOf, days: days}
}

func (t timeline) log(date string) *models.HabitLog {
	l, ok := t.logs[date]
	if !ok {
		return nil
	}
	return &l
}

func (t timeline) success(date string) bool {
	return completion.IsSuccess(t.habit, t.log(date))
}

// walkBack counts consecutive successes ending at index i.
func (t timeline) walkBack(i int) int {
	n := 0
	for ; i >= 0 && t.success(t.days[i]); i-- {
		n++
	}
	return n
}

func (t timeline) completed() int {
	n := 0
	for _, d := range t.days {
		if t.success(d) {
			n++
		}
	}
	return n
}

// CurrentStreak walks backward from asOf. A day with no log breaks the run,
// including asOf itself: a habit not yet logged today has a streak of 0.
// Used for stored statistics and archival.
func CurrentStreak(h models.Habit, logs []models.HabitLog, asOf string) int {
	t := newTimeline(h, logs, asOf)
	return t.walkBack(len(t.days) - 1)
}

// CurrentStreakPendingToday treats an unsuccessful asOf as still open and
// counts the run ending the day before. Used for the live "today" view, where
// the user may still log.
func CurrentStreakPendingToday(h models.Habit, logs []models.HabitLog, asOf string) int {
	t := newTimeline(h, logs, asOf)
	last := len(t.days) - 1
	if last < 0 {
		return 0
	}
	if t.success(t.days[last]) {
		return t.walkBack(last)
	}
	return t.walkBack(last - 1)
}

// HighestStreak is the longest run of successful days in the sequence.
func HighestStreak(h models.Habit, logs []models.HabitLog, asOf string) int {
	t := newTimeline(h, logs, asOf)
	best, run := 0, 0
	for _, d := range t.days {
		if t.success(d) {
			run++
			if run > best {
				best = run
			}
			continue
		}
		run = 0
	}
	return best
}

// DaysCompleted counts successful days from creation through asOf.
func DaysCompleted(h models.Habit, logs []models.HabitLog, asOf string) int {
	return newTimeline(h, logs, asOf).completed()
}

// DaysMissedElapsed counts days from creation through asOf that are not
// successful. daysCompleted + DaysMissedElapsed equals the elapsed day count.
func DaysMissedElapsed(h models.Habit, logs []models.HabitLog, asOf string) int {
	t := newTimeline(h, logs, asOf)
	return len(t.days) - t.completed()
}

// DaysMissedOverDuration is durationDays minus the successes inside the
// quest window, so window days after asOf count as missed.
func DaysMissedOverDuration(h models.Habit, logs []models.HabitLog, asOf string) int {
	end := h.LastQuestDay()
	if asOf < end {
		end = asOf
	}
	t := newTimeline(h, logs, end)
	missed := h.DurationDays - t.completed()
	if missed < 0 {
		return 0
	}
	return missed
}

// ComputeStats returns the full statistics of a habit as of asOf. Streaks
// are counted in the habit's cadence. Day counts always count days and use
// the elapsed form of days missed. It panics if the habit has no creation
// time.
func ComputeStats(h models.Habit, logs []models.HabitLog, asOf string) models.Stats {
	t := newTimeline(h, logs, asOf)
	completed := t.completed()

	stats := models.Stats{
		DaysCompleted: completed,
		DaysMissed:    len(t.days) - completed,
		TotalDays:     h.DurationDays,
		Cadence:       h.EffectiveCadence(),
	}

	if stats.Cadence == constants.CadenceDaily {
		stats.CurrentStreak = t.walkBack(len(t.days) - 1)
		stats.HighestStreak = HighestStreak(h, logs, asOf)
		return stats
	}

	p := periodStreaks(t, stats.Cadence)
	stats.CurrentStreak = p.Current
	stats.HighestStreak = p.Highest
	stats.PeriodsCompleted = p.Completed
	stats.PeriodsMissed = p.Missed
	return stats
}

// CompletionRate is days completed as a rounded percentage of elapsed days.
func CompletionRate(s models.Stats) int {
	elapsed := s.DaysCompleted + s.DaysMissed
	if elapsed <= 0 {
		return 0
	}
	return int(math.Round(float64(s.DaysCompleted) / float64(elapsed) * 100))
}
