package streak

import (
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/utils"
)

// Periods summarizes a weekly or monthly habit. A period succeeds when it
// holds at least one successful day.
type Periods struct {
	Current   int
	Highest   int
	Completed int
	Missed    int
}

// PeriodStreaks groups the day sequence into ISO weeks (Monday start) or
// calendar months. The period containing asOf is pending until it succeeds:
// it neither breaks the current streak nor counts as missed.
func PeriodStreaks(h models.Habit, logs []models.HabitLog, asOf string, cadence constants.Cadence) Periods {
	return periodStreaks(newTimeline(h, logs, asOf), cadence)
}

func periodKey(date string, cadence constants.Cadence) string {
	var key string
	switch cadence {
	case constants.CadenceMonthly:
		key, _ = utils.MonthStart(date)
	case constants.CadenceWeekly:
		key, _ = utils.WeekStart(date)
	default:
		key = date
	}
	return key
}

func periodStreaks(t timeline, cadence constants.Cadence) Periods {
	var keys []string
	ok := map[string]bool{}
	for _, d := range t.days {
		k := periodKey(d, cadence)
		if _, seen := ok[k]; !seen {
			keys = append(keys, k)
			ok[k] = false
		}
		if t.success(d) {
			ok[k] = true
		}
	}

	var p Periods
	if len(keys) == 0 {
		return p
	}

	run := 0
	for _, k := range keys {
		if ok[k] {
			p.Completed++
			run++
			if run > p.Highest {
				p.Highest = run
			}
			continue
		}
		run = 0
	}

	last := len(keys) - 1
	p.Missed = len(keys) - p.Completed
	if !ok[keys[last]] {
		p.Missed--
		last--
	}
	for i := last; i >= 0 && ok[keys[i]]; i-- {
		p.Current++
	}
	return p
}
