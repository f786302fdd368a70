package habits

import (
	"errors"
	"fmt"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/streak"
)

// StatusCmd is the today view. A daily habit not yet logged today keeps the
// streak it had yesterday.
type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return err
	}
	balance, err := ctx.Store.GetBalance()
	if err != nil {
		return err
	}

	today := ctx.Today()
	ctx.Printf("%s  ·  balance %d\n\n", today, balance)
	if len(habits) == 0 {
		ctx.Println("No habits found. Add one with 'habitquest add'.")
		return nil
	}

	tbl := cli.NewTable("HABIT", "TODAY", "STREAK", "BEST", "DONE", "MISSED", "RATE")
	for _, h := range habits {
		logs, err := ctx.Store.GetAllLogs(h.ID)
		if err != nil {
			return err
		}

		var todays *models.HabitLog
		l, err := ctx.Store.GetLog(h.ID, today)
		switch {
		case err == nil:
			todays = &l
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		stats := streak.ComputeStats(h, logs, today)
		current := fmt.Sprintf("%d", stats.CurrentStreak)
		switch stats.Cadence {
		case constants.CadenceDaily:
			current = fmt.Sprintf("%dd", streak.CurrentStreakPendingToday(h, logs, today))
		case constants.CadenceWeekly:
			current += "w"
		case constants.CadenceMonthly:
			current += "m"
		}

		tbl.AddRow(h.Label, cli.Entry(h, todays), current, stats.HighestStreak,
			stats.DaysCompleted, stats.DaysMissed, fmt.Sprintf("%d%%", streak.CompletionRate(stats)))
	}
	ctx.Println(tbl)
	return nil
}
