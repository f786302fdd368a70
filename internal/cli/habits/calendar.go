package habits

import (
	"strings"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/streak"
)

// CalendarCmd prints the quest window one week per row.
type CalendarCmd struct {
	Habit string `arg:"" help:"Habit ID or label."`
}

func (c *CalendarCmd) Run(ctx *cli.Context) error {
	h, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	logs, err := ctx.Store.GetAllLogs(h.ID)
	if err != nil {
		return err
	}

	today := ctx.Today()
	days := streak.Series(h, logs, today)
	stats := streak.ComputeStats(h, logs, today)

	ctx.Printf("%s  %s → %s\n\n", h.Label, h.CreatedDate(), h.LastQuestDay())
	tbl := cli.NewTable()
	for i := 0; i < len(days); i += 7 {
		end := min(i+7, len(days))
		var row strings.Builder
		for _, d := range days[i:end] {
			row.WriteString(cli.Glyph(d.Status))
			row.WriteString(" ")
		}
		tbl.AddRow(days[i].Date, strings.TrimSpace(row.String()))
	}
	ctx.Println(tbl)
	ctx.Println()
	ctx.Println("■ done  ◧ partial  □ missed  · today")
	ctx.Printf("streak %d  best %d  completion %d%%\n", stats.CurrentStreak, stats.HighestStreak, streak.CompletionRate(stats))
	return nil
}
