package habits

import (
	"github.com/julianstephens/habitquest/internal/cli"
)

type ToggleCmd struct {
	Habit string `arg:"" help:"Habit ID or label."`
	Date  string `help:"Day to toggle (YYYY-MM-DD). Defaults to today."`
}

func (c *ToggleCmd) Run(ctx *cli.Context) error {
	h, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	date := c.Date
	if date == "" {
		date = ctx.Today()
	}

	l, err := ctx.Tracker().Toggle(ctx.Ctx(), h.ID, date)
	if err != nil {
		return err
	}
	ctx.PushLog(l)

	ctx.Printf("%s %s: %s\n", l.Date, h.Label, cli.Entry(h, &l))
	return nil
}

type LogCmd struct {
	Habit string  `arg:"" help:"Habit ID or label."`
	Value float64 `arg:"" help:"Amount done."`
	Date  string  `help:"Day to record (YYYY-MM-DD). Defaults to today."`
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	h, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	date := c.Date
	if date == "" {
		date = ctx.Today()
	}

	l, err := ctx.Tracker().LogValue(ctx.Ctx(), h.ID, date, c.Value)
	if err != nil {
		return err
	}
	ctx.PushLog(l)

	ctx.Printf("%s %s: %s\n", l.Date, h.Label, cli.Entry(h, &l))
	return nil
}
