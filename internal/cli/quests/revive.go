package quests

import (
	"strings"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/revival"
)

type ReviveCmd struct {
	Habit string `arg:"" help:"Habit ID or label."`
	Date  string `arg:"" help:"Missed day to revive (YYYY-MM-DD)."`
}

func (c *ReviveCmd) Run(ctx *cli.Context) error {
	h, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}

	res, err := ctx.Revival().Revive(ctx.Ctx(), h, c.Date)
	if err != nil {
		return err
	}
	if res.Status == revival.StatusAlreadySatisfied {
		ctx.Printf("%s is already done for %s, nothing charged (balance %d)\n", c.Date, h.Label, res.Balance)
		return nil
	}
	ctx.PushLog(res.Log)

	ctx.Printf("✓ Revived %s for %s (-%d, balance %d)\n", c.Date, h.Label, revival.Cost, res.Balance)
	return nil
}

// EligibleCmd lists the past days of a habit that a revival would fix.
type EligibleCmd struct {
	Habit string `arg:"" help:"Habit ID or label."`
}

func (c *EligibleCmd) Run(ctx *cli.Context) error {
	h, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	logs, err := ctx.Store.GetAllLogs(h.ID)
	if err != nil {
		return err
	}
	balance, err := ctx.Store.GetBalance()
	if err != nil {
		return err
	}

	dates := revival.Eligible(h, logs, ctx.Today(), balance)
	if len(dates) == 0 {
		if balance < revival.Cost {
			ctx.Printf("Balance %d is below the revival cost of %d.\n", balance, revival.Cost)
			return nil
		}
		ctx.Printf("No missed days to revive for %s.\n", h.Label)
		return nil
	}
	ctx.Printf("Revivable days for %s (cost %d each, balance %d):\n", h.Label, revival.Cost, balance)
	ctx.Printf("  %s\n", strings.Join(dates, "\n  "))
	return nil
}
