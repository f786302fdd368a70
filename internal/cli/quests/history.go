package quests

import (
	"fmt"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/constants"
)

type HistoryCmd struct {
	List   HistoryListCmd   `cmd:"" default:"1" help:"List finished quests."`
	Delete HistoryDeleteCmd `cmd:"" help:"Remove a quest from the history."`
}

type HistoryListCmd struct{}

func (c *HistoryListCmd) Run(ctx *cli.Context) error {
	entries, err := ctx.Store.GetHistory()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ctx.Println("No quests in the history yet.")
		return nil
	}

	tbl := cli.NewTable("ID", "HABIT", "ENDED", "REASON", "DONE", "MISSED", "BEST", "RATE")
	for _, e := range entries {
		tbl.AddRow(cli.ShortID(e.ID), e.Label, e.CompletedAt.Format(constants.DateFormat), e.Reason,
			fmt.Sprintf("%d/%d", e.DaysCompleted, e.TotalDays), e.DaysMissed, e.HighestStreak,
			fmt.Sprintf("%d%%", e.SuccessRate()))
	}
	ctx.Println(tbl)
	return nil
}

type HistoryDeleteCmd struct {
	ID string `arg:"" help:"History entry ID (the archived habit's ID)."`
}

func (c *HistoryDeleteCmd) Run(ctx *cli.Context) error {
	e, err := ctx.Store.GetHistoryEntry(c.ID)
	if err != nil {
		return err
	}
	if err := ctx.Store.DeleteHistoryEntry(e.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Removed %s from the history\n", e.Label)
	return nil
}
