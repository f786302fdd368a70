package habits

import (
	"fmt"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/lifecycle"
)

type ListCmd struct{}

func (c *ListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.Println("No habits found. Add one with 'habitquest add'.")
		return nil
	}

	now := ctx.Clock()
	tbl := cli.NewTable("ID", "HABIT", "TYPE", "CADENCE", "STARTED", "ENDS", "LEFT")
	for _, h := range habits {
		label := h.Label
		if h.Emoji != "" {
			label = h.Emoji + " " + label
		}
		tbl.AddRow(cli.ShortID(h.ID), label, h.TrackingType, h.EffectiveCadence(),
			h.CreatedDate(), h.LastQuestDay(), fmt.Sprintf("%dd", lifecycle.DaysLeft(h, now)))
	}
	ctx.Println(tbl)
	return nil
}
