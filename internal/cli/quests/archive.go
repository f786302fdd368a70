package quests

import (
	"fmt"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/lifecycle"
	"github.com/julianstephens/habitquest/internal/models"
)

func printEntry(ctx *cli.Context, verb string, e models.QuestHistoryEntry) {
	ctx.Printf("✓ %s %s: %d/%d days (%d%%), best streak %d\n",
		verb, e.Label, e.DaysCompleted, e.TotalDays, e.SuccessRate(), e.HighestStreak)
}

// CompleteCmd archives a habit whose quest window is over.
type CompleteCmd struct {
	Habit string `arg:"" help:"Habit ID or label."`
}

func (c *CompleteCmd) Run(ctx *cli.Context) error {
	h, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	if !lifecycle.IsArchivalEligible(h, ctx.Clock()) {
		return fmt.Errorf("the quest for %s runs until %s, use 'habitquest delete' to stop early", h.Label, h.LastQuestDay())
	}

	e, err := ctx.Lifecycle().CompleteHabit(ctx.Ctx(), h)
	if err != nil {
		return err
	}
	printEntry(ctx, "Completed", e)
	return nil
}

// DeleteCmd stops a habit early. Its statistics so far are kept in the
// history.
type DeleteCmd struct {
	Habit string `arg:"" help:"Habit ID or label."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	h, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	e, err := ctx.Lifecycle().DeleteHabit(ctx.Ctx(), h)
	if err != nil {
		return err
	}
	printEntry(ctx, "Deleted", e)
	return nil
}

// ExpireCmd archives every habit whose quest has ended.
type ExpireCmd struct{}

func (c *ExpireCmd) Run(ctx *cli.Context) error {
	entries, err := ctx.Lifecycle().ProcessExpired(ctx.Ctx())
	for _, e := range entries {
		printEntry(ctx, "Completed", e)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ctx.Println("No finished quests.")
	}
	return nil
}
