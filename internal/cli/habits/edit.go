package habits

import (
	"errors"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/models"
)

type EditCmd struct {
	Habit   string  `arg:"" help:"Habit ID or label."`
	Label   string  `help:"New label."`
	Emoji   string  `help:"New emoji."`
	Color   string  `help:"New color."`
	Target  float64 `help:"New target (variable_amount only)."`
	Unit    string  `help:"New unit."`
	Days    int     `help:"New quest length in days."`
	Private bool    `help:"Make the habit private." xor:"visibility"`
	Public  bool    `help:"Make the habit public." xor:"visibility"`
}

func (c *EditCmd) patch() (models.HabitPatch, bool) {
	var p models.HabitPatch
	changed := false
	if c.Label != "" {
		p.Label, changed = &c.Label, true
	}
	if c.Emoji != "" {
		p.Emoji, changed = &c.Emoji, true
	}
	if c.Color != "" {
		p.Color, changed = &c.Color, true
	}
	if c.Target != 0 {
		t := models.Some(c.Target)
		p.Target, changed = &t, true
	}
	if c.Unit != "" {
		p.Unit, changed = &c.Unit, true
	}
	if c.Days != 0 {
		p.DurationDays, changed = &c.Days, true
	}
	if c.Private || c.Public {
		private := c.Private
		p.IsPrivate, changed = &private, true
	}
	return p, changed
}

func (c *EditCmd) Run(ctx *cli.Context) error {
	h, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	patch, changed := c.patch()
	if !changed {
		return errors.New("nothing to change, pass at least one flag")
	}

	updated, err := ctx.Store.UpdateHabit(h.ID, patch)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Updated %s (quest ends %s)\n", updated.Label, updated.LastQuestDay())
	return nil
}
