package habits

import (
	"errors"
	"fmt"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/lifecycle"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
)

type AddCmd struct {
	Label   string  `arg:"" help:"Habit label."`
	Type    string  `help:"Tracking type." enum:"tick_cross,variable_amount,quit" default:"tick_cross"`
	Target  float64 `help:"Daily target (variable_amount only)."`
	Unit    string  `help:"Unit of the target, e.g. glasses."`
	Cadence string  `help:"Period the streak is counted in." enum:"daily,weekly,monthly" default:"daily"`
	Days    int     `help:"Quest length in days." default:"30"`
	Emoji   string  `help:"Emoji shown next to the label."`
	Color   string  `help:"Display color."`
	Private bool    `help:"Keep the habit out of public listings on the backend."`
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.FindHabit(c.Label); err == nil {
		return fmt.Errorf("habit with label %q already exists", c.Label)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	def := models.HabitDefinition{
		Label:        c.Label,
		Emoji:        c.Emoji,
		Color:        c.Color,
		TrackingType: constants.TrackingType(c.Type),
		Unit:         c.Unit,
		Cadence:      constants.Cadence(c.Cadence),
		DurationDays: c.Days,
		IsPrivate:    c.Private,
	}
	if c.Target != 0 {
		def.Target = models.Some(c.Target)
	}

	h, err := ctx.Lifecycle().CreateHabit(ctx.Ctx(), def)
	if err != nil {
		return err
	}

	ctx.Printf("✓ Added %s (%s, %s)\n", h.Label, h.TrackingType, h.EffectiveCadence())
	ctx.Printf("  Quest: %s to %s (%d days left)\n", h.CreatedDate(), h.LastQuestDay(), lifecycle.DaysLeft(h, ctx.Clock()))
	ctx.Printf("  ID: %s\n", h.ID)
	return nil
}
