package system

import (
	"errors"
	"time"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/events"
	"github.com/julianstephens/habitquest/internal/instances"
)

// WatchCmd follows changes made by other habitquest processes until
// interrupted.
type WatchCmd struct{}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	target := cli.WatchTarget(ctx.Config)
	if target == "" {
		return errors.New("watch needs a file based backend (sqlite or kv)")
	}

	if others, err := instances.Others(ctx.Config.Dir); err == nil && len(others) > 0 {
		ctx.Printf("%d other habitquest process(es) running\n", len(others))
	}

	unsubscribe := ctx.Bus.Subscribe(func(ev events.Event) {
		c.report(ctx, ev)
	})
	defer unsubscribe()

	ctx.Printf("Watching %s (Ctrl+C to stop)\n", target)
	return events.Watch(ctx.Ctx(), target, ctx.Bus)
}

func (c *WatchCmd) report(ctx *cli.Context, ev events.Event) {
	stamp := ctx.Clock().Format(time.TimeOnly)
	if ev.Type != events.ExternalChange {
		ctx.Printf("[%s] %s changed\n", stamp, ev.Type)
		return
	}

	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		ctx.Printf("[%s] store changed, re-read failed: %v\n", stamp, err)
		return
	}
	balance, err := ctx.Store.GetBalance()
	if err != nil {
		ctx.Printf("[%s] store changed, re-read failed: %v\n", stamp, err)
		return
	}
	ctx.Printf("[%s] store changed: %d habit(s), balance %d\n", stamp, len(habits), balance)
}
