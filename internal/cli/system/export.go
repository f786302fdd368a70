package system

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/export"
)

type ExportCmd struct {
	Output string `short:"o" help:"File to write, or - for stdout." default:"-"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	snap, err := export.Take(ctx.Store, ctx.Clock())
	if err != nil {
		return err
	}

	if c.Output == "-" {
		return export.Write(ctx.Out, snap)
	}

	f, err := os.OpenFile(c.Output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := export.Write(f, snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	ctx.Printf("✓ Exported %d habit(s), %d log(s) and %d history entries to %s\n",
		len(snap.Habits), len(snap.Logs), len(snap.History), c.Output)
	return nil
}

// ImportCmd replaces the store contents with an export.
type ImportCmd struct {
	File string `arg:"" help:"Export file to read, or - for stdin."`
	Yes  bool   `short:"y" help:"Do not ask for confirmation."`

	In io.Reader `kong:"-"`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	var r io.Reader = c.In
	if r == nil {
		r = os.Stdin
	}
	if c.File != "-" {
		f, err := os.Open(c.File)
		if err != nil {
			return fmt.Errorf("failed to open export file: %w", err)
		}
		defer f.Close()
		r = f
	}

	snap, err := export.Read(r)
	if err != nil {
		return err
	}

	if !c.Yes {
		ctx.Printf("This replaces all habits, logs and history with %d habit(s) from the export.\n", len(snap.Habits))
		ctx.Println("Re-run with --yes to continue.")
		return nil
	}

	safetyBackup(ctx)
	if err := export.Restore(ctx.Store, snap, ctx.Clock()); err != nil {
		return err
	}
	ctx.Printf("✓ Imported %d habit(s), %d log(s) and %d history entries\n",
		len(snap.Habits), len(snap.Logs), len(snap.History))
	return nil
}
