package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitquest/internal/cli"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" default:"1" help:"Snapshot the local store."`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Replace the local store with a backup."`
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	m, err := ctx.Backups()
	if err != nil {
		return err
	}
	info, err := m.Create()
	if err != nil {
		return err
	}
	ctx.Printf("✓ Backup created: %s\n", info.Path)
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	m, err := ctx.Backups()
	if err != nil {
		return err
	}
	backups, err := m.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		ctx.Printf("No backups in %s\n", m.Dir())
		return nil
	}

	table := cli.NewTable("NAME", "TAKEN", "SIZE")
	for _, b := range backups {
		table.AddRow(b.Name(), b.Timestamp.Format("2006-01-02 15:04"), humanSize(b.Size))
	}
	ctx.Println(table)
	return nil
}

type BackupRestoreCmd struct {
	Name string `arg:"" help:"Backup name from 'backup list', or a path."`
	Yes  bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	m, err := ctx.Backups()
	if err != nil {
		return err
	}

	path := c.Name
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(m.Dir(), c.Name)
	}

	if !c.Yes {
		ctx.Printf("This replaces %s with %s.\n", ctx.Config.Path, filepath.Base(path))
		ctx.Println("Re-run with --yes to continue.")
		return nil
	}

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	saved, err := m.Restore(path)
	if err != nil {
		return err
	}
	if saved.Path != "" {
		ctx.Printf("Saved the previous store as %s\n", saved.Name())
	}
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("restored store failed to load: %w", err)
	}
	ctx.Printf("✓ Restored %s\n", filepath.Base(path))
	return nil
}

// safetyBackup snapshots the store before a destructive command. Backends
// without file backups are skipped.
func safetyBackup(ctx *cli.Context) {
	m, err := ctx.Backups()
	if err != nil {
		return
	}
	if _, err := os.Stat(ctx.Config.Path); err != nil {
		return
	}
	info, err := m.Create()
	if err != nil {
		ctx.Printf("⚠ Backup failed: %v\n", err)
		return
	}
	ctx.Printf("Backed up the current store to %s\n", info.Name())
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
