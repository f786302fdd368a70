package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/constants"
)

type InitCmd struct {
	Force bool `help:"Delete existing local data before initializing."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}

	configFile := filepath.Join(ctx.Config.Dir, constants.ConfigFileName+".yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := ctx.Config.Save(); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		ctx.Printf("Wrote default config to: %s\n", configFile)
	}

	ctx.Printf("Initialized habitquest storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	if ctx.Config.Backend == constants.BackendPostgres {
		return fmt.Errorf("--force is not supported for postgres, drop the %s schema instead", constants.AppName)
	}
	safetyBackup(ctx)
	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}

	path := ctx.Config.Path
	targets := []string{path}
	if ctx.Config.Backend == constants.BackendSQLite {
		targets = append(targets, path+"-wal", path+"-shm")
	}
	for _, p := range targets {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	ctx.Printf("Removed existing data at: %s\n", path)
	return nil
}
