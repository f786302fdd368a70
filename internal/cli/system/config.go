package system

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/utils"
)

type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" default:"1" help:"Show the resolved configuration."`
	Set  ConfigSetCmd  `cmd:"" help:"Change a setting in config.yaml."`
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	tbl := cli.NewTable()
	tbl.AddRow("config dir", cfg.Dir)
	tbl.AddRow("backend", cfg.Backend)
	tbl.AddRow("store", ctx.Store.GetConfigPath())
	tbl.AddRow("timezone", cfg.Timezone)
	tbl.AddRow("starting balance", cfg.StartingBalance)
	tbl.AddRow("remote url", cfg.RemoteURL)
	tbl.AddRow("debug", cfg.Debug)
	ctx.Println(tbl)
	return nil
}

type ConfigSetCmd struct {
	Key   string `arg:"" enum:"backend,path,timezone,starting_balance,log_level" help:"Setting to change (${enum})."`
	Value string `arg:"" help:"New value."`
}

func (c *ConfigSetCmd) Run(ctx *cli.Context) error {
	cfg := *ctx.Config
	switch c.Key {
	case "backend":
		if constants.Backend(c.Value) != cfg.Backend {
			cfg.Backend = constants.Backend(c.Value)
			// let the new backend pick its default location
			cfg.Path = ""
		}
	case "path":
		cfg.Path = c.Value
	case "timezone":
		if !utils.ValidateTimezone(c.Value) {
			return fmt.Errorf("invalid timezone %q", c.Value)
		}
		cfg.Timezone = c.Value
	case "starting_balance":
		n, err := strconv.Atoi(c.Value)
		if err != nil {
			return fmt.Errorf("starting balance must be a whole number: %w", err)
		}
		cfg.StartingBalance = n
	case "log_level":
		cfg.LogLevel = c.Value
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	*ctx.Config = cfg
	ctx.Printf("✓ %s saved, it applies from the next command\n", c.Key)
	return nil
}
