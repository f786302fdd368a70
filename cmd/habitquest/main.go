package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/cli/habits"
	"github.com/julianstephens/habitquest/internal/cli/quests"
	"github.com/julianstephens/habitquest/internal/cli/remotes"
	"github.com/julianstephens/habitquest/internal/cli/system"
	"github.com/julianstephens/habitquest/internal/config"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/errors"
	"github.com/julianstephens/habitquest/internal/events"
	"github.com/julianstephens/habitquest/internal/instances"
	"github.com/julianstephens/habitquest/internal/logger"
	"github.com/julianstephens/habitquest/internal/storage"
)

var CLI struct {
	Version   kong.VersionFlag
	ConfigDir string `help:"Directory holding config.yaml, logs and the default store." default:"${config_dir}" env:"HABITQUEST_CONFIG_DIR"`
	Backend   string `help:"Storage backend for this run (sqlite, postgres or kv)."`
	Store     string `help:"SQLite file or kv directory for this run."`
	Timezone  string `help:"IANA timezone that decides what today is."`
	Debug     bool   `help:"Log at debug level and mirror logs to stderr."`

	Init     system.InitCmd     `cmd:"" help:"Initialize habitquest storage."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Config   system.ConfigCmd   `cmd:"" help:"Show or change settings."`
	Keyring  system.KeyringCmd  `cmd:"" help:"Manage secrets in the OS keyring."`
	Watch    system.WatchCmd    `cmd:"" help:"Follow changes made by other habitquest processes."`
	Export   system.ExportCmd   `cmd:"" help:"Write the whole store as JSON."`
	Import   system.ImportCmd   `cmd:"" help:"Replace the store with a JSON export."`
	Backup   system.BackupCmd   `cmd:"" help:"Create, list or restore local store backups."`
	Status   habits.StatusCmd   `cmd:"" help:"Show today's progress." default:"1"`
	Add      habits.AddCmd      `cmd:"" help:"Start a new habit quest."`
	List     habits.ListCmd     `cmd:"" help:"List active habits."`
	Edit     habits.EditCmd     `cmd:"" help:"Change a habit."`
	Toggle   habits.ToggleCmd   `cmd:"" help:"Mark a tick or quit habit done or not done."`
	Log      habits.LogCmd      `cmd:"" help:"Record an amount for a variable amount habit."`
	Calendar habits.CalendarCmd `cmd:"" help:"Show a habit's quest calendar."`
	Revive   quests.ReviveCmd   `cmd:"" help:"Spend leaf dollars to restore a missed day."`
	Eligible quests.EligibleCmd `cmd:"" help:"List the days a revival would restore."`
	Wallet   quests.WalletCmd   `cmd:"" help:"Show or adjust the leaf dollar balance."`
	Complete quests.CompleteCmd `cmd:"" help:"Archive a habit whose quest is over."`
	Delete   quests.DeleteCmd   `cmd:"" help:"Stop a habit early and keep its stats in the history."`
	Expire   quests.ExpireCmd   `cmd:"" help:"Archive every habit whose quest is over."`
	History  quests.HistoryCmd  `cmd:"" help:"Browse finished quests."`
	Remote   remotes.RemoteCmd  `cmd:"" help:"Sync with a habit tracking backend."`
}

// Commands that must run before the store is loaded.
var skipLoad = map[string]bool{
	"init":    true,
	"doctor":  true,
	"keyring": true,
	"config":  true,
	"backup":  true,
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit quests with streaks, revivals and history"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":    constants.Version,
			"config_dir": constants.DefaultConfigDir,
		},
	)

	cfg, err := config.Load(CLI.ConfigDir)
	if err != nil {
		errors.Fatal(err)
	}
	if err := cfg.Override(CLI.Backend, CLI.Store, CLI.Timezone); err != nil {
		errors.Fatal(err)
	}
	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug || CLI.Debug,
		ConfigDir: cfg.Dir,
		Level:     cfg.LogLevel,
	}); err != nil {
		errors.Fatal(err)
	}

	raw, err := cli.OpenStore(cfg, nil)
	if err != nil {
		errors.Fatal(err)
	}
	bus := events.NewBus()
	store := storage.WithEvents(raw, bus)

	command := kctx.Selected()
	if command == nil || !skipLoad[rootName(command)] {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	unregister, err := instances.Register(cfg.Dir, kctx.Command())
	if err != nil {
		logger.Warn("failed to register instance", "error", err)
		unregister = func() {}
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	appCtx := cli.NewContext(sigCtx, cfg, store, bus)

	err = kctx.Run(appCtx)
	stop()
	unregister()
	if cerr := store.Close(); cerr != nil {
		logger.Warn("failed to close store", "error", cerr)
	}
	errors.Fatal(err)
}

func rootName(n *kong.Node) string {
	for n.Parent != nil && n.Parent.Type != kong.ApplicationNode {
		n = n.Parent
	}
	return n.Name
}
