package system

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/instances"
	"github.com/julianstephens/habitquest/internal/keyring"
	"github.com/julianstephens/habitquest/internal/migration"
	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/storage/sqldb"
	"github.com/julianstephens/habitquest/migrations"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(ctx *cli.Context) error
	// warnOnly checks never fail the command.
	warnOnly   bool
	needsStore bool
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	reachable := checkStoreReachable(ctx)

	if reachable != nil {
		ctx.Println("❌ Store reachable: FAIL")
		ctx.Printf("   Error: %v\n", reachable)
		hasError = true
	} else {
		ctx.Println("✓ Store reachable: OK")
	}

	checks := []check{
		{name: "Schema version", run: checkSchemaVersion, needsStore: true},
		{name: "Data validation", run: checkValidation, needsStore: true},
		{name: "Clock/timezone", run: checkClockTimezone},
		{name: "Keyring", run: checkKeyring, warnOnly: true},
		{name: "Other instances", run: checkInstances, warnOnly: true},
	}

	for _, c := range checks {
		if c.needsStore && reachable != nil {
			ctx.Printf("⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	if db, ok := sqlDB(ctx); ok {
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func sqlDB(ctx *cli.Context) (*sql.DB, bool) {
	s, ok := storage.Unwrap(ctx.Store).(interface{ DB() *sql.DB })
	if !ok {
		return nil, false
	}
	db := s.DB()
	return db, db != nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	db, ok := sqlDB(ctx)
	if !ok {
		// kv stores check their version on Load
		return nil
	}

	var (
		sub  fs.FS
		err  error
		opts []migration.Option
	)
	if ctx.Config.Backend == constants.BackendPostgres {
		sub, err = migrations.Postgres()
		opts = append(opts, migration.WithRebind(sqldb.Postgres.Rebind))
	} else {
		sub, err = migrations.SQLite()
	}
	if err != nil {
		return err
	}

	runner := migration.NewRunner(db, sub, opts...)
	current, err := runner.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	latest, err := runner.GetLatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}

	now := ctx.Clock()
	ids := make(map[string]bool, len(habits))
	for _, h := range habits {
		if ids[h.ID] {
			return fmt.Errorf("duplicate habit ID found: %s", h.ID)
		}
		ids[h.ID] = true
		if err := h.Validate(now); err != nil {
			return fmt.Errorf("habit %s: %w", h.ID, err)
		}
	}

	logs, err := ctx.Store.GetAllLogs("")
	if err != nil {
		return fmt.Errorf("failed to get logs: %w", err)
	}
	for _, l := range logs {
		if !ids[l.HabitID] {
			return fmt.Errorf("log %s belongs to no habit", l.Key())
		}
		if err := l.Validate(); err != nil {
			return err
		}
	}

	if _, err := ctx.Store.GetBalance(); err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := ctx.Clock()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, offset := now.Zone(); offset == 0 && now.Location() == time.UTC {
		ctx.Printf("   Note: timezone is UTC\n")
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if ctx.Config.Backend != constants.BackendPostgres && ctx.Config.RemoteURL == "" {
		return nil
	}
	if !keyring.IsAvailable() {
		return errors.New("OS keyring is not available, secrets must come from HABITQUEST_DATABASE_URL and HABITQUEST_API_TOKEN")
	}
	return nil
}

func checkInstances(ctx *cli.Context) error {
	others, err := instances.Others(ctx.Config.Dir)
	if err != nil {
		return err
	}
	if len(others) > 0 {
		return fmt.Errorf("%d other habitquest process(es) share this store (first PID %d), changes sync through the watcher", len(others), others[0].PID)
	}
	return nil
}
