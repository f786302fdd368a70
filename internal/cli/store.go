package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitquest/internal/backup"
	"github.com/julianstephens/habitquest/internal/config"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/keyring"
	"github.com/julianstephens/habitquest/internal/storage"
	"github.com/julianstephens/habitquest/internal/storage/kv"
	"github.com/julianstephens/habitquest/internal/storage/postgres"
	"github.com/julianstephens/habitquest/internal/storage/sqldb"
	"github.com/julianstephens/habitquest/internal/storage/sqlite"
	"github.com/julianstephens/habitquest/internal/utils"
)

// ZonedClock reports now in the given timezone, so that stamps such as a
// habit's CreatedAt fall on the same civil date as Context.Today. A nil now
// means time.Now; an unknown timezone leaves instants untouched.
func ZonedClock(timezone string, now func() time.Time) func() time.Time {
	if now == nil {
		now = time.Now
	}
	loc, err := utils.LoadLocation(timezone)
	if err != nil {
		return now
	}
	return func() time.Time { return now().In(loc) }
}

// OpenStore builds the provider for the configured backend. The store is not
// loaded yet. Timestamps it writes come from now (time.Now when nil), in the
// configured timezone.
func OpenStore(cfg *config.Config, now func() time.Time) (storage.Provider, error) {
	clock := ZonedClock(cfg.Timezone, now)

	switch cfg.Backend {
	case constants.BackendKV:
		return kv.NewStore(cfg.Path, kv.WithClock(clock), kv.WithStartingBalance(cfg.StartingBalance)), nil
	case constants.BackendPostgres:
		connStr, err := keyring.Get(keyring.ConnectionString)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, errors.New("no PostgreSQL connection string found, run 'habitquest keyring set database-connection <dsn>' or set HABITQUEST_DATABASE_URL")
			}
			return nil, err
		}
		// the keyring is encrypted, so a stored password is accepted here
		if _, err := postgres.ValidateConnString(connStr); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
		return postgres.New(connStr, sqldb.WithClock(clock), sqldb.WithStartingBalance(cfg.StartingBalance)), nil
	case constants.BackendSQLite:
		return sqlite.NewStore(cfg.Path, sqldb.WithClock(clock), sqldb.WithStartingBalance(cfg.StartingBalance)), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// WatchTarget is the filesystem location other processes write to, or ""
// when the backend is not file based.
func WatchTarget(cfg *config.Config) string {
	if cfg.Backend == constants.BackendPostgres {
		return ""
	}
	return cfg.Path
}

// Backups returns the backup manager for the configured local store.
func (c *Context) Backups() (*backup.Manager, error) {
	return backup.NewManager(c.Config.Backend, c.Config.Path, c.Config.Dir, backup.WithClock(c.Clock))
}
