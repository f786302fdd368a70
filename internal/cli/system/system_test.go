package system

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/habitquest/internal/backup"
	"github.com/julianstephens/habitquest/internal/cli/clitest"
	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
)

func seed(t *testing.T, env *clitest.Env) models.Habit {
	t.Helper()
	h, err := env.Store.CreateHabit(models.HabitDefinition{
		Label:        "Read",
		TrackingType: constants.TrackingTickCross,
		DurationDays: 7,
	})
	require.NoError(t, err)
	_, err = env.Store.UpsertLog(models.HabitLog{HabitID: h.ID, Date: "2025-01-10", Completed: true})
	require.NoError(t, err)
	return h
}

func TestInitCmd(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&InitCmd{}).Run(env.Context))
	out := env.Output()
	assert.Contains(t, out, "Initialized habitquest storage at: "+env.Config.Path)
	assert.Contains(t, out, "Wrote default config")
	_, err := os.Stat(filepath.Join(env.Config.Dir, "config.yaml"))
	require.NoError(t, err)

	// idempotent, and the config file is left alone
	require.NoError(t, (&InitCmd{}).Run(env.Context))
	assert.NotContains(t, env.Output(), "Wrote default config")
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	env := clitest.New(t)
	seed(t, env)

	require.NoError(t, (&InitCmd{Force: true}).Run(env.Context))
	out := env.Output()
	assert.Contains(t, out, "Backed up the current store to habitquest-20250110-1200.kv")
	assert.Contains(t, out, "Removed existing data")

	habits, err := env.Store.GetAllHabits()
	require.NoError(t, err)
	assert.Empty(t, habits)
}

func TestInitCmd_ForceRejectsPostgres(t *testing.T) {
	env := clitest.New(t)
	env.Config.Backend = constants.BackendPostgres

	err := (&InitCmd{Force: true}).Run(env.Context)
	assert.ErrorContains(t, err, "not supported for postgres")
}

func TestDoctorCmd(t *testing.T) {
	env := clitest.New(t)
	seed(t, env)

	require.NoError(t, (&DoctorCmd{}).Run(env.Context))
	out := env.Output()
	assert.Contains(t, out, "✓ Store reachable: OK")
	assert.Contains(t, out, "✓ Data validation: OK")
	assert.Contains(t, out, "All diagnostics passed!")
}

func TestDoctorCmd_OrphanLog(t *testing.T) {
	env := clitest.New(t)
	_, err := env.Store.UpsertLog(models.HabitLog{HabitID: "ghost", Date: "2025-01-10", Completed: true})
	require.NoError(t, err)

	err = (&DoctorCmd{}).Run(env.Context)
	require.Error(t, err)
	out := env.Output()
	assert.Contains(t, out, "❌ Data validation: FAIL")
	assert.Contains(t, out, "belongs to no habit")
}

func TestExportImport(t *testing.T) {
	src := clitest.New(t)
	h := seed(t, src)

	require.NoError(t, (&ExportCmd{Output: "-"}).Run(src.Context))
	data := src.Output()
	assert.Contains(t, data, `"version": 1`)
	assert.Contains(t, data, h.ID)

	dst := clitest.New(t)
	cmd := &ImportCmd{File: "-", In: strings.NewReader(data)}
	require.NoError(t, cmd.Run(dst.Context))
	assert.Contains(t, dst.Output(), "Re-run with --yes")
	habits, err := dst.Store.GetAllHabits()
	require.NoError(t, err)
	assert.Empty(t, habits)

	cmd = &ImportCmd{File: "-", Yes: true, In: strings.NewReader(data)}
	require.NoError(t, cmd.Run(dst.Context))
	assert.Contains(t, dst.Output(), "Imported 1 habit(s), 1 log(s)")

	got, err := dst.Store.GetLog(h.ID, "2025-01-10")
	require.NoError(t, err)
	assert.True(t, got.Completed)
}

func TestExportToFile(t *testing.T) {
	env := clitest.New(t)
	seed(t, env)
	path := filepath.Join(t.TempDir(), "export.json")

	require.NoError(t, (&ExportCmd{Output: path}).Run(env.Context))
	assert.Contains(t, env.Output(), "Exported 1 habit(s)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	dst := clitest.New(t)
	require.NoError(t, (&ImportCmd{File: path, Yes: true}).Run(dst.Context))
	habits, err := dst.Store.GetAllHabits()
	require.NoError(t, err)
	assert.Len(t, habits, 1)
	assert.True(t, bytes.Contains(data, []byte(habits[0].ID)))
}

func TestConfigCmds(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&ConfigShowCmd{}).Run(env.Context))
	out := env.Output()
	assert.Contains(t, out, "kv")
	assert.Contains(t, out, "UTC")

	err := (&ConfigSetCmd{Key: "timezone", Value: "Mars/Olympus"}).Run(env.Context)
	assert.ErrorContains(t, err, "invalid timezone")
	err = (&ConfigSetCmd{Key: "starting_balance", Value: "-3"}).Run(env.Context)
	assert.ErrorContains(t, err, "cannot be negative")
	err = (&ConfigSetCmd{Key: "backend", Value: "mongo"}).Run(env.Context)
	assert.ErrorContains(t, err, "unknown backend")

	require.NoError(t, (&ConfigSetCmd{Key: "timezone", Value: "Europe/Berlin"}).Run(env.Context))
	require.NoError(t, (&ConfigSetCmd{Key: "starting_balance", Value: "100"}).Run(env.Context))
	assert.Equal(t, "Europe/Berlin", env.Config.Timezone)
	assert.Equal(t, 100, env.Config.StartingBalance)

	data, err := os.ReadFile(filepath.Join(env.Config.Dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Europe/Berlin")
}

func TestKeyringCmds(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv("HABITQUEST_API_TOKEN", "")
	env := clitest.New(t)

	require.NoError(t, (&KeyringSetCmd{Name: "api-token", Value: "abcdef123"}).Run(env.Context))
	assert.Contains(t, env.Output(), "api-token stored")

	require.NoError(t, (&KeyringGetCmd{Name: "api-token"}).Run(env.Context))
	out := env.Output()
	assert.Contains(t, out, "abcd****")
	assert.NotContains(t, out, "abcdef123")

	require.NoError(t, (&KeyringDeleteCmd{Name: "api-token"}).Run(env.Context))
	err := (&KeyringGetCmd{Name: "api-token"}).Run(env.Context)
	assert.ErrorContains(t, err, "no api-token found")

	err = (&KeyringSetCmd{Name: "database-connection", Value: "not a dsn"}).Run(env.Context)
	assert.Error(t, err)
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "postgres://me:xxxxx@db:5432/hq", maskPassword("postgres://me:hunter2@db:5432/hq"))
	assert.Equal(t, "postgres://me@db/hq", maskPassword("postgres://me@db/hq"))
	assert.Equal(t, "host=db user=me", maskPassword("host=db user=me"))
}

func TestWatchCmd(t *testing.T) {
	env := clitest.New(t)
	env.Cancel()

	require.NoError(t, (&WatchCmd{}).Run(env.Context))
	assert.Contains(t, env.Output(), "Watching "+env.Config.Path)

	env.Config.Backend = constants.BackendPostgres
	assert.ErrorContains(t, (&WatchCmd{}).Run(env.Context), "file based backend")
}

func TestBackupCmds(t *testing.T) {
	env := clitest.New(t)
	h := seed(t, env)

	require.NoError(t, (&BackupListCmd{}).Run(env.Context))
	assert.Contains(t, env.Output(), "No backups in")

	require.NoError(t, (&BackupCreateCmd{}).Run(env.Context))
	assert.Contains(t, env.Output(), "✓ Backup created:")

	require.NoError(t, env.Store.DeleteHabit(h.ID))
	env.Advance(time.Hour)

	require.NoError(t, (&BackupListCmd{}).Run(env.Context))
	assert.Contains(t, env.Output(), "habitquest-20250110-1200.kv")

	restore := &BackupRestoreCmd{Name: "habitquest-20250110-1200.kv"}
	require.NoError(t, restore.Run(env.Context))
	assert.Contains(t, env.Output(), "Re-run with --yes")

	restore.Yes = true
	require.NoError(t, restore.Run(env.Context))
	out := env.Output()
	assert.Contains(t, out, "Saved the previous store as habitquest-20250110-1300.kv")
	assert.Contains(t, out, "✓ Restored habitquest-20250110-1200.kv")

	got, err := env.Store.GetHabit(h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read", got.Label)
}

func TestBackupCmds_PostgresUnsupported(t *testing.T) {
	env := clitest.New(t)
	env.Config.Backend = constants.BackendPostgres

	err := (&BackupCreateCmd{}).Run(env.Context)
	assert.ErrorIs(t, err, backup.ErrUnsupported)
}
