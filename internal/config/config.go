// Package config resolves habitquest settings. Environment variables
// override config.yaml, which overrides the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/utils"
)

const (
	keyBackend         = "backend"
	keyPath            = "path"
	keyTimezone        = "timezone"
	keyStartingBalance = "starting_balance"
	keyRemoteURL       = "remote_url"
	keyDebug           = "debug"
	keyLogLevel        = "log_level"
)

// Config is the resolved settings. Dir holds config.yaml, logs and the
// default store. Path is the sqlite file or the kv directory and stays empty
// for postgres.
type Config struct {
	Dir             string
	Backend         constants.Backend
	Path            string
	Timezone        string
	StartingBalance int
	RemoteURL       string
	Debug           bool
	LogLevel        string
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetDefault(keyBackend, string(constants.BackendSQLite))
	v.SetDefault(keyPath, "")
	v.SetDefault(keyTimezone, "Local")
	v.SetDefault(keyStartingBalance, constants.DefaultBalance)
	v.SetDefault(keyRemoteURL, "")
	v.SetDefault(keyDebug, false)
	v.SetDefault(keyLogLevel, "")

	v.SetConfigName(constants.ConfigFileName) // .yaml is implicit
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()

	if override := os.Getenv(constants.EnvPrefix + "_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath(dir)
	return v
}

// Load reads the configuration rooted at dir (DefaultConfigDir when empty).
// A missing config file is not an error.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = constants.DefaultConfigDir
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config dir: %w", err)
	}

	v := newViper(dir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Dir:             dir,
		Backend:         constants.Backend(v.GetString(keyBackend)),
		Path:            v.GetString(keyPath),
		Timezone:        v.GetString(keyTimezone),
		StartingBalance: v.GetInt(keyStartingBalance),
		RemoteURL:       v.GetString(keyRemoteURL),
		Debug:           v.GetBool(keyDebug),
		LogLevel:        v.GetString(keyLogLevel),
	}
	if cfg.Path, err = cfg.resolvePath(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolvePath() (string, error) {
	if c.Path != "" {
		p, err := homedir.Expand(c.Path)
		if err != nil {
			return "", fmt.Errorf("failed to expand store path: %w", err)
		}
		return p, nil
	}
	switch c.Backend {
	case constants.BackendKV:
		return filepath.Join(c.Dir, constants.DefaultKVDirName), nil
	case constants.BackendPostgres:
		return "", nil
	default:
		return filepath.Join(c.Dir, constants.DefaultStoreName), nil
	}
}

// Override applies command line settings on top of the loaded ones. Empty
// values are ignored. Switching backend drops a path that belonged to the
// old one.
func (c *Config) Override(backend, path, timezone string) error {
	if backend != "" && constants.Backend(backend) != c.Backend {
		c.Backend = constants.Backend(backend)
		c.Path = ""
	}
	if path != "" {
		c.Path = path
	}
	if timezone != "" {
		c.Timezone = timezone
	}

	p, err := c.resolvePath()
	if err != nil {
		return err
	}
	c.Path = p
	return c.Validate()
}

func (c *Config) Validate() error {
	switch c.Backend {
	case constants.BackendSQLite, constants.BackendPostgres, constants.BackendKV:
	default:
		return fmt.Errorf("unknown backend %q (expected sqlite, postgres or kv)", c.Backend)
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	if c.StartingBalance < 0 {
		return fmt.Errorf("starting balance cannot be negative, got %d", c.StartingBalance)
	}
	return nil
}

// Save writes c to <Dir>/config.yaml.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.Dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	v := viper.New()
	v.Set(keyBackend, string(c.Backend))
	v.Set(keyPath, c.Path)
	v.Set(keyTimezone, c.Timezone)
	v.Set(keyStartingBalance, c.StartingBalance)
	v.Set(keyRemoteURL, c.RemoteURL)
	v.Set(keyDebug, c.Debug)
	if c.LogLevel != "" {
		v.Set(keyLogLevel, c.LogLevel)
	}
	return v.WriteConfigAs(filepath.Join(c.Dir, constants.ConfigFileName+".yaml"))
}

// Today is the current civil date in the configured timezone.
func (c *Config) Today() (string, error) {
	return utils.GetTodayInTimezone(c.Timezone)
}
