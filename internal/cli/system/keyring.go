package system

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/keyring"
	"github.com/julianstephens/habitquest/internal/storage/postgres"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
	Get    KeyringGetCmd    `cmd:"" help:"Show a stored secret (passwords masked)."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
}

func lookup(name string) (keyring.Secret, error) {
	s, ok := keyring.Lookup(name)
	if !ok {
		return keyring.Secret{}, fmt.Errorf("unknown secret %q", name)
	}
	return s, nil
}

type KeyringSetCmd struct {
	Name  string `arg:"" enum:"database-connection,api-token" help:"Secret to store."`
	Value string `arg:"" help:"Secret value."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	s, err := lookup(cmd.Name)
	if err != nil {
		return err
	}

	if s == keyring.ConnectionString {
		if _, err := postgres.ValidateConnString(cmd.Value); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			ctx.Println("⚠️  Warning: Connection string contains embedded credentials.")
			ctx.Println("   It will be stored as-is in the encrypted OS keyring.")
		}
	}

	if err := keyring.Set(s, cmd.Value); err != nil {
		return err
	}
	ctx.Printf("✓ %s stored in the OS keyring\n", s)
	return nil
}

type KeyringGetCmd struct {
	Name string `arg:"" enum:"database-connection,api-token" help:"Secret to show."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	s, err := lookup(cmd.Name)
	if err != nil {
		return err
	}
	value, err := keyring.Get(s)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found, use 'habitquest keyring set %s' to store one", s, s)
		}
		return err
	}

	if s == keyring.APIToken {
		ctx.Println(mask(value))
		return nil
	}
	ctx.Println(maskPassword(value))
	return nil
}

type KeyringDeleteCmd struct {
	Name string `arg:"" enum:"database-connection,api-token" help:"Secret to remove."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	s, err := lookup(cmd.Name)
	if err != nil {
		return err
	}
	if err := keyring.Delete(s); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", s)
		}
		return err
	}
	ctx.Printf("✓ %s removed from the OS keyring\n", s)
	return nil
}

// mask keeps the first four characters of a token.
func mask(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}

// maskPassword hides the password of a URL-style connection string.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	if _, ok := u.User.Password(); !ok {
		return connStr
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
