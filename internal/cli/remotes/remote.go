package remotes

import (
	"errors"
	"fmt"

	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/keyring"
	"github.com/julianstephens/habitquest/internal/remote"
)

type RemoteCmd struct {
	Login  LoginCmd  `cmd:"" help:"Connect to a habit tracking backend."`
	Logout LogoutCmd `cmd:"" help:"Forget the backend and its token."`
	Pull   PullCmd   `cmd:"" help:"Merge habits and logs from the backend into the local store."`
}

type LoginCmd struct {
	URL      string `arg:"" help:"API base URL, e.g. https://example.com/api."`
	Token    string `arg:"" help:"API token."`
	NoVerify bool   `help:"Skip the test request."`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	if !c.NoVerify {
		habits, err := remote.NewClient(c.URL, c.Token).ListHabits(ctx.Ctx())
		if err != nil {
			if errors.Is(err, remote.ErrUnauthorized) {
				return fmt.Errorf("the backend rejected the token: %w", err)
			}
			return fmt.Errorf("failed to reach the backend: %w", err)
		}
		ctx.Printf("Backend reachable, %d habit(s) available\n", len(habits))
	}

	if err := keyring.Set(keyring.APIToken, c.Token); err != nil {
		return err
	}
	cfg := *ctx.Config
	cfg.RemoteURL = c.URL
	if err := cfg.Save(); err != nil {
		return err
	}
	*ctx.Config = cfg

	ctx.Printf("✓ Logged in to %s\n", c.URL)
	ctx.Println("  Run 'habitquest remote pull' to fetch your habits.")
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	if err := keyring.Delete(keyring.APIToken); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	cfg := *ctx.Config
	cfg.RemoteURL = ""
	if err := cfg.Save(); err != nil {
		return err
	}
	*ctx.Config = cfg
	ctx.Println("✓ Logged out, habits stay in the local store")
	return nil
}

type PullCmd struct{}

func (c *PullCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Syncer()
	if err != nil {
		return err
	}
	res, err := s.Pull(ctx.Ctx())
	if err != nil {
		return err
	}
	ctx.Printf("✓ Pulled %d habit(s) and %d log(s)", res.Habits, res.Logs)
	if res.Skipped > 0 {
		ctx.Printf(", skipped %d unmappable record(s)", res.Skipped)
	}
	if res.Retired > 0 {
		ctx.Printf(", retired %d archived habit(s)", res.Retired)
	}
	ctx.Println()
	return nil
}
