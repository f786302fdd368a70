package quests

import (
	"github.com/julianstephens/habitquest/internal/cli"
	"github.com/julianstephens/habitquest/internal/revival"
)

type WalletCmd struct {
	Set int  `help:"Overwrite the balance." default:"-1" placeholder:"N"`
	Add int  `help:"Add to (or with a negative value, take from) the balance. Never goes below zero."`
}

func (c *WalletCmd) Run(ctx *cli.Context) error {
	var (
		balance int
		err     error
	)
	switch {
	case c.Set >= 0:
		if err = ctx.Store.SetBalance(c.Set); err == nil {
			balance = c.Set
		}
	case c.Add != 0:
		balance, err = ctx.Store.AddBalance(c.Add)
	default:
		balance, err = ctx.Store.GetBalance()
	}
	if err != nil {
		return err
	}

	ctx.Printf("Balance: %d (%d revivals at %d each)\n", balance, balance/revival.Cost, revival.Cost)
	return nil
}
