package main

import (
	"context"
	"time"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
)

// grantCoins adjusts an account's skill-coin balance by amount. An ops
// backdoor for support cases; the balance still cannot go negative.
func (cli *commandLine) grantCoins(email string, amount int) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	return core.Atomic(ctx, cli.db, func(exec core.DBExecutor) error {
		acct, err := cli.acctRepo.GetAccount(ctx, account.GetFilter{Email: email, ForUpdate: true}, exec)
		if err != nil {
			return err
		}

		if amount >= 0 {
			acct.Credit(amount)
		} else if err = acct.Debit(-amount); err != nil {
			return err
		}
		acct.UpdatedAt = time.Now().UTC()

		_, err = cli.acctRepo.UpdateAccount(ctx, acct, exec)
		return err
	})
}
