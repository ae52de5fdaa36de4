package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db       *sqlx.DB
	acctRepo account.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status|version  - run database migrations")
	fmt.Println("  grantcoins -email EMAIL -amount N - credit (or debit with a negative N) an account's balance")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	grantCoinsCmd := flag.NewFlagSet("grantcoins", flag.ExitOnError)
	grantCoinsEmail := grantCoinsCmd.String("email", "", "The account's email.")
	grantCoinsAmount := grantCoinsCmd.Int("amount", 0, "The amount of skill coins to credit. Negative amounts debit.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "grantcoins":
		if err := grantCoinsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *grantCoinsEmail == "" || *grantCoinsAmount == 0 {
			grantCoinsCmd.Usage()
			return errHelp
		}
		return cli.grantCoins(*grantCoinsEmail, *grantCoinsAmount)
	default:
		cli.printUsage()
		return errHelp
	}
}
