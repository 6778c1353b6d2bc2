package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/services/basketmath"
)

var userCommands = []subcommands.Command{
	&fundCmd{},
	&depositCmd{},
	&withdrawCmd{},
	&showCmd{},
}

type fundCmd struct {
	user   string
	mint   string
	amount string
}

func (*fundCmd) Name() string     { return "fund" }
func (*fundCmd) Synopsis() string { return "credit a user's account from the dev faucet" }
func (*fundCmd) Usage() string {
	return `fund -user <key> -mint <mint> -amount <ui amount>
`
}

func (c *fundCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "owner (required)")
	f.StringVar(&c.mint, "mint", "", "mint (required)")
	f.StringVar(&c.amount, "amount", "", "amount in UI units, e.g. 1.5 (required)")
}

func (c *fundCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	user, err := parseKey("user", c.user)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	mint, err := parseKey("mint", c.mint)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}

	svc, err := openService()
	if err != nil {
		fail("opening ledger: %v", err)
		return subcommands.ExitFailure
	}
	defer svc.Stop()

	m, err := svc.Ledger().Mint(mint)
	if err != nil {
		fail("unknown mint %s", mint)
		return subcommands.ExitFailure
	}
	amount, err := domain.ParseUnits(c.amount, m.Decimals)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	acct, err := svc.Credit(user, mint, amount)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s now holds %s of %s\n", user, domain.FormatUnits(acct.Amount, m.Decimals), mint)
	return subcommands.ExitSuccess
}

type depositCmd struct {
	id      uint64
	user    string
	amounts string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "deposit every basket asset and mint shares" }
func (*depositCmd) Usage() string {
	return `deposit -id <basket> -user <key> -amounts <a1,a2,...>

  One UI amount per registered asset, in registration order (see show).
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.Uint64Var(&c.id, "id", 0, "basket id")
	f.StringVar(&c.user, "user", "", "depositor (required)")
	f.StringVar(&c.amounts, "amounts", "", "comma separated UI amounts (required)")
}

func (c *depositCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	user, err := parseKey("user", c.user)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}

	svc, err := openService()
	if err != nil {
		fail("opening ledger: %v", err)
		return subcommands.ExitFailure
	}
	defer svc.Stop()

	view, err := svc.View(c.id)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	raw := splitList(c.amounts)
	if len(raw) != len(view.Tokens) {
		fail("basket %d holds %d assets, got %d amounts", c.id, len(view.Tokens), len(raw))
		return subcommands.ExitUsageError
	}
	amounts := make([]uint64, len(raw))
	for i, s := range raw {
		if amounts[i], err = domain.ParseUnits(s, view.Tokens[i].Decimals); err != nil {
			fail("%v", err)
			return subcommands.ExitUsageError
		}
	}

	req, err := svc.DepositRequest(c.id, user, amounts)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	allow, err := svc.AllowListAddress(c.id, user)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	req.AllowList = &allow

	res, err := svc.Deposit(ctx, req)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("minted %s shares\n", domain.FormatUnits(res.SharesMinted, basketmath.ShareDecimals))
	printJSON(res)
	return subcommands.ExitSuccess
}

type withdrawCmd struct {
	id     uint64
	user   string
	shares string
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "burn shares for a pro-rata slice of every vault" }
func (*withdrawCmd) Usage() string {
	return `withdraw -id <basket> -user <key> -shares <ui amount>
`
}

func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	f.Uint64Var(&c.id, "id", 0, "basket id")
	f.StringVar(&c.user, "user", "", "share holder (required)")
	f.StringVar(&c.shares, "shares", "", "shares to burn in UI units (required)")
}

func (c *withdrawCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	user, err := parseKey("user", c.user)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	shares, err := domain.ParseUnits(c.shares, basketmath.ShareDecimals)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}

	svc, err := openService()
	if err != nil {
		fail("opening ledger: %v", err)
		return subcommands.ExitFailure
	}
	defer svc.Stop()

	req, err := svc.WithdrawRequest(c.id, user, shares)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	res, err := svc.Withdraw(ctx, req)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	printJSON(res)
	return subcommands.ExitSuccess
}

type showCmd struct {
	id   int64
	user string
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "print baskets, balances and share holdings" }
func (*showCmd) Usage() string {
	return `show [-id <basket>] [-user <key>]

  Without -id every basket is printed. With -user the user's asset and
  share balances of the basket are printed too.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", -1, "basket id")
	f.StringVar(&c.user, "user", "", "also print this user's balances")
}

func (c *showCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := openService()
	if err != nil {
		fail("opening ledger: %v", err)
		return subcommands.ExitFailure
	}
	defer svc.Stop()

	if c.id < 0 {
		views, err := svc.Views()
		if err != nil {
			fail("%v", err)
			return subcommands.ExitFailure
		}
		printJSON(views)
		return subcommands.ExitSuccess
	}

	view, err := svc.View(uint64(c.id))
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	printJSON(view)

	if c.user == "" {
		return subcommands.ExitSuccess
	}
	user, err := parseKey("user", c.user)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	for _, t := range view.Tokens {
		bal, _ := svc.Balance(user, t.Mint)
		fmt.Printf("%s  %s\n", t.Mint, domain.FormatUnits(bal, t.Decimals))
	}
	shares, _ := svc.Balance(user, view.ShareMint)
	fmt.Printf("shares  %s\n", domain.FormatUnits(shares, basketmath.ShareDecimals))
	return subcommands.ExitSuccess
}
