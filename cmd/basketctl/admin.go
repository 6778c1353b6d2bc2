package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/hxuan190/basket-engine/internal/registry"
)

var adminCommands = []subcommands.Command{
	&initConfigCmd{},
	&setConfigCmd{},
	&createBasketCmd{},
	&createMintCmd{},
	&addTokenCmd{},
	&allowCmd{},
}

type initConfigCmd struct {
	admin      string
	whitelist  string
	feeBps     uint
	compliance bool
}

func (*initConfigCmd) Name() string     { return "init-config" }
func (*initConfigCmd) Synopsis() string { return "initialize the protocol config" }
func (*initConfigCmd) Usage() string {
	return `init-config -admin <key> -fee <bps> [-whitelist <key>] [-compliance]

  Creates the config singleton. The fee must be within 10..50 bps. The
  whitelist authority defaults to the admin.
`
}

func (c *initConfigCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.admin, "admin", "", "admin key (required)")
	f.StringVar(&c.whitelist, "whitelist", "", "compliance list authority")
	f.UintVar(&c.feeBps, "fee", 30, "deposit fee in bps")
	f.BoolVar(&c.compliance, "compliance", false, "require an allow-list entry to deposit")
}

func (c *initConfigCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	admin, err := parseKey("admin", c.admin)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	wl := admin
	if c.whitelist != "" {
		if wl, err = parseKey("whitelist", c.whitelist); err != nil {
			fail("%v", err)
			return subcommands.ExitUsageError
		}
	}

	svc, err := openService()
	if err != nil {
		fail("opening ledger: %v", err)
		return subcommands.ExitFailure
	}
	defer svc.Stop()

	cfg, err := svc.InitConfig(admin, uint16(c.feeBps), wl, c.compliance)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	printJSON(cfg)
	return subcommands.ExitSuccess
}

type setConfigCmd struct {
	signer     string
	feeBps     int
	whitelist  string
	compliance string
	newAdmin   string
}

func (*setConfigCmd) Name() string     { return "set-config" }
func (*setConfigCmd) Synopsis() string { return "update the protocol config" }
func (*setConfigCmd) Usage() string {
	return `set-config -signer <admin> [-fee <bps>] [-whitelist <key>] [-compliance on|off] [-new-admin <key>]
`
}

func (c *setConfigCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.signer, "signer", "", "current admin (required)")
	f.IntVar(&c.feeBps, "fee", -1, "new deposit fee in bps")
	f.StringVar(&c.whitelist, "whitelist", "", "new compliance list authority")
	f.StringVar(&c.compliance, "compliance", "", "on or off")
	f.StringVar(&c.newAdmin, "new-admin", "", "hand over the admin role")
}

func (c *setConfigCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	signer, err := parseKey("signer", c.signer)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	var u registry.ConfigUpdate
	if c.feeBps >= 0 {
		fee := uint16(c.feeBps)
		u.FeeBps = &fee
	}
	if c.whitelist != "" {
		k, err := parseKey("whitelist", c.whitelist)
		if err != nil {
			fail("%v", err)
			return subcommands.ExitUsageError
		}
		u.WhitelistAuth = &k
	}
	if c.newAdmin != "" {
		k, err := parseKey("new-admin", c.newAdmin)
		if err != nil {
			fail("%v", err)
			return subcommands.ExitUsageError
		}
		u.NewAdmin = &k
	}
	switch c.compliance {
	case "":
	case "on", "off":
		on := c.compliance == "on"
		u.ComplianceEnabled = &on
	default:
		fail("-compliance must be on or off")
		return subcommands.ExitUsageError
	}

	svc, err := openService()
	if err != nil {
		fail("opening ledger: %v", err)
		return subcommands.ExitFailure
	}
	defer svc.Stop()

	cfg, err := svc.SetConfig(signer, u)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	printJSON(cfg)
	return subcommands.ExitSuccess
}

type createBasketCmd struct {
	signer string
	id     uint64
	name   string
	feeBps int
}

func (*createBasketCmd) Name() string     { return "create-basket" }
func (*createBasketCmd) Synopsis() string { return "create a basket and its share mint" }
func (*createBasketCmd) Usage() string {
	return `create-basket -signer <admin> -id <n> -name <name> [-fee <bps>]

  -fee overrides the global deposit fee for this basket.
`
}

func (c *createBasketCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.signer, "signer", "", "admin (required)")
	f.Uint64Var(&c.id, "id", 0, "basket id")
	f.StringVar(&c.name, "name", "", "basket name, up to 32 bytes (required)")
	f.IntVar(&c.feeBps, "fee", -1, "fee override in bps")
}

func (c *createBasketCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	signer, err := parseKey("signer", c.signer)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	var override *uint16
	if c.feeBps >= 0 {
		fee := uint16(c.feeBps)
		override = &fee
	}

	svc, err := openService()
	if err != nil {
		fail("opening ledger: %v", err)
		return subcommands.ExitFailure
	}
	defer svc.Stop()

	_, addr, err := svc.CreateBasket(signer, c.id, c.name, override)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	view, err := svc.View(c.id)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("created basket %d at %s\n", c.id, addr)
	printJSON(view)
	return subcommands.ExitSuccess
}

type createMintCmd struct {
	decimals  uint
	authority string
}

func (*createMintCmd) Name() string     { return "create-mint" }
func (*createMintCmd) Synopsis() string { return "create an asset mint in the ledger" }
func (*createMintCmd) Usage() string {
	return `create-mint -decimals <n> -authority <key>
`
}

func (c *createMintCmd) SetFlags(f *flag.FlagSet) {
	f.UintVar(&c.decimals, "decimals", 6, "mint decimals")
	f.StringVar(&c.authority, "authority", "", "mint authority (required)")
}

func (c *createMintCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	authority, err := parseKey("authority", c.authority)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	if c.decimals > 18 {
		fail("-decimals must be at most 18")
		return subcommands.ExitUsageError
	}

	svc, err := openService()
	if err != nil {
		fail("opening ledger: %v", err)
		return subcommands.ExitFailure
	}
	defer svc.Stop()

	mint, err := svc.CreateMint(uint8(c.decimals), authority)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Println(mint)
	return subcommands.ExitSuccess
}

type addTokenCmd struct {
	signer string
	id     uint64
	mint   string
}

func (*addTokenCmd) Name() string     { return "add-token" }
func (*addTokenCmd) Synopsis() string { return "register an asset into a basket" }
func (*addTokenCmd) Usage() string {
	return `add-token -signer <admin> -id <basket> -mint <mint>

  Opens the vault and fee vault of the asset. Registration order is the
  order deposits and withdrawals list their legs in.
`
}

func (c *addTokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.signer, "signer", "", "admin (required)")
	f.Uint64Var(&c.id, "id", 0, "basket id")
	f.StringVar(&c.mint, "mint", "", "asset mint (required)")
}

func (c *addTokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	signer, err := parseKey("signer", c.signer)
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

	b, _, err := svc.Registry().Basket(c.id)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	t, err := svc.AddToken(signer, c.id, mint, b.VaultAuthority)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("registered %s as %s\n", mint, t.Key)
	return subcommands.ExitSuccess
}

type allowCmd struct {
	signer string
	id     uint64
	user   string
	deny   bool
}

func (*allowCmd) Name() string     { return "allow" }
func (*allowCmd) Synopsis() string { return "set a user's compliance entry" }
func (*allowCmd) Usage() string {
	return `allow -signer <whitelist authority> -id <basket> -user <key> [-deny]
`
}

func (c *allowCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.signer, "signer", "", "whitelist authority (required)")
	f.Uint64Var(&c.id, "id", 0, "basket id")
	f.StringVar(&c.user, "user", "", "user (required)")
	f.BoolVar(&c.deny, "deny", false, "revoke instead of allow")
}

func (c *allowCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	signer, err := parseKey("signer", c.signer)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
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

	entry, err := svc.UpdateAllowList(signer, c.id, user, !c.deny)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	printJSON(entry)
	return subcommands.ExitSuccess
}
