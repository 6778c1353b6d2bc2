package registry

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/ledger"
	"github.com/hxuan190/basket-engine/internal/services/authority"
)

type env struct {
	reg       *Registry
	ledger    *ledger.Ledger
	admin     solana.PublicKey
	whitelist solana.PublicKey
}

func newEnv(t *testing.T) *env {
	t.Helper()
	l := ledger.New(nil)
	e := &env{
		reg:       New(l, authority.NewDeriver(common.DefaultBasketProgramID), nil),
		ledger:    l,
		admin:     solana.NewWallet().PublicKey(),
		whitelist: solana.NewWallet().PublicKey(),
	}
	_, err := e.reg.InitConfig(e.admin, 30, e.whitelist, false)
	require.NoError(t, err)
	return e
}

func (e *env) newMint(t *testing.T, decimals uint8) solana.PublicKey {
	t.Helper()
	mint := solana.NewWallet().PublicKey()
	require.NoError(t, e.ledger.Update(func(tx *ledger.Tx) error {
		return tx.InitMint(mint, decimals, solana.NewWallet().PublicKey())
	}))
	return mint
}

func u16(v uint16) *uint16 { return &v }

func TestInitConfig(t *testing.T) {
	e := newEnv(t)
	cfg, err := e.reg.Config()
	require.NoError(t, err)
	assert.Equal(t, e.admin, cfg.Admin)
	assert.Equal(t, uint16(30), cfg.FeeBps)
	assert.Equal(t, uint8(domain.CurrentVersion), cfg.Version)

	_, err = e.reg.InitConfig(e.admin, 30, e.whitelist, false)
	assert.ErrorIs(t, err, ledger.ErrAlreadyInUse)

	_, err = New(ledger.New(nil), authority.NewDeriver(common.DefaultBasketProgramID), nil).InitConfig(e.admin, 9, e.whitelist, false)
	assert.ErrorIs(t, err, domain.ErrInvalidFee)
}

func TestSetConfig(t *testing.T) {
	e := newEnv(t)

	_, err := e.reg.SetConfig(solana.NewWallet().PublicKey(), ConfigUpdate{FeeBps: u16(20)})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = e.reg.SetConfig(e.admin, ConfigUpdate{FeeBps: u16(51)})
	assert.ErrorIs(t, err, domain.ErrInvalidFee)

	newAdmin := solana.NewWallet().PublicKey()
	enabled := true
	cfg, err := e.reg.SetConfig(e.admin, ConfigUpdate{FeeBps: u16(50), ComplianceEnabled: &enabled, NewAdmin: &newAdmin})
	require.NoError(t, err)
	assert.Equal(t, uint16(50), cfg.FeeBps)
	assert.True(t, cfg.ComplianceEnabled)
	assert.Equal(t, newAdmin, cfg.Admin)

	_, err = e.reg.SetConfig(e.admin, ConfigUpdate{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreateBasket(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		signer solana.PublicKey
		bname  string
		fee    *uint16
		want   error
	}{
		{"not admin", solana.NewWallet().PublicKey(), "x", nil, domain.ErrUnauthorized},
		{"name too long", e.admin, "0123456789012345678901234567890123", nil, domain.ErrNameTooLong},
		{"fee override out of range", e.admin, "x", u16(5), domain.ErrInvalidFee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.reg.CreateBasket(tt.signer, 1, tt.bname, tt.fee)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	b, addr, err := e.reg.CreateBasket(e.admin, 1, "Blue Chips", u16(10))
	require.NoError(t, err)
	assert.Equal(t, "Blue Chips", b.NameString())
	assert.Equal(t, uint16(10), b.EffectiveFeeBps(30))

	stored, gotAddr, err := e.reg.Basket(1)
	require.NoError(t, err)
	assert.Equal(t, addr, gotAddr)
	assert.Equal(t, b.ShareMint, stored.ShareMint)

	share, err := e.ledger.Mint(b.ShareMint)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), share.Decimals)
	mintAuth, _, err := e.reg.Deriver().FindMintAuthority(1)
	require.NoError(t, err)
	assert.Equal(t, mintAuth, share.MintAuthority)

	_, _, err = e.reg.CreateBasket(e.admin, 1, "again", nil)
	assert.ErrorIs(t, err, ledger.ErrAlreadyInUse)
	assert.Len(t, e.reg.Baskets(), 1)
}

func TestAddToken(t *testing.T) {
	e := newEnv(t)
	b, _, err := e.reg.CreateBasket(e.admin, 2, "two", nil)
	require.NoError(t, err)

	mintA := e.newMint(t, 6)
	mintB := e.newMint(t, 9)

	_, err = e.reg.AddToken(e.admin, 2, mintA, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, domain.ErrVaultAuthMismatch)

	_, err = e.reg.AddToken(solana.NewWallet().PublicKey(), 2, mintA, b.VaultAuthority)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	ra, err := e.reg.AddToken(e.admin, 2, mintA, b.VaultAuthority)
	require.NoError(t, err)
	rb, err := e.reg.AddToken(e.admin, 2, mintB, b.VaultAuthority)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), rb.Token.Decimals)

	_, err = e.reg.AddToken(e.admin, 2, mintA, b.VaultAuthority)
	assert.ErrorIs(t, err, ledger.ErrAlreadyInUse)

	stored, _, err := e.reg.Basket(2)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), stored.TokenCount)

	vault, err := e.ledger.TokenAccount(ra.Token.VaultAta)
	require.NoError(t, err)
	assert.Equal(t, b.VaultAuthority, vault.Owner)
	feeVault, err := e.ledger.TokenAccount(ra.Token.FeeVaultAta)
	require.NoError(t, err)
	assert.Equal(t, mintA, feeVault.Mint)

	tokens, err := e.reg.BasketTokens(2)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, mintA, tokens[0].Token.Mint)
	assert.Equal(t, mintB, tokens[1].Token.Mint)
}

func TestAddTokenCapacity(t *testing.T) {
	e := newEnv(t)
	b, _, err := e.reg.CreateBasket(e.admin, 3, "full", nil)
	require.NoError(t, err)
	for i := 0; i < domain.MaxTokensPerBasket; i++ {
		_, err := e.reg.AddToken(e.admin, 3, e.newMint(t, 6), b.VaultAuthority)
		require.NoError(t, err)
	}
	_, err = e.reg.AddToken(e.admin, 3, e.newMint(t, 6), b.VaultAuthority)
	assert.ErrorIs(t, err, domain.ErrMaxTokensExceeded)
}

func TestUpdateAllowList(t *testing.T) {
	e := newEnv(t)
	_, addr, err := e.reg.CreateBasket(e.admin, 4, "kyc", nil)
	require.NoError(t, err)
	user := solana.NewWallet().PublicKey()

	_, err = e.reg.UpdateAllowList(e.admin, 4, user, true)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = e.reg.UpdateAllowList(e.whitelist, 4, user, true)
	require.NoError(t, err)
	_, err = e.reg.UpdateAllowList(e.whitelist, 4, user, false)
	require.NoError(t, err)

	key, _, err := e.reg.Deriver().AllowListAddress(addr, user)
	require.NoError(t, err)
	entry, err := e.reg.AllowList(key)
	require.NoError(t, err)
	assert.False(t, entry.Allowed)
	assert.Equal(t, user, entry.User)
}

func TestVerifyBasketOwner(t *testing.T) {
	e := newEnv(t)
	b, _, err := e.reg.CreateBasket(e.admin, 5, "owned", nil)
	require.NoError(t, err)
	rt, err := e.reg.AddToken(e.admin, 5, e.newMint(t, 6), b.VaultAuthority)
	require.NoError(t, err)

	assert.NoError(t, e.reg.VerifyBasketOwner(5, e.admin, b.ShareMint, b.VaultAuthority, []solana.PublicKey{rt.Key}))
	assert.ErrorIs(t, e.reg.VerifyBasketOwner(5, solana.NewWallet().PublicKey(), b.ShareMint, b.VaultAuthority, nil), domain.ErrOwnerMismatch)
	assert.ErrorIs(t, e.reg.VerifyBasketOwner(5, e.admin, solana.NewWallet().PublicKey(), b.VaultAuthority, nil), domain.ErrShareMintMismatch)
	assert.ErrorIs(t, e.reg.VerifyBasketOwner(5, e.admin, b.ShareMint, solana.NewWallet().PublicKey(), nil), domain.ErrVaultAuthMismatch)

	other, _, err := e.reg.CreateBasket(e.admin, 6, "other", nil)
	require.NoError(t, err)
	foreign, err := e.reg.AddToken(e.admin, 6, e.newMint(t, 6), other.VaultAuthority)
	require.NoError(t, err)
	assert.ErrorIs(t, e.reg.VerifyBasketOwner(5, e.admin, b.ShareMint, b.VaultAuthority, []solana.PublicKey{foreign.Key}), domain.ErrMintConfigMismatch)
}
