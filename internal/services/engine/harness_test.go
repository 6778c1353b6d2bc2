package engine

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/ledger"
	"github.com/hxuan190/basket-engine/internal/registry"
	"github.com/hxuan190/basket-engine/internal/services/authority"
	"github.com/hxuan190/basket-engine/internal/services/legs"
)

const testBasketID = 1

type harness struct {
	t         testing.TB
	ledger    *ledger.Ledger
	registry  *registry.Registry
	engine    *Engine
	admin     solana.PublicKey
	whitelist solana.PublicKey
	faucet    solana.PublicKey

	basket     *domain.Basket
	basketAddr solana.PublicKey
	mintAuth   solana.PublicKey
	mints      []solana.PublicKey
	tokens     []registry.RegisteredToken
}

// newHarness builds a basket holding one mint per entry of decimals.
func newHarness(t testing.TB, decimals ...uint8) *harness {
	t.Helper()
	l := ledger.New(nil)
	reg := registry.New(l, authority.NewDeriver(common.DefaultBasketProgramID), nil)
	h := &harness{
		t:         t,
		ledger:    l,
		registry:  reg,
		engine:    New(reg, l),
		admin:     solana.NewWallet().PublicKey(),
		whitelist: solana.NewWallet().PublicKey(),
		faucet:    solana.NewWallet().PublicKey(),
	}
	_, err := reg.InitConfig(h.admin, 30, h.whitelist, false)
	require.NoError(t, err)

	h.basket, h.basketAddr, err = reg.CreateBasket(h.admin, testBasketID, "index", nil)
	require.NoError(t, err)
	h.mintAuth, _, err = reg.Deriver().FindMintAuthority(testBasketID)
	require.NoError(t, err)

	for _, d := range decimals {
		mint := solana.NewWallet().PublicKey()
		require.NoError(t, l.Update(func(tx *ledger.Tx) error {
			return tx.InitMint(mint, d, h.faucet)
		}))
		_, err := reg.AddToken(h.admin, testBasketID, mint, h.basket.VaultAuthority)
		require.NoError(t, err)
		h.mints = append(h.mints, mint)
	}
	h.tokens, err = reg.BasketTokens(testBasketID)
	require.NoError(t, err)
	return h
}

// fund opens the user's token accounts and credits each with the amount.
func (h *harness) fund(user solana.PublicKey, amounts ...uint64) {
	h.t.Helper()
	require.NoError(h.t, h.ledger.Update(func(tx *ledger.Tx) error {
		for i, mint := range h.mints {
			ata, err := authority.AssociatedTokenAddress(user, mint)
			if err != nil {
				return err
			}
			if err := tx.InitAccountIfNeeded(ata, mint, user); err != nil {
				return err
			}
			if i < len(amounts) && amounts[i] > 0 {
				if err := tx.Credit(ata, amounts[i]); err != nil {
					return err
				}
			}
		}
		return nil
	}))
}

func (h *harness) depositRequest(user solana.PublicKey, amounts ...uint64) DepositRequest {
	h.t.Helper()
	records, err := legs.BuildDepositRecords(h.registry.Deriver(), h.basketAddr, h.basket.VaultAuthority, user, h.mints)
	require.NoError(h.t, err)
	return DepositRequest{
		BasketID:      testBasketID,
		User:          user,
		Amounts:       amounts,
		ShareMint:     h.basket.ShareMint,
		MintAuthority: h.mintAuth,
		Records:       records,
	}
}

func (h *harness) withdrawRequest(user solana.PublicKey, shares uint64) WithdrawRequest {
	h.t.Helper()
	records, err := legs.BuildWithdrawRecords(h.registry.Deriver(), h.basketAddr, h.basket.VaultAuthority, user, h.mints)
	require.NoError(h.t, err)
	return WithdrawRequest{
		BasketID:       testBasketID,
		User:           user,
		SharesToBurn:   shares,
		ShareMint:      h.basket.ShareMint,
		VaultAuthority: h.basket.VaultAuthority,
		Records:        records,
	}
}

func (h *harness) balance(key solana.PublicKey) uint64 {
	h.t.Helper()
	a, err := h.ledger.TokenAccount(key)
	if err != nil {
		return 0
	}
	return a.Amount
}

func (h *harness) userBalance(user, mint solana.PublicKey) uint64 {
	h.t.Helper()
	ata, err := authority.AssociatedTokenAddress(user, mint)
	require.NoError(h.t, err)
	return h.balance(ata)
}

func (h *harness) shares(user solana.PublicKey) uint64 {
	return h.userBalance(user, h.basket.ShareMint)
}

func (h *harness) supply() uint64 {
	h.t.Helper()
	m, err := h.ledger.Mint(h.basket.ShareMint)
	require.NoError(h.t, err)
	return m.Supply
}

func (h *harness) vault(i int) uint64 {
	return h.balance(h.tokens[i].Token.VaultAta)
}

func (h *harness) feeVault(i int) uint64 {
	return h.balance(h.tokens[i].Token.FeeVaultAta)
}

func mustATA(t testing.TB, wallet, mint solana.PublicKey) solana.PublicKey {
	t.Helper()
	ata, err := authority.AssociatedTokenAddress(wallet, mint)
	require.NoError(t, err)
	return ata
}
