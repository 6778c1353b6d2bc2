package basket

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/ledger"
	"github.com/hxuan190/basket-engine/internal/registry"
	"github.com/hxuan190/basket-engine/internal/services/authority"
	"github.com/hxuan190/basket-engine/internal/services/basketmath"
	"github.com/hxuan190/basket-engine/internal/services/legs"
)

type TokenView struct {
	Registration   solana.PublicKey `json:"registration"`
	Mint           solana.PublicKey `json:"mint"`
	Decimals       uint8            `json:"decimals"`
	Enabled        bool             `json:"enabled"`
	Vault          solana.PublicKey `json:"vault"`
	VaultBalance   uint64           `json:"vaultBalance"`
	VaultBalanceUI string           `json:"vaultBalanceUi"`
	FeeVault       solana.PublicKey `json:"feeVault"`
	FeeBalance     uint64           `json:"feeBalance"`
	FeeBalanceUI   string           `json:"feeBalanceUi"`
}

type View struct {
	Address        solana.PublicKey `json:"address"`
	BasketID       uint64           `json:"basketId"`
	Name           string           `json:"name"`
	Owner          solana.PublicKey `json:"owner"`
	ShareMint      solana.PublicKey `json:"shareMint"`
	VaultAuthority solana.PublicKey `json:"vaultAuthority"`
	FeeBps         uint16           `json:"feeBps"`
	HasFeeOverride bool             `json:"hasFeeOverride"`
	TokenCount     uint8            `json:"tokenCount"`
	ShareSupply    uint64           `json:"shareSupply"`
	ShareSupplyUI  string           `json:"shareSupplyUi"`
	Tokens         []TokenView      `json:"tokens"`
}

// View renders basket basketID with its vault and fee balances, all read
// from one committed state.
func (svc *Service) View(basketID uint64) (v *View, err error) {
	err = svc.ledger.View(func(r ledger.Reader) error {
		v, err = svc.view(svc.registry.At(r), r, basketID)
		return err
	})
	return v, err
}

func (svc *Service) Views() (out []*View, err error) {
	err = svc.ledger.View(func(r ledger.Reader) error {
		reg := svc.registry.At(r)
		entries := reg.Baskets()
		out = make([]*View, 0, len(entries))
		for _, e := range entries {
			v, err := svc.view(reg, r, e.Basket.BasketID)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

func (svc *Service) view(reg registry.Listing, r ledger.Reader, basketID uint64) (*View, error) {
	cfg, err := reg.Config()
	if err != nil {
		return nil, err
	}
	b, addr, err := reg.Basket(basketID)
	if err != nil {
		return nil, err
	}
	tokens, err := reg.BasketTokens(basketID)
	if err != nil {
		return nil, err
	}

	_, hasOverride := b.FeeOverride()
	v := &View{
		Address:        addr,
		BasketID:       b.BasketID,
		Name:           b.NameString(),
		Owner:          b.Owner,
		ShareMint:      b.ShareMint,
		VaultAuthority: b.VaultAuthority,
		FeeBps:         b.EffectiveFeeBps(cfg.FeeBps),
		HasFeeOverride: hasOverride,
		TokenCount:     b.TokenCount,
		Tokens:         make([]TokenView, 0, len(tokens)),
	}
	if m, err := r.Mint(b.ShareMint); err == nil {
		v.ShareSupply = m.Supply
	}
	v.ShareSupplyUI = domain.FormatUnits(v.ShareSupply, basketmath.ShareDecimals)

	for _, t := range tokens {
		tv := TokenView{
			Registration: t.Key,
			Mint:         t.Token.Mint,
			Decimals:     t.Token.Decimals,
			Enabled:      t.Token.Enabled,
			Vault:        t.Token.VaultAta,
			FeeVault:     t.Token.FeeVaultAta,
		}
		if a, err := r.TokenAccount(t.Token.VaultAta); err == nil {
			tv.VaultBalance = a.Amount
		}
		if a, err := r.TokenAccount(t.Token.FeeVaultAta); err == nil {
			tv.FeeBalance = a.Amount
		}
		tv.VaultBalanceUI = domain.FormatUnits(tv.VaultBalance, t.Token.Decimals)
		tv.FeeBalanceUI = domain.FormatUnits(tv.FeeBalance, t.Token.Decimals)
		v.Tokens = append(v.Tokens, tv)
	}
	return v, nil
}

// Records lays out the record sequence user has to submit for op
// ("deposit" or "withdraw") on basketID.
func (svc *Service) Records(basketID uint64, user solana.PublicKey, op string) ([]solana.PublicKey, error) {
	b, addr, err := svc.registry.Basket(basketID)
	if err != nil {
		return nil, err
	}
	tokens, err := svc.registry.BasketTokens(basketID)
	if err != nil {
		return nil, err
	}
	mints := make([]solana.PublicKey, len(tokens))
	for i, t := range tokens {
		mints[i] = t.Token.Mint
	}

	switch op {
	case "deposit":
		return legs.BuildDepositRecords(svc.registry.Deriver(), addr, b.VaultAuthority, user, mints)
	case "withdraw":
		return legs.BuildWithdrawRecords(svc.registry.Deriver(), addr, b.VaultAuthority, user, mints)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
}

// Balance is the amount user holds of mint in their associated account.
func (svc *Service) Balance(user, mint solana.PublicKey) (uint64, error) {
	ata, err := authority.AssociatedTokenAddress(user, mint)
	if err != nil {
		return 0, err
	}
	a, err := svc.ledger.TokenAccount(ata)
	if err != nil {
		return 0, nil
	}
	return a.Amount, nil
}
