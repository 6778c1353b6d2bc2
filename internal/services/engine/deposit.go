package engine

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/metrics"
	"github.com/hxuan190/basket-engine/internal/registry"
	"github.com/hxuan190/basket-engine/internal/services/authority"
	"github.com/hxuan190/basket-engine/internal/services/basketmath"
	"github.com/hxuan190/basket-engine/internal/services/legs"
)

// Deposit takes one amount of every registered asset, skims the fee, moves
// the net into the vaults and mints shares priced against the vault values
// before the call.
func (e *Engine) Deposit(ctx context.Context, req DepositRequest) (res *DepositResult, err error) {
	start := time.Now()
	defer func() { e.observe("deposit", req.BasketID, req.User, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(req.BasketID)
	defer unlock()

	tx := e.ledger.Begin()
	defer tx.Rollback()
	lookup := e.registry.Within(tx)

	cfg, err := lookup.Config()
	if err != nil {
		return nil, err
	}
	basket, basketAddr, err := lookup.Basket(req.BasketID)
	if err != nil {
		return nil, err
	}

	numTokens := len(req.Amounts)
	if numTokens != int(basket.TokenCount) {
		return nil, domain.ErrIncompleteWithdrawal
	}
	if len(req.Records) != legs.ExpectedLen(numTokens, legs.DepositStride) {
		return nil, domain.ErrInvalidRemainingAccounts
	}
	if !req.ShareMint.Equals(basket.ShareMint) {
		return nil, domain.ErrShareMintMismatch
	}
	if err := authority.AssertDerived(e.deriver.ProgramID(), common.MintAuthoritySeed, basket.BasketID, basket.MintAuthorityBump, req.MintAuthority, domain.ErrInvalidBasketWiring); err != nil {
		return nil, err
	}
	if err := checkCompliance(cfg, lookup, basketAddr, req); err != nil {
		return nil, err
	}
	feeBps := basket.EffectiveFeeBps(cfg.FeeBps)

	shareAta, err := userShareAccount(req.User, req.ShareMint, req.UserShareAta)
	if err != nil {
		return nil, err
	}
	if err := tx.InitAccountIfNeeded(shareAta, req.ShareMint, req.User); err != nil {
		return nil, err
	}

	order, err := e.registrationOrder(req.BasketID, basket.TokenCount)
	if err != nil {
		return nil, err
	}
	resolved, err := legs.ResolveDeposit(req.Records, order, basketAddr, lookup)
	if err != nil {
		return nil, err
	}
	metrics.LegsPerCall.Observe(float64(len(resolved)))

	shareMint, err := tx.Mint(req.ShareMint)
	if err != nil {
		return nil, err
	}
	totalSupply := shareMint.Supply

	// Every vault is read before the first transfer of this call.
	totalVaultValue := uint256.NewInt(0)
	for _, leg := range resolved {
		vault, err := tx.TokenAccount(leg.VaultAta)
		if err != nil {
			return nil, domain.ErrInvalidBasketWiring
		}
		normalized, err := basketmath.NormalizeToShares(vault.Amount, leg.Registration.Decimals)
		if err != nil {
			return nil, err
		}
		if totalVaultValue, err = basketmath.CheckedAdd128(totalVaultValue, normalized); err != nil {
			return nil, err
		}
	}

	var totalShares uint64
	amounts := make([]domain.LegAmount, 0, numTokens)
	for i, leg := range resolved {
		amount := req.Amounts[i]
		if amount == 0 {
			return nil, domain.ErrZeroDeposit
		}
		net, fee, err := basketmath.SplitFee(amount, feeBps)
		if err != nil {
			return nil, err
		}

		decimals := leg.Registration.Decimals
		if err := tx.TransferChecked(leg.UserAta, leg.VaultAta, leg.Mint, req.User, net, decimals); err != nil {
			return nil, err
		}
		if fee > 0 {
			if err := tx.TransferChecked(leg.UserAta, leg.FeeVaultAta, leg.Mint, req.User, fee, decimals); err != nil {
				return nil, err
			}
		}

		normalized, err := basketmath.NormalizeToShares(net, decimals)
		if err != nil {
			return nil, err
		}
		shares, err := basketmath.SharesForDeposit(normalized, totalSupply, totalVaultValue)
		if err != nil {
			return nil, err
		}
		if totalShares, err = basketmath.CheckedAdd64(totalShares, shares); err != nil {
			return nil, err
		}
		amounts = append(amounts, domain.LegAmount{Mint: leg.Mint, Amount: net, Fee: fee})
	}

	if totalShares == 0 {
		return nil, domain.ErrZeroSharesMinted
	}
	if err := tx.MintTo(req.ShareMint, shareAta, req.MintAuthority, totalShares); err != nil {
		return nil, err
	}

	event := tx.Emit(domain.EventDepositCompleted, &domain.DepositCompleted{
		Basket:       basketAddr,
		User:         req.User,
		SharesMinted: totalShares,
		Legs:         amounts,
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.SharesMinted.WithLabelValues(basketLabel(req.BasketID)).Add(float64(totalShares))
	for _, a := range amounts {
		if a.Fee > 0 {
			metrics.FeesCollected.WithLabelValues(a.Mint.String()).Add(float64(a.Fee))
		}
	}
	log.Info().
		Uint64("basket_id", req.BasketID).
		Str("user", req.User.String()).
		Uint64("shares_minted", totalShares).
		Uint16("fee_bps", feeBps).
		Msg("[engine] deposit completed")

	return &DepositResult{
		EventID:         event.ID,
		Basket:          basketAddr,
		SharesMinted:    totalShares,
		FeeBps:          feeBps,
		TotalVaultValue: totalVaultValue.Dec(),
		Legs:            amounts,
	}, nil
}

// checkCompliance applies the allow list when compliance is enabled
// globally. A missing or foreign entry counts as not allowed.
func checkCompliance(cfg *domain.Config, lookup registry.Lookup, basketAddr solana.PublicKey, req DepositRequest) error {
	if !cfg.ComplianceEnabled {
		return nil
	}
	if req.AllowList == nil {
		return domain.ErrComplianceDenied
	}
	entry, err := lookup.AllowList(*req.AllowList)
	if err != nil {
		return domain.ErrComplianceDenied
	}
	if !entry.Allowed || !entry.Basket.Equals(basketAddr) || !entry.User.Equals(req.User) {
		return domain.ErrComplianceDenied
	}
	return nil
}
