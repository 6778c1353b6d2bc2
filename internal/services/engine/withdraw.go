package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/ledger"
	"github.com/hxuan190/basket-engine/internal/metrics"
	"github.com/hxuan190/basket-engine/internal/services/authority"
	"github.com/hxuan190/basket-engine/internal/services/basketmath"
	"github.com/hxuan190/basket-engine/internal/services/legs"
)

// Withdraw burns shares and pays out the same fraction of every vault. No
// fee is charged on the way out.
func (e *Engine) Withdraw(ctx context.Context, req WithdrawRequest) (res *WithdrawResult, err error) {
	start := time.Now()
	defer func() { e.observe("withdraw", req.BasketID, req.User, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(req.BasketID)
	defer unlock()

	tx := e.ledger.Begin()
	defer tx.Rollback()
	lookup := e.registry.Within(tx)

	if _, err := lookup.Config(); err != nil {
		return nil, err
	}
	basket, basketAddr, err := lookup.Basket(req.BasketID)
	if err != nil {
		return nil, err
	}

	numTokens := int(basket.TokenCount)
	if len(req.Records) != legs.ExpectedLen(numTokens, legs.WithdrawStride) {
		return nil, domain.ErrIncompleteWithdrawal
	}

	shareAta, err := userShareAccount(req.User, req.ShareMint, req.UserShareAta)
	if err != nil {
		return nil, err
	}
	if req.SharesToBurn == 0 {
		return nil, domain.ErrInsufficientShares
	}
	balance, err := tx.TokenAccount(shareAta)
	switch {
	case errors.Is(err, ledger.ErrUninitializedAccount):
		return nil, domain.ErrInsufficientShares
	case err != nil:
		return nil, err
	case balance.Amount < req.SharesToBurn:
		return nil, domain.ErrInsufficientShares
	}

	if !req.ShareMint.Equals(basket.ShareMint) {
		return nil, domain.ErrShareMintMismatch
	}
	if err := authority.AssertDerived(e.deriver.ProgramID(), common.VaultAuthoritySeed, basket.BasketID, basket.VaultAuthorityBump, req.VaultAuthority, domain.ErrVaultAuthMismatch); err != nil {
		return nil, err
	}

	order, err := e.registrationOrder(req.BasketID, basket.TokenCount)
	if err != nil {
		return nil, err
	}
	resolved, err := legs.ResolveWithdraw(req.Records, order, basketAddr, lookup)
	if err != nil {
		return nil, err
	}
	metrics.LegsPerCall.Observe(float64(len(resolved)))

	shareMint, err := tx.Mint(req.ShareMint)
	if err != nil {
		return nil, err
	}
	totalSupply := shareMint.Supply

	if err := tx.Burn(req.ShareMint, shareAta, req.User, req.SharesToBurn); err != nil {
		return nil, err
	}

	amounts := make([]domain.LegAmount, 0, numTokens)
	for _, leg := range resolved {
		vault, err := tx.TokenAccount(leg.VaultAta)
		if err != nil {
			return nil, domain.ErrInvalidBasketWiring
		}
		out, err := basketmath.ProportionalPayout(vault.Amount, req.SharesToBurn, totalSupply)
		if err != nil {
			return nil, err
		}
		if out == 0 {
			continue
		}
		if err := tx.TransferChecked(leg.VaultAta, leg.UserAta, leg.Mint, req.VaultAuthority, out, leg.Registration.Decimals); err != nil {
			return nil, err
		}
		amounts = append(amounts, domain.LegAmount{Mint: leg.Mint, Amount: out})
	}

	event := tx.Emit(domain.EventWithdrawCompleted, &domain.WithdrawCompleted{
		Basket:       basketAddr,
		User:         req.User,
		SharesBurned: req.SharesToBurn,
		Legs:         amounts,
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.SharesBurned.WithLabelValues(basketLabel(req.BasketID)).Add(float64(req.SharesToBurn))
	log.Info().
		Uint64("basket_id", req.BasketID).
		Str("user", req.User.String()).
		Uint64("shares_burned", req.SharesToBurn).
		Int("legs_paid", len(amounts)).
		Msg("[engine] withdrawal completed")

	return &WithdrawResult{
		EventID:      event.ID,
		Basket:       basketAddr,
		SharesBurned: req.SharesToBurn,
		Legs:         amounts,
	}, nil
}
