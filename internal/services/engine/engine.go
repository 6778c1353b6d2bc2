// Package engine runs multi-asset deposits and withdrawals against a basket.
// Each call is validated in full, executed in one ledger transaction and
// committed only when every leg succeeded.
package engine

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/ledger"
	"github.com/hxuan190/basket-engine/internal/metrics"
	"github.com/hxuan190/basket-engine/internal/registry"
	"github.com/hxuan190/basket-engine/internal/services/authority"
)

type Engine struct {
	registry *registry.Registry
	ledger   *ledger.Ledger
	deriver  *authority.Deriver
	locks    *ledger.KeyedMutex
}

// New builds an engine that shares the registry's basket locks, so
// administrative writes and engine calls on one basket never interleave.
func New(reg *registry.Registry, l *ledger.Ledger) *Engine {
	return &Engine{
		registry: reg,
		ledger:   l,
		deriver:  reg.Deriver(),
		locks:    reg.Locks(),
	}
}

type DepositRequest struct {
	BasketID      uint64
	User          solana.PublicKey
	Amounts       []uint64
	ShareMint     solana.PublicKey
	MintAuthority solana.PublicKey
	// UserShareAta defaults to the user's associated account for ShareMint.
	UserShareAta solana.PublicKey
	// AllowList is the user's compliance entry; required when compliance is on.
	AllowList *solana.PublicKey
	Records   []solana.PublicKey
}

type DepositResult struct {
	EventID         string             `json:"eventId"`
	Basket          solana.PublicKey   `json:"basket"`
	SharesMinted    uint64             `json:"sharesMinted"`
	FeeBps          uint16             `json:"feeBps"`
	TotalVaultValue string             `json:"totalVaultValue"`
	Legs            []domain.LegAmount `json:"legs"`
}

type WithdrawRequest struct {
	BasketID       uint64
	User           solana.PublicKey
	SharesToBurn   uint64
	ShareMint      solana.PublicKey
	VaultAuthority solana.PublicKey
	UserShareAta   solana.PublicKey
	Records        []solana.PublicKey
}

type WithdrawResult struct {
	EventID      string             `json:"eventId"`
	Basket       solana.PublicKey   `json:"basket"`
	SharesBurned uint64             `json:"sharesBurned"`
	Legs         []domain.LegAmount `json:"legs"`
}

// registrationOrder returns the registration keys of basketID in the order
// they were added. Callers hold the basket lock, which AddToken also takes.
func (e *Engine) registrationOrder(basketID uint64, tokenCount uint8) ([]solana.PublicKey, error) {
	tokens, err := e.registry.BasketTokens(basketID)
	if err != nil {
		return nil, err
	}
	if len(tokens) != int(tokenCount) {
		return nil, domain.ErrInvalidBasketWiring
	}
	order := make([]solana.PublicKey, len(tokens))
	for i, t := range tokens {
		order[i] = t.Key
	}
	return order, nil
}

// userShareAccount resolves the share account of user and checks that a
// supplied one is the associated account.
func userShareAccount(user, shareMint, supplied solana.PublicKey) (solana.PublicKey, error) {
	expected, err := authority.AssociatedTokenAddress(user, shareMint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !supplied.IsZero() && !supplied.Equals(expected) {
		return solana.PublicKey{}, domain.ErrUserAtaMintMismatch
	}
	return expected, nil
}

func (e *Engine) observe(op string, basketID uint64, user solana.PublicKey, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	switch op {
	case "deposit":
		metrics.DepositDuration.Observe(elapsed)
	case "withdraw":
		metrics.WithdrawDuration.Observe(elapsed)
	}

	status := "success"
	if err != nil {
		status = "rejected"
		name, kind := "internal", "unknown"
		if be, ok := domain.AsBasketError(err); ok {
			name, kind = be.Name, be.Kind.String()
		} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			name, kind = "canceled", "context"
		}
		metrics.RejectedCalls.WithLabelValues(op, name, kind).Inc()
		log.Warn().
			Str("op", op).
			Uint64("basket_id", basketID).
			Str("user", user.String()).
			Str("error", name).
			Err(err).
			Msg("[engine] call rejected")
	}

	switch op {
	case "deposit":
		metrics.DepositRequests.WithLabelValues(status).Inc()
	case "withdraw":
		metrics.WithdrawRequests.WithLabelValues(status).Inc()
	}
}

func basketLabel(id uint64) string {
	return strconv.FormatUint(id, 10)
}
