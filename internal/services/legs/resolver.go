// Package legs turns the flat, caller-supplied record sequence of a deposit
// or withdrawal into per-asset legs. Nothing in the sequence is trusted until
// it has been compared with the registration stored for that asset, and the
// legs must name the basket's registrations once each, in registration order.
package legs

import (
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/basket-engine/internal/domain"
)

const (
	// DepositStride is [BasketToken, Mint, UserATA, VaultATA, FeeVaultATA].
	DepositStride = 5
	// WithdrawStride is [BasketToken, Mint, VaultATA, UserATA].
	WithdrawStride = 4
)

// AccountLoader returns the raw data stored at an address.
type AccountLoader interface {
	AccountData(key solana.PublicKey) ([]byte, error)
}

type DepositLeg struct {
	RegistrationKey solana.PublicKey
	Registration    *domain.BasketToken
	Mint            solana.PublicKey
	UserAta         solana.PublicKey
	VaultAta        solana.PublicKey
	FeeVaultAta     solana.PublicKey
}

type WithdrawLeg struct {
	RegistrationKey solana.PublicKey
	Registration    *domain.BasketToken
	Mint            solana.PublicKey
	VaultAta        solana.PublicKey
	UserAta         solana.PublicKey
}

// ExpectedLen returns numAssets*stride.
func ExpectedLen(numAssets, stride int) int {
	return numAssets * stride
}

// loadRegistration decodes the record at key and checks it belongs to basket
// and is enabled.
func loadRegistration(loader AccountLoader, key, basket solana.PublicKey) (*domain.BasketToken, error) {
	data, err := loader.AccountData(key)
	if err != nil {
		return nil, err
	}
	reg, err := domain.DecodeBasketToken(data)
	if err != nil {
		return nil, err
	}
	if !reg.Basket.Equals(basket) {
		return nil, domain.ErrInvalidBasketWiring
	}
	if !reg.Enabled {
		return nil, domain.ErrTokenNotEnabled
	}
	return reg, nil
}

// checkOrder fails unless the group names want, the registration that
// belongs at this position.
func checkOrder(key, want solana.PublicKey) error {
	if !key.Equals(want) {
		return domain.ErrInvalidBasketWiring
	}
	return nil
}

// ResolveDepositLeg validates the i-th deposit group against want, the i-th
// registration of the basket.
func ResolveDepositLeg(records []solana.PublicKey, i int, want, basket solana.PublicKey, loader AccountLoader) (*DepositLeg, error) {
	base := i * DepositStride
	if base+DepositStride > len(records) {
		return nil, domain.ErrInvalidRemainingAccounts
	}
	group := records[base : base+DepositStride]

	reg, err := loadRegistration(loader, group[0], basket)
	if err != nil {
		return nil, err
	}
	if err := checkOrder(group[0], want); err != nil {
		return nil, err
	}
	if !group[1].Equals(reg.Mint) {
		return nil, domain.ErrMintConfigMismatch
	}
	if !group[3].Equals(reg.VaultAta) {
		return nil, domain.ErrInvalidBasketWiring
	}
	if !group[4].Equals(reg.FeeVaultAta) {
		return nil, domain.ErrInvalidBasketWiring
	}

	return &DepositLeg{
		RegistrationKey: group[0],
		Registration:    reg,
		Mint:            group[1],
		UserAta:         group[2],
		VaultAta:        group[3],
		FeeVaultAta:     group[4],
	}, nil
}

// ResolveWithdrawLeg validates the i-th withdrawal group.
func ResolveWithdrawLeg(records []solana.PublicKey, i int, want, basket solana.PublicKey, loader AccountLoader) (*WithdrawLeg, error) {
	base := i * WithdrawStride
	if base+WithdrawStride > len(records) {
		return nil, domain.ErrIncompleteWithdrawal
	}
	group := records[base : base+WithdrawStride]

	reg, err := loadRegistration(loader, group[0], basket)
	if err != nil {
		return nil, err
	}
	if err := checkOrder(group[0], want); err != nil {
		return nil, err
	}
	if !group[1].Equals(reg.Mint) {
		return nil, domain.ErrMintConfigMismatch
	}
	if !group[2].Equals(reg.VaultAta) {
		return nil, domain.ErrInvalidBasketWiring
	}

	return &WithdrawLeg{
		RegistrationKey: group[0],
		Registration:    reg,
		Mint:            group[1],
		VaultAta:        group[2],
		UserAta:         group[3],
	}, nil
}

// ResolveDeposit resolves one deposit leg per entry of order, the basket's
// registration keys in registration order. It fails on the first group that
// does not match its registration, so a repeated or reordered leg is
// rejected.
func ResolveDeposit(records, order []solana.PublicKey, basket solana.PublicKey, loader AccountLoader) ([]DepositLeg, error) {
	numAssets := len(order)
	if len(records) != ExpectedLen(numAssets, DepositStride) {
		return nil, domain.ErrInvalidRemainingAccounts
	}
	out := make([]DepositLeg, 0, numAssets)
	for i, want := range order {
		leg, err := ResolveDepositLeg(records, i, want, basket, loader)
		if err != nil {
			return nil, err
		}
		out = append(out, *leg)
	}
	return out, nil
}

// ResolveWithdraw resolves one withdrawal leg per entry of order.
func ResolveWithdraw(records, order []solana.PublicKey, basket solana.PublicKey, loader AccountLoader) ([]WithdrawLeg, error) {
	numAssets := len(order)
	if len(records) != ExpectedLen(numAssets, WithdrawStride) {
		return nil, domain.ErrIncompleteWithdrawal
	}
	out := make([]WithdrawLeg, 0, numAssets)
	for i, want := range order {
		leg, err := ResolveWithdrawLeg(records, i, want, basket, loader)
		if err != nil {
			return nil, err
		}
		out = append(out, *leg)
	}
	return out, nil
}
