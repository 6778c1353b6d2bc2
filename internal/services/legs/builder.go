package legs

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/basket-engine/internal/services/authority"
)

// BuildDepositRecords lays out the deposit record sequence a user has to
// submit for the given mints, in registration order.
func BuildDepositRecords(d *authority.Deriver, basket, vaultAuthority, user solana.PublicKey, mints []solana.PublicKey) ([]solana.PublicKey, error) {
	out := make([]solana.PublicKey, 0, len(mints)*DepositStride)
	for _, mint := range mints {
		reg, _, err := d.BasketTokenAddress(basket, mint)
		if err != nil {
			return nil, fmt.Errorf("basket token address for %s: %w", mint, err)
		}
		userAta, err := authority.AssociatedTokenAddress(user, mint)
		if err != nil {
			return nil, fmt.Errorf("user ata for %s: %w", mint, err)
		}
		vaultAta, err := authority.AssociatedTokenAddress(vaultAuthority, mint)
		if err != nil {
			return nil, fmt.Errorf("vault ata for %s: %w", mint, err)
		}
		feeVault, _, err := d.FeeVaultAddress(basket, mint)
		if err != nil {
			return nil, fmt.Errorf("fee vault for %s: %w", mint, err)
		}
		out = append(out, reg, mint, userAta, vaultAta, feeVault)
	}
	return out, nil
}

// BuildWithdrawRecords lays out the withdrawal record sequence.
func BuildWithdrawRecords(d *authority.Deriver, basket, vaultAuthority, user solana.PublicKey, mints []solana.PublicKey) ([]solana.PublicKey, error) {
	out := make([]solana.PublicKey, 0, len(mints)*WithdrawStride)
	for _, mint := range mints {
		reg, _, err := d.BasketTokenAddress(basket, mint)
		if err != nil {
			return nil, fmt.Errorf("basket token address for %s: %w", mint, err)
		}
		vaultAta, err := authority.AssociatedTokenAddress(vaultAuthority, mint)
		if err != nil {
			return nil, fmt.Errorf("vault ata for %s: %w", mint, err)
		}
		userAta, err := authority.AssociatedTokenAddress(user, mint)
		if err != nil {
			return nil, fmt.Errorf("user ata for %s: %w", mint, err)
		}
		out = append(out, reg, mint, vaultAta, userAta)
	}
	return out, nil
}
