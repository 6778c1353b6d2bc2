package registry

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/ledger"
	"github.com/hxuan190/basket-engine/internal/services/authority"
	"github.com/hxuan190/basket-engine/internal/services/basketmath"
)

func validFee(bps uint16) bool {
	return bps >= common.FeeBpsMin && bps <= common.FeeBpsMax
}

func encodeConfig(c *domain.Config) ([]byte, error) {
	return domain.EncodeAccount(domain.ConfigDiscriminator, c)
}

func encodeBasket(b *domain.Basket) ([]byte, error) {
	return domain.EncodeAccount(domain.BasketDiscriminator, b)
}

// InitConfig creates the global config with admin as its administrator.
func (r *Registry) InitConfig(admin solana.PublicKey, feeBps uint16, whitelistAuth solana.PublicKey, complianceEnabled bool) (*domain.Config, error) {
	if !validFee(feeBps) {
		return nil, domain.ErrInvalidFee
	}

	r.configMu.Lock()
	defer r.configMu.Unlock()

	addr, bump, err := r.deriver.ConfigAddress()
	if err != nil {
		return nil, err
	}
	cfg := &domain.Config{
		Admin:             admin,
		WhitelistAuth:     whitelistAuth,
		FeeBps:            feeBps,
		ComplianceEnabled: complianceEnabled,
		Version:           domain.CurrentVersion,
		Bump:              bump,
	}
	data, err := encodeConfig(cfg)
	if err != nil {
		return nil, err
	}

	err = r.ledger.Update(func(tx *ledger.Tx) error {
		if err := tx.CreateRecord(addr, data); err != nil {
			return err
		}
		tx.Emit(domain.EventConfigInitialized, &domain.ConfigInitialized{
			Admin:             admin,
			WhitelistAuth:     whitelistAuth,
			FeeBps:            feeBps,
			ComplianceEnabled: complianceEnabled,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("admin", admin.String()).Uint16("fee_bps", feeBps).Bool("compliance", complianceEnabled).Msg("[registry] config initialized")
	return cfg, nil
}

// ConfigUpdate carries the optional fields of SetConfig.
type ConfigUpdate struct {
	FeeBps            *uint16
	WhitelistAuth     *solana.PublicKey
	ComplianceEnabled *bool
	NewAdmin          *solana.PublicKey
}

// SetConfig applies the non-nil fields of u. Only the current admin may call it.
func (r *Registry) SetConfig(signer solana.PublicKey, u ConfigUpdate) (*domain.Config, error) {
	r.configMu.Lock()
	defer r.configMu.Unlock()

	var updated *domain.Config
	err := r.ledger.Update(func(tx *ledger.Tx) error {
		cfg, err := r.Within(tx).Config()
		if err != nil {
			return err
		}
		if !cfg.Admin.Equals(signer) {
			return domain.ErrUnauthorized
		}
		if u.FeeBps != nil {
			if !validFee(*u.FeeBps) {
				return domain.ErrInvalidFee
			}
			cfg.FeeBps = *u.FeeBps
		}
		if u.WhitelistAuth != nil {
			cfg.WhitelistAuth = *u.WhitelistAuth
		}
		if u.ComplianceEnabled != nil {
			cfg.ComplianceEnabled = *u.ComplianceEnabled
		}
		if u.NewAdmin != nil {
			cfg.Admin = *u.NewAdmin
		}

		addr, _, err := r.deriver.ConfigAddress()
		if err != nil {
			return err
		}
		data, err := encodeConfig(cfg)
		if err != nil {
			return err
		}
		if err := tx.PutRecord(addr, data); err != nil {
			return err
		}
		tx.Emit(domain.EventConfigUpdated, &domain.ConfigUpdated{
			FeeBps:            cfg.FeeBps,
			WhitelistAuth:     cfg.WhitelistAuth,
			ComplianceEnabled: cfg.ComplianceEnabled,
			NewAdmin:          cfg.Admin,
		})
		updated = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("admin", updated.Admin.String()).Uint16("fee_bps", updated.FeeBps).Msg("[registry] config updated")
	return updated, nil
}

// CreateBasket registers a new basket and its share mint. The share mint is
// owned by the basket's derived mint authority.
func (r *Registry) CreateBasket(signer solana.PublicKey, basketID uint64, name string, feeOverride *uint16) (*domain.Basket, solana.PublicKey, error) {
	if len(name) > domain.MaxNameLen {
		return nil, solana.PublicKey{}, domain.ErrNameTooLong
	}
	if feeOverride != nil && !validFee(*feeOverride) {
		return nil, solana.PublicKey{}, domain.ErrInvalidFee
	}

	unlock := r.locks.Lock(basketID)
	defer unlock()

	addr, basketBump, err := r.deriver.BasketAddress(basketID)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	vaultAuth, vaultBump, err := r.deriver.FindVaultAuthority(basketID)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	mintAuth, mintBump, err := r.deriver.FindMintAuthority(basketID)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	shareMint := solana.NewWallet().PublicKey()

	b := &domain.Basket{
		Owner:              signer,
		ShareMint:          shareMint,
		VaultAuthority:     vaultAuth,
		BasketID:           basketID,
		Version:            domain.CurrentVersion,
		BasketBump:         basketBump,
		VaultAuthorityBump: vaultBump,
		MintAuthorityBump:  mintBump,
	}
	copy(b.Name[:], name)
	if feeOverride != nil {
		b.FeeBpsOverride = *feeOverride
		b.HasFeeOverride = 1
	}

	err = r.ledger.Update(func(tx *ledger.Tx) error {
		cfg, err := r.Within(tx).Config()
		if err != nil {
			return err
		}
		if !cfg.Admin.Equals(signer) {
			return domain.ErrUnauthorized
		}
		data, err := encodeBasket(b)
		if err != nil {
			return err
		}
		if err := tx.CreateRecord(addr, data); err != nil {
			return err
		}
		if err := tx.InitMint(shareMint, basketmath.ShareDecimals, mintAuth); err != nil {
			return err
		}
		tx.Emit(domain.EventBasketCreated, &domain.BasketCreated{
			BasketID:  basketID,
			Owner:     signer,
			ShareMint: shareMint,
		})
		return nil
	})
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	log.Info().Uint64("basket_id", basketID).Str("basket", addr.String()).Str("share_mint", shareMint.String()).Msg("[registry] basket created")
	return b, addr, nil
}

// AddToken registers mint into a basket, opening its vault and fee vault
// under the basket's vault authority.
func (r *Registry) AddToken(signer solana.PublicKey, basketID uint64, mint, vaultAuthority solana.PublicKey) (*RegisteredToken, error) {
	unlock := r.locks.Lock(basketID)
	defer unlock()

	var out *RegisteredToken
	err := r.ledger.Update(func(tx *ledger.Tx) error {
		lookup := r.Within(tx)
		cfg, err := lookup.Config()
		if err != nil {
			return err
		}
		if !cfg.Admin.Equals(signer) {
			return domain.ErrUnauthorized
		}
		b, addr, err := lookup.Basket(basketID)
		if err != nil {
			return err
		}
		if !vaultAuthority.Equals(b.VaultAuthority) {
			return domain.ErrVaultAuthMismatch
		}
		if b.TokenCount >= domain.MaxTokensPerBasket {
			return domain.ErrMaxTokensExceeded
		}
		m, err := tx.Mint(mint)
		if err != nil {
			return fmt.Errorf("underlying mint %s: %w", mint, err)
		}

		key, bump, err := r.deriver.BasketTokenAddress(addr, mint)
		if err != nil {
			return err
		}
		vaultAta, err := authority.AssociatedTokenAddress(vaultAuthority, mint)
		if err != nil {
			return err
		}
		feeVault, _, err := r.deriver.FeeVaultAddress(addr, mint)
		if err != nil {
			return err
		}
		if err := tx.InitAccount(vaultAta, mint, vaultAuthority); err != nil {
			return fmt.Errorf("vault ata: %w", err)
		}
		if err := tx.InitAccount(feeVault, mint, vaultAuthority); err != nil {
			return fmt.Errorf("fee vault: %w", err)
		}

		bt := &domain.BasketToken{
			Basket:      addr,
			Mint:        mint,
			VaultAta:    vaultAta,
			FeeVaultAta: feeVault,
			Decimals:    m.Decimals,
			Enabled:     true,
			Bump:        bump,
		}
		data, err := domain.EncodeAccount(domain.BasketTokenDiscriminator, bt)
		if err != nil {
			return err
		}
		if err := tx.CreateRecord(key, data); err != nil {
			return err
		}

		b.TokenCount++
		bdata, err := encodeBasket(b)
		if err != nil {
			return err
		}
		if err := tx.PutRecord(addr, bdata); err != nil {
			return err
		}

		tx.Emit(domain.EventTokenAdded, &domain.TokenAdded{
			Basket:   addr,
			Mint:     mint,
			VaultAta: vaultAta,
		})
		out = &RegisteredToken{Key: key, Token: bt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint64("basket_id", basketID).Str("mint", mint.String()).Uint8("decimals", out.Token.Decimals).Msg("[registry] token added")
	return out, nil
}

// UpdateAllowList sets the compliance flag of user in a basket. Only the
// whitelist authority may call it.
func (r *Registry) UpdateAllowList(signer solana.PublicKey, basketID uint64, user solana.PublicKey, allowed bool) (*domain.UserAllowList, error) {
	unlock := r.locks.Lock(basketID)
	defer unlock()

	var out *domain.UserAllowList
	err := r.ledger.Update(func(tx *ledger.Tx) error {
		lookup := r.Within(tx)
		cfg, err := lookup.Config()
		if err != nil {
			return err
		}
		if !cfg.WhitelistAuth.Equals(signer) {
			return domain.ErrUnauthorized
		}
		_, addr, err := lookup.Basket(basketID)
		if err != nil {
			return err
		}
		key, bump, err := r.deriver.AllowListAddress(addr, user)
		if err != nil {
			return err
		}
		entry := &domain.UserAllowList{Basket: addr, User: user, Allowed: allowed, Bump: bump}
		data, err := domain.EncodeAccount(domain.UserAllowListDiscriminator, entry)
		if err != nil {
			return err
		}
		if err := tx.PutRecord(key, data); err != nil {
			return err
		}
		tx.Emit(domain.EventAllowListUpdated, &domain.AllowListUpdated{Basket: addr, User: user, Allowed: allowed})
		out = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint64("basket_id", basketID).Str("user", user.String()).Bool("allowed", allowed).Msg("[registry] allow list updated")
	return out, nil
}

// VerifyBasketOwner checks that a basket is wired as claimed: version,
// owner, share mint, vault authority and, optionally, that every given
// registration belongs to it and is enabled.
func (r *Registry) VerifyBasketOwner(basketID uint64, expectedOwner, shareMint, vaultAuthority solana.PublicKey, registrations []solana.PublicKey) error {
	b, addr, err := r.Basket(basketID)
	if err != nil {
		return err
	}
	if b.Version != domain.CurrentVersion {
		return domain.ErrUnsupportedVersion
	}
	if !b.Owner.Equals(expectedOwner) {
		return domain.ErrOwnerMismatch
	}
	if !b.ShareMint.Equals(shareMint) {
		return domain.ErrShareMintMismatch
	}
	if err := authority.AssertDerived(r.deriver.ProgramID(), common.VaultAuthoritySeed, b.BasketID, b.VaultAuthorityBump, vaultAuthority, domain.ErrVaultAuthMismatch); err != nil {
		return err
	}
	for _, key := range registrations {
		bt, err := r.AssetRegistration(key)
		if err != nil {
			return err
		}
		if !bt.Basket.Equals(addr) {
			return domain.ErrMintConfigMismatch
		}
		if !bt.Enabled {
			return domain.ErrTokenNotEnabled
		}
	}
	return nil
}
