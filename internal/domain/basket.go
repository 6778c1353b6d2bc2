package domain

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

const (
	// MaxTokensPerBasket is the fixed asset capacity of a basket record.
	MaxTokensPerBasket = 10
	MaxNameLen         = 32
	CurrentVersion     = 1

	// BasketAccountSize is the encoded size of a Basket body (without discriminator).
	BasketAccountSize = 144
)

// Config is the global protocol configuration singleton.
type Config struct {
	Admin             solana.PublicKey
	WhitelistAuth     solana.PublicKey
	FeeBps            uint16
	ComplianceEnabled bool
	Version           uint8
	Bump              uint8
}

// Basket is the per-pool record. The layout is fixed-size: assets are counted
// by TokenCount and bounded by MaxTokensPerBasket, the registrations
// themselves live in separate BasketToken records.
type Basket struct {
	Owner              solana.PublicKey
	ShareMint          solana.PublicKey
	VaultAuthority     solana.PublicKey
	BasketID           uint64
	Name               [MaxNameLen]byte
	FeeBpsOverride     uint16
	HasFeeOverride     uint8
	TokenCount         uint8
	Version            uint8
	BasketBump         uint8
	VaultAuthorityBump uint8
	MintAuthorityBump  uint8
}

func (b *Basket) EffectiveFeeBps(globalFeeBps uint16) uint16 {
	if b.HasFeeOverride == 1 {
		return b.FeeBpsOverride
	}
	return globalFeeBps
}

// FeeOverride returns the per-basket fee and whether one is set.
func (b *Basket) FeeOverride() (uint16, bool) {
	return b.FeeBpsOverride, b.HasFeeOverride == 1
}

func (b *Basket) NameString() string {
	return string(bytes.TrimRight(b.Name[:], "\x00"))
}

// BasketToken registers one underlying mint into one basket. Vault and fee
// vault are fixed at registration time.
type BasketToken struct {
	Basket      solana.PublicKey
	Mint        solana.PublicKey
	VaultAta    solana.PublicKey
	FeeVaultAta solana.PublicKey
	Decimals    uint8
	Enabled     bool
	Bump        uint8
}

// UserAllowList is the per-(basket, user) compliance gate. A missing record
// means "not allowed".
type UserAllowList struct {
	Basket  solana.PublicKey
	User    solana.PublicKey
	Allowed bool
	Bump    uint8
}
