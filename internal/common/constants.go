// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	TokenProgramID  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	ATAProgramID    = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	SystemProgramID = solana.SystemProgramID

	// DefaultBasketProgramID is the deployed basket program.
	DefaultBasketProgramID = solana.MustPublicKeyFromBase58("2rQ6Auaeqovph67yWxhFpuhitrJJkGU3jrZwUUSYJKs6")
)

const (
	ConfigSeed         = "config"
	BasketSeed         = "basket"
	BasketTokenSeed    = "basket_token"
	VaultAuthoritySeed = "vault_authority"
	MintAuthoritySeed  = "mint_authority"
	FeeVaultSeed       = "fee_vault"
	UserAllowSeed      = "user_allow"
)

const (
	FeeBpsMin uint16 = 10
	FeeBpsMax uint16 = 50
)
