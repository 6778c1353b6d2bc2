package domain

import "github.com/gagliardetto/solana-go"

// TokenAccount is a ledger balance of one mint held by one owner.
type TokenAccount struct {
	Key    solana.PublicKey `json:"key"`
	Mint   solana.PublicKey `json:"mint"`
	Owner  solana.PublicKey `json:"owner"`
	Amount uint64           `json:"amount"`
}

// Mint is a ledger asset definition. MintAuthority is the only identity
// allowed to issue new units.
type Mint struct {
	Key           solana.PublicKey `json:"key"`
	Decimals      uint8            `json:"decimals"`
	Supply        uint64           `json:"supply"`
	MintAuthority solana.PublicKey `json:"mintAuthority"`
}
