package domain

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
)

type EventType string

const (
	EventConfigInitialized EventType = "ConfigInitialized"
	EventConfigUpdated     EventType = "ConfigUpdated"
	EventBasketCreated     EventType = "BasketCreated"
	EventTokenAdded        EventType = "TokenAdded"
	EventAllowListUpdated  EventType = "AllowListUpdated"
	EventDepositCompleted  EventType = "DepositCompleted"
	EventWithdrawCompleted EventType = "WithdrawCompleted"
)

// Event is a completion record. Payload is one of the typed records below.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type ConfigInitialized struct {
	Admin             solana.PublicKey `json:"admin"`
	WhitelistAuth     solana.PublicKey `json:"whitelistAuth"`
	FeeBps            uint16           `json:"feeBps"`
	ComplianceEnabled bool             `json:"complianceEnabled"`
}

type ConfigUpdated struct {
	FeeBps            uint16           `json:"feeBps"`
	WhitelistAuth     solana.PublicKey `json:"whitelistAuth"`
	ComplianceEnabled bool             `json:"complianceEnabled"`
	NewAdmin          solana.PublicKey `json:"newAdmin"`
}

type BasketCreated struct {
	BasketID  uint64           `json:"basketId"`
	Owner     solana.PublicKey `json:"owner"`
	ShareMint solana.PublicKey `json:"shareMint"`
}

type TokenAdded struct {
	Basket   solana.PublicKey `json:"basket"`
	Mint     solana.PublicKey `json:"mint"`
	VaultAta solana.PublicKey `json:"vaultAta"`
}

type AllowListUpdated struct {
	Basket  solana.PublicKey `json:"basket"`
	User    solana.PublicKey `json:"user"`
	Allowed bool             `json:"allowed"`
}

// LegAmount is what moved for one asset of a deposit or withdrawal.
type LegAmount struct {
	Mint   solana.PublicKey `json:"mint"`
	Amount uint64           `json:"amount"`
	Fee    uint64           `json:"fee,omitempty"`
}

type DepositCompleted struct {
	Basket       solana.PublicKey `json:"basket"`
	User         solana.PublicKey `json:"user"`
	SharesMinted uint64           `json:"sharesMinted"`
	Legs         []LegAmount      `json:"legs,omitempty"`
}

type WithdrawCompleted struct {
	Basket       solana.PublicKey `json:"basket"`
	User         solana.PublicKey `json:"user"`
	SharesBurned uint64           `json:"sharesBurned"`
	Legs         []LegAmount      `json:"legs,omitempty"`
}

// NewEventPayload returns an empty payload pointer for typ. Payloads are
// always carried as pointers.
func NewEventPayload(typ EventType) (any, error) {
	switch typ {
	case EventConfigInitialized:
		return &ConfigInitialized{}, nil
	case EventConfigUpdated:
		return &ConfigUpdated{}, nil
	case EventBasketCreated:
		return &BasketCreated{}, nil
	case EventTokenAdded:
		return &TokenAdded{}, nil
	case EventAllowListUpdated:
		return &AllowListUpdated{}, nil
	case EventDepositCompleted:
		return &DepositCompleted{}, nil
	case EventWithdrawCompleted:
		return &WithdrawCompleted{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", typ)
	}
}

// Basket returns the basket address an event refers to, if any.
func (e Event) Basket() (solana.PublicKey, bool) {
	switch p := e.Payload.(type) {
	case *TokenAdded:
		return p.Basket, true
	case *AllowListUpdated:
		return p.Basket, true
	case *DepositCompleted:
		return p.Basket, true
	case *WithdrawCompleted:
		return p.Basket, true
	default:
		return solana.PublicKey{}, false
	}
}

// User returns the user an event refers to, if any.
func (e Event) User() (solana.PublicKey, bool) {
	switch p := e.Payload.(type) {
	case *AllowListUpdated:
		return p.User, true
	case *DepositCompleted:
		return p.User, true
	case *WithdrawCompleted:
		return p.User, true
	default:
		return solana.PublicKey{}, false
	}
}
