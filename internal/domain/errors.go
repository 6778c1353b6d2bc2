package domain

import (
	"errors"
	"fmt"
)

// ErrorKind groups protocol failures by what the caller has to fix.
type ErrorKind uint8

const (
	KindAuthorization ErrorKind = iota
	KindInputValidation
	KindWiring
	KindArithmetic
	KindOutcome
	KindLedger
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindInputValidation:
		return "input_validation"
	case KindWiring:
		return "wiring"
	case KindArithmetic:
		return "arithmetic"
	case KindOutcome:
		return "outcome"
	case KindLedger:
		return "ledger"
	default:
		return "unknown"
	}
}

// BasketError is a terminal protocol failure. Every BasketError aborts the
// whole call; none of them is retried internally.
type BasketError struct {
	Code uint32
	Name string
	Msg  string
	Kind ErrorKind
}

func (e *BasketError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

const errorCodeOffset = 6000

func newBasketError(offset uint32, name, msg string, kind ErrorKind) *BasketError {
	return NewError(errorCodeOffset+offset, name, msg, kind)
}

// NewError builds an error outside the program's own code range, e.g. one
// raised by the token ledger.
func NewError(code uint32, name, msg string, kind ErrorKind) *BasketError {
	return &BasketError{Code: code, Name: name, Msg: msg, Kind: kind}
}

var (
	ErrUnauthorized             = newBasketError(0, "Unauthorized", "caller is not the required authority", KindAuthorization)
	ErrInvalidFee               = newBasketError(1, "InvalidFee", "fee basis points out of allowed range", KindInputValidation)
	ErrNameTooLong              = newBasketError(2, "NameTooLong", "basket name exceeds maximum length", KindInputValidation)
	ErrMaxTokensExceeded        = newBasketError(3, "MaxTokensExceeded", "basket has reached maximum token capacity", KindInputValidation)
	ErrMintNotWhitelisted       = newBasketError(4, "MintNotWhitelisted", "mint is not whitelisted for this basket", KindWiring)
	ErrTokenNotEnabled          = newBasketError(5, "TokenNotEnabled", "token is not enabled in this basket", KindWiring)
	ErrComplianceDenied         = newBasketError(6, "ComplianceDenied", "user is not on the compliance allow list", KindAuthorization)
	ErrZeroDeposit              = newBasketError(7, "ZeroDeposit", "cannot deposit zero tokens", KindInputValidation)
	ErrInsufficientShares       = newBasketError(8, "InsufficientShares", "insufficient share balance for withdrawal", KindInputValidation)
	ErrArithmeticOverflow       = newBasketError(9, "ArithmeticOverflow", "arithmetic overflow", KindArithmetic)
	ErrInvalidRemainingAccounts = newBasketError(10, "InvalidRemainingAccounts", "record sequence length does not match expected layout", KindInputValidation)
	ErrInvalidBasketWiring      = newBasketError(11, "InvalidBasketWiring", "records do not match expected derivations", KindWiring)
	ErrShareMintMismatch        = newBasketError(12, "ShareMintMismatch", "share mint does not match the basket's share mint", KindWiring)
	ErrVaultAuthMismatch        = newBasketError(13, "VaultAuthMismatch", "vault authority does not match expected derivation", KindWiring)
	ErrOwnerMismatch            = newBasketError(14, "OwnerMismatch", "basket owner does not match expected owner", KindAuthorization)
	ErrUnsupportedVersion       = newBasketError(15, "UnsupportedVersion", "unsupported protocol version", KindWiring)
	ErrMintConfigMismatch       = newBasketError(16, "MintConfigMismatch", "mint does not match the registered basket token", KindWiring)
	ErrIncompleteWithdrawal     = newBasketError(17, "IncompleteWithdrawal", "every basket token must be covered (no partial basket)", KindInputValidation)
	ErrZeroSharesMinted         = newBasketError(18, "ZeroSharesMinted", "deposit produced zero shares", KindOutcome)
	ErrUserAtaMintMismatch      = newBasketError(19, "UserAtaMintMismatch", "user account is not the associated account for the expected mint", KindWiring)
	ErrAccountNotFound          = newBasketError(20, "AccountNotFound", "record does not exist", KindWiring)
	ErrAccountDidNotDeserialize = newBasketError(21, "AccountDidNotDeserialize", "record data does not decode as the expected type", KindWiring)
)

// AllErrors lists every protocol error, in code order.
var AllErrors = []*BasketError{
	ErrUnauthorized, ErrInvalidFee, ErrNameTooLong, ErrMaxTokensExceeded,
	ErrMintNotWhitelisted, ErrTokenNotEnabled, ErrComplianceDenied, ErrZeroDeposit,
	ErrInsufficientShares, ErrArithmeticOverflow, ErrInvalidRemainingAccounts,
	ErrInvalidBasketWiring, ErrShareMintMismatch, ErrVaultAuthMismatch, ErrOwnerMismatch,
	ErrUnsupportedVersion, ErrMintConfigMismatch, ErrIncompleteWithdrawal,
	ErrZeroSharesMinted, ErrUserAtaMintMismatch, ErrAccountNotFound, ErrAccountDidNotDeserialize,
}

// AsBasketError unwraps err to a *BasketError if it carries one.
func AsBasketError(err error) (*BasketError, bool) {
	var be *BasketError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
