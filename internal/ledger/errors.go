package ledger

import "github.com/hxuan190/basket-engine/internal/domain"

// Token program failures, numbered like the on-chain token program.
var (
	ErrInsufficientFunds    = domain.NewError(1, "InsufficientFunds", "insufficient funds", domain.KindLedger)
	ErrMintMismatch         = domain.NewError(3, "MintMismatch", "account not associated with this mint", domain.KindLedger)
	ErrOwnerMismatch        = domain.NewError(4, "OwnerMismatch", "owner does not match", domain.KindLedger)
	ErrAlreadyInUse         = domain.NewError(6, "AlreadyInUse", "account or token already in use", domain.KindLedger)
	ErrUninitializedAccount = domain.NewError(9, "UninitializedState", "state is uninitialized", domain.KindLedger)
	ErrOverflow             = domain.NewError(14, "Overflow", "operation overflowed", domain.KindLedger)
	ErrMintDecimalsMismatch = domain.NewError(18, "MintDecimalsMismatch", "the provided decimals value different from the mint decimals", domain.KindLedger)

	// ErrTxClosed is returned when a committed or rolled back Tx is reused.
	ErrTxClosed = domain.NewError(100, "TxClosed", "transaction already closed", domain.KindLedger)
)
