package token

import "errors"

// Error taxonomy for ledger operations. Every failure aborts the whole call;
// callers match with errors.Is.
var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrContractPaused        = errors.New("token operations are paused")
	ErrSupplyCapExceeded     = errors.New("supply cap exceeded")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrLengthMismatch        = errors.New("length mismatch")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrAmountOverflow        = errors.New("amount overflow")
	ErrTransferRejected      = errors.New("transfer rejected")
	ErrReentrancyDetected    = errors.New("reentrancy detected")
)
