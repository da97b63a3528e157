package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors for the transfer error taxonomy. Handlers branch on these
// with errors.Is; the structured types below add per-failure context and
// unwrap to their sentinel.
var (
	ErrMissingAccountID  = errors.New("missing account id")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrSameAccount       = errors.New("source and destination must differ")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountInactive   = errors.New("account inactive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTransferConflict  = errors.New("transfer retries exhausted")
	ErrUnrecoverable     = errors.New("transfer left in inconsistent state")

	ErrAccountExists   = errors.New("account already exists")
	ErrVersionConflict = errors.New("version conflict")
	ErrTransferMissing = errors.New("transfer not found")
)

// NotFoundError reports which account was missing.
type NotFoundError struct {
	AccountID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("account %s not found", e.AccountID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrAccountNotFound
}

// InactiveAccountError reports a soft-deleted account that was asked to
// participate in a transfer.
type InactiveAccountError struct {
	AccountID uuid.UUID
}

func (e *InactiveAccountError) Error() string {
	return fmt.Sprintf("account %s is inactive", e.AccountID)
}

func (e *InactiveAccountError) Unwrap() error {
	return ErrAccountInactive
}

// InsufficientFundsError carries the balance available at validation time
// alongside the requested amount.
type InsufficientFundsError struct {
	AccountID uuid.UUID
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("account %s has %s, requested %s", e.AccountID, e.Available, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// ReversalError means a debit committed, the credit failed, and the
// compensating write could not be applied. The source account is left
// debited and needs manual reconciliation.
type ReversalError struct {
	AccountID uuid.UUID
	Cause     error
}

func (e *ReversalError) Error() string {
	return fmt.Sprintf("failed to reverse debit on account %s: %v", e.AccountID, e.Cause)
}

func (e *ReversalError) Unwrap() error {
	return ErrUnrecoverable
}
