package service

import "errors"

// Verification failures are terminal signals for the caller; none of them
// leave any state behind.
var (
	ErrInvalidAmount       = errors.New("amount must be a positive quantity")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvoiceNotPending   = errors.New("invoice is not pending")
	ErrTxAlreadyConsumed   = errors.New("transaction hash was already consumed")
	ErrTransactionNotFound = errors.New("no settled transaction found on the ledger")
	ErrPaymentInsufficient = errors.New("transferred amount is less than the invoiced amount")
	ErrPaymentMismatch     = errors.New("payment does not match the invoice terms")
	ErrBadProof            = errors.New("proof token is malformed or forged")
	ErrProofNotFound       = errors.New("access proof not found")
)
