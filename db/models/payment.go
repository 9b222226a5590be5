package models

import (
	"time"
)

// Payment records a ledger transaction that has been consumed to settle an
// invoice. The unique TxHash column is the replay defense: a settled
// transaction can authorize at most one invoice, ever.
type Payment struct {
	ID         int64     `json:"id" bun:",pk,autoincrement"`
	TxHash     string    `json:"tx_hash" bun:",notnull,unique" validate:"required"`
	PaymentID  string    `json:"payment_id" bun:",notnull" validate:"required"`
	Payer      string    `json:"payer" bun:",notnull"`
	Amount     int64     `json:"amount"`
	VerifiedAt time.Time `json:"verified_at" bun:",nullzero,notnull,default:current_timestamp"`
}
