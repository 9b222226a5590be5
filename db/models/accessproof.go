package models

import (
	"time"
)

// AccessProof certifies that a payer has satisfied a resource's payment
// requirement. One row per (resource_ref, payer); a later payment by the
// same payer for the same resource refreshes the row.
type AccessProof struct {
	ID          int64     `json:"id" bun:",pk,autoincrement"`
	ResourceRef string    `json:"resource_ref" bun:",notnull" validate:"required"`
	Payer       string    `json:"payer" bun:",notnull" validate:"required"`
	PaymentID   string    `json:"payment_id" bun:",notnull"`
	ProofToken  string    `json:"proof_token" bun:",notnull"`
	IssuedAt    time.Time `json:"issued_at" bun:",nullzero,notnull,default:current_timestamp"`
	ExpiresAt   time.Time `json:"expires_at" bun:",notnull"`
}
