package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Invoice is a payment request for a single gated resource.
// The PaymentID is the caller-facing identifier for its whole lifetime.
type Invoice struct {
	ID          int64        `json:"id" bun:",pk,autoincrement"`
	PaymentID   string       `json:"payment_id" bun:",notnull,unique" validate:"required"`
	ResourceRef string       `json:"resource_ref" bun:",notnull" validate:"required"`
	Amount      int64        `json:"amount" validate:"gt=0"`
	PayerHint   string       `json:"payer_hint,omitempty" bun:",nullzero"`
	Status      string       `json:"status" bun:",notnull,default:'pending'"`
	CreatedAt   time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	ExpiresAt   bun.NullTime `json:"expires_at" bun:",nullzero"`
	UpdatedAt   bun.NullTime `json:"updated_at"`
	SettledAt   bun.NullTime `json:"settled_at"`
}

func (i *Invoice) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		i.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Invoice)(nil)
