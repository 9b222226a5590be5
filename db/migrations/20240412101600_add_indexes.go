package migrations

import (
	"context"

	"github.com/pertoken-app/paygate/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {

		// one payment transaction can never settle two invoices
		if _, err := db.NewCreateIndex().
			Model((*models.Payment)(nil)).
			Index("payments_tx_hash_key").
			Column("tx_hash").
			Unique().
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
		// one proof row per resource per payer, refreshed on repayment
		if _, err := db.NewCreateIndex().
			Model((*models.AccessProof)(nil)).
			Index("access_proofs_resource_payer_key").
			Column("resource_ref", "payer").
			Unique().
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().
			Model((*models.Invoice)(nil)).
			Index("invoices_payment_id_key").
			Column("payment_id").
			Unique().
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}

		return nil
	}, nil)
}
