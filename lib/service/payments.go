package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/pertoken-app/paygate/common"
	"github.com/pertoken-app/paygate/db/models"
	"github.com/pertoken-app/paygate/ledger"
	"github.com/uptrace/bun"
)

// SubmitPayment verifies a settled ledger transaction against an invoice and,
// if every check passes, settles the invoice, consumes the transaction hash
// and mints the access proof. The three writes commit in a single database
// transaction: there is never a paid invoice without a consumption record or
// a proof, and a failed verification writes nothing at all.
func (svc *PaygateService) SubmitPayment(ctx context.Context, paymentID, txHash, claimedPayer string) (*models.AccessProof, error) {
	invoice, err := svc.FindInvoice(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	// expire lazily so a stale invoice is rejected even before the sweeper ran
	now := time.Now()
	if err = svc.ExpireIfStale(ctx, invoice, now); err != nil {
		return nil, err
	}
	if invoice.Status != common.InvoiceStatusPending {
		return nil, ErrInvoiceNotPending
	}

	consumed, err := svc.DB.NewSelect().
		Model((*models.Payment)(nil)).
		Where("tx_hash = ?", txHash).
		Exists(ctx)
	if err != nil {
		return nil, err
	}
	if consumed {
		return nil, ErrTxAlreadyConsumed
	}

	// The ledger is the ground truth for payer, recipient and amount.
	ledgerTx, err := svc.Ledger.ResolveTransaction(ctx, txHash)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if !ledgerTx.Settled {
		return nil, ErrTransactionNotFound
	}
	if ledgerTx.Recipient != svc.Ledger.GetReceivingAccount() {
		svc.Logger.Infof("Payment recipient mismatch payment_id:%s tx_hash:%s recipient:%s", paymentID, txHash, ledgerTx.Recipient)
		return nil, ErrPaymentMismatch
	}
	if invoice.PayerHint != "" && invoice.PayerHint != ledgerTx.Payer {
		svc.Logger.Infof("Payer hint mismatch payment_id:%s tx_hash:%s payer:%s", paymentID, txHash, ledgerTx.Payer)
		return nil, ErrPaymentMismatch
	}
	if claimedPayer != ledgerTx.Payer {
		svc.Logger.Infof("Claimed payer not corroborated by ledger payment_id:%s tx_hash:%s", paymentID, txHash)
		return nil, ErrPaymentMismatch
	}
	// overpayment is accepted, a stricter equality check would be brittle
	// against fee and rounding differences on the paying side
	if ledgerTx.Amount < invoice.Amount {
		svc.Logger.Infof("Payment insufficient payment_id:%s tx_hash:%s amount:%d required:%d", paymentID, txHash, ledgerTx.Amount, invoice.Amount)
		return nil, ErrPaymentInsufficient
	}

	// All checks passed. Settle the invoice, consume the transaction hash and
	// mint the proof in one DB transaction.
	tx, err := svc.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}

	invoice.Status = common.InvoiceStatusPaid
	invoice.SettledAt = bun.NullTime{Time: now}
	res, err := tx.NewUpdate().
		Model(invoice).
		Column("status", "settled_at", "updated_at").
		WherePK().
		Where("status = ?", common.InvoiceStatusPending).
		Exec(ctx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		// a concurrent submission settled or expired the invoice first
		tx.Rollback()
		return nil, ErrInvoiceNotPending
	}

	payment := models.Payment{
		TxHash:     txHash,
		PaymentID:  invoice.PaymentID,
		Payer:      ledgerTx.Payer,
		Amount:     ledgerTx.Amount,
		VerifiedAt: now,
	}
	_, err = tx.NewInsert().Model(&payment).Exec(ctx)
	if err != nil {
		tx.Rollback()
		// the unique index on tx_hash closes the race between the earlier
		// consumption check and this insert
		if isDuplicateKeyError(err) {
			return nil, ErrTxAlreadyConsumed
		}
		return nil, err
	}

	proof, err := svc.MintProof(ctx, tx, invoice, ledgerTx.Payer, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Commit the DB transaction. Done, everything worked
	err = tx.Commit()
	if err != nil {
		svc.Logger.Errorf("Failed to commit DB transaction payment_id:%s tx_hash:%s %v", paymentID, txHash, err)
		return nil, err
	}

	svc.Logger.Infof("Settled invoice payment_id:%s tx_hash:%s payer:%s amount:%d", invoice.PaymentID, txHash, ledgerTx.Payer, ledgerTx.Amount)
	svc.InvoicePubSub.Publish(common.InvoiceEventPaid, *invoice)

	return proof, nil
}

func (svc *PaygateService) FindPaymentByTxHash(ctx context.Context, txHash string) (*models.Payment, error) {
	var payment models.Payment

	err := svc.DB.NewSelect().Model(&payment).Where("tx_hash = ?", txHash).Limit(1).Scan(ctx)
	if err != nil {
		return &payment, err
	}
	return &payment, nil
}

func isDuplicateKeyError(err error) bool {
	// pgdriver reports SQLSTATE 23505, the sqlite shim a constraint message
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
