package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pertoken-app/paygate/common"
	"github.com/pertoken-app/paygate/db/models"
	"github.com/uptrace/bun"
)

func (svc *PaygateService) CreateInvoice(ctx context.Context, resourceRef string, amount int64, payerHint string) (*models.Invoice, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now()
	invoice := models.Invoice{
		PaymentID:   svc.GeneratePaymentID(),
		ResourceRef: resourceRef,
		Amount:      amount,
		PayerHint:   payerHint,
		Status:      common.InvoiceStatusPending,
		CreatedAt:   now,
		ExpiresAt:   bun.NullTime{Time: now.Add(time.Duration(svc.Config.InvoiceExpiry) * time.Second)},
	}

	_, err := svc.DB.NewInsert().Model(&invoice).Exec(ctx)
	if err != nil {
		return nil, err
	}

	svc.Logger.Infof("Created invoice payment_id:%s resource_ref:%s amount:%d", invoice.PaymentID, invoice.ResourceRef, invoice.Amount)
	svc.InvoicePubSub.Publish(common.InvoiceEventCreated, invoice)

	return &invoice, nil
}

func (svc *PaygateService) FindInvoice(ctx context.Context, paymentID string) (*models.Invoice, error) {
	var invoice models.Invoice

	err := svc.DB.NewSelect().Model(&invoice).Where("payment_id = ?", paymentID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// ExpireIfStale transitions a pending invoice whose validity window has
// elapsed to the terminal expired status. Calling it on an already expired
// or paid invoice is a no-op, never an error.
func (svc *PaygateService) ExpireIfStale(ctx context.Context, invoice *models.Invoice, now time.Time) error {
	if invoice.Status != common.InvoiceStatusPending {
		return nil
	}
	if invoice.ExpiresAt.IsZero() || now.Before(invoice.ExpiresAt.Time) {
		return nil
	}

	invoice.Status = common.InvoiceStatusExpired
	// the status guard keeps a concurrent settlement from being clobbered
	res, err := svc.DB.NewUpdate().
		Model(invoice).
		Column("status", "updated_at").
		WherePK().
		Where("status = ?", common.InvoiceStatusPending).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		// lost the race against SubmitPayment, reload the terminal status
		reloaded, err := svc.FindInvoice(ctx, invoice.PaymentID)
		if err != nil {
			return err
		}
		*invoice = *reloaded
		return nil
	}

	svc.Logger.Infof("Expired invoice payment_id:%s", invoice.PaymentID)
	svc.InvoicePubSub.Publish(common.InvoiceEventExpired, *invoice)
	return nil
}

// ExpireStaleInvoices is the background sweep over all pending invoices
// whose validity window has elapsed.
func (svc *PaygateService) ExpireStaleInvoices(ctx context.Context) (int, error) {
	staleInvoices := []models.Invoice{}
	err := svc.DB.NewSelect().
		Model(&staleInvoices).
		Where("status = ?", common.InvoiceStatusPending).
		Where("expires_at < ?", time.Now()).
		Scan(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	now := time.Now()
	for i := range staleInvoices {
		if err = svc.ExpireIfStale(ctx, &staleInvoices[i], now); err != nil {
			svc.Logger.Errorf("Failed to expire invoice payment_id:%s %v", staleInvoices[i].PaymentID, err)
			continue
		}
		expired++
	}
	return expired, nil
}
