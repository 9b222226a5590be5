package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pertoken-app/paygate/common"
	"github.com/pertoken-app/paygate/db/models"
)

type WebhookEvent struct {
	Event   string         `json:"event"`
	Invoice models.Invoice `json:"invoice"`
}

// StartWebhookSubscription forwards invoice lifecycle events to the
// configured webhook URL. This is the auditable record of every creation,
// settlement and expiry; the core never depends on delivery succeeding.
func (svc *PaygateService) StartWebhookSubscription(ctx context.Context) {

	svc.Logger.Infof("Starting webhook subscription with webhook url %s", svc.Config.WebhookUrl)
	createdInvoices := make(chan models.Invoice)
	paidInvoices := make(chan models.Invoice)
	expiredInvoices := make(chan models.Invoice)
	svc.InvoicePubSub.Subscribe(common.InvoiceEventCreated, createdInvoices)
	svc.InvoicePubSub.Subscribe(common.InvoiceEventPaid, paidInvoices)
	svc.InvoicePubSub.Subscribe(common.InvoiceEventExpired, expiredInvoices)
	for {
		select {
		case <-ctx.Done():
			return
		case created := <-createdInvoices:
			svc.postToWebhook(common.InvoiceEventCreated, created)
		case paid := <-paidInvoices:
			svc.postToWebhook(common.InvoiceEventPaid, paid)
		case expired := <-expiredInvoices:
			svc.postToWebhook(common.InvoiceEventExpired, expired)
		}
	}
}

func (svc *PaygateService) postToWebhook(event string, invoice models.Invoice) {

	payload := new(bytes.Buffer)
	err := json.NewEncoder(payload).Encode(WebhookEvent{Event: event, Invoice: invoice})
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	resp, err := http.Post(svc.Config.WebhookUrl, "application/json", payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}
