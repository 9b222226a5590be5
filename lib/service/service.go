package service

import (
	"github.com/labstack/gommon/random"
	"github.com/pertoken-app/paygate/common"
	"github.com/pertoken-app/paygate/db/models"
	"github.com/pertoken-app/paygate/ledger"
	"github.com/pertoken-app/paygate/rabbitmq"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

const alphaNumBytes = random.Alphanumeric

type PaygateService struct {
	Config         *Config
	DB             *bun.DB
	Ledger         ledger.LedgerClientWrapper
	Logger         *lecho.Logger
	RabbitMQClient rabbitmq.Client
	InvoicePubSub  *Pubsub
}

// GeneratePaymentID returns a fresh caller-facing invoice identifier.
// 32 random alphanumeric bytes make collisions with any prior id,
// including expired ones, practically impossible.
func (svc *PaygateService) GeneratePaymentID() string {
	return common.PaymentIDPrefix + random.String(32, alphaNumBytes)
}

// SubscribeInvoiceEvents funnels every invoice lifecycle event into a single
// channel, for the rabbitmq publisher.
func (svc *PaygateService) SubscribeInvoiceEvents() (chan models.Invoice, error) {
	events := make(chan models.Invoice)
	svc.InvoicePubSub.Subscribe(common.InvoiceEventCreated, events)
	svc.InvoicePubSub.Subscribe(common.InvoiceEventPaid, events)
	svc.InvoicePubSub.Subscribe(common.InvoiceEventExpired, events)
	return events, nil
}
